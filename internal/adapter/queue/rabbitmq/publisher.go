// Package rabbitmq carries the task-created nudge channel between the API
// server and waking agents.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

const (
	exchangeName = "wakequeue.tasks"
	routingKey   = "task.created"
	queueName    = "wakequeue.created"
)

type queueService struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
}

// NewQueueService dials RabbitMQ with incremental backoff and declares the
// nudge exchange
func NewQueueService(url string, log *zap.Logger) (port.QueueService, error) {
	var conn *amqp.Connection
	var err error

	maxRetries := 10
	for i := 1; i <= maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			ch, chErr := conn.Channel()
			if chErr == nil {
				if declErr := ch.ExchangeDeclare(
					exchangeName,
					"direct",
					true,  // durable
					false, // auto-delete
					false, // internal
					false, // no-wait
					nil,
				); declErr != nil {
					conn.Close()
					return nil, declErr
				}
				return &queueService{
					conn: conn,
					ch:   ch,
					log:  log,
				}, nil
			}
			conn.Close()
			err = chErr
		}

		log.Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Int("attempt", i),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// PublishTaskCreated announces a freshly enqueued task. Agents treat it as
// a prompt to claim now; task state stays in Postgres either way.
func (q *queueService) PublishTaskCreated(ctx context.Context, task *domain.Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	err = q.ch.PublishWithContext(ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		q.log.Error("Failed to publish task-created event", zap.Error(err))
		return err
	}

	q.log.Debug("Published task-created event", zap.String("task_id", task.ID))
	return nil
}
