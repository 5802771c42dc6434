package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/wakequeue/wakequeue/internal/core/domain"
	"go.uber.org/zap"
)

// ConsumeTaskCreated binds the nudge queue and feeds each event to handler.
// Events are acked even when the handler errors: the claim loop picks the
// task up on its next tick anyway, so redelivery would only cause churn.
func (q *queueService) ConsumeTaskCreated(ctx context.Context, handler func(task *domain.Task) error) error {
	if _, err := q.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if err := q.ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		return err
	}

	msgs, err := q.ch.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	q.log.Info("Started consuming task-created events", zap.String("queue", queueName))

	go func() {
		for d := range msgs {
			var task domain.Task
			if err := json.Unmarshal(d.Body, &task); err != nil {
				q.log.Error("Failed to unmarshal task event", zap.Error(err))
				d.Nack(false, false) // discard invalid message
				continue
			}

			if err := handler(&task); err != nil {
				q.log.Warn("Nudge handler failed", zap.String("task_id", task.ID), zap.Error(err))
			}
			d.Ack(false)
		}
	}()

	return nil
}
