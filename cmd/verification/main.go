package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/wakequeue/wakequeue/config/logger"
	postgresConfig "github.com/wakequeue/wakequeue/config/storage/postgresql"
	redisConfig "github.com/wakequeue/wakequeue/config/storage/redis"
	config "github.com/wakequeue/wakequeue/config/utils"
	"github.com/wakequeue/wakequeue/internal/adapter/presence/prometheus"
	"github.com/wakequeue/wakequeue/internal/adapter/queue/rabbitmq"
	"github.com/wakequeue/wakequeue/internal/adapter/storage/postgres"
	redisAdapter "github.com/wakequeue/wakequeue/internal/adapter/storage/redis"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/service"
	"go.uber.org/zap"
)

// Infra smoke test: exercises every adapter against a running stack with a
// throwaway task. Not part of the services, safe to run repeatedly.
func main() {
	_ = godotenv.Load()

	appConfig := config.New()
	log := logger.Build(appConfig.Logger)
	ctx := context.Background()

	log.Info("Starting Verification...")

	// --- Postgres ---
	log.Info("--- Testing Postgres ---")
	dbService, err := postgresConfig.New(ctx, appConfig.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to DB", zap.Error(err))
	}
	if err := dbService.Migrate(); err != nil {
		log.Fatal("Failed to migrate", zap.Error(err))
	}

	repo := postgres.NewTaskRepository(dbService, log)
	tasks := service.NewTaskService(repo, nil, log)

	task, err := tasks.CreateTask(ctx, "aa-bb-cc-dd-ee-ff", "verification", "")
	if err != nil {
		log.Error("X Postgres: Create Task Failed", zap.Error(err))
	} else {
		log.Info("✓ Postgres: Create Task Success", zap.String("id", task.ID), zap.String("mac", task.MACAddress))
	}

	claimed, err := tasks.ClaimPending(ctx, 5)
	if err != nil {
		log.Error("X Postgres: Claim Failed", zap.Error(err))
	} else {
		log.Info("✓ Postgres: Claim Success", zap.Int("count", len(claimed)))
	}

	if task != nil {
		if done, err := tasks.ApplyNotify(ctx, task.ID, ""); err != nil {
			log.Error("X Postgres: Notify Failed", zap.Error(err))
		} else {
			log.Info("✓ Postgres: Notify Success", zap.String("status", string(done.Status)))
		}
	}

	// --- Redis ---
	log.Info("--- Testing Redis ---")
	cacheService, err := redisConfig.New(ctx, appConfig.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	registry := redisAdapter.NewAgentRegistry(cacheService.Client, log)
	agent := &domain.Agent{
		ID:            "verification-agent",
		Status:        domain.AgentStatusActive,
		LastHeartbeat: time.Now(),
	}

	if err := registry.RegisterAgent(ctx, agent); err != nil {
		log.Error("X Redis: Register Agent Failed", zap.Error(err))
	} else {
		log.Info("✓ Redis: Register Agent Success")
	}

	agents, err := registry.GetActiveAgents(ctx)
	if err != nil {
		log.Error("X Redis: Get Agents Failed", zap.Error(err))
	} else {
		log.Info("✓ Redis: Get Agents Success", zap.Int("Count", len(agents)))
	}

	seen := redisAdapter.NewPresenceCache(cacheService.Storage, time.Minute)
	if err := seen.MarkSeen("AA:BB:CC:DD:EE:FF"); err != nil {
		log.Error("X Redis: Presence Mark Failed", zap.Error(err))
	} else if ok, _ := seen.Seen("AA:BB:CC:DD:EE:FF"); ok {
		log.Info("✓ Redis: Presence Cache Success")
	} else {
		log.Error("X Redis: Presence Cache read-back missed")
	}

	// --- RabbitMQ ---
	log.Info("--- Testing RabbitMQ ---")
	if mq := appConfig.MQ; mq == nil || mq.Host == "" {
		log.Info("- RabbitMQ: not configured, skipping")
	} else {
		vhost := mq.Vhost
		if vhost == "" {
			vhost = "/"
		}
		amqpURL := fmt.Sprintf("amqp://%s:%s@%s:%s%s", mq.User, mq.Pass, mq.Host, mq.Port, vhost)

		queue, err := rabbitmq.NewQueueService(amqpURL, log)
		if err != nil {
			log.Error("X RabbitMQ: Connection Failed", zap.Error(err))
		} else if task != nil {
			if err := queue.PublishTaskCreated(ctx, task); err != nil {
				log.Error("X RabbitMQ: Publish Failed", zap.Error(err))
			} else {
				log.Info("✓ RabbitMQ: Publish Success")
			}
		}
	}

	// --- Prometheus ---
	log.Info("--- Testing Prometheus ---")
	if p := appConfig.Presence; p == nil || p.PrometheusURL == "" {
		log.Info("- Prometheus: not configured, skipping")
	} else {
		detector := prometheus.NewPresenceDetector(p.PrometheusURL, p.QueryTemplate, log)
		up, err := detector.Observe(ctx, "AA:BB:CC:DD:EE:FF")
		if err != nil {
			log.Warn("! Prometheus: Query Failed (Expected if no exporter data)", zap.Error(err))
		} else {
			log.Info("✓ Prometheus: Query Success", zap.Bool("observed", up))
		}
	}

	log.Info("Verification Complete.")
}
