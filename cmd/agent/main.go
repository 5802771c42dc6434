package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wakequeue/wakequeue/config/logger"
	postgresConfig "github.com/wakequeue/wakequeue/config/storage/postgresql"
	redisConfig "github.com/wakequeue/wakequeue/config/storage/redis"
	config "github.com/wakequeue/wakequeue/config/utils"
	"github.com/wakequeue/wakequeue/internal/adapter/presence/prometheus"
	"github.com/wakequeue/wakequeue/internal/adapter/queue/rabbitmq"
	"github.com/wakequeue/wakequeue/internal/adapter/storage/postgres"
	redisAdapter "github.com/wakequeue/wakequeue/internal/adapter/storage/redis"
	"github.com/wakequeue/wakequeue/internal/adapter/wol"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"github.com/wakequeue/wakequeue/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	rootCtx, rootCtxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCtxCancel()

	// 1. Init Config & Logger
	appConfig := config.New()
	log := logger.Build(appConfig.Logger)

	agentID := os.Getenv("AGENT_NAME")
	if agentID == "" {
		agentID = fmt.Sprintf("wake-agent-%d", time.Now().Unix())
	}
	log = log.With(zap.String("service", "agent"), zap.String("agent", agentID))
	log.Info("Starting waking agent")

	// 2. Init Adapters

	// Postgres
	dbService, err := postgresConfig.New(rootCtx, appConfig.DB, log)
	if err != nil {
		log.Fatal("Failed to init Postgres", zap.Error(err))
	}
	defer dbService.Close()
	taskRepo := postgres.NewTaskRepository(dbService, log)

	// Redis: heartbeat registry + presence cache
	cacheService, err := redisConfig.New(rootCtx, appConfig.Redis)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	registry := redisAdapter.NewAgentRegistry(cacheService.Client, log)
	seen := redisAdapter.NewPresenceCache(cacheService.Storage, seenTTL(appConfig.Presence))

	// RabbitMQ nudge channel (optional)
	var queue port.QueueService
	if appConfig.MQ != nil && appConfig.MQ.Host != "" {
		vhost := appConfig.MQ.Vhost
		if vhost == "" {
			vhost = "/"
		}
		amqpURL := fmt.Sprintf("amqp://%s:%s@%s:%s%s",
			appConfig.MQ.User, appConfig.MQ.Pass,
			appConfig.MQ.Host, appConfig.MQ.Port, vhost,
		)
		if queue, err = rabbitmq.NewQueueService(amqpURL, log); err != nil {
			log.Warn("Nudge channel unavailable, polling only", zap.Error(err))
			queue = nil
		}
	}

	// Presence detector (optional)
	var detector port.PresenceDetector
	if appConfig.Presence != nil && appConfig.Presence.PrometheusURL != "" {
		detector = prometheus.NewPresenceDetector(
			appConfig.Presence.PrometheusURL,
			appConfig.Presence.QueryTemplate,
			log,
		)
	}

	// Agent knobs; the agent section of the config file is optional
	pollInterval := 15 * time.Second
	confirmTimeout := 30 * time.Second
	claimLimit := 0
	broadcast := "255.255.255.255:9"
	if a := appConfig.Agent; a != nil {
		pollInterval = durationOr(a.PollInterval, pollInterval)
		confirmTimeout = durationOr(a.ConfirmTimeout, confirmTimeout)
		claimLimit = a.ClaimLimit
		if a.BroadcastAddr != "" {
			broadcast = a.BroadcastAddr
		}
	}

	// Wake broadcast
	sender := wol.NewSender(broadcast, log)

	// 3. Init Services
	taskService := service.NewTaskService(taskRepo, nil, log)
	agent := service.NewAgentService(
		agentID,
		taskService,
		registry,
		queue,
		detector,
		seen,
		sender,
		pollInterval,
		claimLimit,
		confirmTimeout,
		log,
	)

	// 4. Run until shutdown
	if err := agent.Run(rootCtx); err != nil && err != context.Canceled {
		log.Error("Agent stopped", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

func durationOr(raw string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return def
}

func seenTTL(p *config.Presence) time.Duration {
	if p != nil {
		if ttl, err := time.ParseDuration(p.SeenTTL); err == nil && ttl > 0 {
			return ttl
		}
	}
	return 2 * time.Minute
}
