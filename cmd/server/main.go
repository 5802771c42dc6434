package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wakequeue/wakequeue/config/logger"
	postgresConfig "github.com/wakequeue/wakequeue/config/storage/postgresql"
	redisConfig "github.com/wakequeue/wakequeue/config/storage/redis"
	config "github.com/wakequeue/wakequeue/config/utils"
	httpapi "github.com/wakequeue/wakequeue/internal/adapter/http"
	"github.com/wakequeue/wakequeue/internal/adapter/queue/rabbitmq"
	"github.com/wakequeue/wakequeue/internal/adapter/storage/postgres"
	redisAdapter "github.com/wakequeue/wakequeue/internal/adapter/storage/redis"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"github.com/wakequeue/wakequeue/internal/core/service"
	"go.uber.org/zap"
)

// _shutdownPeriod is time to wait before gracefully shutting server
const _shutdownPeriod = 10 * time.Second

func main() {
	rootCtx, rootCtxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCtxCancel()

	// Init config
	appConfig := config.New()
	baseLogger := logger.Build(appConfig.Logger)
	zap.L().Info("Starting the API server", zap.String("app", appConfig.App.Name), zap.String("env", appConfig.App.Env))

	// Init database service
	dbLogger := baseLogger.Named("DB")
	dbService, err := postgresConfig.New(rootCtx, appConfig.DB, dbLogger)
	if err != nil {
		zap.L().Error("Error initializing database connection", zap.Error(err))
		os.Exit(1)
	}
	defer dbService.Close()
	zap.L().Info("Successfully connected to the database", zap.String("db", appConfig.DB.Connection))

	// Migrate database
	if err := dbService.Migrate(); err != nil {
		zap.L().Error("Error migrating database", zap.Error(err))
		os.Exit(1)
	}
	zap.L().Info("Successfully migrated the database")

	// Init cache service
	var registry port.AgentRegistry
	var seen port.PresenceCache
	cacheService, err := redisConfig.New(rootCtx, appConfig.Redis)
	if err != nil {
		zap.L().Warn("Cache unavailable, agent listing & presence cache disabled", zap.Error(err))
	} else {
		registry = redisAdapter.NewAgentRegistry(cacheService.Client, baseLogger.Named("Registry"))
		seen = redisAdapter.NewPresenceCache(cacheService.Storage, seenTTL(appConfig.Presence))
		zap.L().Info("Successfully connected to the cache server", zap.String("address", appConfig.Redis.Addr))
	}

	// Init nudge channel
	var queue port.QueueService
	if appConfig.MQ != nil && appConfig.MQ.Host != "" {
		queue, err = rabbitmq.NewQueueService(amqpURL(appConfig.MQ), baseLogger.Named("MQ"))
		if err != nil {
			zap.L().Warn("Nudge channel unavailable, agents will rely on polling", zap.Error(err))
			queue = nil
		}
	}

	// Wire services & handlers
	taskRepo := postgres.NewTaskRepository(dbService, baseLogger.Named("TaskRepo"))
	deviceRepo := postgres.NewDeviceRepository(dbService, baseLogger.Named("DeviceRepo"))
	taskService := service.NewTaskService(taskRepo, queue, baseLogger.Named("Tasks"))
	deviceService := service.NewDeviceService(deviceRepo, taskService, baseLogger.Named("Devices"))
	handler := httpapi.NewHandler(taskService, deviceService, registry, seen, appConfig.HTTP.AgentToken, baseLogger.Named("HTTP"))

	server := httpapi.NewServer(appConfig.HTTP, handler)

	go func() {
		zap.L().Info("Listening", zap.String("addr", appConfig.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("Server failed", zap.Error(err))
			rootCtxCancel()
		}
	}()

	// Wait for ctx cancelation
	<-rootCtx.Done()
	zap.L().Info("Shutting down, waiting for ongoing requests to finish")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownPeriod)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Forced shutdown", zap.Error(err))
	}

	zap.L().Info("Graceful shutdown complete.")
}

func amqpURL(mq *config.MQ) string {
	vhost := mq.Vhost
	if vhost == "" {
		vhost = "/"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s", mq.User, mq.Pass, mq.Host, mq.Port, vhost)
}

func seenTTL(p *config.Presence) time.Duration {
	if p != nil {
		if ttl, err := time.ParseDuration(p.SeenTTL); err == nil && ttl > 0 {
			return ttl
		}
	}
	return 2 * time.Minute
}
