package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"georem/internal/api"
	"georem/internal/config"
	"georem/internal/location"
	"georem/internal/monitor"
	"georem/internal/notify"
	"georem/internal/registry"
	"georem/internal/service"
	"georem/internal/storage/postgres"
	"georem/internal/storage/redis"
	"georem/pkg/logger"
)

const (
	notifyQueueKey    = "georem:notify:queue"
	notifyQueueMaxLen = 1000
)

type Components struct {
	logger        *slog.Logger
	HttpServer    *api.Server
	Engine        *monitor.Engine
	WebhookSender *notify.WebhookSender
	Postgres      *postgres.Postgres
	Redis         *redis.Redis
	MQTT          *location.MQTTProvider
	AMQPConn      *amqp.Connection
	AMQPFanout    *notify.AMQPFanout
	Scheduler     *monitor.Scheduler
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	logger.Info("Initializing Postgres")
	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init postgres", slog.Any("error", err))
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	logger.Info("Initializing Redis")
	redisClient, err := redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	fenceStore := redis.NewFenceStore(redisClient)
	notifyQueue := redis.NewNotifyQueue(redisClient.Client, notifyQueueKey, notifyQueueMaxLen)

	reg := registry.New(fenceStore, logger, cfg.Monitor.MinRadiusM, cfg.Monitor.MaxRadiusM)

	logger.Info("Initializing location provider", slog.String("provider", cfg.Monitor.Provider))
	mqttProvider, err := location.NewMQTT(cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt provider: %w", err)
	}

	var provider location.Provider = mqttProvider
	if cfg.Monitor.Provider == "poll" {
		provider = location.NewPoller(mqttProvider, cfg.Monitor.PollInterval, logger)
	}

	var (
		amqpConn *amqp.Connection
		fanout   *notify.AMQPFanout
	)
	if !cfg.AMQP.Disabled {
		logger.Info("Initializing AMQP fanout")
		amqpConn, err = amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial amqp: %w", err)
		}
		fanout, err = notify.NewAMQPFanout(amqpConn)
		if err != nil {
			return nil, fmt.Errorf("failed to init amqp fanout: %w", err)
		}
	}

	var fanoutSink notify.Fanout
	if fanout != nil {
		fanoutSink = fanout
	}
	dispatcher := notify.NewDispatcher(notifyQueue, fanoutSink, logger)

	sched := monitor.NewScheduler(cfg.Monitor.MinPeriodicInterval, logger)
	engine := monitor.NewEngine(reg, provider, sched, dispatcher, logger,
		cfg.Monitor.QueueSize, cfg.Monitor.PeriodicInterval)
	reg.SetWatcher(engine)

	// Restart recovery: persisted fences come back before any sample flows,
	// so an in-flight crossing is picked up on the next reading.
	if err := reg.Rehydrate(ctx); err != nil {
		logger.Error("registry rehydrate failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to rehydrate registry: %w", err)
	}

	reminderSvc := service.NewReminderService(storage.Reminders(), reg, engine, logger)
	statsSvc := service.NewStatsService(storage.Reminders(), reg, engine)
	srv := service.NewService(reminderSvc, statsSvc)

	httpServer := api.NewServer(cfg, logger, srv, engine)
	logger.Info("Initialized server")

	sender := notify.NewWebhookSender(logger, cfg.Webhook, notifyQueue)

	return &Components{
		logger:        logger,
		HttpServer:    httpServer,
		Engine:        engine,
		WebhookSender: sender,
		Postgres:      storage,
		Redis:         redisClient,
		MQTT:          mqttProvider,
		AMQPConn:      amqpConn,
		AMQPFanout:    fanout,
		Scheduler:     sched,
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("shutting down components")

	c.Scheduler.Shutdown()
	c.MQTT.Close()

	if c.AMQPFanout != nil {
		if err := c.AMQPFanout.Close(); err != nil {
			c.logger.Error("AMQP channel close failed", slog.String("err", err.Error()))
		}
	}
	if c.AMQPConn != nil {
		if err := c.AMQPConn.Close(); err != nil {
			c.logger.Error("AMQP close failed", slog.String("err", err.Error()))
		}
	}

	c.Postgres.Pool.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("all components stopped", slog.Duration("latency", time.Since(start)))
}
