package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/classpulse/notification-engine/internal/compliance"
	"github.com/classpulse/notification-engine/internal/config"
	gateway "github.com/classpulse/notification-engine/internal/gateways"
	"github.com/classpulse/notification-engine/internal/processor"
	"github.com/classpulse/notification-engine/internal/repository"
	"github.com/classpulse/notification-engine/internal/retry"
	"github.com/classpulse/notification-engine/internal/scheduler"
	"github.com/classpulse/notification-engine/pkg/clock"
	"github.com/classpulse/notification-engine/pkg/interval"
	"github.com/classpulse/notification-engine/pkg/logger"
	"github.com/classpulse/notification-engine/pkg/pg"
	"github.com/classpulse/notification-engine/pkg/prom"
	"github.com/classpulse/notification-engine/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	client, err := gateway.NewClient(gateway.Config{
		URL:     config.Get().ProviderUrl,
		Timeout: config.Get().ProviderSendTimeout,
	})
	if err != nil {
		logger.Error("failed to create provider client", "error", err)
		return
	}

	messageRepo := repository.NewMessageRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	queueRepo := repository.NewQueueEntryRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	deadLetterRepo := repository.NewDeadLetterRepository(db)
	settingsRepo := repository.NewNotificationSettingsRepository(db)

	gate := compliance.NewGate(settingsRepo, redisAdap, config.Get().SettingsCacheTTL)

	sched := scheduler.NewScheduler(
		messageRepo,
		recipientRepo,
		queueRepo,
		clock.Real{},
		config.Get().QueueScheduleBatchSize,
		config.Get().RetryMaxAttempts,
	)

	proc := processor.NewBatchProcessor(
		queueRepo,
		messageRepo,
		deliveryRepo,
		deadLetterRepo,
		gate,
		client,
		clock.Real{},
		config.Get().QueueProcessBatchSize,
		retry.Options{
			BaseDelay: config.Get().RetryBaseDelay,
			MaxDelay:  config.Get().RetryMaxDelay,
		},
	)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	var runners []*interval.Runner
	if config.Get().QueueScheduleEnabled {
		runners = append(runners, interval.NewRunner(
			"scheduler",
			config.Get().QueueScheduleInterval,
			sched.Tick,
		))
	}
	if config.Get().QueueProcessEnabled {
		runners = append(runners, interval.NewRunner(
			"batch-processor",
			config.Get().QueueProcessInterval,
			proc.ProcessBatch,
		))
	}
	if len(runners) == 0 {
		logger.Error("both loops are disabled, nothing to run")
		return
	}

	ctx := context.Background()
	for _, r := range runners {
		r.Start(ctx)
	}
	logger.Info("engine started",
		"version", version,
		"schedule_enabled", config.Get().QueueScheduleEnabled,
		"process_enabled", config.Get().QueueProcessEnabled,
	)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		for _, r := range runners {
			r.Stop()
		}
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
