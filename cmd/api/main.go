package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/classpulse/notification-engine/internal/config"
	"github.com/classpulse/notification-engine/internal/handlers"
	"github.com/classpulse/notification-engine/internal/repository"
	"github.com/classpulse/notification-engine/internal/scheduler"
	"github.com/classpulse/notification-engine/pkg/clock"
	xhttp "github.com/classpulse/notification-engine/pkg/http"
	"github.com/classpulse/notification-engine/pkg/logger"
	"github.com/classpulse/notification-engine/pkg/pg"
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

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

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

	messageRepo := repository.NewMessageRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	queueRepo := repository.NewQueueEntryRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	deadLetterRepo := repository.NewDeadLetterRepository(db)

	// The API shares the scheduler's fan-out path so an explicit enqueue
	// behaves exactly like a timer pick-up.
	sched := scheduler.NewScheduler(
		messageRepo,
		recipientRepo,
		queueRepo,
		clock.Real{},
		config.Get().QueueScheduleBatchSize,
		config.Get().RetryMaxAttempts,
	)

	// v1 handlers
	messageHandler := handlers.NewMessageHandler(sched, messageRepo, deliveryRepo, deadLetterRepo)
	healthHandler := handlers.NewHealthHandler(nil)

	g := s.Router.Group("/api/v1")
	handlers.RegisterMessageRoutes(g, messageHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
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
