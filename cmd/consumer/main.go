package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ticketnest/ticketing-api/internal/config"
	"github.com/ticketnest/ticketing-api/internal/email"
	"github.com/ticketnest/ticketing-api/internal/repository/postgres"
	encryptionService "github.com/ticketnest/ticketing-api/internal/service/encryption"
	ticketService "github.com/ticketnest/ticketing-api/internal/service/ticket"
	transferService "github.com/ticketnest/ticketing-api/internal/service/transfer"
	"github.com/ticketnest/ticketing-api/pkg/logger"
	redisbroker "github.com/ticketnest/ticketing-api/pkg/messaging/redis"
	"github.com/ticketnest/ticketing-api/pkg/metrics"
	"github.com/ticketnest/ticketing-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(postgres.DBConfig{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Name:     cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   cfg.RedisMaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	ticketRepo := postgres.NewTicketRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)
	eventRepo := postgres.NewEventRepository(baseRepo)
	ticketTypeRepo := postgres.NewTicketTypeRepository(baseRepo)
	keyRepo := postgres.NewEncryptionKeyRepository(baseRepo)
	transferRepo := postgres.NewTransferRepository(baseRepo)

	encryptionSvc := encryptionService.NewService(keyRepo)
	ticketSvc := ticketService.NewService(
		&baseRepo,
		ticketRepo,
		userRepo,
		eventRepo,
		ticketTypeRepo,
		outboxRepo,
		encryptionSvc,
		appLogger,
	)
	transferSvc := transferService.NewService(
		&baseRepo,
		transferRepo,
		ticketRepo,
		userRepo,
		outboxRepo,
		appLogger,
	)

	var alerter worker.Alerter
	if cfg.AlertsEnabled {
		alerter = email.NewAlertMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.AlertFrom,
			To:       cfg.AlertTo,
		}, appLogger)
	}

	consumer := worker.NewConsumer(broker, ticketSvc, transferSvc, alerter, appLogger, metrics.New("ticketing", "consumer"))

	serveOps(cfg.MetricsPort, db.Ping, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down")
		cancel()
	}()

	if err := consumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("consumer failed")
	}
}

// serveOps exposes liveness, readiness and metrics for the worker process.
func serveOps(port int, ready func() error, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("Ops server failed")
			os.Exit(1)
		}
	}()
}
