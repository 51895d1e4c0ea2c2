package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ticketnest/ticketing-api/internal/config"
	"github.com/ticketnest/ticketing-api/internal/handler"
	ticketHandler "github.com/ticketnest/ticketing-api/internal/handler/ticket"
	transferHandler "github.com/ticketnest/ticketing-api/internal/handler/transfer"
	"github.com/ticketnest/ticketing-api/internal/middleware"
	"github.com/ticketnest/ticketing-api/internal/repository/postgres"
	"github.com/ticketnest/ticketing-api/internal/router"
	encryptionService "github.com/ticketnest/ticketing-api/internal/service/encryption"
	ticketService "github.com/ticketnest/ticketing-api/internal/service/ticket"
	transferService "github.com/ticketnest/ticketing-api/internal/service/transfer"
	"github.com/ticketnest/ticketing-api/pkg/auth"
	"github.com/ticketnest/ticketing-api/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(postgres.DBConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	ticketRepo := postgres.NewTicketRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)
	eventRepo := postgres.NewEventRepository(baseRepo)
	ticketTypeRepo := postgres.NewTicketTypeRepository(baseRepo)
	providerRepo := postgres.NewProviderRepository(baseRepo)
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

	tokenSvc := auth.NewAPITokenService(cfg.Auth.APISecret, time.Duration(cfg.Auth.ExpiryHours)*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, providerRepo)

	h := handler.NewHandler(func() error { return db.Ping() })
	ticketH := ticketHandler.NewHandler(ticketSvc)
	transferH := transferHandler.NewHandler(transferSvc)

	r := router.NewRouter(authMiddleware, ticketH, transferH, h, router.RouterConfig{
		RateLimit:     rate.Limit(cfg.RateLimit.RPS),
		RateBurst:     cfg.RateLimit.Burst,
		MetricsPrefix: "ticketing_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	appLogger.Info("API server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("Server exited properly")
}
