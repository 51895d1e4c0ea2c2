package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/ticketnest/ticketing-api/internal/config"
	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository/postgres"
	encryptionService "github.com/ticketnest/ticketing-api/internal/service/encryption"
	"github.com/ticketnest/ticketing-api/pkg/auth"
)

// Onboards a ticket provider: creates the tenant row, seeds its first
// encryption key when the security level requires one and prints the API key
// to hand out.
func main() {
	var (
		name          = flag.String("name", "", "provider name")
		email         = flag.String("email", "", "provider contact email")
		securityLevel = flag.Int("security-level", int(model.SecurityLevelStandard), "1 = standard, 2 = encrypted user data")
		secret        = flag.String("api-secret", "", "HMAC secret used to sign API keys")
	)
	flag.Parse()

	v := validator.New()
	if err := v.Var(*name, "required"); err != nil {
		fmt.Fprintln(os.Stderr, "provider name is required")
		os.Exit(2)
	}
	if err := v.Var(*email, "required,email"); err != nil {
		fmt.Fprintln(os.Stderr, "a valid provider email is required")
		os.Exit(2)
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "api-secret is required")
		os.Exit(2)
	}
	level := model.SecurityLevel(*securityLevel)
	if level != model.SecurityLevelStandard && level != model.SecurityLevelEncrypted {
		fmt.Fprintln(os.Stderr, "security-level must be 1 or 2")
		os.Exit(2)
	}

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

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

	baseRepo := postgres.NewBaseRepository(db)
	providerRepo := postgres.NewProviderRepository(baseRepo)
	keyRepo := postgres.NewEncryptionKeyRepository(baseRepo)

	ctx := context.Background()

	provider := &model.TicketProvider{
		Name:          *name,
		Email:         *email,
		SecurityLevel: level,
	}
	if err := providerRepo.Create(ctx, provider); err != nil {
		log.Fatal().Err(err).Msg("failed to create provider")
	}

	if level == model.SecurityLevelEncrypted {
		key, err := encryptionService.NewService(keyRepo).GenerateKey(ctx, provider.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed encryption key")
		}
		fmt.Printf("encryption key version: %d\n", key.Version)
	}

	apiKey, err := auth.NewAPITokenService(*secret, 0).Generate(provider.UUID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue api key")
	}

	fmt.Printf("provider uuid: %s\n", provider.UUID)
	fmt.Printf("api key: %s\n", apiKey)
}
