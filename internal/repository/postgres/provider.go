package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"
)

type providerRepository struct {
	BaseRepository
}

func NewProviderRepository(base BaseRepository) repository.ProviderRepository {
	return &providerRepository{base}
}

func (r *providerRepository) Create(ctx context.Context, provider *model.TicketProvider) error {
	if provider.UUID == uuid.Nil {
		provider.UUID = uuid.New()
	}
	provider.CreatedAt = time.Now()
	provider.UpdatedAt = provider.CreatedAt

	query := `
		INSERT INTO ticket_providers (uuid, name, email, security_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if err := r.db.GetContext(ctx, &provider.ID, query,
		provider.UUID,
		provider.Name,
		provider.Email,
		provider.SecurityLevel,
		provider.CreatedAt,
		provider.UpdatedAt,
	); err != nil {
		return apperrors.Persistence("failed to create ticket provider", err)
	}
	return nil
}

func (r *providerRepository) GetByUUID(ctx context.Context, providerUUID uuid.UUID) (*model.TicketProvider, error) {
	query := `
		SELECT id, uuid, name, email, security_level, created_at, updated_at
		FROM ticket_providers
		WHERE uuid = $1
	`

	var provider model.TicketProvider
	if err := r.db.GetContext(ctx, &provider, query, providerUUID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("ticket provider", err)
		}
		return nil, apperrors.Persistence("failed to get ticket provider", err)
	}
	return &provider, nil
}

type encryptionKeyRepository struct {
	BaseRepository
}

func NewEncryptionKeyRepository(base BaseRepository) repository.EncryptionKeyRepository {
	return &encryptionKeyRepository{base}
}

// Create appends the next key version for the provider. Existing versions are
// never overwritten; messages reference the version they were sealed with.
func (r *encryptionKeyRepository) Create(ctx context.Context, key *model.TicketProviderEncryptionKey) error {
	query := `
		INSERT INTO ticket_provider_encryption_keys (ticket_provider_id, version, secret_key, created_at)
		VALUES (
			$1,
			COALESCE((SELECT MAX(version) FROM ticket_provider_encryption_keys WHERE ticket_provider_id = $1), 0) + 1,
			$2,
			NOW()
		)
		RETURNING id, version, created_at
	`

	if err := r.db.QueryRowxContext(ctx, query, key.TicketProviderID, key.SecretKey).
		Scan(&key.ID, &key.Version, &key.CreatedAt); err != nil {
		return apperrors.Persistence("failed to create encryption key", err)
	}
	return nil
}

func (r *encryptionKeyRepository) GetCurrent(ctx context.Context, providerID int64) (*model.TicketProviderEncryptionKey, error) {
	query := `
		SELECT id, ticket_provider_id, version, secret_key, created_at
		FROM ticket_provider_encryption_keys
		WHERE ticket_provider_id = $1
		ORDER BY version DESC
		LIMIT 1
	`

	var key model.TicketProviderEncryptionKey
	if err := r.db.GetContext(ctx, &key, query, providerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("encryption key", err)
		}
		return nil, apperrors.Persistence("failed to get encryption key", err)
	}
	return &key, nil
}

func (r *encryptionKeyRepository) GetByVersion(ctx context.Context, providerID int64, version int) (*model.TicketProviderEncryptionKey, error) {
	query := `
		SELECT id, ticket_provider_id, version, secret_key, created_at
		FROM ticket_provider_encryption_keys
		WHERE ticket_provider_id = $1 AND version = $2
	`

	var key model.TicketProviderEncryptionKey
	if err := r.db.GetContext(ctx, &key, query, providerID, version); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("encryption key", err)
		}
		return nil, apperrors.Persistence("failed to get encryption key", err)
	}
	return &key, nil
}
