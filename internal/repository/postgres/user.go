package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

const userColumns = `
	id, uuid, ticket_provider_id, name, email, phone_number, wallet_address,
	status, created_at, updated_at
`

// FindOrCreate looks the user up by (email, provider) and inserts a new row
// only when none exists. The insert is ON CONFLICT DO NOTHING: losing a
// concurrent-insert race yields zero rows instead of a unique_violation that
// would abort the transaction, and the committed winner is re-read on the
// same tx.
func (r *userRepository) FindOrCreate(ctx context.Context, tx repository.Tx, providerID int64, input model.CreateUserInput) (*model.User, error) {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	existing, err := r.getByEmailTx(ctx, sqlxTx, providerID, input.Email)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	query := `
		INSERT INTO users (uuid, ticket_provider_id, name, email, phone_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (ticket_provider_id, email) DO NOTHING
		RETURNING ` + userColumns

	var phone *string
	if input.PhoneNumber != "" {
		phone = &input.PhoneNumber
	}

	var user model.User
	insertErr := sqlxTx.GetContext(ctx, &user, query,
		uuid.New(), providerID, input.Name, input.Email, phone, model.UserStatusCreating)
	if insertErr == nil {
		return &user, nil
	}
	if insertErr != sql.ErrNoRows {
		return nil, apperrors.Persistence("failed to create user", insertErr)
	}

	return r.getByEmailTx(ctx, sqlxTx, providerID, input.Email)
}

func (r *userRepository) GetByUUID(ctx context.Context, providerID int64, userUUID uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1 AND ticket_provider_id = $2`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, userUUID, providerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Persistence("failed to get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Persistence("failed to get user", err)
	}
	return &user, nil
}

// ActivateOwner flips the owner of a ticket from creating to active. Applied
// when a minting reply confirms the user's wallet; a no-op for users already
// active, so replayed replies are harmless.
func (r *userRepository) ActivateOwner(ctx context.Context, ticketUUID uuid.UUID) error {
	query := `
		UPDATE users
		SET status = $1, updated_at = NOW()
		WHERE id = (SELECT user_id FROM tickets WHERE uuid = $2) AND status = $3
	`

	if _, err := r.db.ExecContext(ctx, query, model.UserStatusActive, ticketUUID, model.UserStatusCreating); err != nil {
		return apperrors.Persistence("failed to activate user", err)
	}
	return nil
}

func (r *userRepository) getByEmailTx(ctx context.Context, tx *sqlx.Tx, providerID int64, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND ticket_provider_id = $2`

	var user model.User
	if err := tx.GetContext(ctx, &user, query, email, providerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Persistence("failed to get user by email", err)
	}
	return &user, nil
}
