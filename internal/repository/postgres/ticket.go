package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"
)

type ticketRepository struct {
	BaseRepository
}

func NewTicketRepository(base BaseRepository) repository.TicketRepository {
	return &ticketRepository{base}
}

const ticketColumns = `
	id, uuid, ticket_provider_id, user_id, event_id, ticket_type_id,
	image_url, additional_data, contract_id, token_id, ipfs_uri,
	transaction_hash, error_data, status, validated_at, deleted_at, created_at
`

func (r *ticketRepository) Create(ctx context.Context, tx repository.Tx, ticket *model.Ticket) error {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	if ticket.UUID == uuid.Nil {
		ticket.UUID = uuid.New()
	}
	ticket.CreatedAt = time.Now()

	additional := []byte("{}")
	if ticket.AdditionalData != nil {
		if additional, err = json.Marshal(ticket.AdditionalData); err != nil {
			return fmt.Errorf("failed to marshal additional data: %w", err)
		}
	}
	ticket.AdditionalRaw = additional

	query := `
		INSERT INTO tickets (
			uuid, ticket_provider_id, user_id, event_id, ticket_type_id,
			image_url, additional_data, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	if err := sqlxTx.GetContext(ctx, &ticket.ID, query,
		ticket.UUID,
		ticket.TicketProviderID,
		ticket.UserID,
		ticket.EventID,
		ticket.TicketTypeID,
		ticket.ImageURL,
		ticket.AdditionalRaw,
		ticket.Status,
		ticket.CreatedAt,
	); err != nil {
		return apperrors.Persistence("failed to create ticket", err)
	}
	return nil
}

func (r *ticketRepository) GetByUUID(ctx context.Context, providerID int64, ticketUUID uuid.UUID) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE uuid = $1 AND ticket_provider_id = $2`

	var ticket model.Ticket
	if err := r.db.GetContext(ctx, &ticket, query, ticketUUID, providerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("ticket", err)
		}
		return nil, apperrors.Persistence("failed to get ticket", err)
	}
	unmarshalAdditional(&ticket)
	return &ticket, nil
}

func (r *ticketRepository) GetByUUIDTx(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID) (*model.Ticket, error) {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE uuid = $1`

	var ticket model.Ticket
	if err := sqlxTx.GetContext(ctx, &ticket, query, ticketUUID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("ticket", err)
		}
		return nil, apperrors.Persistence("failed to get ticket", err)
	}
	unmarshalAdditional(&ticket)
	return &ticket, nil
}

// GetForValidation locks the single active row for (uuid, provider). Two
// concurrent validations of the same ticket serialize here: the second
// transaction blocks until the first commits, then sees status=validated and
// matches nothing.
func (r *ticketRepository) GetForValidation(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID, providerID int64) (*model.Ticket, error) {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE uuid = $1 AND ticket_provider_id = $2 AND status = $3
		FOR UPDATE
	`

	var ticket model.Ticket
	if err := sqlxTx.GetContext(ctx, &ticket, query, ticketUUID, providerID, model.TicketStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("ticket", err)
		}
		return nil, apperrors.Persistence("failed to lock ticket", err)
	}
	unmarshalAdditional(&ticket)
	return &ticket, nil
}

func (r *ticketRepository) MarkValidated(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID, at time.Time) error {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	query := `UPDATE tickets SET status = $1, validated_at = $2 WHERE uuid = $3`
	if _, err := sqlxTx.ExecContext(ctx, query, model.TicketStatusValidated, at, ticketUUID); err != nil {
		return apperrors.Persistence("failed to mark ticket validated", err)
	}
	return nil
}

func (r *ticketRepository) MarkDeleted(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID, at time.Time) error {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	query := `UPDATE tickets SET status = $1, deleted_at = $2 WHERE uuid = $3`
	if _, err := sqlxTx.ExecContext(ctx, query, model.TicketStatusDeleted, at, ticketUUID); err != nil {
		return apperrors.Persistence("failed to mark ticket deleted", err)
	}
	return nil
}

// Activate applies a successful minting reply. Re-applying the same reply
// re-sets identical values, so duplicates are harmless.
func (r *ticketRepository) Activate(ctx context.Context, ticketUUID uuid.UUID, contractID string, tokenID int64, ipfsURI, transactionHash string) error {
	query := `
		UPDATE tickets
		SET contract_id = $1, token_id = $2, ipfs_uri = $3, transaction_hash = $4,
			status = $5, error_data = NULL
		WHERE uuid = $6
	`
	if _, err := r.db.ExecContext(ctx, query, contractID, tokenID, ipfsURI, transactionHash, model.TicketStatusActive, ticketUUID); err != nil {
		return apperrors.Persistence("failed to activate ticket", err)
	}
	return nil
}

func (r *ticketRepository) SetError(ctx context.Context, ticketUUID uuid.UUID, errorData string) error {
	query := `UPDATE tickets SET error_data = $1 WHERE uuid = $2`
	if _, err := r.db.ExecContext(ctx, query, errorData, ticketUUID); err != nil {
		return apperrors.Persistence("failed to set ticket error", err)
	}
	return nil
}

func unmarshalAdditional(ticket *model.Ticket) {
	if len(ticket.AdditionalRaw) == 0 {
		return
	}
	// Corrupt JSON in additional_data is not fatal to reads.
	_ = json.Unmarshal(ticket.AdditionalRaw, &ticket.AdditionalData)
}
