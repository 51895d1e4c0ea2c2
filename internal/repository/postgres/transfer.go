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

type transferRepository struct {
	BaseRepository
}

func NewTransferRepository(base BaseRepository) repository.TransferRepository {
	return &transferRepository{base}
}

const transferColumns = `
	id, uuid, user_id_from, user_id_to, ticket_id, ticket_provider_id,
	status, transaction_hash, error_data, created_at, finished_at
`

func (r *transferRepository) Create(ctx context.Context, tx repository.Tx, transfer *model.TicketTransfer) error {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	if transfer.UUID == uuid.Nil {
		transfer.UUID = uuid.New()
	}
	transfer.Status = model.TicketTransferStatusInProgress
	transfer.CreatedAt = time.Now()

	query := `
		INSERT INTO ticket_transfers (
			uuid, user_id_from, user_id_to, ticket_id, ticket_provider_id, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	if err := sqlxTx.GetContext(ctx, &transfer.ID, query,
		transfer.UUID,
		transfer.UserIDFrom,
		transfer.UserIDTo,
		transfer.TicketID,
		transfer.TicketProviderID,
		transfer.Status,
		transfer.CreatedAt,
	); err != nil {
		return apperrors.Persistence("failed to create ticket transfer", err)
	}
	return nil
}

func (r *transferRepository) GetByUUID(ctx context.Context, providerID int64, transferUUID uuid.UUID) (*model.TicketTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM ticket_transfers WHERE uuid = $1 AND ticket_provider_id = $2`

	var transfer model.TicketTransfer
	if err := r.db.GetContext(ctx, &transfer, query, transferUUID, providerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("ticket transfer", err)
		}
		return nil, apperrors.Persistence("failed to get ticket transfer", err)
	}
	return &transfer, nil
}

// Complete finalizes a transfer from a success reply. COALESCE keeps the
// original finish time when the reply is replayed.
func (r *transferRepository) Complete(ctx context.Context, transferUUID uuid.UUID, transactionHash string) error {
	query := `
		UPDATE ticket_transfers
		SET status = $1, transaction_hash = $2, error_data = NULL,
			finished_at = COALESCE(finished_at, NOW())
		WHERE uuid = $3
	`
	if _, err := r.db.ExecContext(ctx, query, model.TicketTransferStatusCompleted, transactionHash, transferUUID); err != nil {
		return apperrors.Persistence("failed to complete ticket transfer", err)
	}
	return nil
}

func (r *transferRepository) Fail(ctx context.Context, transferUUID uuid.UUID, errorData string) error {
	query := `
		UPDATE ticket_transfers
		SET status = $1, error_data = $2, finished_at = COALESCE(finished_at, NOW())
		WHERE uuid = $3
	`
	if _, err := r.db.ExecContext(ctx, query, model.TicketTransferStatusFailed, errorData, transferUUID); err != nil {
		return apperrors.Persistence("failed to fail ticket transfer", err)
	}
	return nil
}
