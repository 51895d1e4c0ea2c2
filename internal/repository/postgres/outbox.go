package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

// Append inserts a created row on the caller's transaction so the record is
// committed or rolled back together with the domain write that produced it.
func (r *outboxRepository) Append(ctx context.Context, tx repository.Tx, eventName string, payload interface{}) (*model.OutboxRecord, error) {
	if eventName == "" {
		return nil, apperrors.BadRequest("event name cannot be empty", nil)
	}

	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	query := `
		INSERT INTO outbox (event_name, payload, status, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, event_name, payload, status, sent_at, created_at
	`

	var record model.OutboxRecord
	if err := sqlxTx.GetContext(ctx, &record, query, eventName, string(payloadJSON), model.OutboxStatusCreated); err != nil {
		return nil, apperrors.Persistence("failed to append outbox record", err)
	}
	return &record, nil
}

// FetchUndelivered returns created rows ordered by id ascending, so delivery
// preserves insertion order within the scan.
func (r *outboxRepository) FetchUndelivered(ctx context.Context, limit int) ([]*model.OutboxRecord, error) {
	query := `
		SELECT id, event_name, payload, status, sent_at, created_at
		FROM outbox
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2
	`

	var records []*model.OutboxRecord
	err := r.db.SelectContext(ctx, &records, query, model.OutboxStatusCreated, limit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Persistence("failed to fetch undelivered records", err)
	}
	return records, nil
}

// MarkSent flips the given ids to sent. Ids that are already sent match
// nothing and are silently skipped, which makes retried batches safe.
func (r *outboxRepository) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE outbox
		SET status = $1, sent_at = NOW()
		WHERE id = ANY($2) AND status = $3
	`

	if _, err := r.db.ExecContext(ctx, query, model.OutboxStatusSent, pq.Array(ids), model.OutboxStatusCreated); err != nil {
		return apperrors.Persistence("failed to mark records sent", err)
	}
	return nil
}

func (r *outboxRepository) CountUndelivered(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM outbox WHERE status = $1`
	if err := r.db.GetContext(ctx, &count, query, model.OutboxStatusCreated); err != nil {
		return 0, apperrors.Persistence("failed to count undelivered records", err)
	}
	return count, nil
}
