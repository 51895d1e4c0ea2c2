package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"
)

type eventRepository struct {
	BaseRepository
}

func NewEventRepository(base BaseRepository) repository.EventRepository {
	return &eventRepository{base}
}

// FindOrCreate resolves an event by its natural key (name, provider),
// inserting only when missing. ON CONFLICT DO NOTHING keeps the transaction
// usable when a concurrent insert wins; the winner is re-read.
func (r *eventRepository) FindOrCreate(ctx context.Context, tx repository.Tx, providerID int64, name string) (*model.Event, error) {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	existing, err := r.getByNameTx(ctx, sqlxTx, providerID, name)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	query := `
		INSERT INTO events (uuid, name, ticket_provider_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (ticket_provider_id, name) DO NOTHING
		RETURNING id, uuid, name, ticket_provider_id, created_at
	`

	var event model.Event
	insertErr := sqlxTx.GetContext(ctx, &event, query, uuid.New(), name, providerID)
	if insertErr == nil {
		return &event, nil
	}
	if insertErr != sql.ErrNoRows {
		return nil, apperrors.Persistence("failed to create event", insertErr)
	}

	return r.getByNameTx(ctx, sqlxTx, providerID, name)
}

func (r *eventRepository) getByNameTx(ctx context.Context, tx *sqlx.Tx, providerID int64, name string) (*model.Event, error) {
	query := `
		SELECT id, uuid, name, ticket_provider_id, created_at
		FROM events
		WHERE name = $1 AND ticket_provider_id = $2
	`

	var event model.Event
	if err := tx.GetContext(ctx, &event, query, name, providerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("event", err)
		}
		return nil, apperrors.Persistence("failed to get event by name", err)
	}
	return &event, nil
}

type ticketTypeRepository struct {
	BaseRepository
}

func NewTicketTypeRepository(base BaseRepository) repository.TicketTypeRepository {
	return &ticketTypeRepository{base}
}

// FindOrCreate resolves a ticket type by (event, name, start date).
func (r *ticketTypeRepository) FindOrCreate(ctx context.Context, tx repository.Tx, eventID int64, name string, dateStart time.Time, dateEnd *time.Time) (*model.TicketType, error) {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}

	existing, err := r.getByNameTx(ctx, sqlxTx, eventID, name, dateStart)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	query := `
		INSERT INTO ticket_types (uuid, name, event_id, ticket_date_start, ticket_date_end, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (event_id, name, ticket_date_start) DO NOTHING
		RETURNING id, uuid, name, event_id, ticket_date_start, ticket_date_end, created_at
	`

	var ticketType model.TicketType
	insertErr := sqlxTx.GetContext(ctx, &ticketType, query, uuid.New(), name, eventID, dateStart, dateEnd)
	if insertErr == nil {
		return &ticketType, nil
	}
	if insertErr != sql.ErrNoRows {
		return nil, apperrors.Persistence("failed to create ticket type", insertErr)
	}

	return r.getByNameTx(ctx, sqlxTx, eventID, name, dateStart)
}

func (r *ticketTypeRepository) getByNameTx(ctx context.Context, tx *sqlx.Tx, eventID int64, name string, dateStart time.Time) (*model.TicketType, error) {
	query := `
		SELECT id, uuid, name, event_id, ticket_date_start, ticket_date_end, created_at
		FROM ticket_types
		WHERE event_id = $1 AND name = $2 AND ticket_date_start = $3
	`

	var ticketType model.TicketType
	if err := tx.GetContext(ctx, &ticketType, query, eventID, name, dateStart); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("ticket type", err)
		}
		return nil, apperrors.Persistence("failed to get ticket type", err)
	}
	return &ticketType, nil
}
