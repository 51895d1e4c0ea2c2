package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "uuid", "name", "ticket_provider_id", "created_at"})
}

func TestEventFindOrCreateLostRaceReturnsWinner(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewEventRepository(base)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM events`).
		WithArgs("Summer Fest", int64(1)).
		WillReturnRows(eventRows())
	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnRows(eventRows())
	mock.ExpectQuery(`FROM events`).
		WithArgs("Summer Fest", int64(1)).
		WillReturnRows(eventRows().AddRow(int64(11), uuid.New().String(), "Summer Fest", int64(1), time.Now()))
	mock.ExpectRollback()

	tx, err := base.BeginTx(context.Background())
	require.NoError(t, err)

	event, err := repo.FindOrCreate(context.Background(), tx, 1, "Summer Fest")
	require.NoError(t, err)
	assert.EqualValues(t, 11, event.ID)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketTypeFindOrCreateLostRaceReturnsWinner(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewTicketTypeRepository(base)

	cols := []string{"id", "uuid", "name", "event_id", "ticket_date_start", "ticket_date_end", "created_at"}
	start := time.Now().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM ticket_types`).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(`INSERT INTO ticket_types`).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(`FROM ticket_types`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(5), uuid.New().String(), "VIP", int64(11), start, nil, time.Now()))
	mock.ExpectRollback()

	tx, err := base.BeginTx(context.Background())
	require.NoError(t, err)

	ticketType, err := repo.FindOrCreate(context.Background(), tx, 11, "VIP", start, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, ticketType.ID)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}
