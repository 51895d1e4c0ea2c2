package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketnest/ticketing-api/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "ticket_provider_id", "name", "email", "phone_number",
		"wallet_address", "status", "created_at", "updated_at",
	})
}

func userRow(rows *sqlmock.Rows, id int64, email string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, uuid.New().String(), int64(1), "Jane Doe", email,
		nil, nil, string(model.UserStatusCreating), now, now)
}

func TestUserFindOrCreateReturnsExisting(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewUserRepository(base)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE email`).
		WithArgs("jane@example.com", int64(1)).
		WillReturnRows(userRow(userRows(), 3, "jane@example.com"))
	mock.ExpectRollback()

	tx, err := base.BeginTx(context.Background())
	require.NoError(t, err)

	user, err := repo.FindOrCreate(context.Background(), tx, 1, model.CreateUserInput{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, user.ID)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindOrCreateInsertsWhenMissing(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewUserRepository(base)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE email`).
		WithArgs("jane@example.com", int64(1)).
		WillReturnRows(userRows())
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(userRow(userRows(), 7, "jane@example.com"))
	mock.ExpectRollback()

	tx, err := base.BeginTx(context.Background())
	require.NoError(t, err)

	user, err := repo.FindOrCreate(context.Background(), tx, 1, model.CreateUserInput{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 7, user.ID)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

// A concurrent insert can commit between the initial read and our insert. The
// conflict clause then yields zero rows without erroring, so the same
// transaction stays usable and the committed winner is returned.
func TestUserFindOrCreateLostRaceReturnsWinner(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewUserRepository(base)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE email`).
		WithArgs("jane@example.com", int64(1)).
		WillReturnRows(userRows())
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(userRows())
	mock.ExpectQuery(`FROM users WHERE email`).
		WithArgs("jane@example.com", int64(1)).
		WillReturnRows(userRow(userRows(), 42, "jane@example.com"))
	mock.ExpectRollback()

	tx, err := base.BeginTx(context.Background())
	require.NoError(t, err)

	user, err := repo.FindOrCreate(context.Background(), tx, 1, model.CreateUserInput{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 42, user.ID)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserActivateOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(NewBaseRepository(db))

	ticketUUID := uuid.New()
	mock.ExpectExec(`UPDATE users`).
		WithArgs(string(model.UserStatusActive), ticketUUID, string(model.UserStatusCreating)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ActivateOwner(context.Background(), ticketUUID))
	require.NoError(t, mock.ExpectationsWereMet())
}
