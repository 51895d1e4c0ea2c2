package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/model"
)

// Tx is the explicitly passed unit of work. Domain operations open one,
// thread it through every repository call and release it on all exit paths:
// Rollback after Commit is a no-op, so callers defer Rollback unconditionally.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxManager opens units of work against the backing store.
type TxManager interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// OutboxRepository is the durable queue between domain transactions and the
// producer. Append participates in the caller's transaction; FetchUndelivered
// and MarkSent belong to the producer only.
type OutboxRepository interface {
	Append(ctx context.Context, tx Tx, eventName string, payload interface{}) (*model.OutboxRecord, error)
	FetchUndelivered(ctx context.Context, limit int) ([]*model.OutboxRecord, error)
	MarkSent(ctx context.Context, ids []int64) error
	CountUndelivered(ctx context.Context) (int64, error)
}

type TicketRepository interface {
	Create(ctx context.Context, tx Tx, ticket *model.Ticket) error
	GetByUUID(ctx context.Context, providerID int64, ticketUUID uuid.UUID) (*model.Ticket, error)
	GetByUUIDTx(ctx context.Context, tx Tx, ticketUUID uuid.UUID) (*model.Ticket, error)
	// GetForValidation acquires a pessimistic write lock on the single row
	// matching (uuid, provider, status=active). The lock is held until the
	// surrounding transaction commits or rolls back.
	GetForValidation(ctx context.Context, tx Tx, ticketUUID uuid.UUID, providerID int64) (*model.Ticket, error)
	MarkValidated(ctx context.Context, tx Tx, ticketUUID uuid.UUID, at time.Time) error
	MarkDeleted(ctx context.Context, tx Tx, ticketUUID uuid.UUID, at time.Time) error
	Activate(ctx context.Context, ticketUUID uuid.UUID, contractID string, tokenID int64, ipfsURI, transactionHash string) error
	SetError(ctx context.Context, ticketUUID uuid.UUID, errorData string) error
}

type UserRepository interface {
	FindOrCreate(ctx context.Context, tx Tx, providerID int64, input model.CreateUserInput) (*model.User, error)
	GetByUUID(ctx context.Context, providerID int64, userUUID uuid.UUID) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// ActivateOwner transitions the ticket's owner creating -> active once a
	// minting reply confirms the wallet. Idempotent.
	ActivateOwner(ctx context.Context, ticketUUID uuid.UUID) error
}

type EventRepository interface {
	FindOrCreate(ctx context.Context, tx Tx, providerID int64, name string) (*model.Event, error)
}

type TicketTypeRepository interface {
	FindOrCreate(ctx context.Context, tx Tx, eventID int64, name string, dateStart time.Time, dateEnd *time.Time) (*model.TicketType, error)
}

type ProviderRepository interface {
	Create(ctx context.Context, provider *model.TicketProvider) error
	GetByUUID(ctx context.Context, providerUUID uuid.UUID) (*model.TicketProvider, error)
}

type EncryptionKeyRepository interface {
	Create(ctx context.Context, key *model.TicketProviderEncryptionKey) error
	GetCurrent(ctx context.Context, providerID int64) (*model.TicketProviderEncryptionKey, error)
	GetByVersion(ctx context.Context, providerID int64, version int) (*model.TicketProviderEncryptionKey, error)
}

type TransferRepository interface {
	Create(ctx context.Context, tx Tx, transfer *model.TicketTransfer) error
	GetByUUID(ctx context.Context, providerID int64, transferUUID uuid.UUID) (*model.TicketTransfer, error)
	Complete(ctx context.Context, transferUUID uuid.UUID, transactionHash string) error
	Fail(ctx context.Context, transferUUID uuid.UUID, errorData string) error
}
