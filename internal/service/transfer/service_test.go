package transfer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"
	"github.com/ticketnest/ticketing-api/pkg/logger"
)

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

type fixture struct {
	users     []*model.User
	tickets   []*model.Ticket
	transfers []*model.TicketTransfer
	outbox    []*model.OutboxRecord
	nextID    int64
}

func (f *fixture) id() int64 { f.nextID++; return f.nextID }

func (f *fixture) BeginTx(ctx context.Context) (repository.Tx, error) { return noopTx{}, nil }

type fxUserRepo struct{ *fixture }

func (f fxUserRepo) FindOrCreate(ctx context.Context, tx repository.Tx, providerID int64, input model.CreateUserInput) (*model.User, error) {
	panic("not used")
}

func (f fxUserRepo) GetByUUID(ctx context.Context, providerID int64, userUUID uuid.UUID) (*model.User, error) {
	for _, u := range f.users {
		if u.TicketProviderID == providerID && u.UUID == userUUID {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (f fxUserRepo) ActivateOwner(ctx context.Context, ticketUUID uuid.UUID) error {
	panic("not used")
}

func (f fxUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

type fxTicketRepo struct{ *fixture }

func (f fxTicketRepo) Create(ctx context.Context, tx repository.Tx, ticket *model.Ticket) error {
	panic("not used")
}

func (f fxTicketRepo) GetByUUID(ctx context.Context, providerID int64, ticketUUID uuid.UUID) (*model.Ticket, error) {
	panic("not used")
}

func (f fxTicketRepo) GetByUUIDTx(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID) (*model.Ticket, error) {
	for _, t := range f.tickets {
		if t.UUID == ticketUUID {
			return t, nil
		}
	}
	return nil, apperrors.NotFound("ticket", nil)
}

func (f fxTicketRepo) GetForValidation(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID, providerID int64) (*model.Ticket, error) {
	panic("not used")
}

func (f fxTicketRepo) MarkValidated(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID, at time.Time) error {
	panic("not used")
}

func (f fxTicketRepo) MarkDeleted(ctx context.Context, tx repository.Tx, ticketUUID uuid.UUID, at time.Time) error {
	panic("not used")
}

func (f fxTicketRepo) Activate(ctx context.Context, ticketUUID uuid.UUID, contractID string, tokenID int64, ipfsURI, transactionHash string) error {
	panic("not used")
}

func (f fxTicketRepo) SetError(ctx context.Context, ticketUUID uuid.UUID, errorData string) error {
	panic("not used")
}

type fxTransferRepo struct{ *fixture }

func (f fxTransferRepo) Create(ctx context.Context, tx repository.Tx, transfer *model.TicketTransfer) error {
	transfer.ID = f.id()
	transfer.UUID = uuid.New()
	transfer.Status = model.TicketTransferStatusInProgress
	transfer.CreatedAt = time.Now()
	f.transfers = append(f.transfers, transfer)
	return nil
}

func (f fxTransferRepo) GetByUUID(ctx context.Context, providerID int64, transferUUID uuid.UUID) (*model.TicketTransfer, error) {
	for _, tr := range f.transfers {
		if tr.TicketProviderID == providerID && tr.UUID == transferUUID {
			return tr, nil
		}
	}
	return nil, apperrors.NotFound("transfer", nil)
}

func (f fxTransferRepo) Complete(ctx context.Context, transferUUID uuid.UUID, transactionHash string) error {
	for _, tr := range f.transfers {
		if tr.UUID == transferUUID {
			tr.Status = model.TicketTransferStatusCompleted
			tr.TransactionHash = &transactionHash
			if tr.FinishedAt == nil {
				now := time.Now()
				tr.FinishedAt = &now
			}
			return nil
		}
	}
	return apperrors.NotFound("transfer", nil)
}

func (f fxTransferRepo) Fail(ctx context.Context, transferUUID uuid.UUID, errorData string) error {
	for _, tr := range f.transfers {
		if tr.UUID == transferUUID {
			tr.Status = model.TicketTransferStatusFailed
			tr.ErrorData = &errorData
			now := time.Now()
			tr.FinishedAt = &now
			return nil
		}
	}
	return apperrors.NotFound("transfer", nil)
}

type fxOutboxRepo struct{ *fixture }

func (f fxOutboxRepo) Append(ctx context.Context, tx repository.Tx, eventName string, payload interface{}) (*model.OutboxRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	record := &model.OutboxRecord{
		ID:        f.id(),
		EventName: eventName,
		Payload:   string(raw),
		Status:    model.OutboxStatusCreated,
		CreatedAt: time.Now(),
	}
	f.outbox = append(f.outbox, record)
	return record, nil
}

func (f fxOutboxRepo) FetchUndelivered(ctx context.Context, limit int) ([]*model.OutboxRecord, error) {
	panic("not used")
}

func (f fxOutboxRepo) MarkSent(ctx context.Context, ids []int64) error { panic("not used") }

func (f fxOutboxRepo) CountUndelivered(ctx context.Context) (int64, error) { panic("not used") }

func newFixture() (*fixture, *Service, *model.TicketProvider) {
	fx := &fixture{}
	provider := &model.TicketProvider{ID: 1, UUID: uuid.New(), Name: "acme"}
	svc := NewService(fx, fxTransferRepo{fx}, fxTicketRepo{fx}, fxUserRepo{fx}, fxOutboxRepo{fx}, logger.NewLogger(nil))
	return fx, svc, provider
}

func (f *fixture) addUser(providerID int64, status model.UserStatus) *model.User {
	u := &model.User{ID: f.id(), UUID: uuid.New(), TicketProviderID: providerID, Email: uuid.NewString() + "@example.com", Status: status}
	f.users = append(f.users, u)
	return u
}

func (f *fixture) addTicket(providerID, userID int64, status model.TicketStatus) *model.Ticket {
	t := &model.Ticket{ID: f.id(), UUID: uuid.New(), TicketProviderID: providerID, UserID: userID, Status: status}
	f.tickets = append(f.tickets, t)
	return t
}

func TestCreateTransfer(t *testing.T) {
	fx, svc, provider := newFixture()
	owner := fx.addUser(provider.ID, model.UserStatusActive)
	receiver := fx.addUser(provider.ID, model.UserStatusActive)
	ticket := fx.addTicket(provider.ID, owner.ID, model.TicketStatusActive)

	created, err := svc.Create(context.Background(), provider, model.CreateTransferInput{
		TicketUUID: ticket.UUID,
		UserUUID:   receiver.UUID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.TicketTransferStatusInProgress, created.Status)
	assert.Equal(t, owner.ID, created.UserIDFrom)
	assert.Equal(t, receiver.ID, created.UserIDTo)

	require.Len(t, fx.outbox, 1)
	assert.Equal(t, model.TicketEventTransfer, fx.outbox[0].EventName)

	var msg model.TicketTransferMessage
	require.NoError(t, json.Unmarshal([]byte(fx.outbox[0].Payload), &msg))
	assert.Equal(t, created.UUID, msg.Transfer.UUID)
	assert.Equal(t, owner.UUID, msg.UserFrom.UUID)
	assert.Equal(t, receiver.UUID, msg.UserTo.UUID)
	assert.NotEqual(t, uuid.Nil, msg.OperationUUID)
}

func TestCreateTransferReceiverNotActive(t *testing.T) {
	fx, svc, provider := newFixture()
	owner := fx.addUser(provider.ID, model.UserStatusActive)
	receiver := fx.addUser(provider.ID, model.UserStatusCreating)
	ticket := fx.addTicket(provider.ID, owner.ID, model.TicketStatusActive)

	_, err := svc.Create(context.Background(), provider, model.CreateTransferInput{
		TicketUUID: ticket.UUID,
		UserUUID:   receiver.UUID,
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Empty(t, fx.outbox)
}

func TestCreateTransferForeignTicket(t *testing.T) {
	fx, svc, provider := newFixture()
	receiver := fx.addUser(provider.ID, model.UserStatusActive)
	foreignOwner := fx.addUser(2, model.UserStatusActive)
	ticket := fx.addTicket(2, foreignOwner.ID, model.TicketStatusActive)

	_, err := svc.Create(context.Background(), provider, model.CreateTransferInput{
		TicketUUID: ticket.UUID,
		UserUUID:   receiver.UUID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, fx.outbox)
}

func TestCreateTransferTicketNotActive(t *testing.T) {
	fx, svc, provider := newFixture()
	owner := fx.addUser(provider.ID, model.UserStatusActive)
	receiver := fx.addUser(provider.ID, model.UserStatusActive)
	ticket := fx.addTicket(provider.ID, owner.ID, model.TicketStatusValidated)

	_, err := svc.Create(context.Background(), provider, model.CreateTransferInput{
		TicketUUID: ticket.UUID,
		UserUUID:   receiver.UUID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCompleteTransferIdempotent(t *testing.T) {
	fx, svc, provider := newFixture()
	owner := fx.addUser(provider.ID, model.UserStatusActive)
	receiver := fx.addUser(provider.ID, model.UserStatusActive)
	ticket := fx.addTicket(provider.ID, owner.ID, model.TicketStatusActive)

	created, err := svc.Create(context.Background(), provider, model.CreateTransferInput{
		TicketUUID: ticket.UUID,
		UserUUID:   receiver.UUID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Complete(context.Background(), created.UUID, "0xhash"))
	assert.Equal(t, model.TicketTransferStatusCompleted, created.Status)
	require.NotNil(t, created.FinishedAt)
	first := *created.FinishedAt

	require.NoError(t, svc.Complete(context.Background(), created.UUID, "0xhash"))
	assert.Equal(t, first, *created.FinishedAt)
}

func TestFailTransfer(t *testing.T) {
	fx, svc, provider := newFixture()
	owner := fx.addUser(provider.ID, model.UserStatusActive)
	receiver := fx.addUser(provider.ID, model.UserStatusActive)
	ticket := fx.addTicket(provider.ID, owner.ID, model.TicketStatusActive)

	created, err := svc.Create(context.Background(), provider, model.CreateTransferInput{
		TicketUUID: ticket.UUID,
		UserUUID:   receiver.UUID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Fail(context.Background(), created.UUID, "chain unavailable"))
	assert.Equal(t, model.TicketTransferStatusFailed, created.Status)
	require.NotNil(t, created.ErrorData)
	assert.Equal(t, "chain unavailable", *created.ErrorData)
}
