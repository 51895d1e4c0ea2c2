package transfer

import (
	"context"

	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"
	"github.com/ticketnest/ticketing-api/pkg/logger"
)

// Service moves tickets between users. A transfer row and its ticket.transfer
// outbox record are committed atomically; the consumer finalizes the row from
// the transfer reply.
type Service struct {
	txm       repository.TxManager
	transfers repository.TransferRepository
	tickets   repository.TicketRepository
	users     repository.UserRepository
	outbox    repository.OutboxRepository
	logger    *logger.Logger
}

func NewService(
	txm repository.TxManager,
	transfers repository.TransferRepository,
	tickets repository.TicketRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	logger *logger.Logger,
) *Service {
	return &Service{
		txm:       txm,
		transfers: transfers,
		tickets:   tickets,
		users:     users,
		outbox:    outbox,
		logger:    logger,
	}
}

// Create starts a transfer. The receiving user must be active and the ticket
// must be an active ticket of the same provider; the source user is the
// ticket's current holder.
func (s *Service) Create(ctx context.Context, provider *model.TicketProvider, input model.CreateTransferInput) (*model.TicketTransfer, error) {
	userTo, err := s.users.GetByUUID(ctx, provider.ID, input.UserUUID)
	if err != nil {
		return nil, err
	}
	if userTo.Status != model.UserStatusActive {
		return nil, apperrors.BadRequest("user is not yet active", nil)
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ticket, err := s.tickets.GetByUUIDTx(ctx, tx, input.TicketUUID)
	if err != nil {
		return nil, err
	}
	if ticket.TicketProviderID != provider.ID || ticket.Status != model.TicketStatusActive {
		return nil, apperrors.NotFound("ticket", nil)
	}

	userFrom, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		return nil, err
	}

	transfer := &model.TicketTransfer{
		UserIDFrom:       userFrom.ID,
		UserIDTo:         userTo.ID,
		TicketID:         ticket.ID,
		TicketProviderID: provider.ID,
	}
	if err := s.transfers.Create(ctx, tx, transfer); err != nil {
		return nil, err
	}

	message := model.TicketTransferMessage{
		Transfer:      transfer,
		UserFrom:      userFrom,
		UserTo:        userTo,
		Ticket:        ticket,
		OperationUUID: uuid.New(),
	}
	if _, err := s.outbox.Append(ctx, tx, model.TicketEventTransfer, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("ticket transfer created", "transfer_uuid", transfer.UUID.String())
	return transfer, nil
}

func (s *Service) Get(ctx context.Context, provider *model.TicketProvider, transferUUID uuid.UUID) (*model.TicketTransfer, error) {
	return s.transfers.GetByUUID(ctx, provider.ID, transferUUID)
}

// Complete applies a successful transfer reply. Idempotent: the finish time
// is preserved on replay.
func (s *Service) Complete(ctx context.Context, transferUUID uuid.UUID, transactionHash string) error {
	return s.transfers.Complete(ctx, transferUUID, transactionHash)
}

// Fail records a failed transfer reply.
func (s *Service) Fail(ctx context.Context, transferUUID uuid.UUID, errorData string) error {
	return s.transfers.Fail(ctx, transferUUID, errorData)
}
