package ticket

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	"github.com/ticketnest/ticketing-api/pkg/logger"
)

// UserDataEncryptor seals ticket-user data for providers that require it.
type UserDataEncryptor interface {
	EncryptUserData(ctx context.Context, provider *model.TicketProvider, user *model.User) (*model.EncryptedData, error)
}

// userDataStrategy decides what, if anything, accompanies a ticket.create
// message as encrypted user data. Keyed by provider security level.
type userDataStrategy func(ctx context.Context, provider *model.TicketProvider, user *model.User) (*model.EncryptedData, error)

// Service owns the ticket lifecycle. Every state change is paired with its
// outbox record inside one transaction: either both commit or neither does.
type Service struct {
	txm         repository.TxManager
	tickets     repository.TicketRepository
	users       repository.UserRepository
	events      repository.EventRepository
	ticketTypes repository.TicketTypeRepository
	outbox      repository.OutboxRepository
	strategies  map[model.SecurityLevel]userDataStrategy
	logger      *logger.Logger
}

func NewService(
	txm repository.TxManager,
	tickets repository.TicketRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	ticketTypes repository.TicketTypeRepository,
	outbox repository.OutboxRepository,
	encryptor UserDataEncryptor,
	logger *logger.Logger,
) *Service {
	return &Service{
		txm:         txm,
		tickets:     tickets,
		users:       users,
		events:      events,
		ticketTypes: ticketTypes,
		outbox:      outbox,
		strategies: map[model.SecurityLevel]userDataStrategy{
			model.SecurityLevelStandard: func(context.Context, *model.TicketProvider, *model.User) (*model.EncryptedData, error) {
				return nil, nil
			},
			model.SecurityLevelEncrypted: encryptor.EncryptUserData,
		},
		logger: logger,
	}
}

// Create upserts the referenced user, event and ticket type, inserts the
// ticket and appends the ticket.create outbox record, all in one transaction.
// Any failure rolls the whole unit back and the original error propagates
// unchanged.
func (s *Service) Create(ctx context.Context, provider *model.TicketProvider, input model.CreateTicketInput) (*model.Ticket, error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user, err := s.users.FindOrCreate(ctx, tx, provider.ID, input.User)
	if err != nil {
		return nil, err
	}

	event, err := s.events.FindOrCreate(ctx, tx, provider.ID, input.Event.Name)
	if err != nil {
		return nil, err
	}

	ticketType, err := s.ticketTypes.FindOrCreate(ctx, tx, event.ID, input.TicketType.Name, input.TicketType.TicketDateStart, input.TicketType.TicketDateEnd)
	if err != nil {
		return nil, err
	}

	imageURL := input.ImageURL
	if imageURL == "" {
		imageURL = model.DefaultTicketImage
	}

	ticket := &model.Ticket{
		TicketProviderID: provider.ID,
		UserID:           user.ID,
		EventID:          event.ID,
		TicketTypeID:     ticketType.ID,
		ImageURL:         imageURL,
		AdditionalData:   input.AdditionalData,
		Status:           model.TicketStatusActive,
	}
	if err := s.tickets.Create(ctx, tx, ticket); err != nil {
		return nil, err
	}

	encrypted, err := s.encryptedUserData(ctx, provider, user)
	if err != nil {
		return nil, err
	}

	message := model.TicketCreateMessage{
		Ticket:        ticket,
		User:          user,
		EncryptedData: encrypted,
		OperationUUID: uuid.New(),
	}
	if _, err := s.outbox.Append(ctx, tx, model.TicketEventCreate, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("ticket created", "ticket_uuid", ticket.UUID.String(), "provider", provider.UUID.String())
	return s.tickets.GetByUUID(ctx, provider.ID, ticket.UUID)
}

// Validate redeems a ticket. The pessimistic row lock taken by
// GetForValidation is the mechanism that keeps two concurrent validations of
// the same ticket from both succeeding: the loser finds no active row and
// gets NotFound with no side effects.
func (s *Service) Validate(ctx context.Context, provider *model.TicketProvider, ticketUUID uuid.UUID) (*model.Ticket, error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.tickets.GetForValidation(ctx, tx, ticketUUID, provider.ID); err != nil {
		return nil, err
	}

	if err := s.tickets.MarkValidated(ctx, tx, ticketUUID, time.Now()); err != nil {
		return nil, err
	}

	validated, err := s.tickets.GetByUUIDTx(ctx, tx, ticketUUID)
	if err != nil {
		return nil, err
	}

	message := model.TicketValidateMessage{
		Ticket:        validated,
		OperationUUID: uuid.New(),
	}
	if _, err := s.outbox.Append(ctx, tx, model.TicketEventValidate, message); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("ticket validated", "ticket_uuid", ticketUUID.String())
	return validated, nil
}

// Delete is an idempotent terminal transition: no precondition on the current
// status, deleting an already-deleted ticket is not an error at this layer.
func (s *Service) Delete(ctx context.Context, ticketUUID uuid.UUID) error {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.tickets.MarkDeleted(ctx, tx, ticketUUID, time.Now()); err != nil {
		return err
	}

	deleted, err := s.tickets.GetByUUIDTx(ctx, tx, ticketUUID)
	if err != nil {
		return err
	}

	message := model.TicketDeleteMessage{
		Ticket:        deleted,
		OperationUUID: uuid.New(),
	}
	if _, err := s.outbox.Append(ctx, tx, model.TicketEventDelete, message); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("ticket deleted", "ticket_uuid", ticketUUID.String())
	return nil
}

func (s *Service) Get(ctx context.Context, provider *model.TicketProvider, ticketUUID uuid.UUID) (*model.Ticket, error) {
	return s.tickets.GetByUUID(ctx, provider.ID, ticketUUID)
}

// Activate applies a successful minting reply: sets the chain correlation
// fields, confirms active status and clears any previous error. A confirmed
// mint also proves the owner's wallet, so a still-creating owner goes active
// here, which is what makes them eligible to receive transfers. Replaying the
// same reply re-sets identical values and is a no-op.
func (s *Service) Activate(ctx context.Context, ticketUUID uuid.UUID, contractID string, tokenID int64, ipfsURI, transactionHash string) error {
	if err := s.tickets.Activate(ctx, ticketUUID, contractID, tokenID, ipfsURI, transactionHash); err != nil {
		return err
	}
	return s.users.ActivateOwner(ctx, ticketUUID)
}

// SetError records a failed minting attempt without changing status, leaving
// the ticket eligible for retry.
func (s *Service) SetError(ctx context.Context, ticketUUID uuid.UUID, errorData string) error {
	return s.tickets.SetError(ctx, ticketUUID, errorData)
}

func (s *Service) encryptedUserData(ctx context.Context, provider *model.TicketProvider, user *model.User) (*model.EncryptedData, error) {
	strategy, ok := s.strategies[provider.SecurityLevel]
	if !ok {
		strategy = s.strategies[model.SecurityLevelStandard]
	}
	return strategy(ctx, provider, user)
}
