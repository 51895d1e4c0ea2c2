package model

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusCreating  TicketStatus = "creating"
	TicketStatusActive    TicketStatus = "active"
	TicketStatusValidated TicketStatus = "validated"
	TicketStatusDeleted   TicketStatus = "deleted"
)

// Event patterns are the outbox topics the ticket lifecycle emits and the
// reply topics the consumer listens on.
const (
	TicketEventCreate        = "ticket.create"
	TicketEventCreateReply   = "ticket.create.reply"
	TicketEventValidate      = "ticket.validate"
	TicketEventDelete        = "ticket.delete"
	TicketEventDeleteReply   = "ticket.delete.reply"
	TicketEventTransfer      = "ticket.transfer"
	TicketEventTransferReply = "ticket.transfer.reply"
)

const DefaultTicketImage = "https://cdn.ticketnest.io/assets/ticket-placeholder.jpg"

// Ticket is the domain aggregate guarded by the lifecycle state machine:
// creating -> active -> validated, with deleted reachable from any
// non-terminal state. Validated and deleted are terminal.
type Ticket struct {
	ID               int64        `db:"id" json:"-"`
	UUID             uuid.UUID    `db:"uuid" json:"uuid"`
	TicketProviderID int64        `db:"ticket_provider_id" json:"-"`
	UserID           int64        `db:"user_id" json:"-"`
	EventID          int64        `db:"event_id" json:"-"`
	TicketTypeID     int64        `db:"ticket_type_id" json:"-"`
	ImageURL         string       `db:"image_url" json:"imageUrl"`
	AdditionalData   JSONMap      `db:"-" json:"additionalData,omitempty"`
	AdditionalRaw    []byte       `db:"additional_data" json:"-"`
	ContractID       *string      `db:"contract_id" json:"contractId,omitempty"`
	TokenID          *int64       `db:"token_id" json:"tokenId,omitempty"`
	IPFSUri          *string      `db:"ipfs_uri" json:"ipfsUri,omitempty"`
	TransactionHash  *string      `db:"transaction_hash" json:"transactionHash,omitempty"`
	ErrorData        *string      `db:"error_data" json:"-"`
	Status           TicketStatus `db:"status" json:"status"`
	ValidatedAt      *time.Time   `db:"validated_at" json:"validatedAt,omitempty"`
	DeletedAt        *time.Time   `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`
}

// TicketFilters narrows ticket listings for one provider.
type TicketFilters struct {
	BaseFilter
	UserUUID uuid.UUID `json:"user_uuid" form:"user_uuid"`
}

// CreateTicketInput is the collaborator contract input for ticket creation.
// Referenced user, event and ticket type follow find-or-create semantics.
type CreateTicketInput struct {
	User           CreateUserInput       `json:"user" binding:"required"`
	Event          CreateEventInput      `json:"event" binding:"required"`
	TicketType     CreateTicketTypeInput `json:"ticketType" binding:"required"`
	ImageURL       string                `json:"imageUrl" binding:"omitempty,url"`
	AdditionalData JSONMap               `json:"additionalData"`
}

type CreateUserInput struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
}

type CreateEventInput struct {
	Name string `json:"name" binding:"required"`
}

type CreateTicketTypeInput struct {
	Name            string     `json:"name" binding:"required"`
	TicketDateStart time.Time  `json:"ticketDateStart" binding:"required"`
	TicketDateEnd   *time.Time `json:"ticketDateEnd"`
}
