package model

import (
	"time"

	"github.com/google/uuid"
)

type TicketTransferStatus string

const (
	TicketTransferStatusInProgress TicketTransferStatus = "in_progress"
	TicketTransferStatusCompleted  TicketTransferStatus = "completed"
	TicketTransferStatusFailed     TicketTransferStatus = "failed"
)

// TicketTransfer moves a ticket between two users of the same provider. The
// row is created in_progress together with a ticket.transfer outbox record and
// finalized by the consumer from the transfer reply.
type TicketTransfer struct {
	ID               int64                `db:"id" json:"-"`
	UUID             uuid.UUID            `db:"uuid" json:"uuid"`
	UserIDFrom       int64                `db:"user_id_from" json:"-"`
	UserIDTo         int64                `db:"user_id_to" json:"-"`
	TicketID         int64                `db:"ticket_id" json:"-"`
	TicketProviderID int64                `db:"ticket_provider_id" json:"-"`
	Status           TicketTransferStatus `db:"status" json:"status"`
	TransactionHash  *string              `db:"transaction_hash" json:"transactionHash,omitempty"`
	ErrorData        *string              `db:"error_data" json:"-"`
	CreatedAt        time.Time            `db:"created_at" json:"createdAt"`
	FinishedAt       *time.Time           `db:"finished_at" json:"finishedAt,omitempty"`
}

// CreateTransferInput is the collaborator contract input for ticket transfers.
type CreateTransferInput struct {
	TicketUUID uuid.UUID `json:"ticketUuid" binding:"required"`
	UserUUID   uuid.UUID `json:"userUuid" binding:"required"`
}
