package model

import (
	"time"

	"github.com/google/uuid"
)

// Event groups ticket types under one ticket provider. Events are
// found-or-created by (name, provider).
type Event struct {
	ID               int64     `db:"id" json:"-"`
	UUID             uuid.UUID `db:"uuid" json:"uuid"`
	Name             string    `db:"name" json:"name"`
	TicketProviderID int64     `db:"ticket_provider_id" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// TicketType is a sellable category within an event, found-or-created by
// (event, name, ticket date).
type TicketType struct {
	ID              int64      `db:"id" json:"-"`
	UUID            uuid.UUID  `db:"uuid" json:"uuid"`
	Name            string     `db:"name" json:"name"`
	EventID         int64      `db:"event_id" json:"-"`
	TicketDateStart time.Time  `db:"ticket_date_start" json:"ticketDateStart"`
	TicketDateEnd   *time.Time `db:"ticket_date_end" json:"ticketDateEnd,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}
