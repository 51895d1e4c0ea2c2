package model

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusCreating UserStatus = "creating"
	UserStatusActive   UserStatus = "active"
)

// User is a ticket holder. Users are owned by one ticket provider and are
// found-or-created by (email, provider) during ticket creation.
type User struct {
	ID               int64      `db:"id" json:"-"`
	UUID             uuid.UUID  `db:"uuid" json:"uuid"`
	TicketProviderID int64      `db:"ticket_provider_id" json:"-"`
	Name             string     `db:"name" json:"name"`
	Email            string     `db:"email" json:"email"`
	PhoneNumber      *string    `db:"phone_number" json:"phoneNumber,omitempty"`
	WalletAddress    *string    `db:"wallet_address" json:"walletAddress,omitempty"`
	Status           UserStatus `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}
