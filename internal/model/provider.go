package model

import (
	"time"

	"github.com/google/uuid"
)

type SecurityLevel int

const (
	// SecurityLevelStandard emits plain ticket-create messages.
	SecurityLevelStandard SecurityLevel = 1
	// SecurityLevelEncrypted additionally attaches an encrypted copy of the
	// ticket user's data to ticket-create messages.
	SecurityLevelEncrypted SecurityLevel = 2
)

// TicketProvider is the tenant. Every API request is resolved to exactly one
// provider via its API key, and every aggregate row is scoped to one provider.
type TicketProvider struct {
	ID            int64         `db:"id" json:"-"`
	UUID          uuid.UUID     `db:"uuid" json:"uuid"`
	Name          string        `db:"name" json:"name"`
	Email         string        `db:"email" json:"email"`
	SecurityLevel SecurityLevel `db:"security_level" json:"securityLevel"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// TicketProviderEncryptionKey is a versioned per-tenant secret used to encrypt
// user data for level-2 providers. Keys are never rotated in place; a new
// version is appended and messages carry the version they were sealed with.
type TicketProviderEncryptionKey struct {
	ID               int64     `db:"id" json:"-"`
	TicketProviderID int64     `db:"ticket_provider_id" json:"-"`
	Version          int       `db:"version" json:"version"`
	SecretKey        string    `db:"secret_key" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
