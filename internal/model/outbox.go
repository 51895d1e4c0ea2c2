package model

import (
	"time"
)

type OutboxStatus string

const (
	OutboxStatusCreated OutboxStatus = "created"
	OutboxStatusSent    OutboxStatus = "sent"
)

// OutboxRecord is a durable "event to be delivered" row. It is written only
// inside the same transaction as the domain mutation that produced it, and
// mutated only by the producer when the message has been handed to the broker.
// Rows are never deleted and never transition back to created.
type OutboxRecord struct {
	ID        int64        `db:"id" json:"id"`
	EventName string       `db:"event_name" json:"event_name"`
	Payload   string       `db:"payload" json:"payload"`
	Status    OutboxStatus `db:"status" json:"status"`
	SentAt    *time.Time   `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
