package model

import (
	"github.com/google/uuid"
)

// EncryptedData carries a sealed copy of the ticket user's data for level-2
// providers, together with the encryption key version it was sealed with.
type EncryptedData struct {
	Content string `json:"content"`
	Version int    `json:"version"`
}

// TicketCreateMessage is the payload of a ticket.create outbox record. The
// EncryptedData field is attached only for level-2 providers; it is omitted
// entirely otherwise.
type TicketCreateMessage struct {
	Ticket        *Ticket        `json:"ticket"`
	User          *User          `json:"user"`
	EncryptedData *EncryptedData `json:"encryptedData,omitempty"`
	OperationUUID uuid.UUID      `json:"operationUuid"`
}

// TicketValidateMessage is the payload of a ticket.validate outbox record.
type TicketValidateMessage struct {
	Ticket        *Ticket   `json:"ticket"`
	OperationUUID uuid.UUID `json:"operationUuid"`
}

// TicketDeleteMessage is the payload of a ticket.delete outbox record.
type TicketDeleteMessage struct {
	Ticket        *Ticket   `json:"ticket"`
	OperationUUID uuid.UUID `json:"operationUuid"`
}

// TicketTransferMessage is the payload of a ticket.transfer outbox record.
type TicketTransferMessage struct {
	Transfer      *TicketTransfer `json:"transfer"`
	UserFrom      *User           `json:"userFrom"`
	UserTo        *User           `json:"userTo"`
	Ticket        *Ticket         `json:"ticket"`
	OperationUUID uuid.UUID       `json:"operationUuid"`
}

// TicketReplyMessage is consumed from ticket.create.reply. A non-empty
// ErrorData marks a failed minting attempt; the ticket keeps its status and
// records the error for retry.
type TicketReplyMessage struct {
	Ticket    *TicketReply `json:"ticket"`
	ErrorData string       `json:"errorData,omitempty"`
}

type TicketReply struct {
	UUID            uuid.UUID `json:"uuid"`
	ContractID      string    `json:"contractId"`
	TokenID         int64     `json:"tokenId"`
	IPFSUri         string    `json:"ipfsUri"`
	TransactionHash string    `json:"transactionHash"`
}

// TicketTransferReplyMessage is consumed from ticket.transfer.reply.
type TicketTransferReplyMessage struct {
	Transfer  *TicketTransferReply `json:"transfer"`
	ErrorData string               `json:"errorData,omitempty"`
}

type TicketTransferReply struct {
	UUID            uuid.UUID `json:"uuid"`
	TransactionHash string    `json:"transactionHash"`
}
