package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/pkg/logger"
	"github.com/ticketnest/ticketing-api/pkg/messaging"
	"github.com/ticketnest/ticketing-api/pkg/metrics"
)

var errMissingSubject = errors.New("reply message has no subject")

// TicketReplyHandler applies minting outcomes onto ticket rows.
type TicketReplyHandler interface {
	Activate(ctx context.Context, ticketUUID uuid.UUID, contractID string, tokenID int64, ipfsURI, transactionHash string) error
	SetError(ctx context.Context, ticketUUID uuid.UUID, errorData string) error
}

// TransferReplyHandler applies transfer outcomes onto transfer rows.
type TransferReplyHandler interface {
	Complete(ctx context.Context, transferUUID uuid.UUID, transactionHash string) error
	Fail(ctx context.Context, transferUUID uuid.UUID, errorData string) error
}

// Alerter is notified about failure replies. Implementations must be safe to
// skip (nil Alerter disables alerting).
type Alerter interface {
	ActivationFailed(ctx context.Context, ticketUUID uuid.UUID, errorData string)
	TransferFailed(ctx context.Context, transferUUID uuid.UUID, errorData string)
}

// Consumer receives asynchronous replies from the minting workers and applies
// the corresponding terminal transitions. Every handler is idempotent, so the
// at-least-once transport never corrupts state; a reply that cannot be applied
// is logged and skipped, never blocking the rest of the stream.
type Consumer struct {
	broker    messaging.Broker
	tickets   TicketReplyHandler
	transfers TransferReplyHandler
	alerter   Alerter
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewConsumer(
	broker messaging.Broker,
	tickets TicketReplyHandler,
	transfers TransferReplyHandler,
	alerter Alerter,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Consumer {
	return &Consumer{
		broker:    broker,
		tickets:   tickets,
		transfers: transfers,
		alerter:   alerter,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start subscribes to the reply topics and blocks until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	ticketReplies, err := c.broker.Subscribe(ctx, model.TicketEventCreateReply)
	if err != nil {
		return err
	}
	transferReplies, err := c.broker.Subscribe(ctx, model.TicketEventTransferReply)
	if err != nil {
		return err
	}

	c.logger.Info("Starting reply consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Shutting down reply consumer")
			return nil
		case msg, ok := <-ticketReplies:
			if !ok {
				ticketReplies = nil
				continue
			}
			c.handle(ctx, model.TicketEventCreateReply, msg, c.HandleTicketReply)
		case msg, ok := <-transferReplies:
			if !ok {
				transferReplies = nil
				continue
			}
			c.handle(ctx, model.TicketEventTransferReply, msg, c.HandleTransferReply)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, topic string, msg []byte, fn func(context.Context, []byte) error) {
	if err := fn(ctx, msg); err != nil {
		c.metrics.RepliesFailed.WithLabelValues(topic).Inc()
		c.logger.Error(err, "Failed to apply reply", "topic", topic)
		return
	}
	c.metrics.RepliesProcessed.WithLabelValues(topic).Inc()
}

// HandleTicketReply applies one ticket.create.reply message. A non-empty
// errorData records the failure and leaves the status unchanged for retry;
// otherwise the ticket is confirmed active.
func (c *Consumer) HandleTicketReply(ctx context.Context, msg []byte) error {
	var reply model.TicketReplyMessage
	if err := json.Unmarshal(msg, &reply); err != nil {
		return err
	}
	if reply.Ticket == nil || reply.Ticket.UUID == uuid.Nil {
		return errMissingSubject
	}

	if reply.ErrorData != "" {
		if err := c.tickets.SetError(ctx, reply.Ticket.UUID, reply.ErrorData); err != nil {
			return err
		}
		if c.alerter != nil {
			c.alerter.ActivationFailed(ctx, reply.Ticket.UUID, reply.ErrorData)
		}
		return nil
	}

	return c.tickets.Activate(ctx,
		reply.Ticket.UUID,
		reply.Ticket.ContractID,
		reply.Ticket.TokenID,
		reply.Ticket.IPFSUri,
		reply.Ticket.TransactionHash,
	)
}

// HandleTransferReply applies one ticket.transfer.reply message.
func (c *Consumer) HandleTransferReply(ctx context.Context, msg []byte) error {
	var reply model.TicketTransferReplyMessage
	if err := json.Unmarshal(msg, &reply); err != nil {
		return err
	}
	if reply.Transfer == nil || reply.Transfer.UUID == uuid.Nil {
		return errMissingSubject
	}

	if reply.ErrorData != "" {
		if err := c.transfers.Fail(ctx, reply.Transfer.UUID, reply.ErrorData); err != nil {
			return err
		}
		if c.alerter != nil {
			c.alerter.TransferFailed(ctx, reply.Transfer.UUID, reply.ErrorData)
		}
		return nil
	}

	return c.transfers.Complete(ctx, reply.Transfer.UUID, reply.Transfer.TransactionHash)
}
