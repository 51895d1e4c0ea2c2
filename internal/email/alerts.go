package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/ticketnest/ticketing-api/pkg/logger"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// AlertMailer sends operator alerts for failure replies. Delivery is best
// effort: a failed send is logged and dropped, reply processing never blocks
// on SMTP.
type AlertMailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger *logger.Logger
}

func NewAlertMailer(config SMTPConfig, logger *logger.Logger) *AlertMailer {
	return &AlertMailer{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
		to:     config.To,
		logger: logger,
	}
}

func (m *AlertMailer) ActivationFailed(ctx context.Context, ticketUUID uuid.UUID, errorData string) {
	subject := fmt.Sprintf("Ticket activation failed: %s", ticketUUID)
	body := fmt.Sprintf("Ticket %s could not be activated.\n\nError: %s\n", ticketUUID, errorData)
	m.send(subject, body)
}

func (m *AlertMailer) TransferFailed(ctx context.Context, transferUUID uuid.UUID, errorData string) {
	subject := fmt.Sprintf("Ticket transfer failed: %s", transferUUID)
	body := fmt.Sprintf("Transfer %s could not be completed.\n\nError: %s\n", transferUUID, errorData)
	m.send(subject, body)
}

func (m *AlertMailer) send(subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error(err, "Failed to send alert email", "subject", subject)
	}
}
