// Package mailer sends transactional e-mail through SendGrid, or logs it when
// no API key is configured.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"crwn/internal/observability"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message kinds, used as metric labels.
const (
	KindWelcome  = "welcome"
	KindFeedback = "feedback"
)

// Message is a single outbound e-mail.
type Message struct {
	Kind    string
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config configures New.
type Config struct {
	APIKey   string
	From     string
	FromName string
	// Host overrides the SendGrid API host; empty uses the public API.
	Host string
}

// New returns a SendGrid mailer, or a LogMailer when cfg.APIKey is empty.
func New(cfg Config) Mailer {
	if cfg.APIKey == "" {
		return &LogMailer{}
	}
	return NewSendGridMailer(cfg)
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(cfg Config) *SendGridMailer {
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.Host != "" {
		client.BaseURL = cfg.Host + "/v3/mail/send"
	}
	name := cfg.FromName
	if name == "" {
		name = "CRWN"
	}
	return &SendGridMailer{client: client, from: mail.NewEmail(name, cfg.From)}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Text, msg.HTML)
	resp, err := m.client.SendWithContext(ctx, email)
	if err == nil && resp.StatusCode >= 300 {
		err = fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	observability.MailDeliveries.WithLabelValues(msg.Kind, observability.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("send %s mail: %w", msg.Kind, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	observability.GlobalLogger.InfoContext(ctx, "mail not sent, no SendGrid key configured",
		slog.String("kind", msg.Kind),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	observability.MailDeliveries.WithLabelValues(msg.Kind, "skipped").Inc()
	return nil
}
