package invite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

// Mailer sends a rendered message and returns the provider's message id
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendMailer sends through the Resend API
type ResendMailer struct {
	send func(*resend.SendEmailRequest) (string, error)
	from string
}

// NewResendMailer creates a mailer that sends as "fromName <fromEmail>"
func NewResendMailer(apiKey, fromEmail, fromName string) *ResendMailer {
	client := resend.NewClient(apiKey)
	return &ResendMailer{
		send: func(req *resend.SendEmailRequest) (string, error) {
			resp, err := client.Emails.Send(req)
			if err != nil {
				return "", err
			}
			return resp.Id, nil
		},
		from: formatFrom(fromEmail, fromName),
	}
}

func formatFrom(email, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Send delivers msg. The Resend client takes no context, so cancellation is only checked up front.
func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := m.send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send invite via Resend: %w", err)
	}
	return id, nil
}

// LogMailer writes what would be sent to the log instead of sending it
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a mailer for mock mode
func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{logger: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := "mock-" + uuid.NewString()
	m.logger.Info("mock_invite_email",
		zap.String("message_id", id),
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return id, nil
}
