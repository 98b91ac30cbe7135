package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
)

const maxRetries = 3

// Mailer delivers a built message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", msg.To, "subject", msg.Subject)
		return nil
	}

	raw, err := msg.Build()
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := smtp.SendMail(addr, auth, msg.From, msg.To, raw)
		if err == nil {
			slog.Info("Email sent successfully", "to", msg.To, "subject", msg.Subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", msg.To,
			"subject", msg.Subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

type SESMailer struct {
	client *ses.Client
}

func NewSESMailer(cfg aws.Config) *SESMailer {
	return &SESMailer{client: ses.NewFromConfig(cfg)}
}

func (s *SESMailer) Send(ctx context.Context, msg Message) error {
	raw, err := msg.Build()
	if err != nil {
		return err
	}

	res, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: raw},
	})
	if err != nil {
		return fmt.Errorf("failed to send email via ses: %w", err)
	}
	slog.Info("Email sent successfully", "to", msg.To, "subject", msg.Subject, "message_id", aws.ToString(res.MessageId))
	return nil
}
