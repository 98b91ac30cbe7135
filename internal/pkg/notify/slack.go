package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// Notifier posts short operational messages for HR.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Slack struct {
	client  *slack.Client
	channel string
}

func NewSlack(token, channel string) *Slack {
	return &Slack{client: slack.New(token), channel: channel}
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

// Log writes messages to the structured log when no Slack token is configured.
type Log struct{}

func (Log) Notify(_ context.Context, text string) error {
	slog.Info("notification", "text", text)
	return nil
}

// New returns a Slack notifier when token and channel are set, else Log.
func New(token, channel string) Notifier {
	if token == "" || channel == "" {
		return Log{}
	}
	return NewSlack(token, channel)
}
