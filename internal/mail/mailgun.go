package mail

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/vidfriends/appcore/internal/deletion"
	"github.com/vidfriends/appcore/internal/logging"
)

// MailgunClient is the subset of the Mailgun API used here.
type MailgunClient interface {
	NewMessage(from, subject, text string, to ...string) *mg.Message
	Send(ctx context.Context, m *mg.Message) (string, string, error)
}

// MailgunComposer delivers drafts through Mailgun instead of a local mail client.
type MailgunComposer struct {
	client  MailgunClient
	sender  string
	timeout time.Duration
}

// NewMailgunComposer builds a composer sending from sender via the given domain.
func NewMailgunComposer(domain, apiKey, sender string) *MailgunComposer {
	return NewMailgunComposerWithClient(mg.NewMailgun(domain, apiKey), sender)
}

// NewMailgunComposerWithClient wraps an existing client.
func NewMailgunComposerWithClient(client MailgunClient, sender string) *MailgunComposer {
	return &MailgunComposer{client: client, sender: sender, timeout: 10 * time.Second}
}

func (c *MailgunComposer) Compose(ctx context.Context, draft deletion.Draft) error {
	if len(draft.To) == 0 {
		return fmt.Errorf("mailgun: no recipients")
	}

	msg := c.client.NewMessage(c.sender, draft.Subject, draft.Body, draft.To...)

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, id, err := c.client.Send(sendCtx, msg)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	logging.FromContext(ctx).Info("email sent", "provider", "mailgun", "messageId", id)
	return nil
}
