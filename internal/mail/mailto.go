// Package mail hands drafted emails to the user's mail client or to Mailgun.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vidfriends/appcore/internal/deletion"
	"github.com/vidfriends/appcore/internal/logging"
)

// Opener presents a mailto: link to the user, e.g. by printing it or returning it to a UI.
type Opener func(ctx context.Context, link string) error

// MailtoComposer drafts emails as mailto: links. The user sends them from their own client.
type MailtoComposer struct {
	Open Opener
}

func (c MailtoComposer) Compose(ctx context.Context, draft deletion.Draft) error {
	if len(draft.To) == 0 {
		return fmt.Errorf("mailto: no recipients")
	}
	link := MailtoURL(draft)
	logging.FromContext(ctx).Info("email drafted", "recipients", len(draft.To), "subject", draft.Subject)
	if c.Open == nil {
		return nil
	}
	return c.Open(ctx, link)
}

// MailtoURL renders draft as an RFC 6068 mailto: URL.
func MailtoURL(draft deletion.Draft) string {
	to := make([]string, len(draft.To))
	for i, addr := range draft.To {
		to[i] = escape(addr)
	}

	var params []string
	if draft.Subject != "" {
		params = append(params, "subject="+escape(draft.Subject))
	}
	if draft.Body != "" {
		params = append(params, "body="+escape(strings.ReplaceAll(draft.Body, "\n", "\r\n")))
	}

	link := "mailto:" + strings.Join(to, ",")
	if len(params) > 0 {
		link += "?" + strings.Join(params, "&")
	}
	return link
}

// escape percent-encodes s; spaces become %20, never '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
