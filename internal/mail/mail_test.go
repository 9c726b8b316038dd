package mail

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/vidfriends/appcore/internal/deletion"
)

func TestMailtoURL(t *testing.T) {
	draft := deletion.Draft{
		To:      []string{"support@example.com"},
		Subject: "Account Deletion Request",
		Body:    "Username: ada\nEmail: ada+test@example.com",
	}

	link := MailtoURL(draft)
	if !strings.HasPrefix(link, "mailto:support%40example.com?subject=Account%20Deletion%20Request&body=") {
		t.Fatalf("unexpected link %q", link)
	}
	if strings.Contains(link, "+") {
		t.Fatalf("spaces and plus signs must be percent-encoded: %q", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	body := parsed.Query().Get("body")
	if body != "Username: ada\r\nEmail: ada+test@example.com" {
		t.Fatalf("body did not round trip: %q", body)
	}
}

func TestMailtoComposerOpensLink(t *testing.T) {
	var opened string
	c := MailtoComposer{Open: func(_ context.Context, link string) error {
		opened = link
		return nil
	}}

	if err := c.Compose(context.Background(), deletion.Draft{To: []string{"a@example.com"}, Subject: "s"}); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if opened != "mailto:a%40example.com?subject=s" {
		t.Fatalf("unexpected opened link %q", opened)
	}

	boom := errors.New("no mail app")
	failing := MailtoComposer{Open: func(context.Context, string) error { return boom }}
	if err := failing.Compose(context.Background(), deletion.Draft{To: []string{"a@example.com"}}); !errors.Is(err, boom) {
		t.Fatalf("expected opener error, got %v", err)
	}
	if err := c.Compose(context.Background(), deletion.Draft{}); err == nil {
		t.Fatal("expected error without recipients")
	}
}

type fakeMailgun struct {
	from, subject, text string
	to                  []string
	sent                int
	err                 error
}

func (f *fakeMailgun) NewMessage(from, subject, text string, to ...string) *mg.Message {
	f.from, f.subject, f.text, f.to = from, subject, text, to
	return mg.NewMailgun("example.com", "key").NewMessage(from, subject, text, to...)
}

func (f *fakeMailgun) Send(context.Context, *mg.Message) (string, string, error) {
	f.sent++
	return "queued", "<id@example.com>", f.err
}

func TestMailgunComposer(t *testing.T) {
	client := &fakeMailgun{}
	c := NewMailgunComposerWithClient(client, "VidFriends <no-reply@example.com>")

	draft := deletion.Draft{To: []string{"support@example.com"}, Subject: "Account Deletion Request", Body: "body"}
	if err := c.Compose(context.Background(), draft); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if client.sent != 1 || client.from != "VidFriends <no-reply@example.com>" || client.subject != draft.Subject || client.text != "body" {
		t.Fatalf("unexpected message %+v", client)
	}
	if len(client.to) != 1 || client.to[0] != "support@example.com" {
		t.Fatalf("unexpected recipients %v", client.to)
	}

	client.err = errors.New("unauthorized")
	if err := c.Compose(context.Background(), draft); !errors.Is(err, client.err) {
		t.Fatalf("expected send error, got %v", err)
	}
}
