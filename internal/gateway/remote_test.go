package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
	"github.com/vidfriends/appcore/internal/repositories"
	"github.com/vidfriends/appcore/internal/storage"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type fixture struct {
	remote   *Remote
	sessions *repositories.InMemorySessionStore
	objects  *storage.MemoryStorage
	clock    *testClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	sessions := repositories.NewInMemorySessionStore()
	objects := storage.NewMemoryStorage()
	remote := NewRemote(
		repositories.NewInMemoryAccountStore(),
		sessions,
		repositories.NewInMemoryDocumentStore(),
		objects,
		time.Hour,
		WithClock(clock.Now),
		WithHashCost(bcrypt.MinCost),
	)
	return fixture{remote: remote, sessions: sessions, objects: objects, clock: clock}
}

func TestRemoteAccountAndSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.remote.GetAccount(ctx); !errors.Is(err, backend.ErrNoSession) {
		t.Fatalf("expected no session before sign in, got %v", err)
	}

	account, err := f.remote.CreateAccount(ctx, "", "Ada@Example.com", "correct horse", "ada")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if account.ID == "" || account.Email != "ada@example.com" {
		t.Fatalf("unexpected account %+v", account)
	}

	if _, err := f.remote.CreateAccount(ctx, "", "ada@example.com", "other", "ada2"); !errors.Is(err, backend.ErrAccountExists) {
		t.Fatalf("expected duplicate account error, got %v", err)
	}

	if _, err := f.remote.CreateSession(ctx, "ada@example.com", "wrong"); !errors.Is(err, backend.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := f.remote.CreateSession(ctx, "nobody@example.com", "pw"); !errors.Is(err, backend.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}

	session, err := f.remote.CreateSession(ctx, "ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.AccountID != account.ID || !session.ExpiresAt.Equal(f.clock.now.Add(time.Hour)) {
		t.Fatalf("unexpected session %+v", session)
	}
	if len(session.ID) < 40 {
		t.Fatalf("expected a long random token, got %q", session.ID)
	}

	current, err := f.remote.GetAccount(ctx)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if current.ID != account.ID {
		t.Fatalf("unexpected current account %+v", current)
	}

	if err := f.remote.DeleteSession(ctx, backend.CurrentSession); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if f.sessions.Has(session.ID) {
		t.Fatal("expected session token to be removed from the store")
	}
	if err := f.remote.DeleteSession(ctx, backend.CurrentSession); !errors.Is(err, backend.ErrNoSession) {
		t.Fatalf("expected no session on second delete, got %v", err)
	}
	if _, err := f.remote.GetAccount(ctx); !errors.Is(err, backend.ErrNoSession) {
		t.Fatalf("expected no session after sign out, got %v", err)
	}
}

func TestRemoteNewSessionReplacesCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.remote.CreateAccount(ctx, "a1", "one@example.com", "pw-one", "one"); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := f.remote.CreateAccount(ctx, "a2", "two@example.com", "pw-two", "two"); err != nil {
		t.Fatalf("create second: %v", err)
	}

	first, err := f.remote.CreateSession(ctx, "one@example.com", "pw-one")
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	if _, err := f.remote.CreateSession(ctx, "two@example.com", "pw-two"); err != nil {
		t.Fatalf("second session: %v", err)
	}

	account, err := f.remote.GetAccount(ctx)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.ID != "a2" {
		t.Fatalf("expected the latest session to be current, got %s", account.ID)
	}

	if err := f.remote.DeleteSession(ctx, first.ID); err != nil {
		t.Fatalf("delete explicit session: %v", err)
	}
	if _, err := f.remote.GetAccount(ctx); err != nil {
		t.Fatalf("deleting another session must keep the current one: %v", err)
	}
}

func TestRemoteExpiredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.remote.CreateAccount(ctx, "", "ada@example.com", "pw", "ada"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	session, err := f.remote.CreateSession(ctx, "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	f.clock.now = f.clock.now.Add(2 * time.Hour)

	if _, err := f.remote.GetAccount(ctx); !errors.Is(err, backend.ErrNoSession) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}
	if f.sessions.Has(session.ID) {
		t.Fatal("expected expired session to be deleted")
	}
	if err := f.remote.DeleteSession(ctx, backend.CurrentSession); !errors.Is(err, backend.ErrNoSession) {
		t.Fatalf("expected no current session after expiry, got %v", err)
	}
}

type failingDeleteSessions struct {
	repositories.SessionStore
}

func (failingDeleteSessions) Delete(context.Context, string) error {
	return errors.New("store offline")
}

func TestRemoteExpiredSessionLogsDeleteFailure(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	clock := &testClock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	remote := NewRemote(
		repositories.NewInMemoryAccountStore(),
		failingDeleteSessions{SessionStore: repositories.NewInMemorySessionStore()},
		repositories.NewInMemoryDocumentStore(),
		storage.NewMemoryStorage(),
		time.Hour,
		WithClock(clock.Now),
		WithHashCost(bcrypt.MinCost),
	)

	if _, err := remote.CreateAccount(ctx, "", "ada@example.com", "pw", "ada"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := remote.CreateSession(ctx, "ada@example.com", "pw"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Hour)

	if _, err := remote.GetAccount(ctx); !errors.Is(err, backend.ErrNoSession) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "failed to delete expired session") || !strings.Contains(out, "store offline") {
		t.Fatalf("expected delete failure to be logged, got %s", out)
	}
}

func TestRemoteDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.remote.CreateDocument(ctx, "videos", "", map[string]string{"title": "Sunset", "creator": "u1"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.ID == "" || !first.CreatedAt.Equal(f.clock.now) {
		t.Fatalf("unexpected document %+v", first)
	}

	f.clock.now = f.clock.now.Add(time.Minute)
	if _, err := f.remote.CreateDocument(ctx, "videos", "v2", map[string]string{"title": "Sunrise", "creator": "u2"}); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := f.remote.CreateDocument(ctx, "videos", "v2", map[string]string{}); !errors.Is(err, repositories.ErrConflict) {
		t.Fatalf("expected conflict for duplicate id, got %v", err)
	}

	list, err := f.remote.ListDocuments(ctx, "videos", backend.OrderDesc(backend.CreatedAtField))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || list.Total != 2 || list.Documents[0].ID != "v2" {
		t.Fatalf("unexpected list %+v", list)
	}

	empty, err := f.remote.ListDocuments(ctx, "videos", backend.Search("title", ""))
	if err != nil {
		t.Fatalf("empty search: %v", err)
	}
	if empty == nil || empty.Total != 0 || empty.Documents == nil {
		t.Fatalf("expected a valid empty container, got %+v", empty)
	}
}

func TestRemoteFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	asset := models.UploadAsset{
		Name:     "clip.mp4",
		MimeType: "video/mp4",
		Size:     4,
		Kind:     models.AssetKindVideo,
		Opener: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("data")), nil
		},
	}

	file, err := f.remote.CreateFile(ctx, "media", "f1", asset)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if file.ID != "f1" || file.Bucket != "media" || file.MimeType != "video/mp4" {
		t.Fatalf("unexpected file %+v", file)
	}
	data, contentType, ok := f.objects.Object("media", "f1")
	if !ok || string(data) != "data" || contentType != "video/mp4" {
		t.Fatalf("object not stored: %q %q %v", data, contentType, ok)
	}

	view, err := f.remote.GetFileView(ctx, "media", "f1")
	if err != nil || view == "" {
		t.Fatalf("view: %q %v", view, err)
	}
	preview, err := f.remote.GetFilePreview(ctx, "media", "f1", backend.PreviewOptions{Width: 2000, Height: 2000, Gravity: backend.GravityTop, Quality: 100})
	if err != nil || !strings.Contains(preview, "width=2000") {
		t.Fatalf("preview: %q %v", preview, err)
	}

	if _, err := f.remote.GetFileView(ctx, "media", "missing"); !errors.Is(err, backend.ErrFileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}

	if err := f.remote.DeleteFile(ctx, "media", "f1"); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	if err := f.remote.DeleteFile(ctx, "media", "f1"); !errors.Is(err, backend.ErrFileNotFound) {
		t.Fatalf("expected file not found on second delete, got %v", err)
	}

	broken := models.UploadAsset{Name: "nowhere"}
	if _, err := f.remote.CreateFile(ctx, "media", "f2", broken); err == nil {
		t.Fatal("expected error for asset without a location")
	}
}
