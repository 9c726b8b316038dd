// Package gateway provides the concrete backend the app core talks to.
package gateway

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
	"github.com/vidfriends/appcore/internal/repositories"
	"github.com/vidfriends/appcore/internal/storage"
)

// Remote implements backend.Gateway on top of account, session, document and object stores.
// It holds at most one current session, like a single signed-in client.
type Remote struct {
	accounts  repositories.AccountStore
	sessions  repositories.SessionStore
	documents repositories.DocumentStore
	objects   storage.ObjectStore

	sessionTTL time.Duration
	hashCost   int
	now        func() time.Time

	mu      sync.Mutex
	current string
}

// Option customises a Remote.
type Option func(*Remote)

// WithClock overrides the time source used for session expiry and document timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Remote) {
		if now != nil {
			r.now = now
		}
	}
}

// WithHashCost overrides the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(r *Remote) {
		r.hashCost = cost
	}
}

// NewRemote wires the stores into a gateway. Sessions live for sessionTTL.
func NewRemote(accounts repositories.AccountStore, sessions repositories.SessionStore, documents repositories.DocumentStore, objects storage.ObjectStore, sessionTTL time.Duration, opts ...Option) *Remote {
	if accounts == nil || sessions == nil || documents == nil || objects == nil {
		panic("gateway: stores must not be nil")
	}
	r := &Remote{
		accounts:   accounts,
		sessions:   sessions,
		documents:  documents,
		objects:    objects,
		sessionTTL: sessionTTL,
		hashCost:   bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ backend.Gateway = (*Remote)(nil)

func (r *Remote) CreateAccount(ctx context.Context, id, email, password, name string) (backend.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return backend.Account{}, errors.New("email and password are required")
	}
	if id == "" {
		id = uuid.NewString()
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), r.hashCost)
	if err != nil {
		return backend.Account{}, fmt.Errorf("hash password: %w", err)
	}

	record := repositories.AccountRecord{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		CreatedAt:    r.now(),
	}
	if err := r.accounts.Create(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return backend.Account{}, backend.ErrAccountExists
		}
		return backend.Account{}, fmt.Errorf("create account: %w", err)
	}

	return toAccount(record), nil
}

func (r *Remote) CreateSession(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.Session{}, backend.ErrInvalidCredentials
	}

	record, err := r.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Session{}, backend.ErrInvalidCredentials
		}
		return models.Session{}, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		logging.FromContext(ctx).Warn("session password mismatch", "accountId", record.ID)
		return models.Session{}, backend.ErrInvalidCredentials
	}

	token, err := randomToken()
	if err != nil {
		return models.Session{}, fmt.Errorf("generate session token: %w", err)
	}

	session := models.Session{
		ID:        token,
		AccountID: record.ID,
		ExpiresAt: r.now().Add(r.sessionTTL),
	}
	if err := r.sessions.Save(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}

	r.mu.Lock()
	r.current = session.ID
	r.mu.Unlock()

	return session, nil
}

func (r *Remote) DeleteSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := sessionID
	if sessionID == backend.CurrentSession {
		if r.current == "" {
			return backend.ErrNoSession
		}
		id = r.current
	}

	if err := r.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			if id == r.current {
				r.current = ""
			}
			return backend.ErrNoSession
		}
		return fmt.Errorf("delete session: %w", err)
	}

	if id == r.current {
		r.current = ""
	}
	return nil
}

func (r *Remote) GetAccount(ctx context.Context) (backend.Account, error) {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()

	if current == "" {
		return backend.Account{}, backend.ErrNoSession
	}

	session, err := r.sessions.Find(ctx, current)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			r.forget(current)
			return backend.Account{}, backend.ErrNoSession
		}
		return backend.Account{}, fmt.Errorf("find session: %w", err)
	}

	if !r.now().Before(session.ExpiresAt) {
		if err := r.sessions.Delete(ctx, current); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			logging.FromContext(ctx).Warn("failed to delete expired session", "sessionId", current, "error", err)
		}
		r.forget(current)
		return backend.Account{}, backend.ErrNoSession
	}

	record, err := r.accounts.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return backend.Account{}, backend.ErrAccountNotFound
		}
		return backend.Account{}, fmt.Errorf("find account: %w", err)
	}
	return toAccount(record), nil
}

func (r *Remote) ListDocuments(ctx context.Context, collection string, queries ...backend.Query) (*backend.DocumentList, error) {
	docs, err := r.documents.List(ctx, collection, queries)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	if docs == nil {
		docs = []backend.Document{}
	}
	return &backend.DocumentList{Total: len(docs), Documents: docs}, nil
}

func (r *Remote) CreateDocument(ctx context.Context, collection, id string, fields map[string]string) (backend.Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	doc := backend.Document{
		ID:         id,
		Collection: collection,
		CreatedAt:  r.now(),
		Fields:     fields,
	}
	if err := r.documents.Insert(ctx, doc); err != nil {
		return backend.Document{}, fmt.Errorf("create %s document: %w", collection, err)
	}
	return doc, nil
}

func (r *Remote) CreateFile(ctx context.Context, bucket, id string, asset models.UploadAsset) (backend.File, error) {
	if id == "" {
		id = uuid.NewString()
	}

	body, err := asset.Open()
	if err != nil {
		return backend.File{}, fmt.Errorf("open asset %s: %w", asset.Name, err)
	}
	defer body.Close()

	if err := r.objects.Put(ctx, bucket, id, asset.MimeType, body); err != nil {
		return backend.File{}, fmt.Errorf("store file: %w", err)
	}

	return backend.File{
		ID:       id,
		Bucket:   bucket,
		Name:     asset.Name,
		MimeType: asset.MimeType,
		Size:     asset.Size,
	}, nil
}

func (r *Remote) DeleteFile(ctx context.Context, bucket, fileID string) error {
	if err := r.objects.Delete(ctx, bucket, fileID); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return backend.ErrFileNotFound
		}
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (r *Remote) GetFileView(ctx context.Context, bucket, fileID string) (string, error) {
	u, err := r.objects.ViewURL(ctx, bucket, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", backend.ErrFileNotFound
		}
		return "", fmt.Errorf("file view: %w", err)
	}
	return u, nil
}

func (r *Remote) GetFilePreview(ctx context.Context, bucket, fileID string, opts backend.PreviewOptions) (string, error) {
	u, err := r.objects.PreviewURL(ctx, bucket, fileID, opts)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", backend.ErrFileNotFound
		}
		return "", fmt.Errorf("file preview: %w", err)
	}
	return u, nil
}

func (r *Remote) forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == sessionID {
		r.current = ""
	}
}

func toAccount(record repositories.AccountRecord) backend.Account {
	return backend.Account{
		ID:        record.ID,
		Email:     record.Email,
		Name:      record.Name,
		CreatedAt: record.CreatedAt,
	}
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
