package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/models"
)

// Store errors shared by every implementation. The gateway maps them onto backend errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// AccountRecord is the persisted form of a backend account.
type AccountRecord struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// AccountStore defines data access for backend accounts.
type AccountStore interface {
	Create(ctx context.Context, account AccountRecord) error
	FindByEmail(ctx context.Context, email string) (AccountRecord, error)
	FindByID(ctx context.Context, id string) (AccountRecord, error)
}

// SessionStore persists issued session tokens so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	Find(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

// DocumentStore holds collection documents and answers filtered list calls.
type DocumentStore interface {
	Insert(ctx context.Context, doc backend.Document) error
	List(ctx context.Context, collection string, queries []backend.Query) ([]backend.Document, error)
}
