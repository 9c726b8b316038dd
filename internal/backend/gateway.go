// Package backend describes the remote document/object store the app core talks to.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/vidfriends/appcore/internal/models"
)

// CurrentSession addresses the session the gateway currently holds.
const CurrentSession = "current"

var (
	// ErrNoSession indicates no session is active on the gateway.
	ErrNoSession = errors.New("no active session")
	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists indicates an account with the same email is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound indicates the session refers to an account that no longer exists.
	ErrAccountNotFound = errors.New("account not found")
	// ErrFileNotFound indicates the requested stored file does not exist.
	ErrFileNotFound = errors.New("file not found")
)

// Account is the backend identity record.
type Account struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Document is a structured record in a collection.
type Document struct {
	ID         string
	Collection string
	CreatedAt  time.Time
	Fields     map[string]string
}

// DocumentList is the result container of a list call.
type DocumentList struct {
	Total     int
	Documents []Document
}

// File references a stored binary.
type File struct {
	ID       string
	Bucket   string
	Name     string
	MimeType string
	Size     int64
}

// Gravity anchors a cropped preview.
type Gravity string

const (
	GravityCenter Gravity = "center"
	GravityTop    Gravity = "top"
	GravityBottom Gravity = "bottom"
)

// PreviewOptions control how an image preview is rendered.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity Gravity
	Quality int
}

// Gateway is the set of primitive remote operations the app core consumes.
type Gateway interface {
	CreateAccount(ctx context.Context, id, email, password, name string) (Account, error)
	CreateSession(ctx context.Context, email, password string) (models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	GetAccount(ctx context.Context) (Account, error)

	// ListDocuments returns a nil list when the backend produced no result container.
	ListDocuments(ctx context.Context, collection string, queries ...Query) (*DocumentList, error)
	CreateDocument(ctx context.Context, collection, id string, fields map[string]string) (Document, error)

	CreateFile(ctx context.Context, bucket, id string, asset models.UploadAsset) (File, error)
	DeleteFile(ctx context.Context, bucket, fileID string) error
	GetFileView(ctx context.Context, bucket, fileID string) (string, error)
	GetFilePreview(ctx context.Context, bucket, fileID string, opts PreviewOptions) (string, error)
}
