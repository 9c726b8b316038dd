// Package backendtest provides a scriptable backend.Gateway for tests.
package backendtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/models"
)

// ErrUnscripted is returned by operations the test did not script.
var ErrUnscripted = errors.New("backendtest: unscripted call")

// Call records one gateway invocation.
type Call struct {
	Op    string
	Args  []any
	Start time.Time
	End   time.Time
}

// Gateway dispatches each operation to its function field and records the call.
// Unset fields return ErrUnscripted.
type Gateway struct {
	CreateAccountFn  func(ctx context.Context, id, email, password, name string) (backend.Account, error)
	CreateSessionFn  func(ctx context.Context, email, password string) (models.Session, error)
	DeleteSessionFn  func(ctx context.Context, sessionID string) error
	GetAccountFn     func(ctx context.Context) (backend.Account, error)
	ListDocumentsFn  func(ctx context.Context, collection string, queries ...backend.Query) (*backend.DocumentList, error)
	CreateDocumentFn func(ctx context.Context, collection, id string, fields map[string]string) (backend.Document, error)
	CreateFileFn     func(ctx context.Context, bucket, id string, asset models.UploadAsset) (backend.File, error)
	DeleteFileFn     func(ctx context.Context, bucket, fileID string) error
	GetFileViewFn    func(ctx context.Context, bucket, fileID string) (string, error)
	GetFilePreviewFn func(ctx context.Context, bucket, fileID string, opts backend.PreviewOptions) (string, error)

	mu    sync.Mutex
	calls []Call
}

var _ backend.Gateway = (*Gateway)(nil)

// Calls returns a copy of the recorded calls in completion order.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// CallsTo returns the recorded calls of one operation.
func (g *Gateway) CallsTo(op string) []Call {
	var out []Call
	for _, c := range g.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Count reports how many times op was invoked.
func (g *Gateway) Count(op string) int {
	return len(g.CallsTo(op))
}

func (g *Gateway) record(op string, start time.Time, args ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Call{Op: op, Args: args, Start: start, End: time.Now()})
}

func (g *Gateway) CreateAccount(ctx context.Context, id, email, password, name string) (backend.Account, error) {
	defer g.record("CreateAccount", time.Now(), id, email, password, name)
	if g.CreateAccountFn == nil {
		return backend.Account{}, ErrUnscripted
	}
	return g.CreateAccountFn(ctx, id, email, password, name)
}

func (g *Gateway) CreateSession(ctx context.Context, email, password string) (models.Session, error) {
	defer g.record("CreateSession", time.Now(), email, password)
	if g.CreateSessionFn == nil {
		return models.Session{}, ErrUnscripted
	}
	return g.CreateSessionFn(ctx, email, password)
}

func (g *Gateway) DeleteSession(ctx context.Context, sessionID string) error {
	defer g.record("DeleteSession", time.Now(), sessionID)
	if g.DeleteSessionFn == nil {
		return ErrUnscripted
	}
	return g.DeleteSessionFn(ctx, sessionID)
}

func (g *Gateway) GetAccount(ctx context.Context) (backend.Account, error) {
	defer g.record("GetAccount", time.Now())
	if g.GetAccountFn == nil {
		return backend.Account{}, ErrUnscripted
	}
	return g.GetAccountFn(ctx)
}

func (g *Gateway) ListDocuments(ctx context.Context, collection string, queries ...backend.Query) (*backend.DocumentList, error) {
	defer g.record("ListDocuments", time.Now(), collection, queries)
	if g.ListDocumentsFn == nil {
		return nil, ErrUnscripted
	}
	return g.ListDocumentsFn(ctx, collection, queries...)
}

func (g *Gateway) CreateDocument(ctx context.Context, collection, id string, fields map[string]string) (backend.Document, error) {
	defer g.record("CreateDocument", time.Now(), collection, id, fields)
	if g.CreateDocumentFn == nil {
		return backend.Document{}, ErrUnscripted
	}
	return g.CreateDocumentFn(ctx, collection, id, fields)
}

func (g *Gateway) CreateFile(ctx context.Context, bucket, id string, asset models.UploadAsset) (backend.File, error) {
	defer g.record("CreateFile", time.Now(), bucket, id, asset)
	if g.CreateFileFn == nil {
		return backend.File{}, ErrUnscripted
	}
	return g.CreateFileFn(ctx, bucket, id, asset)
}

func (g *Gateway) DeleteFile(ctx context.Context, bucket, fileID string) error {
	defer g.record("DeleteFile", time.Now(), bucket, fileID)
	if g.DeleteFileFn == nil {
		return ErrUnscripted
	}
	return g.DeleteFileFn(ctx, bucket, fileID)
}

func (g *Gateway) GetFileView(ctx context.Context, bucket, fileID string) (string, error) {
	defer g.record("GetFileView", time.Now(), bucket, fileID)
	if g.GetFileViewFn == nil {
		return "", ErrUnscripted
	}
	return g.GetFileViewFn(ctx, bucket, fileID)
}

func (g *Gateway) GetFilePreview(ctx context.Context, bucket, fileID string, opts backend.PreviewOptions) (string, error) {
	defer g.record("GetFilePreview", time.Now(), bucket, fileID, opts)
	if g.GetFilePreviewFn == nil {
		return "", ErrUnscripted
	}
	return g.GetFilePreviewFn(ctx, bucket, fileID, opts)
}
