package gateway

import (
	"time"

	"github.com/vidfriends/appcore/internal/repositories"
	"github.com/vidfriends/appcore/internal/storage"
)

// NewInMemory builds a Remote whose stores all live in process memory.
func NewInMemory(sessionTTL time.Duration, opts ...Option) *Remote {
	return NewRemote(
		repositories.NewInMemoryAccountStore(),
		repositories.NewInMemorySessionStore(),
		repositories.NewInMemoryDocumentStore(),
		storage.NewMemoryStorage(),
		sessionTTL,
		opts...,
	)
}
