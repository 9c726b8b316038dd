package repositories

import (
	"context"
	"strings"
	"sync"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/models"
)

// InMemoryAccountStore implements AccountStore for tests and local development.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	byID     map[string]AccountRecord
	emailIdx map[string]string
}

// NewInMemoryAccountStore returns an empty account store.
func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		byID:     make(map[string]AccountRecord),
		emailIdx: make(map[string]string),
	}
}

// Create stores a new account, rejecting duplicate ids and emails.
func (s *InMemoryAccountStore) Create(_ context.Context, account AccountRecord) error {
	email := strings.ToLower(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[account.ID]; exists {
		return ErrConflict
	}
	if _, exists := s.emailIdx[email]; exists {
		return ErrConflict
	}
	s.byID[account.ID] = account
	s.emailIdx[email] = account.ID
	return nil
}

// FindByEmail looks an account up by its email address.
func (s *InMemoryAccountStore) FindByEmail(_ context.Context, email string) (AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIdx[strings.ToLower(email)]
	if !ok {
		return AccountRecord{}, ErrNotFound
	}
	return s.byID[id], nil
}

// FindByID looks an account up by id.
func (s *InMemoryAccountStore) FindByID(_ context.Context, id string) (AccountRecord, error) {
	s.mu.RLock()
	account, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return AccountRecord{}, ErrNotFound
	}
	return account, nil
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]models.Session)}
}

// Save persists the provided session record.
func (s *InMemorySessionStore) Save(_ context.Context, session models.Session) error {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return nil
}

// Find retrieves a session by token.
func (s *InMemorySessionStore) Find(_ context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return session, nil
}

// Delete removes the session associated with the token.
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Has reports whether a token exists. Useful for tests.
func (s *InMemorySessionStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// InMemoryDocumentStore implements DocumentStore on top of backend.Apply.
type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]backend.Document
}

// NewInMemoryDocumentStore returns an empty document store.
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string][]backend.Document)}
}

// Insert appends doc to its collection.
func (s *InMemoryDocumentStore) Insert(_ context.Context, doc backend.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.docs[doc.Collection] {
		if existing.ID == doc.ID {
			return ErrConflict
		}
	}
	doc.Fields = copyFields(doc.Fields)
	s.docs[doc.Collection] = append(s.docs[doc.Collection], doc)
	return nil
}

// List returns the documents of collection that satisfy queries.
func (s *InMemoryDocumentStore) List(_ context.Context, collection string, queries []backend.Query) ([]backend.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := backend.Apply(s.docs[collection], queries)
	for i := range matched {
		matched[i].Fields = copyFields(matched[i].Fields)
	}
	return matched, nil
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	_ AccountStore  = (*InMemoryAccountStore)(nil)
	_ SessionStore  = (*InMemorySessionStore)(nil)
	_ DocumentStore = (*InMemoryDocumentStore)(nil)
)
