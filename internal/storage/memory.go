package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vidfriends/appcore/internal/backend"
)

type memoryObject struct {
	contentType string
	data        []byte
}

// MemoryStorage keeps objects in process memory. Used by the memory backend and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryStorage constructs an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

func (m *MemoryStorage) Put(ctx context.Context, bucket, key, contentType string, r io.Reader) error {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("memory storage read %s: %w", objKey, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objKey] = memoryObject{contentType: contentType, data: buf.Bytes()}
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, bucket, key string) error {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objKey]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objKey)
	return nil
}

func (m *MemoryStorage) ViewURL(_ context.Context, bucket, key string) (string, error) {
	objKey, err := m.lookup(bucket, key)
	if err != nil {
		return "", err
	}
	return "memory://" + objKey, nil
}

func (m *MemoryStorage) PreviewURL(_ context.Context, bucket, key string, opts backend.PreviewOptions) (string, error) {
	objKey, err := m.lookup(bucket, key)
	if err != nil {
		return "", err
	}
	u := "memory://" + objKey
	if q := previewQuery(opts); q != "" {
		u += "?" + q
	}
	return u, nil
}

// Object returns a copy of the stored bytes and content type.
func (m *MemoryStorage) Object(bucket, key string) ([]byte, string, bool) {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return nil, "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objKey]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(obj.data), obj.contentType, true
}

// Len reports how many objects are stored.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStorage) lookup(bucket, key string) (string, error) {
	objKey, err := objectKey(bucket, key)
	if err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[objKey]; !ok {
		return "", ErrObjectNotFound
	}
	return objKey, nil
}
