package objstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps objects in a map. Used by tests and local runs without
// an S3 backend.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailDelete forces Delete to error, for exercising cleanup paths.
	FailDelete bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func key(bucket, path string) string { return bucket + "/" + path }

func (m *MemoryStorage) Put(_ context.Context, bucket, path string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key(bucket, path)] = cp
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, bucket, path string) error {
	if m.FailDelete {
		return fmt.Errorf("delete %s/%s: simulated storage failure", bucket, path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key(bucket, path))
	return nil
}

func (m *MemoryStorage) SignedURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key(bucket, path)]; !ok {
		return "", fmt.Errorf("object %s/%s not found", bucket, path)
	}
	expires := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	return fmt.Sprintf("memory://%s/%s?expires=%s", bucket, path, expires), nil
}

// Has reports whether an object exists; handy in tests.
func (m *MemoryStorage) Has(bucket, path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key(bucket, path)]
	return ok
}
