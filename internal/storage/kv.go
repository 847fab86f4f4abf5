// Package storage persists the last personality result in a single-slot
// key/value entry.
package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/easeaico/truthlab/internal/repository"
)

// MemoryURL selects the process-local store instead of a database.
const MemoryURL = "memory"

// KV is a string key/value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryKV keeps entries in memory. Safe for concurrent use.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Open returns the KV for databaseURL along with a close function.
func Open(ctx context.Context, databaseURL string) (KV, func(), error) {
	if strings.EqualFold(strings.TrimSpace(databaseURL), MemoryURL) {
		return NewMemoryKV(), func() {}, nil
	}
	store, err := repository.NewStore(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store.Entries, store.Close, nil
}
