// Package storage persists the registry snapshot behind interchangeable
// backends.
package storage

import (
	"context"
	"sync"

	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

// Backend reads and writes one opaque snapshot blob. Write must be atomic:
// a reader sees either the previous blob or the new one, never a mix.
// Read returns appErrors.ErrSnapshotMissing when nothing has been written.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}

// MemoryBackend keeps the snapshot in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	payload []byte
	failure error
}

// NewMemoryBackend constructs an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Read(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.payload == nil {
		return nil, appErrors.ErrSnapshotMissing
	}
	return append([]byte(nil), b.payload...), nil
}

func (b *MemoryBackend) Write(ctx context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failure != nil {
		return b.failure
	}
	b.payload = append([]byte(nil), payload...)
	return nil
}

// SetFailure makes subsequent writes fail with err until reset with nil.
func (b *MemoryBackend) SetFailure(err error) {
	b.mu.Lock()
	b.failure = err
	b.mu.Unlock()
}

// Raw replaces the stored blob verbatim, bypassing encoding.
func (b *MemoryBackend) Raw(payload []byte) {
	b.mu.Lock()
	b.payload = payload
	b.mu.Unlock()
}
