package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-registry/internal/models"
	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

// SaveObserver receives timing for every snapshot write.
type SaveObserver interface {
	ObserveSave(backend string, duration time.Duration, err error)
}

// PersistentStore turns a Backend into a durable snapshot of the class
// collection.
type PersistentStore struct {
	backend  Backend
	observer SaveObserver
	logger   *zap.Logger

	mu          sync.Mutex
	lastSavedAt time.Time
	lastSize    int
}

// NewPersistentStore constructs a PersistentStore.
func NewPersistentStore(backend Backend, observer SaveObserver, logger *zap.Logger) *PersistentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistentStore{backend: backend, observer: observer, logger: logger}
}

// Load returns the last saved collection. A missing or unreadable snapshot
// yields an empty collection; the failure is logged, never returned.
func (s *PersistentStore) Load(ctx context.Context) []models.Class {
	raw, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, appErrors.ErrSnapshotMissing) {
			s.logger.Info("no registry snapshot found, starting empty", zap.String("backend", s.backend.Name()))
		} else {
			s.logger.Warn("registry snapshot unreadable, starting empty", zap.String("backend", s.backend.Name()), zap.Error(err))
		}
		return []models.Class{}
	}

	classes, savedAt, err := DecodeSnapshot(raw)
	if err != nil {
		s.logger.Warn("registry snapshot corrupt, starting empty", zap.String("backend", s.backend.Name()), zap.Int("bytes", len(raw)), zap.Error(err))
		return []models.Class{}
	}

	s.mu.Lock()
	s.lastSavedAt = savedAt
	s.lastSize = len(raw)
	s.mu.Unlock()

	s.logger.Info("registry snapshot loaded", zap.String("backend", s.backend.Name()), zap.Int("classes", len(classes)))
	return classes
}

// Save writes the full collection. It returns only after the backend has
// acknowledged the write.
func (s *PersistentStore) Save(ctx context.Context, classes []models.Class) error {
	savedAt := time.Now().UTC()
	payload, err := EncodeSnapshot(classes, savedAt)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, "failed to encode registry snapshot")
	}

	start := time.Now()
	err = s.backend.Write(ctx, payload)
	if s.observer != nil {
		s.observer.ObserveSave(s.backend.Name(), time.Since(start), err)
	}
	if err != nil {
		s.logger.Error("registry snapshot write failed", zap.String("backend", s.backend.Name()), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Message)
	}

	s.mu.Lock()
	s.lastSavedAt = savedAt
	s.lastSize = len(payload)
	s.mu.Unlock()
	return nil
}

// Backend returns the configured backend name.
func (s *PersistentStore) Backend() string {
	return s.backend.Name()
}

// LastSave reports when the snapshot was last written or loaded and its size.
func (s *PersistentStore) LastSave() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedAt, s.lastSize
}
