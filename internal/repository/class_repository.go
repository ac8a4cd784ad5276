package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-registry/internal/models"
	"github.com/noah-isme/classroom-registry/pkg/codegen"
	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

// Mutation outcomes reported to the observer.
const (
	OutcomeCommitted = "committed"
	OutcomeNoop      = "noop"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

type snapshotStore interface {
	Load(ctx context.Context) []models.Class
	Save(ctx context.Context, classes []models.Class) error
}

// MutationObserver receives the outcome of every mutation.
type MutationObserver interface {
	ObserveMutation(op, outcome string)
}

// MutateFunc edits a private working copy of the collection. It reports
// whether anything changed; unchanged collections are not persisted.
type MutateFunc func(col *Collection) (bool, error)

// ClassRepository owns the canonical class collection.
//
// Mutations are serialised by writeMu and applied to a deep copy which is
// persisted before it replaces the published collection. Readers load the
// published slice without locking and never see a partial mutation. Published
// slices are never written to again.
type ClassRepository struct {
	store    snapshotStore
	observer MutationObserver
	logger   *zap.Logger

	writeMu sync.Mutex
	current atomic.Pointer[[]models.Class]
}

// NewClassRepository loads the last snapshot from store and returns a
// repository serving it.
func NewClassRepository(ctx context.Context, store snapshotStore, observer MutationObserver, logger *zap.Logger) *ClassRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ClassRepository{store: store, observer: observer, logger: logger}
	classes := store.Load(ctx)
	if classes == nil {
		classes = []models.Class{}
	}
	r.current.Store(&classes)
	return r
}

func (r *ClassRepository) published() []models.Class {
	return *r.current.Load()
}

// View calls fn with the committed collection. fn must not modify or retain it.
func (r *ClassRepository) View(fn func(classes []models.Class)) {
	fn(r.published())
}

// List returns a deep copy of every class in creation order.
func (r *ClassRepository) List() []models.Class {
	classes := r.published()
	out := make([]models.Class, len(classes))
	for i := range classes {
		out[i] = classes[i].Clone()
	}
	return out
}

// FindByID returns a copy of the class with the given id.
func (r *ClassRepository) FindByID(id string) (*models.Class, bool) {
	for _, c := range r.published() {
		if c.ID == id {
			clone := c.Clone()
			return &clone, true
		}
	}
	return nil, false
}

// FindByCode returns a copy of the class whose code matches, ignoring case and
// surrounding whitespace.
func (r *ClassRepository) FindByCode(code string) (*models.Class, bool) {
	code = codegen.Normalize(code)
	if code == "" {
		return nil, false
	}
	for _, c := range r.published() {
		if c.Code == code {
			clone := c.Clone()
			return &clone, true
		}
	}
	return nil, false
}

// Mutate applies fn under the writer lock and persists the result before
// publishing it. If fn or the save fails, the published collection is left
// exactly as it was.
func (r *ClassRepository) Mutate(ctx context.Context, op string, fn MutateFunc) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	working := newCollection(r.published())
	changed, err := fn(working)
	if err != nil {
		if appErrors.IsInternal(err) {
			r.observe(op, OutcomeFailed)
		} else {
			r.observe(op, OutcomeRejected)
		}
		return err
	}
	if !changed {
		r.observe(op, OutcomeNoop)
		return nil
	}

	if err := r.store.Save(ctx, working.classes); err != nil {
		r.observe(op, OutcomeFailed)
		r.logger.Error("mutation rolled back, snapshot not saved", zap.String("op", op), zap.Error(err))
		return err
	}

	next := working.classes
	r.current.Store(&next)
	r.observe(op, OutcomeCommitted)
	return nil
}

func (r *ClassRepository) observe(op, outcome string) {
	if r.observer != nil {
		r.observer.ObserveMutation(op, outcome)
	}
}

// Collection is the working copy handed to a MutateFunc.
type Collection struct {
	classes []models.Class
}

func newCollection(published []models.Class) *Collection {
	classes := make([]models.Class, len(published))
	for i := range published {
		classes[i] = published[i].Clone()
	}
	return &Collection{classes: classes}
}

// Len returns the number of classes.
func (c *Collection) Len() int { return len(c.classes) }

// At returns a pointer into the working copy; edits through it are kept.
func (c *Collection) At(i int) *models.Class { return &c.classes[i] }

// IndexByID returns the position of the class with id, or -1.
func (c *Collection) IndexByID(id string) int {
	for i := range c.classes {
		if c.classes[i].ID == id {
			return i
		}
	}
	return -1
}

// IndexByCode returns the position of the class with the normalised code, or -1.
func (c *Collection) IndexByCode(code string) int {
	code = codegen.Normalize(code)
	for i := range c.classes {
		if c.classes[i].Code == code {
			return i
		}
	}
	return -1
}

// Codes returns the set of codes currently in use.
func (c *Collection) Codes() map[string]struct{} {
	codes := make(map[string]struct{}, len(c.classes))
	for i := range c.classes {
		codes[c.classes[i].Code] = struct{}{}
	}
	return codes
}

// Append adds a class at the end (creation order).
func (c *Collection) Append(class models.Class) {
	c.classes = append(c.classes, class)
}

// Remove deletes the class at position i, keeping order.
func (c *Collection) Remove(i int) {
	c.classes = append(c.classes[:i], c.classes[i+1:]...)
}
