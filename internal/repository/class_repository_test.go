package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-registry/internal/models"
	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
	"github.com/noah-isme/classroom-registry/pkg/storage"
)

type mutationRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *mutationRecorder) ObserveMutation(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, op+":"+outcome)
}

func (r *mutationRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

func newTestRepo(t *testing.T) (*ClassRepository, *storage.MemoryBackend, *mutationRecorder) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	recorder := &mutationRecorder{}
	repo := NewClassRepository(context.Background(), storage.NewPersistentStore(backend, nil, nil), recorder, nil)
	return repo, backend, recorder
}

func testClass(id, code, teacher string) models.Class {
	created := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	return models.Class{
		ID:            id,
		Code:          code,
		Name:          "Vật lý 11",
		Subject:       "Physics",
		TeacherID:     teacher,
		Students:      []models.Enrollment{},
		Assignments:   []json.RawMessage{},
		Announcements: []json.RawMessage{},
		Materials:     []json.RawMessage{},
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func appendClass(c models.Class) MutateFunc {
	return func(col *Collection) (bool, error) {
		col.Append(c)
		return true, nil
	}
}

func TestClassRepositoryStartsEmpty(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	assert.Empty(t, repo.List())
	_, ok := repo.FindByCode("ABC123")
	assert.False(t, ok)
}

func TestClassRepositoryMutatePersistsAndPublishes(t *testing.T) {
	repo, backend, recorder := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Mutate(ctx, "create_class", appendClass(testClass("c1", "ABC123", "t1"))))

	found, ok := repo.FindByCode(" abc123 ")
	require.True(t, ok)
	assert.Equal(t, "c1", found.ID)

	reloaded := NewClassRepository(ctx, storage.NewPersistentStore(backend, nil, nil), nil, nil)
	assert.Equal(t, repo.List(), reloaded.List())
	assert.Equal(t, []string{"create_class:committed"}, recorder.list())
}

func TestClassRepositoryRollsBackOnSaveFailure(t *testing.T) {
	repo, backend, recorder := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Mutate(ctx, "create_class", appendClass(testClass("c1", "ABC123", "t1"))))

	backend.SetFailure(errors.New("disk full"))
	err := repo.Mutate(ctx, "create_class", appendClass(testClass("c2", "XYZ789", "t1")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))

	classes := repo.List()
	require.Len(t, classes, 1)
	assert.Equal(t, "c1", classes[0].ID)
	_, ok := repo.FindByID("c2")
	assert.False(t, ok)
	assert.Equal(t, "create_class:failed", recorder.list()[1])

	backend.SetFailure(nil)
	reloaded := NewClassRepository(ctx, storage.NewPersistentStore(backend, nil, nil), nil, nil)
	assert.Len(t, reloaded.List(), 1)
}

func TestClassRepositoryRejectedAndNoopMutations(t *testing.T) {
	repo, _, recorder := newTestRepo(t)
	ctx := context.Background()

	err := repo.Mutate(ctx, "update_class", func(col *Collection) (bool, error) {
		col.Append(testClass("c1", "ABC123", "t1"))
		return false, appErrors.Clone(appErrors.ErrForbidden, "nope")
	})
	require.Error(t, err)
	assert.Empty(t, repo.List())

	require.NoError(t, repo.Mutate(ctx, "delete_class", func(col *Collection) (bool, error) {
		return false, nil
	}))
	assert.Equal(t, []string{"update_class:rejected", "delete_class:noop"}, recorder.list())
}

func TestClassRepositoryWorkingCopyIsIsolated(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Mutate(ctx, "create_class", appendClass(testClass("c1", "ABC123", "t1"))))

	var seen []models.Class
	repo.View(func(classes []models.Class) { seen = classes })

	require.NoError(t, repo.Mutate(ctx, "rename", func(col *Collection) (bool, error) {
		col.At(0).Name = "Renamed"
		return true, nil
	}))

	assert.Equal(t, "Vật lý 11", seen[0].Name)
	found, _ := repo.FindByID("c1")
	assert.Equal(t, "Renamed", found.Name)

	found.Name = "mutated by caller"
	again, _ := repo.FindByID("c1")
	assert.Equal(t, "Renamed", again.Name)
}

func TestCollectionHelpers(t *testing.T) {
	col := newCollection([]models.Class{
		testClass("c1", "AAA111", "t1"),
		testClass("c2", "BBB222", "t1"),
		testClass("c3", "CCC333", "t2"),
	})
	assert.Equal(t, 3, col.Len())
	assert.Equal(t, 1, col.IndexByID("c2"))
	assert.Equal(t, 2, col.IndexByCode("ccc333"))
	assert.Equal(t, -1, col.IndexByID("missing"))
	assert.Contains(t, col.Codes(), "AAA111")

	col.Remove(1)
	assert.Equal(t, 2, col.Len())
	assert.Equal(t, "c3", col.At(1).ID)
}

func TestClassRepositoryConcurrentReadersDuringWrites(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c := testClass(string(rune('a'+i)), string(rune('A'+i))+"00000", "t1")
			assert.NoError(t, repo.Mutate(ctx, "create_class", appendClass(c)))
		}(i)
		go func() {
			defer wg.Done()
			repo.View(func(classes []models.Class) {
				for _, c := range classes {
					assert.NotEmpty(t, c.Code)
				}
			})
		}()
	}
	wg.Wait()
	assert.Len(t, repo.List(), 20)
}
