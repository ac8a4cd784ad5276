package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-registry/pkg/codegen"
	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

func TestEnrollmentServiceJoin(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: &scriptedCodes{codes: []string{"ABC123"}}})
	ctx := context.Background()
	class := f.create(t, "Toán 10A1", "teacher-1")

	result, err := f.enrollment.Join(ctx, "abc123", JoinClassRequest{StudentID: "stu-1", Name: "Nguyễn An", Email: "an@example.com"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AlreadyMember)
	require.NotNil(t, result.Class)
	require.Len(t, result.Class.Students, 1)
	assert.Equal(t, "stu-1", result.Class.Students[0].StudentID)
	assert.False(t, result.Class.Students[0].JoinedAt.IsZero())

	stored, err := f.classes.Get(ctx, class.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Students, 1)
}

func TestEnrollmentServiceJoinIsIdempotent(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: &scriptedCodes{codes: []string{"ABC123"}}})
	ctx := context.Background()
	f.create(t, "Toán 10A1", "teacher-1")

	first, err := f.enrollment.Join(ctx, "ABC123", JoinClassRequest{StudentID: "stu-1", Name: "An"})
	require.NoError(t, err)
	savesAfterJoin := f.metrics.Snapshot().Saves

	second, err := f.enrollment.Join(ctx, "ABC123", JoinClassRequest{StudentID: "stu-1", Name: "An (renamed)"})
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyMember)
	assert.Equal(t, JoinMessageAlreadyMember, second.Message)
	require.Len(t, second.Class.Students, 1)
	assert.Equal(t, first.Class.Students[0], second.Class.Students[0])
	assert.Equal(t, savesAfterJoin, f.metrics.Snapshot().Saves)
}

func TestEnrollmentServiceJoinUnknownCode(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: &scriptedCodes{codes: []string{"ABC123"}}})
	f.create(t, "Toán 10A1", "teacher-1")

	result, err := f.enrollment.Join(context.Background(), "ZZZ999", JoinClassRequest{StudentID: "stu-1", Name: "An"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, JoinMessageClassNotFound, result.Message)
	assert.Nil(t, result.Class)
}

func TestEnrollmentServiceJoinInvalidStudent(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: &scriptedCodes{codes: []string{"ABC123"}}})
	f.create(t, "Toán 10A1", "teacher-1")

	cases := []JoinClassRequest{
		{StudentID: "", Name: "An"},
		{StudentID: "stu-1", Name: "  "},
		{StudentID: "stu-1", Name: "An", Email: "not-an-email"},
	}
	for _, req := range cases {
		result, err := f.enrollment.Join(context.Background(), "ABC123", req)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, JoinMessageInvalidStudent, result.Message)
	}
	class, _ := f.classes.FindByCode(context.Background(), "ABC123")
	assert.Empty(t, class.Students)
}

func TestEnrollmentServiceJoinPersistenceFailure(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: &scriptedCodes{codes: []string{"ABC123"}}})
	ctx := context.Background()
	f.create(t, "Toán 10A1", "teacher-1")

	f.backend.SetFailure(errors.New("disk full"))
	result, err := f.enrollment.Join(ctx, "ABC123", JoinClassRequest{StudentID: "stu-1", Name: "An"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))
	assert.Empty(t, f.queries.ClassesByStudent(ctx, "stu-1"))

	f.backend.SetFailure(nil)
	result, err = f.enrollment.Join(ctx, "ABC123", JoinClassRequest{StudentID: "stu-1", Name: "An"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AlreadyMember)
	assert.Len(t, f.queries.ClassesByStudent(ctx, "stu-1"), 1)
}

func TestEnrollmentServiceConcurrentJoinsEnrollOnce(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: &scriptedCodes{codes: []string{"ABC123"}}})
	ctx := context.Background()
	f.create(t, "Toán 10A1", "teacher-1")

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.enrollment.Join(ctx, "ABC123", JoinClassRequest{StudentID: "stu-1", Name: "An"})
			if !assert.NoError(t, err) {
				return
			}
			assert.True(t, result.Success)
			if !result.AlreadyMember {
				mu.Lock()
				joined++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, joined)
	class, _ := f.classes.FindByCode(ctx, "ABC123")
	assert.Len(t, class.Students, 1)
}

func TestEnrollmentServiceRemoveStudent(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: &scriptedCodes{codes: []string{"ABC123"}}})
	ctx := context.Background()
	class := f.create(t, "Toán 10A1", "teacher-1")
	for _, id := range []string{"stu-1", "stu-2"} {
		_, err := f.enrollment.Join(ctx, "ABC123", JoinClassRequest{StudentID: id, Name: id})
		require.NoError(t, err)
	}

	removed, err := f.enrollment.RemoveStudent(ctx, class.ID, "stu-1", "teacher-2")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.enrollment.RemoveStudent(ctx, class.ID, "stu-9", "teacher-1")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.enrollment.RemoveStudent(ctx, "missing", "stu-1", "teacher-1")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.enrollment.RemoveStudent(ctx, class.ID, "stu-1", "teacher-1")
	require.NoError(t, err)
	assert.True(t, removed)

	roster, err := f.enrollment.Roster(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "stu-2", roster[0].StudentID)
	assert.Empty(t, f.queries.ClassesByStudent(ctx, "stu-1"))
}

func TestEnrollmentServiceRosterNotFound(t *testing.T) {
	f := newRegistryFixture(t, codegen.Config{Source: codegen.NewRandomSource(1)})
	_, err := f.enrollment.Roster(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
