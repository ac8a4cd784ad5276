package service

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-registry/internal/repository"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.ObserveMutation("join_class", repository.OutcomeCommitted)
	m.ObserveMutation("join_class", repository.OutcomeCommitted)
	m.ObserveMutation("join_class", repository.OutcomeFailed)
	m.ObserveSave("file", 2*time.Millisecond, nil)
	m.ObserveSave("file", 4*time.Millisecond, errors.New("boom"))
	m.RecordCodeCollision()
	m.RecordCodeExhausted()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.mutations.WithLabelValues("join_class", repository.OutcomeCommitted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.saveFailures.WithLabelValues("file")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.codeCollisions))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.codeExhaustions))

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(3), snapshot.Mutations)
	assert.Equal(t, uint64(1), snapshot.FailedMutations)
	assert.Equal(t, uint64(2), snapshot.Saves)
	assert.Equal(t, uint64(1), snapshot.FailedSaves)
	assert.InDelta(t, 3.0, snapshot.AverageSaveDurationMs, 0.001)

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveMutation("create_class", repository.OutcomeCommitted)
	m.ObserveSave("memory", time.Millisecond, nil)
	m.RecordCodeCollision()
	m.RecordCodeExhausted()
	assert.Zero(t, m.Snapshot().Mutations)
}
