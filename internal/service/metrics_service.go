package service

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/classroom-registry/internal/models"
	"github.com/noah-isme/classroom-registry/internal/repository"
)

// MetricsService encapsulates Prometheus instrumentation for the registry and
// keeps lightweight counters for diagnostics.
type MetricsService struct {
	registry        *prometheus.Registry
	mutations       *prometheus.CounterVec
	saveDuration    *prometheus.HistogramVec
	saveFailures    *prometheus.CounterVec
	codeCollisions  prometheus.Counter
	codeExhaustions prometheus.Counter

	mutationCount       uint64
	failedMutationCount uint64
	saveCount           uint64
	failedSaveCount     uint64
	saveDurationTotal   uint64
	collisionCount      uint64
	exhaustionCount     uint64
}

// NewMetricsService registers registry collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_registry_mutations_total",
		Help: "Registry mutations by operation and outcome",
	}, []string{"op", "outcome"})

	saveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "class_registry_snapshot_save_seconds",
		Help:    "Duration of snapshot writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	saveFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_registry_snapshot_save_failures_total",
		Help: "Snapshot writes that were not acknowledged",
	}, []string{"backend"})

	codeCollisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "class_registry_code_collisions_total",
		Help: "Generated class codes rejected because they were already in use",
	})

	codeExhaustions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "class_registry_code_exhaustions_total",
		Help: "Class creations that ran out of code generation attempts",
	})

	registry.MustRegister(mutations, saveDuration, saveFailures, codeCollisions, codeExhaustions)

	return &MetricsService{
		registry:        registry,
		mutations:       mutations,
		saveDuration:    saveDuration,
		saveFailures:    saveFailures,
		codeCollisions:  codeCollisions,
		codeExhaustions: codeExhaustions,
	}
}

// Gatherer exposes the underlying registry for scraping or tests.
func (m *MetricsService) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveMutation implements repository.MutationObserver.
func (m *MetricsService) ObserveMutation(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
	atomic.AddUint64(&m.mutationCount, 1)
	if outcome == repository.OutcomeFailed {
		atomic.AddUint64(&m.failedMutationCount, 1)
	}
}

// ObserveSave implements storage.SaveObserver.
func (m *MetricsService) ObserveSave(backend string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.saveDuration.WithLabelValues(backend).Observe(duration.Seconds())
	atomic.AddUint64(&m.saveCount, 1)
	atomic.AddUint64(&m.saveDurationTotal, uint64(duration.Nanoseconds()))
	if err != nil {
		m.saveFailures.WithLabelValues(backend).Inc()
		atomic.AddUint64(&m.failedSaveCount, 1)
	}
}

// RecordCodeCollision implements codegen.Observer.
func (m *MetricsService) RecordCodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
	atomic.AddUint64(&m.collisionCount, 1)
}

// RecordCodeExhausted implements codegen.Observer.
func (m *MetricsService) RecordCodeExhausted() {
	if m == nil {
		return
	}
	m.codeExhaustions.Inc()
	atomic.AddUint64(&m.exhaustionCount, 1)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.RegistryMetrics {
	if m == nil {
		return models.RegistryMetrics{}
	}
	saves := atomic.LoadUint64(&m.saveCount)
	total := atomic.LoadUint64(&m.saveDurationTotal)

	var avgSaveMs float64
	if saves > 0 {
		avgSaveMs = float64(total) / float64(saves) / float64(time.Millisecond)
	}

	return models.RegistryMetrics{
		Mutations:             atomic.LoadUint64(&m.mutationCount),
		FailedMutations:       atomic.LoadUint64(&m.failedMutationCount),
		Saves:                 saves,
		FailedSaves:           atomic.LoadUint64(&m.failedSaveCount),
		AverageSaveDurationMs: avgSaveMs,
		CodeCollisions:        atomic.LoadUint64(&m.collisionCount),
		CodeExhaustions:       atomic.LoadUint64(&m.exhaustionCount),
		GeneratedAt:           time.Now().UTC(),
	}
}
