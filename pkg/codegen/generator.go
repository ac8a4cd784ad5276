// Package codegen issues short class codes that are easy to read aloud and type.
package codegen

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

// Alphabet is the character set class codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	DefaultLength      = 6
	DefaultMaxAttempts = 10
	minLength          = 6
	maxLength          = 8
)

// Source yields uniformly distributed integers in [0, n).
type Source interface {
	Intn(n int) int
}

// Observer is notified about collisions and exhausted retry budgets.
type Observer interface {
	RecordCodeCollision()
	RecordCodeExhausted()
}

// Config tunes a Generator. Zero values fall back to defaults.
type Config struct {
	Length      int
	MaxAttempts int
	Source      Source
	Observer    Observer
}

// Generator draws candidate codes and rejects ones already in use.
type Generator struct {
	length      int
	maxAttempts int
	source      Source
	observer    Observer
}

// New constructs a Generator.
func New(cfg Config) *Generator {
	if cfg.Length < minLength || cfg.Length > maxLength {
		cfg.Length = DefaultLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Source == nil {
		cfg.Source = NewRandomSource(time.Now().UnixNano())
	}
	return &Generator{length: cfg.Length, maxAttempts: cfg.MaxAttempts, source: cfg.Source, observer: cfg.Observer}
}

// Generate returns a code absent from existing. Each attempt is checked against
// the set the caller passes in, so callers must pass the live set.
func (g *Generator) Generate(existing map[string]struct{}) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := g.draw()
		if _, taken := existing[candidate]; !taken {
			return candidate, nil
		}
		if g.observer != nil {
			g.observer.RecordCodeCollision()
		}
	}
	if g.observer != nil {
		g.observer.RecordCodeExhausted()
	}
	return "", appErrors.ErrCodeSpaceExhausted
}

func (g *Generator) draw() string {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		b.WriteByte(Alphabet[g.source.Intn(len(Alphabet))])
	}
	return b.String()
}

// Normalize canonicalises user-entered codes for lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource returns a goroutine-safe math/rand backed Source.
func NewRandomSource(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}
