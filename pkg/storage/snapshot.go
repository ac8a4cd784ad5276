package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/classroom-registry/internal/models"
)

// SnapshotVersion is the envelope version written by EncodeSnapshot.
const SnapshotVersion = 1

type snapshotEnvelope struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"saved_at"`
	Classes []models.Class `json:"classes"`
}

// EncodeSnapshot serialises the full class collection. Content payloads are
// written without HTML escaping so they reload byte for byte.
func EncodeSnapshot(classes []models.Class, savedAt time.Time) ([]byte, error) {
	if classes == nil {
		classes = []models.Class{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snapshotEnvelope{Version: SnapshotVersion, SavedAt: savedAt.UTC(), Classes: classes}); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeSnapshot parses a blob produced by EncodeSnapshot. Nil slices on
// decoded classes are replaced by empty ones.
func DecodeSnapshot(raw []byte) ([]models.Class, time.Time, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.Version != SnapshotVersion {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: unsupported version %d", env.Version)
	}
	classes := env.Classes
	if classes == nil {
		classes = []models.Class{}
	}
	if err := validateClasses(classes); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	for i := range classes {
		normalizeSlices(&classes[i])
	}
	return classes, env.SavedAt, nil
}

// validateClasses rejects collections with missing identifiers, reused ids or
// codes, or a student enrolled twice in one class.
func validateClasses(classes []models.Class) error {
	ids := make(map[string]struct{}, len(classes))
	codes := make(map[string]struct{}, len(classes))
	for i, c := range classes {
		if c.ID == "" || c.Code == "" {
			return fmt.Errorf("class %d has an empty id or code", i)
		}
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("class id %s appears more than once", c.ID)
		}
		if _, dup := codes[c.Code]; dup {
			return fmt.Errorf("class code %s appears more than once", c.Code)
		}
		ids[c.ID] = struct{}{}
		codes[c.Code] = struct{}{}

		students := make(map[string]struct{}, len(c.Students))
		for _, e := range c.Students {
			if e.StudentID == "" {
				return fmt.Errorf("class %s has an enrollment without a student id", c.ID)
			}
			if _, dup := students[e.StudentID]; dup {
				return fmt.Errorf("student %s enrolled twice in class %s", e.StudentID, c.ID)
			}
			students[e.StudentID] = struct{}{}
		}
	}
	return nil
}

func normalizeSlices(c *models.Class) {
	if c.Students == nil {
		c.Students = []models.Enrollment{}
	}
	if c.Assignments == nil {
		c.Assignments = []json.RawMessage{}
	}
	if c.Announcements == nil {
		c.Announcements = []json.RawMessage{}
	}
	if c.Materials == nil {
		c.Materials = []json.RawMessage{}
	}
}
