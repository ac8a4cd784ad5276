package models

import (
	"encoding/json"
	"time"
)

// Class is a teacher-owned classroom together with its roster and the content
// authored into it. Assignments, announcements and materials are opaque JSON
// documents owned by authoring flows outside the registry.
type Class struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	Subject       string            `json:"subject"`
	Description   string            `json:"description"`
	TeacherID     string            `json:"teacherId"`
	TeacherName   string            `json:"teacherName"`
	Students      []Enrollment      `json:"students"`
	Assignments   []json.RawMessage `json:"assignments"`
	Announcements []json.RawMessage `json:"announcements"`
	Materials     []json.RawMessage `json:"materials"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// OwnedBy reports whether teacherID is the class owner.
func (c *Class) OwnedBy(teacherID string) bool {
	return c != nil && teacherID != "" && c.TeacherID == teacherID
}

// Enrollment returns the roster entry for studentID.
func (c *Class) Enrollment(studentID string) (Enrollment, bool) {
	if c == nil {
		return Enrollment{}, false
	}
	for _, e := range c.Students {
		if e.StudentID == studentID {
			return e, true
		}
	}
	return Enrollment{}, false
}

// Clone returns a deep copy; nested payload bytes are copied too.
func (c Class) Clone() Class {
	out := c
	out.Students = append(make([]Enrollment, 0, len(c.Students)), c.Students...)
	out.Assignments = cloneRaw(c.Assignments)
	out.Announcements = cloneRaw(c.Announcements)
	out.Materials = cloneRaw(c.Materials)
	return out
}

func cloneRaw(items []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		out[i] = append(json.RawMessage(nil), item...)
	}
	return out
}

// ContentKind names one of the opaque content lists on a class.
type ContentKind string

// Supported content kinds.
const (
	ContentAssignment   ContentKind = "assignments"
	ContentAnnouncement ContentKind = "announcements"
	ContentMaterial     ContentKind = "materials"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	switch k {
	case ContentAssignment, ContentAnnouncement, ContentMaterial:
		return true
	}
	return false
}
