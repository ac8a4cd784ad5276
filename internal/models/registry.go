package models

import "time"

// StorageInfo is a best-effort diagnostic view of the registry. Its shape is
// not stable.
type StorageInfo struct {
	Backend          string          `json:"backend"`
	ClassCount       int             `json:"classCount"`
	TotalStudents    int             `json:"totalStudents"`
	DistinctStudents int             `json:"distinctStudents"`
	TeacherCount     int             `json:"teacherCount"`
	Assignments      int             `json:"assignments"`
	Announcements    int             `json:"announcements"`
	Materials        int             `json:"materials"`
	SnapshotBytes    int             `json:"snapshotBytes"`
	LastSavedAt      *time.Time      `json:"lastSavedAt,omitempty"`
	Metrics          RegistryMetrics `json:"metrics"`
}

// RegistryMetrics aggregates counters kept by the metrics service.
type RegistryMetrics struct {
	Mutations             uint64    `json:"mutations"`
	FailedMutations       uint64    `json:"failedMutations"`
	Saves                 uint64    `json:"saves"`
	FailedSaves           uint64    `json:"failedSaves"`
	AverageSaveDurationMs float64   `json:"averageSaveDurationMs"`
	CodeCollisions        uint64    `json:"codeCollisions"`
	CodeExhaustions       uint64    `json:"codeExhaustions"`
	GeneratedAt           time.Time `json:"generatedAt"`
}

// RosterFormat enumerates roster export encodings.
type RosterFormat string

// Supported roster formats.
const (
	RosterFormatCSV RosterFormat = "csv"
	RosterFormatPDF RosterFormat = "pdf"
)

// RosterExport describes a written roster export.
type RosterExport struct {
	ClassID     string       `json:"classId"`
	Format      RosterFormat `json:"format"`
	Filename    string       `json:"filename"`
	Students    int          `json:"students"`
	GeneratedAt time.Time    `json:"generatedAt"`
}
