package models

import "time"

// Enrollment is a student's membership in a class, snapshotting the student's
// identity at join time.
type Enrollment struct {
	StudentID string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// JoinResult is the user-facing outcome of joining a class by code.
type JoinResult struct {
	Success       bool   `json:"success"`
	AlreadyMember bool   `json:"alreadyMember,omitempty"`
	Message       string `json:"message"`
	Class         *Class `json:"class,omitempty"`
}
