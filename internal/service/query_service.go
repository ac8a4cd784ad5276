package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/classroom-registry/internal/models"
)

type classReader interface {
	View(fn func(classes []models.Class))
	FindByCode(code string) (*models.Class, bool)
}

// QueryService serves the teacher and student dashboard views. Every result is
// computed from the committed collection at call time.
type QueryService struct {
	repo classReader
}

// NewQueryService constructs QueryService.
func NewQueryService(repo classReader) *QueryService {
	return &QueryService{repo: repo}
}

// ClassesByTeacher returns the classes owned by teacherID in creation order.
func (s *QueryService) ClassesByTeacher(ctx context.Context, teacherID string) []models.Class {
	teacherID = strings.TrimSpace(teacherID)
	result := []models.Class{}
	if teacherID == "" {
		return result
	}
	s.repo.View(func(classes []models.Class) {
		for _, c := range classes {
			if c.TeacherID == teacherID {
				result = append(result, c.Clone())
			}
		}
	})
	return result
}

// ClassesByStudent returns the classes studentID has joined, earliest join
// first. Classes joined at the same instant keep their creation order.
func (s *QueryService) ClassesByStudent(ctx context.Context, studentID string) []models.Class {
	studentID = strings.TrimSpace(studentID)
	result := []models.Class{}
	if studentID == "" {
		return result
	}
	type joined struct {
		class models.Class
		at    time.Time
	}
	var matches []joined
	s.repo.View(func(classes []models.Class) {
		for _, c := range classes {
			if e, ok := c.Enrollment(studentID); ok {
				matches = append(matches, joined{class: c.Clone(), at: e.JoinedAt})
			}
		}
	})
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].at.Before(matches[j].at) })
	for _, m := range matches {
		result = append(result, m.class)
	}
	return result
}

// FindByCode looks a class up by its join code.
func (s *QueryService) FindByCode(ctx context.Context, code string) (*models.Class, bool) {
	return s.repo.FindByCode(code)
}
