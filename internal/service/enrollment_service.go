package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-registry/internal/models"
	"github.com/noah-isme/classroom-registry/internal/repository"
	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

// Join outcome messages.
const (
	JoinMessageJoined         = "joined class"
	JoinMessageAlreadyMember  = "already a member"
	JoinMessageClassNotFound  = "class not found"
	JoinMessageInvalidStudent = "invalid student"
)

type enrollmentStore interface {
	FindByID(id string) (*models.Class, bool)
	Mutate(ctx context.Context, op string, fn repository.MutateFunc) error
}

// JoinClassRequest identifies the student joining a class.
type JoinClassRequest struct {
	StudentID string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// EnrollmentService manages class membership.
type EnrollmentService struct {
	repo      enrollmentStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService. A nil clock uses time.Now.
func NewEnrollmentService(repo enrollmentStore, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &EnrollmentService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return clock().UTC() },
	}
}

// Join enrolls the student in the class identified by code. Joining twice is a
// successful no-op. The returned error is non-nil only for internal faults;
// unknown codes and bad student payloads are reported in the result.
func (s *EnrollmentService) Join(ctx context.Context, code string, req JoinClassRequest) (*models.JoinResult, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return &models.JoinResult{Success: false, Message: JoinMessageInvalidStudent}, nil
	}

	var result models.JoinResult
	err := s.repo.Mutate(ctx, "join_class", func(col *repository.Collection) (bool, error) {
		i := col.IndexByCode(code)
		if i < 0 {
			result = models.JoinResult{Success: false, Message: JoinMessageClassNotFound}
			return false, nil
		}
		class := col.At(i)
		if _, ok := class.Enrollment(req.StudentID); ok {
			snapshot := class.Clone()
			result = models.JoinResult{Success: true, AlreadyMember: true, Message: JoinMessageAlreadyMember, Class: &snapshot}
			return false, nil
		}

		now := s.now()
		class.Students = append(class.Students, models.Enrollment{
			StudentID: req.StudentID,
			Name:      req.Name,
			Email:     req.Email,
			JoinedAt:  now,
		})
		class.UpdatedAt = now
		snapshot := class.Clone()
		result = models.JoinResult{Success: true, Message: JoinMessageJoined, Class: &snapshot}
		return true, nil
	})
	if err != nil {
		s.logger.Error("join class failed", zap.String("code", code), zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}

	if result.Success && !result.AlreadyMember {
		s.logger.Info("student joined class", zap.String("class_id", result.Class.ID), zap.String("student_id", req.StudentID))
	}
	return &result, nil
}

// RemoveStudent drops studentID from a class owned by teacherID. It reports
// false when the class is missing, owned by someone else, or the student is not
// enrolled.
func (s *EnrollmentService) RemoveStudent(ctx context.Context, classID, studentID, teacherID string) (bool, error) {
	classID = strings.TrimSpace(classID)
	studentID = strings.TrimSpace(studentID)
	teacherID = strings.TrimSpace(teacherID)
	removed := false
	err := s.repo.Mutate(ctx, "remove_student", func(col *repository.Collection) (bool, error) {
		i := col.IndexByID(classID)
		if i < 0 {
			return false, nil
		}
		class := col.At(i)
		if !class.OwnedBy(teacherID) {
			return false, nil
		}
		for j := range class.Students {
			if class.Students[j].StudentID == studentID {
				class.Students = append(class.Students[:j], class.Students[j+1:]...)
				class.UpdatedAt = s.now()
				removed = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("student removed from class", zap.String("class_id", classID), zap.String("student_id", studentID), zap.String("teacher_id", teacherID))
	}
	return removed, nil
}

// Roster returns the enrollments of a class in join order.
func (s *EnrollmentService) Roster(ctx context.Context, classID string) ([]models.Enrollment, error) {
	class, ok := s.repo.FindByID(strings.TrimSpace(classID))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class.Students, nil
}
