package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-registry/internal/models"
	"github.com/noah-isme/classroom-registry/internal/repository"
	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

type classStore interface {
	View(fn func(classes []models.Class))
	FindByID(id string) (*models.Class, bool)
	FindByCode(code string) (*models.Class, bool)
	Mutate(ctx context.Context, op string, fn repository.MutateFunc) error
}

type codeGenerator interface {
	Generate(existing map[string]struct{}) (string, error)
}

type storageReporter interface {
	Backend() string
	LastSave() (time.Time, int)
}

// CreateClassRequest captures creation payload.
type CreateClassRequest struct {
	Name        string `json:"name" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description"`
	TeacherName string `json:"teacherName"`
}

// UpdateClassRequest modifies class metadata.
type UpdateClassRequest struct {
	Name        string `json:"name" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description"`
}

// ClassServiceConfig carries optional collaborators.
type ClassServiceConfig struct {
	Clock   func() time.Time
	NewID   func() string
	Storage storageReporter
	Metrics *MetricsService
}

// ClassService creates, edits and deletes classes.
type ClassService struct {
	repo      classStore
	codes     codeGenerator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	storage   storageReporter
	metrics   *MetricsService
}

// NewClassService constructs ClassService.
func NewClassService(repo classStore, codes codeGenerator, validate *validator.Validate, logger *zap.Logger, cfg ClassServiceConfig) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &ClassService{
		repo:      repo,
		codes:     codes,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return cfg.Clock().UTC() },
		newID:     cfg.NewID,
		storage:   cfg.Storage,
		metrics:   cfg.Metrics,
	}
}

// Create registers a new class owned by teacherID and returns it with a fresh
// code.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest, teacherID string) (*models.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Description = strings.TrimSpace(req.Description)
	req.TeacherName = strings.TrimSpace(req.TeacherName)
	teacherID = strings.TrimSpace(teacherID)

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "class name and subject are required")
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}

	var created models.Class
	err := s.repo.Mutate(ctx, "create_class", func(col *repository.Collection) (bool, error) {
		code, err := s.codes.Generate(col.Codes())
		if err != nil {
			return false, err
		}
		now := s.now()
		created = models.Class{
			ID:            s.newID(),
			Code:          code,
			Name:          req.Name,
			Subject:       req.Subject,
			Description:   req.Description,
			TeacherID:     teacherID,
			TeacherName:   req.TeacherName,
			Students:      []models.Enrollment{},
			Assignments:   []json.RawMessage{},
			Announcements: []json.RawMessage{},
			Materials:     []json.RawMessage{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		col.Append(created.Clone())
		return true, nil
	})
	if err != nil {
		s.logger.Error("create class failed", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("class created", zap.String("class_id", created.ID), zap.String("code", created.Code), zap.String("teacher_id", teacherID))
	return &created, nil
}

// Get returns the class with the given id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, ok := s.repo.FindByID(strings.TrimSpace(id))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

// FindByCode looks a class up by its join code.
func (s *ClassService) FindByCode(ctx context.Context, code string) (*models.Class, bool) {
	return s.repo.FindByCode(code)
}

// Update edits the metadata of a class owned by teacherID.
func (s *ClassService) Update(ctx context.Context, classID, teacherID string, req UpdateClassRequest) (*models.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "class name and subject are required")
	}

	var updated models.Class
	err := s.mutateOwned(ctx, "update_class", classID, teacherID, func(class *models.Class) {
		class.Name = req.Name
		class.Subject = req.Subject
		class.Description = req.Description
		class.UpdatedAt = s.now()
		updated = class.Clone()
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AppendContent appends an opaque assignment, announcement or material document
// to a class owned by teacherID. The payload is stored compacted and otherwise
// untouched.
func (s *ClassService) AppendContent(ctx context.Context, classID, teacherID string, kind models.ContentKind, payload json.RawMessage) (*models.Class, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown content kind")
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "content must be valid JSON")
	}
	item := json.RawMessage(compact.Bytes())

	var updated models.Class
	err := s.mutateOwned(ctx, "append_"+string(kind), classID, teacherID, func(class *models.Class) {
		switch kind {
		case models.ContentAssignment:
			class.Assignments = append(class.Assignments, item)
		case models.ContentAnnouncement:
			class.Announcements = append(class.Announcements, item)
		case models.ContentMaterial:
			class.Materials = append(class.Materials, item)
		}
		class.UpdatedAt = s.now()
		updated = class.Clone()
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a class owned by teacherID. It reports false without changing
// anything when the class is missing or owned by someone else; an error means
// the removal could not be persisted.
func (s *ClassService) Delete(ctx context.Context, classID, teacherID string) (bool, error) {
	classID = strings.TrimSpace(classID)
	teacherID = strings.TrimSpace(teacherID)
	removed := false
	err := s.repo.Mutate(ctx, "delete_class", func(col *repository.Collection) (bool, error) {
		i := col.IndexByID(classID)
		if i < 0 {
			return false, nil
		}
		if !col.At(i).OwnedBy(teacherID) {
			s.logger.Warn("delete refused, not the owner", zap.String("class_id", classID), zap.String("teacher_id", teacherID))
			return false, nil
		}
		col.Remove(i)
		removed = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("class deleted", zap.String("class_id", classID), zap.String("teacher_id", teacherID))
	}
	return removed, nil
}

// StorageInfo summarises registry contents for diagnostics.
func (s *ClassService) StorageInfo(ctx context.Context) models.StorageInfo {
	var info models.StorageInfo
	s.repo.View(func(classes []models.Class) {
		students := make(map[string]struct{})
		teachers := make(map[string]struct{})
		info.ClassCount = len(classes)
		for _, c := range classes {
			teachers[c.TeacherID] = struct{}{}
			info.TotalStudents += len(c.Students)
			for _, e := range c.Students {
				students[e.StudentID] = struct{}{}
			}
			info.Assignments += len(c.Assignments)
			info.Announcements += len(c.Announcements)
			info.Materials += len(c.Materials)
		}
		info.DistinctStudents = len(students)
		info.TeacherCount = len(teachers)
	})
	if s.storage != nil {
		info.Backend = s.storage.Backend()
		if savedAt, size := s.storage.LastSave(); !savedAt.IsZero() {
			info.LastSavedAt = &savedAt
			info.SnapshotBytes = size
		}
	}
	info.Metrics = s.metrics.Snapshot()
	return info
}

// mutateOwned applies edit to the class if teacherID owns it.
func (s *ClassService) mutateOwned(ctx context.Context, op, classID, teacherID string, edit func(class *models.Class)) error {
	classID = strings.TrimSpace(classID)
	teacherID = strings.TrimSpace(teacherID)
	return s.repo.Mutate(ctx, op, func(col *repository.Collection) (bool, error) {
		i := col.IndexByID(classID)
		if i < 0 {
			return false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		class := col.At(i)
		if !class.OwnedBy(teacherID) {
			return false, appErrors.Clone(appErrors.ErrForbidden, "only the class owner may change it")
		}
		edit(class)
		return true, nil
	})
}
