package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-registry/internal/models"
	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
	"github.com/noah-isme/classroom-registry/pkg/export"
)

type rosterSource interface {
	FindByID(id string) (*models.Class, bool)
}

type exportWriter interface {
	Save(filename string, data []byte) (string, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// RosterExportService writes class rosters to files for teachers.
type RosterExportService struct {
	repo    rosterSource
	storage exportWriter
	csv     tableRenderer
	pdf     tableRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewRosterExportService constructs a RosterExportService. Nil renderers fall
// back to the default CSV and PDF exporters.
func NewRosterExportService(repo rosterSource, storage exportWriter, logger *zap.Logger, csv, pdf tableRenderer) *RosterExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &RosterExportService{
		repo:    repo,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Export renders the roster of a class owned by teacherID and stores it.
func (s *RosterExportService) Export(ctx context.Context, classID, teacherID string, format models.RosterFormat) (*models.RosterExport, error) {
	class, ok := s.repo.FindByID(strings.TrimSpace(classID))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if !class.OwnedBy(strings.TrimSpace(teacherID)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the class owner may export its roster")
	}

	var renderer tableRenderer
	switch format {
	case models.RosterFormatCSV:
		renderer = s.csv
	case models.RosterFormatPDF:
		renderer = s.pdf
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported roster format %q", format))
	}

	payload, err := renderer.Render(rosterTable(class))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to render roster")
	}

	generatedAt := s.now()
	filename := fmt.Sprintf("roster_%s_%s.%s", sanitizeFilename(class.Code), generatedAt.Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store roster export")
	}

	s.logger.Info("roster exported", zap.String("class_id", class.ID), zap.String("format", string(format)), zap.String("file", relPath))
	return &models.RosterExport{
		ClassID:     class.ID,
		Format:      format,
		Filename:    relPath,
		Students:    len(class.Students),
		GeneratedAt: generatedAt,
	}, nil
}

func rosterTable(class *models.Class) export.Table {
	rows := make([][]string, 0, len(class.Students))
	for i, e := range class.Students {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.StudentID,
			e.Name,
			e.Email,
			e.JoinedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Table{
		Title:   fmt.Sprintf("%s - %s (%s)", class.Name, class.Subject, class.Code),
		Headers: []string{"No", "Student ID", "Name", "Email", "Joined At"},
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
