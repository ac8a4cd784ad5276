package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-registry/internal/models"
	"github.com/noah-isme/classroom-registry/internal/repository"
	"github.com/noah-isme/classroom-registry/internal/service"
	"github.com/noah-isme/classroom-registry/pkg/codegen"
	"github.com/noah-isme/classroom-registry/pkg/config"
	"github.com/noah-isme/classroom-registry/pkg/logger"
	"github.com/noah-isme/classroom-registry/pkg/storage"
)

func main() {
	teacherID := flag.String("teacher", "", "log the classes owned by this teacher")
	studentID := flag.String("student", "", "log the classes joined by this student")
	exportClass := flag.String("export", "", "class id whose roster should be exported")
	owner := flag.String("owner", "", "teacher id authorising the export")
	format := flag.String("format", string(models.RosterFormatCSV), "roster export format (csv or pdf)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backend, closeBackend, err := storage.Open(ctx, cfg, logger.Component(logr, "storage"))
	if err != nil {
		logr.Fatal("failed to open snapshot backend", zap.Error(err))
	}
	defer closeBackend() //nolint:errcheck

	metrics := service.NewMetricsService()
	store := storage.NewPersistentStore(backend, metrics, logger.Component(logr, "store"))
	repo := repository.NewClassRepository(ctx, store, metrics, logger.Component(logr, "repository"))

	validate := validator.New()
	codes := codegen.New(codegen.Config{Length: cfg.Codes.Length, MaxAttempts: cfg.Codes.MaxAttempts, Observer: metrics})
	classes := service.NewClassService(repo, codes, validate, logger.Component(logr, "classes"), service.ClassServiceConfig{
		Storage: store,
		Metrics: metrics,
	})
	queries := service.NewQueryService(repo)

	info := classes.StorageInfo(ctx)
	logr.Info("registry loaded",
		zap.String("backend", info.Backend),
		zap.Int("classes", info.ClassCount),
		zap.Int("total_students", info.TotalStudents),
		zap.Int("distinct_students", info.DistinctStudents),
		zap.Int("teachers", info.TeacherCount),
		zap.Int("snapshot_bytes", info.SnapshotBytes),
		zap.Timep("last_saved_at", info.LastSavedAt),
	)

	if *teacherID != "" {
		for _, c := range queries.ClassesByTeacher(ctx, *teacherID) {
			logr.Info("teacher class", zap.String("teacher_id", *teacherID), zap.String("class_id", c.ID), zap.String("code", c.Code), zap.String("name", c.Name), zap.Int("students", len(c.Students)))
		}
	}

	if *studentID != "" {
		for _, c := range queries.ClassesByStudent(ctx, *studentID) {
			e, _ := c.Enrollment(*studentID)
			logr.Info("student class", zap.String("student_id", *studentID), zap.String("class_id", c.ID), zap.String("code", c.Code), zap.Time("joined_at", e.JoinedAt))
		}
	}

	if *exportClass != "" {
		exportsDir, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Fatal("failed to prepare exports directory", zap.Error(err))
		}
		exporter := service.NewRosterExportService(repo, exportsDir, logger.Component(logr, "export"), nil, nil)
		result, err := exporter.Export(ctx, *exportClass, *owner, models.RosterFormat(*format))
		if err != nil {
			logr.Fatal("roster export failed", zap.String("class_id", *exportClass), zap.Error(err))
		}
		logr.Info("roster written", zap.String("path", exportsDir.Path(result.Filename)), zap.Int("students", result.Students))
	}
}
