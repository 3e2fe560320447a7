package tasks

import (
	"context"
	"strings"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/metrics"
	"github.com/killallgit/diagram-annotator/internal/models"
	"go.uber.org/zap"
)

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewService creates a new task service. logger and m may be nil.
func NewService(repository Repository, logger *zap.Logger, m *metrics.Metrics) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceImpl{
		repository: repository,
		logger:     logger,
		metrics:    m,
	}
}

// Ingest parses payload and stores one task plus one template per sample.
// Either everything is stored or nothing is.
func (s *ServiceImpl) Ingest(ctx context.Context, taskName string, payload []byte) (*IngestResult, error) {
	taskName = strings.TrimSpace(taskName)
	if taskName == "" {
		return nil, apperrors.NewValidationError("task_name", "required")
	}

	samples, err := ParseSamples(payload)
	if err != nil {
		return nil, err
	}

	templates := make([]models.AnnotationRecord, len(samples))
	for i, sample := range samples {
		templates[i] = sample.Template()
	}

	task := &models.Task{Name: taskName}
	if err := s.repository.CreateWithTemplates(ctx, task, templates); err != nil {
		s.logger.Error("ingest failed", zap.String("task_name", taskName), zap.Error(err))
		return nil, err
	}

	s.metrics.SamplesIngested(len(templates))
	s.logger.Info("dataset ingested",
		zap.Uint("task_id", task.ID),
		zap.String("task_name", task.Name),
		zap.Int("samples", len(templates)),
	)
	return &IngestResult{Task: *task, Samples: len(templates)}, nil
}

// ListTasks lists every task
func (s *ServiceImpl) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.repository.ListTasks(ctx)
}

// GetTask retrieves a task by its ID
func (s *ServiceImpl) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	return s.repository.GetTask(ctx, id)
}

// DeleteTask removes a task and cascades to its records
func (s *ServiceImpl) DeleteTask(ctx context.Context, id uint) error {
	removed, err := s.repository.DeleteTask(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("task deleted", zap.Uint("task_id", id), zap.Int64("records_removed", removed))
	return nil
}

// Dashboard lists every task with its template total and annotator's
// instance counts. Every status key is present, zero when unused.
func (s *ServiceImpl) Dashboard(ctx context.Context, annotator string) ([]TaskProgress, error) {
	tasks, err := s.repository.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.repository.CountTemplatesByTask(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repository.CountInstancesByTaskAndStatus(ctx, annotator)
	if err != nil {
		return nil, err
	}

	progress := make([]TaskProgress, 0, len(tasks))
	for _, task := range tasks {
		row := TaskProgress{
			Task:  task,
			Total: totals[task.ID],
			Counts: map[models.Status]int64{
				models.StatusNotAnnotated: 0,
				models.StatusInProgress:   0,
				models.StatusFinalized:    0,
			},
		}
		for status, n := range counts[task.ID] {
			row.Counts[status] = n
		}
		progress = append(progress, row)
	}
	return progress, nil
}
