package annotations

import (
	"context"
	"fmt"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/metrics"
	"github.com/killallgit/diagram-annotator/internal/models"
	"go.uber.org/zap"
)

// ActionFinalize is the save action that finalizes an instance
const ActionFinalize = "finalize"

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewService creates a new annotation service. logger and m may be nil.
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

// StatusFor maps a save action onto the status it produces. Any action other
// than finalize, including none, means In Progress.
func StatusFor(action string) models.Status {
	if action == ActionFinalize {
		return models.StatusFinalized
	}
	return models.StatusInProgress
}

// Open returns annotator's instance of sampleID. On first access the template
// is cloned and the clone stored; concurrent first accesses converge on the
// one record the store accepted.
func (s *ServiceImpl) Open(ctx context.Context, sampleID, annotator string) (*models.AnnotationRecord, error) {
	if annotator == "" {
		return nil, apperrors.NewValidationError("annotator", "required")
	}

	instance, err := s.repository.FindInstance(ctx, sampleID, annotator)
	if err == nil {
		return instance, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	template, err := s.repository.FindTemplate(ctx, sampleID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, s.missingTemplate(ctx, sampleID, err)
	}

	clone := template.CloneFor(annotator)
	if err := s.repository.CreateRecord(ctx, clone); err != nil {
		if !apperrors.IsConflict(err) {
			return nil, fmt.Errorf("cloning template for %s: %w", annotator, err)
		}
		// lost the race; the winner is the instance
		return s.repository.FindInstance(ctx, sampleID, annotator)
	}

	s.metrics.InstanceCloned()
	s.logger.Info("instance cloned from template",
		zap.String("sample_id", sampleID),
		zap.String("annotator", annotator),
		zap.Uint("record_id", clone.ID),
		zap.Uint("template_id", template.ID),
	)
	return clone, nil
}

// missingTemplate tells an unknown sample apart from one whose template vanished
func (s *ServiceImpl) missingTemplate(ctx context.Context, sampleID string, notFound error) error {
	count, err := s.repository.CountBySample(ctx, sampleID)
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	fault := apperrors.NewIntegrityFault("sample %s has %d records but no template", sampleID, count)
	s.logger.Error("missing template", zap.String("sample_id", sampleID), zap.Error(fault))
	return fault
}

// Save stores the annotator's selections and moves the instance to In
// Progress, or to Finalized when req.Action is finalize. Any prior status is
// accepted, so a finalized instance can be reopened by saving it again.
func (s *ServiceImpl) Save(ctx context.Context, instanceID uint, req SaveRequest) (models.Status, error) {
	record, err := s.repository.GetRecordByID(ctx, instanceID)
	if err != nil {
		return "", err
	}
	if record.IsTemplate {
		return "", apperrors.NewValidationError("id", "templates cannot be edited")
	}

	nodes := req.Nodes
	if nodes == nil {
		nodes = models.Nodes{}
	}
	missing := req.Missing
	if missing == nil {
		missing = models.StringList{}
	}
	status := StatusFor(req.Action)

	s.logger.Info("saving annotation",
		zap.Uint("record_id", record.ID),
		zap.String("annotator", record.Annotator),
		zap.Any("nodes", nodes),
		zap.String("status", string(status)),
	)

	if err := s.repository.UpdateWork(ctx, record.ID, WorkUpdate{
		Nodes:   nodes,
		Missing: missing,
		Notes:   req.Notes,
		Status:  status,
	}); err != nil {
		return "", err
	}

	s.metrics.Saved(string(status))
	return status, nil
}

// ListAll returns every record, optionally limited to one task
func (s *ServiceImpl) ListAll(ctx context.Context, taskID *uint) ([]models.AnnotationRecord, error) {
	return s.repository.ListAll(ctx, taskID)
}
