package annotations

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
	"gorm.io/gorm"
)

// exportBatchSize bounds how many rows EachRecord holds in memory at once
const exportBatchSize = 500

// RepositoryImpl implements the Repository interface
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new annotation record repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func byTask(q *gorm.DB, taskID *uint) *gorm.DB {
	if taskID != nil {
		q = q.Where("task_id = ?", *taskID)
	}
	return q
}

// CreateRecord inserts a record. A second record for the same
// (sample_id, annotator) pair yields a ConflictError.
func (r *RepositoryImpl) CreateRecord(ctx context.Context, record *models.AnnotationRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflictError("annotation", record.SampleID+"/"+record.Annotator)
		}
		return fmt.Errorf("creating annotation record: %w", err)
	}
	return nil
}

// GetRecordByID retrieves a record by its ID
func (r *RepositoryImpl) GetRecordByID(ctx context.Context, id uint) (*models.AnnotationRecord, error) {
	var record models.AnnotationRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("annotation", id)
		}
		return nil, fmt.Errorf("getting annotation record: %w", err)
	}
	return &record, nil
}

// FindInstance retrieves annotator's instance of sampleID
func (r *RepositoryImpl) FindInstance(ctx context.Context, sampleID, annotator string) (*models.AnnotationRecord, error) {
	var record models.AnnotationRecord
	err := r.db.WithContext(ctx).
		Where("sample_id = ? AND annotator = ? AND is_template = ?", sampleID, annotator, false).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("annotation", sampleID)
		}
		return nil, fmt.Errorf("getting annotation instance: %w", err)
	}
	return &record, nil
}

// FindTemplate retrieves the template of sampleID
func (r *RepositoryImpl) FindTemplate(ctx context.Context, sampleID string) (*models.AnnotationRecord, error) {
	var record models.AnnotationRecord
	err := r.db.WithContext(ctx).
		Where("sample_id = ? AND is_template = ?", sampleID, true).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("sample", sampleID)
		}
		return nil, fmt.Errorf("getting annotation template: %w", err)
	}
	return &record, nil
}

// CountBySample counts every record, template or instance, of sampleID
func (r *RepositoryImpl) CountBySample(ctx context.Context, sampleID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AnnotationRecord{}).
		Where("sample_id = ?", sampleID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting annotation records: %w", err)
	}
	return count, nil
}

// ListTemplates lists templates in upload order, skipping excludeStatus when set
func (r *RepositoryImpl) ListTemplates(ctx context.Context, taskID *uint, excludeStatus models.Status) ([]models.AnnotationRecord, error) {
	q := byTask(r.db.WithContext(ctx), taskID).Where("is_template = ?", true)
	if excludeStatus != "" {
		q = q.Where("status <> ?", excludeStatus)
	}

	var records []models.AnnotationRecord
	if err := q.Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing annotation templates: %w", err)
	}
	return records, nil
}

// ListInstances lists annotator's instances
func (r *RepositoryImpl) ListInstances(ctx context.Context, taskID *uint, annotator string) ([]models.AnnotationRecord, error) {
	var records []models.AnnotationRecord
	if err := byTask(r.db.WithContext(ctx), taskID).
		Where("is_template = ? AND annotator = ?", false, annotator).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing annotation instances: %w", err)
	}
	return records, nil
}

// ListAll lists every record
func (r *RepositoryImpl) ListAll(ctx context.Context, taskID *uint) ([]models.AnnotationRecord, error) {
	var records []models.AnnotationRecord
	if err := byTask(r.db.WithContext(ctx), taskID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing annotation records: %w", err)
	}
	return records, nil
}

// EachRecord calls fn for every record in id order, loading them in batches
func (r *RepositoryImpl) EachRecord(ctx context.Context, taskID *uint, fn func(*models.AnnotationRecord) error) error {
	var batch []models.AnnotationRecord
	result := byTask(r.db.WithContext(ctx), taskID).
		Order("id ASC").
		FindInBatches(&batch, exportBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if err := fn(&batch[i]); err != nil {
					return err
				}
			}
			return nil
		})
	if result.Error != nil {
		return fmt.Errorf("iterating annotation records: %w", result.Error)
	}
	return nil
}

// UpdateWork writes nodes, missing, notes and status of one instance in a
// single statement. Templates never match.
func (r *RepositoryImpl) UpdateWork(ctx context.Context, id uint, update WorkUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&models.AnnotationRecord{}).
		Where("id = ? AND is_template = ?", id, false).
		Updates(map[string]any{
			"nodes":   update.Nodes,
			"missing": update.Missing,
			"notes":   update.Notes,
			"status":  update.Status,
		})
	if result.Error != nil {
		return fmt.Errorf("updating annotation record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("annotation", id)
	}
	return nil
}
