package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
	"gorm.io/gorm"
)

// insertBatchSize keeps each INSERT under sqlite's bound variable limit
const insertBatchSize = 100

// RepositoryImpl implements the Repository interface
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new task repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// CreateWithTemplates stores task and its templates atomically. TaskID of
// every template is set to the new task's id.
func (r *RepositoryImpl) CreateWithTemplates(ctx context.Context, task *models.Task, templates []models.AnnotationRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("creating task: %w", err)
		}
		if len(templates) == 0 {
			return nil
		}
		for i := range templates {
			templates[i].TaskID = task.ID
		}
		if err := tx.CreateInBatches(templates, insertBatchSize).Error; err != nil {
			return fmt.Errorf("creating templates: %w", err)
		}
		return nil
	})
}

// ListTasks lists tasks in upload order
func (r *RepositoryImpl) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by its ID
func (r *RepositoryImpl) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("task", id)
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return &task, nil
}

type taskCount struct {
	TaskID uint
	Status models.Status
	Count  int64
}

// CountTemplatesByTask returns the number of templates of each task
func (r *RepositoryImpl) CountTemplatesByTask(ctx context.Context) (map[uint]int64, error) {
	var rows []taskCount
	if err := r.db.WithContext(ctx).
		Model(&models.AnnotationRecord{}).
		Select("task_id, COUNT(*) AS count").
		Where("is_template = ?", true).
		Group("task_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("counting templates: %w", err)
	}

	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.TaskID] = row.Count
	}
	return out, nil
}

// CountInstancesByTaskAndStatus returns annotator's instance counts per task and status
func (r *RepositoryImpl) CountInstancesByTaskAndStatus(ctx context.Context, annotator string) (map[uint]map[models.Status]int64, error) {
	var rows []taskCount
	if err := r.db.WithContext(ctx).
		Model(&models.AnnotationRecord{}).
		Select("task_id, status, COUNT(*) AS count").
		Where("is_template = ? AND annotator = ?", false, annotator).
		Group("task_id, status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("counting instances: %w", err)
	}

	out := make(map[uint]map[models.Status]int64)
	for _, row := range rows {
		if out[row.TaskID] == nil {
			out[row.TaskID] = make(map[models.Status]int64)
		}
		out[row.TaskID][row.Status] = row.Count
	}
	return out, nil
}

// DeleteTask deletes the task and all of its records in one transaction and
// returns how many records went with it
func (r *RepositoryImpl) DeleteTask(ctx context.Context, id uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records := tx.Where("task_id = ?", id).Delete(&models.AnnotationRecord{})
		if records.Error != nil {
			return fmt.Errorf("deleting task records: %w", records.Error)
		}
		removed = records.RowsAffected

		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return fmt.Errorf("deleting task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError("task", id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
