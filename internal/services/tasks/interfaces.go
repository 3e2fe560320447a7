package tasks

import (
	"context"

	"github.com/killallgit/diagram-annotator/internal/models"
)

// Repository defines the interface for task data access
type Repository interface {
	// Create operations
	CreateWithTemplates(ctx context.Context, task *models.Task, templates []models.AnnotationRecord) error

	// Read operations
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id uint) (*models.Task, error)
	CountTemplatesByTask(ctx context.Context) (map[uint]int64, error)
	CountInstancesByTaskAndStatus(ctx context.Context, annotator string) (map[uint]map[models.Status]int64, error)

	// Delete operations
	DeleteTask(ctx context.Context, id uint) (int64, error)
}

// IngestResult describes a finished upload
type IngestResult struct {
	Task    models.Task `json:"task"`
	Samples int         `json:"samples"`
}

// TaskProgress is one dashboard row: how far an annotator got on a task
type TaskProgress struct {
	Task   models.Task             `json:"task"`
	Total  int64                   `json:"total"`
	Counts map[models.Status]int64 `json:"annotation_counts"`
}

// Service defines the interface for task business logic
type Service interface {
	// Ingest stores a dataset upload as one task plus one template per sample
	Ingest(ctx context.Context, taskName string, payload []byte) (*IngestResult, error)

	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id uint) (*models.Task, error)

	// DeleteTask removes the task together with every template and instance of it
	DeleteTask(ctx context.Context, id uint) error

	// Dashboard reports, per task, the template total and annotator's instances by status
	Dashboard(ctx context.Context, annotator string) ([]TaskProgress, error)
}
