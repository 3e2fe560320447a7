package annotations

import (
	"context"
	"io"

	"github.com/killallgit/diagram-annotator/internal/models"
)

// WorkUpdate is the annotator-editable part of an instance, written in one statement
type WorkUpdate struct {
	Nodes   models.Nodes
	Missing models.StringList
	Notes   string
	Status  models.Status
}

// Repository defines the interface for annotation record data access
type Repository interface {
	// Create operations
	CreateRecord(ctx context.Context, record *models.AnnotationRecord) error

	// Read operations
	GetRecordByID(ctx context.Context, id uint) (*models.AnnotationRecord, error)
	FindInstance(ctx context.Context, sampleID, annotator string) (*models.AnnotationRecord, error)
	FindTemplate(ctx context.Context, sampleID string) (*models.AnnotationRecord, error)
	CountBySample(ctx context.Context, sampleID string) (int64, error)
	ListTemplates(ctx context.Context, taskID *uint, excludeStatus models.Status) ([]models.AnnotationRecord, error)
	ListInstances(ctx context.Context, taskID *uint, annotator string) ([]models.AnnotationRecord, error)
	ListAll(ctx context.Context, taskID *uint) ([]models.AnnotationRecord, error)
	EachRecord(ctx context.Context, taskID *uint, fn func(*models.AnnotationRecord) error) error

	// Update operations
	UpdateWork(ctx context.Context, id uint, update WorkUpdate) error
}

// SaveRequest is what an annotator submits from the annotate page
type SaveRequest struct {
	Action  string            `json:"action"`
	Nodes   models.Nodes      `json:"nodes"`
	Missing models.StringList `json:"missing"`
	Notes   string            `json:"notes"`
}

// Service defines the interface for annotation business logic
type Service interface {
	// Resolve returns the records role may see, optionally limited to one task
	Resolve(ctx context.Context, role models.Role, taskID *uint, username string) ([]models.AnnotationRecord, error)

	// Open returns annotator's instance of sampleID, cloning the template on first access
	Open(ctx context.Context, sampleID, annotator string) (*models.AnnotationRecord, error)

	// Save writes the annotator's work to an instance and moves its status
	Save(ctx context.Context, instanceID uint, req SaveRequest) (models.Status, error)

	// ListAll returns templates and instances alike, for administrators
	ListAll(ctx context.Context, taskID *uint) ([]models.AnnotationRecord, error)

	// Export writes every record as CSV, one line per record
	Export(ctx context.Context, w io.Writer, taskID *uint) error
}
