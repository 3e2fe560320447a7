package types

import (
	"time"

	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/killallgit/diagram-annotator/internal/services/tasks"
)

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`  // One of the Status constants above
	Message string `json:"message"` // Human-readable message
}

// OK builds the BaseResponse of a successful call
func OK(message string) BaseResponse {
	return BaseResponse{Status: StatusOK, Message: message}
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`   // Error code/type
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// DatasetResponse lists the records visible to the caller
type DatasetResponse struct {
	BaseResponse
	Role    models.Role               `json:"role"`
	TaskID  *uint                     `json:"task_id,omitempty"`
	Records []models.AnnotationRecord `json:"records"`
	Count   int                       `json:"count"`
}

// TasksResponse lists tasks
type TasksResponse struct {
	BaseResponse
	Tasks []models.Task `json:"tasks"`
	Count int           `json:"count"`
}

// DashboardResponse reports the caller's progress per task
type DashboardResponse struct {
	BaseResponse
	Tasks []tasks.TaskProgress `json:"tasks"`
}

// AnnotateResponse is the caller's working copy of one sample
type AnnotateResponse struct {
	BaseResponse
	Record *models.AnnotationRecord `json:"record"`
	// RenderedDiagram is the sanitized diagram source ready for display
	RenderedDiagram string   `json:"rendered_diagram"`
	Categories      []string `json:"categories"`
}

// SaveResponse reports the status a save produced
type SaveResponse struct {
	BaseResponse
	ID           uint          `json:"id"`
	RecordStatus models.Status `json:"record_status"`
}

// UploadResponse describes a stored upload
type UploadResponse struct {
	BaseResponse
	Task    models.Task `json:"task"`
	Samples int         `json:"samples"`
}

// AnnotationsResponse lists every record, templates and instances
type AnnotationsResponse struct {
	BaseResponse
	Records []models.AnnotationRecord `json:"records"`
	Count   int                       `json:"count"`
}

// LoginResponse carries a freshly issued session
type LoginResponse struct {
	BaseResponse
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// UserResponse wraps a single account
type UserResponse struct {
	BaseResponse
	User models.User `json:"user"`
}

// UsersResponse lists accounts
type UsersResponse struct {
	BaseResponse
	Users []models.User `json:"users"`
	Count int           `json:"count"`
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	BaseResponse
	Timestamp string                 `json:"timestamp"`
	Database  map[string]interface{} `json:"database"`
}
