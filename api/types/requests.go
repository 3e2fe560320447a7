package types

import (
	"encoding/json"

	"github.com/killallgit/diagram-annotator/internal/models"
)

// LoginRequest carries the credentials of a login attempt
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// CreateUserRequest is the admin form for adding an account
type CreateUserRequest struct {
	Username string      `json:"username" binding:"required" example:"bob"`
	Password string      `json:"password" binding:"required" example:"s3cret"`
	Role     models.Role `json:"role,omitempty" example:"annotator"` // admin or annotator; defaults to annotator
}

// UploadRequest is the JSON alternative to the multipart upload form
type UploadRequest struct {
	TaskName string `json:"task_name" binding:"required" example:"batch-1"`
	// Samples is the dataset itself: a JSON array of sample objects
	Samples json.RawMessage `json:"samples" binding:"required" swaggertype:"array,object"`
}
