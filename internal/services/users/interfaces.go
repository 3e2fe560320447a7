package users

import (
	"context"

	"github.com/killallgit/diagram-annotator/internal/models"
)

// Repository defines the interface for user data access
type Repository interface {
	// Create operations
	CreateUser(ctx context.Context, user *models.User) error
	// CloneUser stores user and copies every instance of source to it,
	// skipping samples user already has. Returns the number copied.
	CloneUser(ctx context.Context, source string, user *models.User) (int, error)

	// Read operations
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)

	// Update operations
	UpdateRole(ctx context.Context, id uint, role models.Role) error

	// Delete operations
	DeleteUser(ctx context.Context, id uint) error
}

// CloneResult describes a finished clone-user run
type CloneResult struct {
	User        models.User `json:"user"`
	Annotations int         `json:"annotations"`
}

// Service defines the interface for user business logic
type Service interface {
	Create(ctx context.Context, username, password string, role models.Role) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)

	// UpgradeToAdmin gives an existing user the admin role
	UpgradeToAdmin(ctx context.Context, id uint) (*models.User, error)

	// Delete removes a user; actor may not delete their own account
	Delete(ctx context.Context, id uint, actor string) error

	// Authenticate checks credentials and returns the matching user
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	// EnsureAdmin creates the bootstrap admin; an existing account is left alone
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)

	// Clone creates newUsername with oldUsername's password and role, plus a
	// copy of every instance oldUsername owns
	Clone(ctx context.Context, oldUsername, newUsername string) (*CloneResult, error)
}
