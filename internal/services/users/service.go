package users

import (
	"context"
	"errors"
	"strings"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password alike
var ErrInvalidCredentials = errors.New("invalid credentials")

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
	logger     *zap.Logger
}

// NewService creates a new user service. logger may be nil.
func NewService(repository Repository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceImpl{repository: repository, logger: logger}
}

// newUser validates input and hashes the password
func newUser(username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewValidationError("username", "required")
	}
	if password == "" {
		return nil, apperrors.NewValidationError("password", "required")
	}
	if role == "" {
		role = models.RoleAnnotator
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("role", "must be admin or annotator")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{Username: username, PasswordHash: hash, Role: role}, nil
}

// Create adds a user. An empty role means annotator.
func (s *ServiceImpl) Create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	user, err := newUser(username, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// List returns every user
func (s *ServiceImpl) List(ctx context.Context) ([]models.User, error) {
	return s.repository.ListUsers(ctx)
}

// Get returns the user called username
func (s *ServiceImpl) Get(ctx context.Context, username string) (*models.User, error) {
	return s.repository.GetUserByUsername(ctx, username)
}

// UpgradeToAdmin gives the user the admin role; already-admins are unchanged
func (s *ServiceImpl) UpgradeToAdmin(ctx context.Context, id uint) (*models.User, error) {
	if err := s.repository.UpdateRole(ctx, id, models.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.repository.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user upgraded to admin", zap.String("username", user.Username))
	return user, nil
}

// Delete removes the user with id unless it is actor's own account
func (s *ServiceImpl) Delete(ctx context.Context, id uint, actor string) error {
	user, err := s.repository.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Username == actor {
		return apperrors.NewValidationError("id", "you cannot delete yourself")
	}
	if err := s.repository.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("username", user.Username), zap.String("by", actor))
	return nil
}

// Authenticate returns the user when password matches
func (s *ServiceImpl) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repository.GetUserByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// keep the timing close to a wrong password
			_ = VerifyPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		s.logger.Warn("failed login", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// dummyHash is verified against when the username does not exist
const dummyHash = "$argon2id$v=19$m=65536,t=1,p=4$c29tZXNhbHRzb21lc2FsdA$2C5QUoeeuO1m8X8d8u5Y6m8XcKcsgDqUDI1Bc5Pq8xA"

// EnsureAdmin creates an admin called username. It reports false without
// error when the username is already taken.
func (s *ServiceImpl) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	user, err := newUser(username, password, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if err := s.repository.CreateUser(ctx, user); err != nil {
		if apperrors.IsConflict(err) {
			s.logger.Warn("admin user already exists", zap.String("username", user.Username))
			return false, nil
		}
		return false, err
	}
	s.logger.Info("admin user created", zap.String("username", user.Username))
	return true, nil
}

// Clone copies oldUsername's credentials, role and instances to newUsername
func (s *ServiceImpl) Clone(ctx context.Context, oldUsername, newUsername string) (*CloneResult, error) {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return nil, apperrors.NewValidationError("new_username", "required")
	}

	if _, err := s.repository.GetUserByUsername(ctx, newUsername); err == nil {
		return nil, apperrors.NewConflictError("user", newUsername)
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	source, err := s.repository.GetUserByUsername(ctx, oldUsername)
	if err != nil {
		return nil, err
	}

	role := source.Role
	if role == "" {
		role = models.RoleAnnotator
	}
	clone := &models.User{Username: newUsername, PasswordHash: source.PasswordHash, Role: role}

	copied, err := s.repository.CloneUser(ctx, source.Username, clone)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user cloned",
		zap.String("from", source.Username),
		zap.String("to", clone.Username),
		zap.Int("annotations", copied),
	)
	return &CloneResult{User: *clone, Annotations: copied}, nil
}
