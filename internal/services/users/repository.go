package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepositoryImpl implements the Repository interface
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func createUser(tx *gorm.DB, user *models.User) error {
	if err := tx.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflictError("user", user.Username)
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// CreateUser inserts a user; a taken username is a ConflictError
func (r *RepositoryImpl) CreateUser(ctx context.Context, user *models.User) error {
	return createUser(r.db.WithContext(ctx), user)
}

// CloneUser creates user and copies source's instances in one transaction
func (r *RepositoryImpl) CloneUser(ctx context.Context, source string, user *models.User) (int, error) {
	copied := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createUser(tx, user); err != nil {
			return err
		}

		var instances []models.AnnotationRecord
		if err := tx.Where("annotator = ? AND is_template = ?", source, false).
			Order("id ASC").
			Find(&instances).Error; err != nil {
			return fmt.Errorf("listing instances of %s: %w", source, err)
		}

		for _, inst := range instances {
			inst.ID = 0
			inst.Annotator = user.Username
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&inst)
			if result.Error != nil {
				return fmt.Errorf("copying instance of sample %s: %w", inst.SampleID, result.Error)
			}
			copied += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// GetUserByID retrieves a user by its ID
func (r *RepositoryImpl) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *RepositoryImpl) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", username)
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// ListUsers lists users by username
func (r *RepositoryImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// CountByRole counts users holding role
func (r *RepositoryImpl) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// UpdateRole sets the role of a user
func (r *RepositoryImpl) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("updating user role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user", id)
	}
	return nil
}

// DeleteUser deletes a user by its ID
func (r *RepositoryImpl) DeleteUser(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user", id)
	}
	return nil
}
