package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	Update(ctx context.Context, user *model.User) error
	FindAll(ctx context.Context) ([]*model.User, error)
	DeleteWithDetach(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Reports").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Reports").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}

	return &role, nil
}

// Update persists the mutated user only if nobody raced us: the row's
// version must still match the one we loaded, and it is bumped in the same
// statement.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	loaded := user.Version
	user.Version = loaded + 1

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND version = ?", user.ID, loaded).
		Select("email", "name", "password_hash", "role_id", "pic_url", "version").
		Updates(user)
	if result.Error != nil {
		user.Version = loaded
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: email already registered", apperror.ErrConflict)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		user.Version = loaded
		return fmt.Errorf("%w: user was modified concurrently", apperror.ErrConflict)
	}

	return nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Reports").
		Order("created_at desc").
		Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// DeleteWithDetach nulls the owner reference on every report the user owns
// and removes the user record, all in one transaction, so a partial
// failure never leaves a dangling owner reference.
func (r *userRepository) DeleteWithDetach(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Report{}).
			Where("user_id = ?", id).
			Update("user_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
