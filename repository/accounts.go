package repository

import (
	"context"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"gorm.io/gorm"
)

type Accounts struct {
	db *gorm.DB
}

func (r *Accounts) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// EnsureUnique fails when the email or username is already registered.
func (r *Accounts) EnsureUnique(ctx context.Context, email, username string) error {
	return ensureUnique(r.db.WithContext(ctx), email, username)
}

func ensureUnique(tx *gorm.DB, email, username string) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperrors.ErrEmailTaken
	}
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperrors.ErrUsernameTaken
	}
	return nil
}

func (r *Accounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *Accounts) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *Accounts) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	query := r.db.WithContext(ctx)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Order("id asc").Find(&users).Error
	return users, err
}

func (r *Accounts) SetDisabled(ctx context.Context, id uint, disabled bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("disabled", disabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *Accounts) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash).Error
}
