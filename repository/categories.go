package repository

import (
	"context"
	"errors"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"gorm.io/gorm"
)

type Categories struct {
	db *gorm.DB
}

func (r *Categories) Create(ctx context.Context, category *models.Category) error {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("restaurant_id = ? AND name = ?", category.RestaurantID, category.Name).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.ErrCategoryExists
	}
	// The unique index still decides when two creates race past the count.
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrCategoryExists.Wrap(err)
		}
		return err
	}
	return nil
}

func (r *Categories) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrCategoryNotFound)
	}
	return &category, nil
}

func (r *Categories) ListByRestaurant(ctx context.Context, restaurantID uint) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("name asc").Find(&categories).Error
	return categories, err
}
