package repository

import (
	"context"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Meals struct {
	db *gorm.DB
}

func (r *Meals) Create(ctx context.Context, meal *models.Meal) error {
	return r.db.WithContext(ctx).Create(meal).Error
}

func (r *Meals) FindByID(ctx context.Context, id uint) (*models.Meal, error) {
	var meal models.Meal
	if err := r.db.WithContext(ctx).Preload("Category").First(&meal, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrMealNotFound)
	}
	return &meal, nil
}

func (r *Meals) ListByRestaurant(ctx context.Context, restaurantID uint, categoryID *uint) ([]models.Meal, error) {
	var meals []models.Meal
	query := r.db.WithContext(ctx).Preload("Category").Where("restaurant_id = ?", restaurantID)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	err := query.Order("id asc").Find(&meals).Error
	return meals, err
}

func (r *Meals) Search(ctx context.Context, q string) ([]models.Meal, error) {
	var meals []models.Meal
	err := r.db.WithContext(ctx).
		Where("name"+likeClause+" OR description"+likeClause, like(q), like(q)).
		Order("id asc").
		Find(&meals).Error
	return meals, err
}

// MealUpdate holds the editable meal fields. Nil fields are left as they are.
type MealUpdate struct {
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	Image          *string
	CategoryID     *uint
	HasSpiceOption *bool
	HasAddons      *bool
	IsAvailable    *bool
}

func (u MealUpdate) fields() map[string]any {
	fields := map[string]any{}
	set(fields, "name", u.Name)
	set(fields, "description", u.Description)
	set(fields, "price", u.Price)
	set(fields, "image", u.Image)
	set(fields, "category_id", u.CategoryID)
	set(fields, "has_spice_option", u.HasSpiceOption)
	set(fields, "has_addons", u.HasAddons)
	set(fields, "is_available", u.IsAvailable)
	return fields
}

func (r *Meals) Update(ctx context.Context, meal *models.Meal, u MealUpdate) error {
	fields := u.fields()
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(meal).Updates(fields).Error
}

// Delete removes a meal no order refers to. Ordered meals stay so order
// history keeps its meal; mark them unavailable instead.
func (r *Meals) Delete(ctx context.Context, meal *models.Meal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders int64
		if err := tx.Model(&models.Order{}).Where("meal_id = ?", meal.ID).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return apperrors.ErrMealHasOrders
		}
		return tx.Delete(meal).Error
	})
}
