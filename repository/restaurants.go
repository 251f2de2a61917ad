package repository

import (
	"context"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"gorm.io/gorm"
)

type Restaurants struct {
	db *gorm.DB
}

// CreateWithOwner inserts the owner account and its restaurant in one transaction.
func (r *Restaurants) CreateWithOwner(ctx context.Context, owner *models.User, restaurant *models.Restaurant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, owner.Email, owner.Username); err != nil {
			return err
		}
		if err := tx.Create(owner).Error; err != nil {
			return err
		}
		restaurant.OwnerID = owner.ID
		return tx.Create(restaurant).Error
	})
}

func (r *Restaurants) List(ctx context.Context, search string) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	query := r.db.WithContext(ctx)
	if search != "" {
		query = query.Where("name"+likeClause+" OR location"+likeClause, like(search), like(search))
	}
	err := query.Order("id asc").Find(&restaurants).Error
	return restaurants, err
}

func (r *Restaurants) FindByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrRestaurantNotFound)
	}
	return &restaurant, nil
}

func (r *Restaurants) FindByOwner(ctx context.Context, ownerID uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		return nil, notFound(err, apperrors.ErrRestaurantNotFound)
	}
	return &restaurant, nil
}

// RestaurantUpdate holds the editable profile fields. Nil fields are left as they are.
type RestaurantUpdate struct {
	Name        *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	Description *string
	Image       *string
}

func (u RestaurantUpdate) fields() map[string]any {
	fields := map[string]any{}
	set(fields, "name", u.Name)
	set(fields, "location", u.Location)
	set(fields, "latitude", u.Latitude)
	set(fields, "longitude", u.Longitude)
	set(fields, "description", u.Description)
	set(fields, "image", u.Image)
	return fields
}

func (r *Restaurants) Update(ctx context.Context, restaurant *models.Restaurant, u RestaurantUpdate) error {
	fields := u.fields()
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(restaurant).Updates(fields).Error
}

// Delete removes the restaurant roster (profiles and their accounts), its
// categories and meals, then the restaurant row, in one transaction.
// Restaurants with orders are kept since orders are never deleted.
func (r *Restaurants) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, id).Error; err != nil {
			return notFound(err, apperrors.ErrRestaurantNotFound)
		}
		var orders int64
		if err := tx.Model(&models.Order{}).Where("restaurant_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return apperrors.ErrRestaurantHasOrders
		}
		var userIDs []uint
		if err := tx.Model(&models.DeliveryPerson{}).Where("restaurant_id = ?", id).Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.DeliveryPerson{}).Error; err != nil {
			return err
		}
		if len(userIDs) > 0 {
			if err := tx.Where("id IN ?", userIDs).Delete(&models.User{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Meal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		return tx.Delete(&restaurant).Error
	})
}
