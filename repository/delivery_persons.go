package repository

import (
	"context"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"gorm.io/gorm"
)

type DeliveryPersons struct {
	db *gorm.DB
}

// CreateWithAccount inserts the delivery person's account and profile in one transaction.
func (r *DeliveryPersons) CreateWithAccount(ctx context.Context, user *models.User, dp *models.DeliveryPerson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, user.Email, user.Username); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		dp.UserID = user.ID
		return tx.Create(dp).Error
	})
}

func (r *DeliveryPersons) FindByID(ctx context.Context, id uint) (*models.DeliveryPerson, error) {
	var dp models.DeliveryPerson
	if err := r.db.WithContext(ctx).Preload("User").First(&dp, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrDeliveryPersonNotFound)
	}
	return &dp, nil
}

func (r *DeliveryPersons) FindByUserID(ctx context.Context, userID uint) (*models.DeliveryPerson, error) {
	var dp models.DeliveryPerson
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&dp).Error; err != nil {
		return nil, notFound(err, apperrors.ErrDeliveryPersonNotFound)
	}
	return &dp, nil
}

func (r *DeliveryPersons) ListByRestaurant(ctx context.Context, restaurantID uint) ([]models.DeliveryPerson, error) {
	var people []models.DeliveryPerson
	err := r.db.WithContext(ctx).Preload("User").Where("restaurant_id = ?", restaurantID).Order("id asc").Find(&people).Error
	return people, err
}

// DeliveryPersonUpdate holds the editable profile and account fields. Nil
// fields are left as they are; Phone is kept on both rows.
type DeliveryPersonUpdate struct {
	Name    *string
	Phone   *string
	Vehicle *string
	Active  *bool
}

// Update edits the profile and the contact fields of its account together.
func (r *DeliveryPersons) Update(ctx context.Context, dp *models.DeliveryPerson, u DeliveryPersonUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile := map[string]any{}
		set(profile, "vehicle", u.Vehicle)
		set(profile, "phone", u.Phone)
		set(profile, "active", u.Active)
		if len(profile) > 0 {
			if err := tx.Model(dp).Updates(profile).Error; err != nil {
				return err
			}
		}
		account := map[string]any{}
		set(account, "name", u.Name)
		set(account, "phone", u.Phone)
		if len(account) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", dp.UserID).Updates(account).Error
	})
}
