package repository

import (
	"context"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"gorm.io/gorm"
)

type Orders struct {
	db *gorm.DB
}

// OrderFilter narrows order listings; zero values mean "any".
type OrderFilter struct {
	RestaurantID     uint
	CustomerID       uint
	DeliveryPersonID uint
	Statuses         []models.OrderStatus
	ExcludeStatus    models.OrderStatus
}

// Create inserts the order and its first history row in one transaction.
func (r *Orders) Create(ctx context.Context, order *models.Order, note string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: order.CustomerID,
			Note:      note,
		}).Error
	})
}

func (r *Orders) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("order_number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *Orders) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Meal").Preload("Restaurant").First(&order, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrOrderNotFound)
	}
	return &order, nil
}

func (r *Orders) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Meal").Preload("Restaurant").
		Where("order_number = ?", number).First(&order).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrOrderNotFound)
	}
	return &order, nil
}

// UpdateStatus moves the order to history.ToStatus, applying extra column
// updates and appending history in one transaction.
func (r *Orders) UpdateStatus(ctx context.Context, order *models.Order, history *models.OrderStatusHistory, extra map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := map[string]any{"status": history.ToStatus}
		for k, v := range extra {
			update[k] = v
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, history.FromStatus).
			Updates(update)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrInvalidTransition.Wrap(errStaleStatus)
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		return tx.First(order, order.ID).Error
	})
}

func (r *Orders) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).Preload("Meal").Preload("Restaurant")
	if f.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.CustomerID != 0 {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	if f.DeliveryPersonID != 0 {
		query = query.Where("delivery_person_id = ?", f.DeliveryPersonID)
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.ExcludeStatus != "" {
		query = query.Where("status <> ?", f.ExcludeStatus)
	}
	err := query.Order("created_at desc").Order("id desc").Find(&orders).Error
	return orders, err
}

func (r *Orders) History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&history).Error
	return history, err
}
