package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of a food order
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// PaymentMethod is how the customer intends to pay for an order
type PaymentMethod string

const (
	PaymentMpesa PaymentMethod = "mpesa"
	PaymentCard  PaymentMethod = "card"
	PaymentCash  PaymentMethod = "cash"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMpesa, PaymentCard, PaymentCash:
		return true
	}
	return false
}

type Order struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	OrderNumber      string               `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerID       uint                 `json:"customer_id" gorm:"not null;index"`
	Customer         *User                `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	MealID           uint                 `json:"meal_id" gorm:"not null"`
	Meal             *Meal                `json:"meal,omitempty" gorm:"foreignKey:MealID"`
	RestaurantID     uint                 `json:"restaurant_id" gorm:"not null;index"`
	Restaurant       *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	DeliveryPersonID *uint                `json:"delivery_person_id"`
	Quantity         int                  `json:"quantity" gorm:"not null;default:1"`
	Spicy            bool                 `json:"spicy"`
	AddOns           bool                 `json:"add_ons"`
	Drink            string               `json:"drink"`
	DeliveryAddress  string               `json:"delivery_address"`
	DeliveryLat      *float64             `json:"delivery_lat"`
	DeliveryLng      *float64             `json:"delivery_lng"`
	UnitPrice        decimal.Decimal      `json:"unit_price" gorm:"type:decimal(10,2)"`
	DeliveryFee      decimal.Decimal      `json:"delivery_fee" gorm:"type:decimal(10,2)"`
	TotalPrice       decimal.Decimal      `json:"total_price" gorm:"type:decimal(10,2)"`
	PaymentMethod    PaymentMethod        `json:"payment_method" gorm:"not null"`
	Instructions     string               `json:"instructions"`
	Status           OrderStatus          `json:"status" gorm:"not null;default:'pending';index"`
	StatusHistory    []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// OrderStatusHistory tracks every status change of an order
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// All lists every model that gorm migrates.
func All() []any {
	return []any{
		&User{},
		&Restaurant{},
		&Category{},
		&Meal{},
		&DeliveryPerson{},
		&Order{},
		&OrderStatusHistory{},
	}
}
