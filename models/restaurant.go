package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerID     uint      `json:"owner_id" gorm:"not null;index"`
	Owner       *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name        string    `json:"name" gorm:"not null;index"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Meals       []Meal    `json:"meals,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_category_restaurant_name"`
	Name         string    `json:"name" gorm:"not null;uniqueIndex:idx_category_restaurant_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type Meal struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	RestaurantID   uint            `json:"restaurant_id" gorm:"not null;index"`
	CategoryID     *uint           `json:"category_id"`
	Category       *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Name           string          `json:"name" gorm:"not null;index"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Image          string          `json:"image"`
	HasSpiceOption bool            `json:"has_spice_option" gorm:"default:false"`
	HasAddons      bool            `json:"has_addons" gorm:"default:false"`
	IsAvailable    bool            `json:"is_available"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
