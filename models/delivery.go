package models

import "time"

// DeliveryPerson is the dispatch profile attached one-to-one to an account.
type DeliveryPerson struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	UserID       uint        `json:"user_id" gorm:"uniqueIndex;not null"`
	User         *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	RestaurantID uint        `json:"restaurant_id" gorm:"not null;index"`
	Restaurant   *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Vehicle      string      `json:"vehicle"`
	Phone        string      `json:"phone"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
