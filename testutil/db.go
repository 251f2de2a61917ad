// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"food-ordering-api/config"
	"food-ordering-api/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a per-test temp directory.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Fixture is a small seeded world: one restaurant with an owner, a meal,
// a delivery person, a customer and an admin. Every password is "secret123".
type Fixture struct {
	Admin          models.User
	Owner          models.User
	Customer       models.User
	Courier        models.User
	Restaurant     models.Restaurant
	Meal           models.Meal
	DeliveryPerson models.DeliveryPerson
}

const Password = "secret123"

func Seed(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	f := &Fixture{
		Admin:    models.User{Name: "Admin", Username: "admin", Email: "admin@x.com", PasswordHash: string(hash), Role: models.RoleAdmin},
		Owner:    models.User{Name: "Owner", Username: "owner", Email: "owner@x.com", PasswordHash: string(hash), Role: models.RoleRestaurantOwner},
		Customer: models.User{Name: "Cust", Username: "cust", Email: "cust@x.com", PasswordHash: string(hash), Role: models.RoleCustomer},
		Courier:  models.User{Name: "Rider", Username: "rider", Email: "rider@x.com", PasswordHash: string(hash), Role: models.RoleDeliveryPerson},
	}
	for _, u := range []*models.User{&f.Admin, &f.Owner, &f.Customer, &f.Courier} {
		require.NoError(t, db.Create(u).Error)
	}

	f.Restaurant = models.Restaurant{OwnerID: f.Owner.ID, Name: "Mama Oliech", Location: "Kilimani", Latitude: -1.2921, Longitude: 36.8219}
	require.NoError(t, db.Create(&f.Restaurant).Error)

	f.Meal = models.Meal{RestaurantID: f.Restaurant.ID, Name: "Fish Fry", Description: "Tilapia", Price: decimal.RequireFromString("450"), HasSpiceOption: true, IsAvailable: true}
	require.NoError(t, db.Create(&f.Meal).Error)

	f.DeliveryPerson = models.DeliveryPerson{UserID: f.Courier.ID, RestaurantID: f.Restaurant.ID, Vehicle: "motorbike", Active: true}
	require.NoError(t, db.Create(&f.DeliveryPerson).Error)
	return f
}
