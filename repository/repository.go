// Package repository hides the SQL behind one typed store per entity.
package repository

import (
	"errors"
	"strings"

	"food-ordering-api/apperrors"

	"gorm.io/gorm"
)

// Store groups the entity repositories that share one database handle.
type Store struct {
	db *gorm.DB

	Accounts        *Accounts
	Restaurants     *Restaurants
	Meals           *Meals
	Categories      *Categories
	DeliveryPersons *DeliveryPersons
	Orders          *Orders
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:              db,
		Accounts:        &Accounts{db: db},
		Restaurants:     &Restaurants{db: db},
		Meals:           &Meals{db: db},
		Categories:      &Categories{db: db},
		DeliveryPersons: &DeliveryPersons{db: db},
		Orders:          &Orders{db: db},
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// notFound maps gorm's missing-row error onto the entity-specific one.
func notFound(err error, e *apperrors.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e
	}
	return err
}

// set records column in fields when the partial update carries v.
func set[T any](fields map[string]any, column string, v *T) {
	if v != nil {
		fields[column] = *v
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like matches q literally anywhere in a column compared with likeClause.
func like(q string) string { return "%" + likeEscaper.Replace(q) + "%" }

const likeClause = " LIKE ? ESCAPE '\\'"

var errStaleStatus = errors.New("order status changed concurrently")
