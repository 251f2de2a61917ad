// Package orders owns the order lifecycle: checkout, status changes and lookups.
package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/events"
	"food-ordering-api/models"
	"food-ordering-api/repository"
	"food-ordering-api/statemachine"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxNumberAttempts = 5

type OrderStore interface {
	Create(ctx context.Context, order *models.Order, note string) error
	NumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order, history *models.OrderStatusHistory, extra map[string]any) error
	List(ctx context.Context, f repository.OrderFilter) ([]models.Order, error)
	History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error)
}

type MealFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Meal, error)
}

type RestaurantFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Restaurant, error)
}

// Notifier receives every persisted status change.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, evt events.OrderStatusChanged)
}

type Service struct {
	orders      OrderStore
	meals       MealFinder
	restaurants RestaurantFinder
	notifier    Notifier
	fees        FeeSchedule
	now         func() time.Time
	numbers     func(time.Time) string
}

func NewService(orders OrderStore, meals MealFinder, restaurants RestaurantFinder, notifier Notifier, fees FeeSchedule) *Service {
	return &Service{
		orders:      orders,
		meals:       meals,
		restaurants: restaurants,
		notifier:    notifier,
		fees:        fees,
		now:         time.Now,
		numbers:     NewOrderNumber,
	}
}

// NewOrderNumber builds "ORD-<last 6 digits of unix millis>-<4 random digits>".
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%06d-%04d", t.UnixMilli()%1_000_000, rand.IntN(10_000))
}

// Create validates the checkout payload and persists a pending order.
// Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, customerID uint, in CreateInput) (*models.Order, error) {
	if in.MealID.Empty() {
		return nil, apperrors.ErrMissingMealID
	}
	if in.RestaurantID.Empty() {
		return nil, apperrors.ErrMissingRestaurantID
	}
	if in.PaymentMethod == "" {
		return nil, apperrors.ErrMissingPaymentMethod
	}
	mealID, ok := in.MealID.Uint()
	if !ok {
		return nil, apperrors.ErrInvalidMealID
	}
	restaurantID, ok := in.RestaurantID.Uint()
	if !ok {
		return nil, apperrors.ErrInvalidRestaurantID
	}
	method := models.PaymentMethod(in.PaymentMethod)
	if !method.Valid() {
		return nil, apperrors.ErrInvalidPaymentMethod
	}
	if in.Quantity < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	meal, err := s.meals.FindByID(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.RestaurantID != restaurant.ID {
		return nil, apperrors.ErrMealRestaurantMismatch
	}

	fee := s.fees.Fee(restaurant.Latitude, restaurant.Longitude, in.DeliveryLat, in.DeliveryLng)
	order := &models.Order{
		CustomerID:      customerID,
		MealID:          meal.ID,
		RestaurantID:    restaurant.ID,
		Quantity:        in.Quantity,
		Spicy:           in.Spicy && meal.HasSpiceOption,
		AddOns:          in.AddOns && meal.HasAddons,
		Drink:           in.Drink,
		DeliveryAddress: in.DeliveryAddress,
		DeliveryLat:     in.DeliveryLat,
		DeliveryLng:     in.DeliveryLng,
		UnitPrice:       meal.Price,
		DeliveryFee:     fee,
		TotalPrice:      meal.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Add(fee),
		PaymentMethod:   method,
		Instructions:    in.Instructions,
		Status:          models.StatusPending,
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.numbers(s.now())
		taken, err := s.orders.NumberExists(ctx, order.OrderNumber)
		if err != nil {
			return nil, err
		}
		if !taken {
			err = s.orders.Create(ctx, order, "Order placed by customer")
			if err == nil {
				break
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, err
			}
		}
		if attempt == maxNumberAttempts {
			return nil, apperrors.Internal("Could not allocate an order number", nil)
		}
		order.ID = 0
	}

	order.Meal = meal
	order.Restaurant = restaurant
	log.WithFields(log.Fields{"order_id": order.ID, "order_number": order.OrderNumber, "restaurant_id": restaurant.ID}).Info("order placed")
	return order, nil
}

// CanAccess is the single authorisation rule for reading or acting on an order.
func CanAccess(actor *auth.Claims, order *models.Order) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return order.CustomerID == actor.UserID
	case models.RoleRestaurantOwner, models.RoleDeliveryPerson:
		return actor.HasRestaurant(order.RestaurantID)
	}
	return false
}

// Get looks an order up by numeric id or by order number.
func (s *Service) Get(ctx context.Context, actor *auth.Claims, ref string) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil {
		order, err = s.orders.FindByID(ctx, uint(id))
	} else {
		order, err = s.orders.FindByNumber(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if !CanAccess(actor, order) {
		return nil, apperrors.ErrOrderForbidden
	}
	return order, nil
}

func (s *Service) History(ctx context.Context, actor *auth.Claims, orderID uint) ([]models.OrderStatusHistory, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanAccess(actor, order) {
		return nil, apperrors.ErrOrderForbidden
	}
	return s.orders.History(ctx, orderID)
}

// SetStatus moves an order along the state machine on behalf of actor and
// fans the change out.
func (s *Service) SetStatus(ctx context.Context, actor *auth.Claims, orderID uint, requested, note string) (*models.Order, models.OrderStatus, error) {
	to, ok := statemachine.Normalize(requested)
	if !ok {
		return nil, "", apperrors.ErrUnknownStatus
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if !CanAccess(actor, order) {
		return nil, "", apperrors.ErrOrderForbidden
	}
	if err := statemachine.CanTransition(order.Status, to, actor.Role); err != nil {
		return nil, "", apperrors.ErrInvalidTransition.Wrap(err).WithDetails(map[string]any{
			"current_status":    order.Status,
			"requested":         to,
			"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
			"reason":            err.Error(),
		})
	}

	extra := map[string]any{}
	if to == models.StatusOutForDelivery && actor.DeliveryPersonID != nil {
		extra["delivery_person_id"] = *actor.DeliveryPersonID
	}
	return s.apply(ctx, actor, order, to, note, extra)
}

// ForceStatus lets an admin put an order in any known state.
func (s *Service) ForceStatus(ctx context.Context, actor *auth.Claims, orderID uint, requested, reason string) (*models.Order, models.OrderStatus, error) {
	if actor.Role != models.RoleAdmin {
		return nil, "", apperrors.ErrForbiddenRole
	}
	to, ok := statemachine.Normalize(requested)
	if !ok {
		return nil, "", apperrors.ErrUnknownStatus
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	return s.apply(ctx, actor, order, to, "[ADMIN OVERRIDE] "+reason, nil)
}

func (s *Service) apply(ctx context.Context, actor *auth.Claims, order *models.Order, to models.OrderStatus, note string, extra map[string]any) (*models.Order, models.OrderStatus, error) {
	prev := order.Status
	history := &models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: prev,
		ToStatus:   to,
		ChangedBy:  actor.UserID,
		Note:       note,
	}
	if err := s.orders.UpdateStatus(ctx, order, history, extra); err != nil {
		return nil, "", err
	}

	log.WithFields(log.Fields{"order_id": order.ID, "from": prev, "to": to, "by": actor.UserID}).Info("order status changed")
	s.notifier.OrderStatusChanged(ctx, events.OrderStatusChanged{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		RestaurantID: order.RestaurantID,
		CustomerID:   order.CustomerID,
		Status:       to,
		Label:        statemachine.Label(to),
		At:           s.now().UTC(),
	})
	return order, prev, nil
}

// ListForRestaurant returns a restaurant's orders, optionally in one status.
func (s *Service) ListForRestaurant(ctx context.Context, restaurantID uint, status string) ([]models.Order, error) {
	f := repository.OrderFilter{RestaurantID: restaurantID}
	if status != "" {
		st, ok := statemachine.Normalize(status)
		if !ok {
			return nil, apperrors.ErrUnknownStatus
		}
		f.Statuses = []models.OrderStatus{st}
	}
	return s.orders.List(ctx, f)
}

// ListProcessed returns every order of the restaurant that has left pending.
func (s *Service) ListProcessed(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{RestaurantID: restaurantID, ExcludeStatus: models.StatusPending})
}

func (s *Service) ListForCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{CustomerID: customerID})
}

// DispatchQueue is what a delivery person works from: their restaurant's
// orders in the kitchen or on the road.
func (s *Service) DispatchQueue(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{
		RestaurantID: restaurantID,
		Statuses:     []models.OrderStatus{models.StatusPreparing, models.StatusOutForDelivery},
	})
}

// ListAll is the admin view, with an optional status filter.
func (s *Service) ListAll(ctx context.Context, status string) ([]models.Order, error) {
	var f repository.OrderFilter
	if status != "" {
		st, ok := statemachine.Normalize(status)
		if !ok {
			return nil, apperrors.ErrUnknownStatus
		}
		f.Statuses = []models.OrderStatus{st}
	}
	return s.orders.List(ctx, f)
}

// Summarize counts orders per status and sums delivered revenue.
func Summarize(orders []models.Order) (map[string]int, decimal.Decimal) {
	summary := map[string]int{}
	revenue := decimal.Zero
	for _, o := range orders {
		summary[string(o.Status)]++
		if o.Status == models.StatusDelivered {
			revenue = revenue.Add(o.TotalPrice)
		}
	}
	return summary, revenue
}
