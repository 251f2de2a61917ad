package orders

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/events"
	"food-ordering-api/models"
	"food-ordering-api/repository"
	"food-ordering-api/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	events []events.OrderStatusChanged
}

func (r *recordingNotifier) OrderStatusChanged(_ context.Context, evt events.OrderStatusChanged) {
	r.events = append(r.events, evt)
}

type OrderServiceSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	store    *repository.Store
	fx       *testutil.Fixture
	notifier *recordingNotifier
	svc      *Service
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.store = repository.New(s.db)
	s.fx = testutil.Seed(s.T(), s.db)
	s.notifier = &recordingNotifier{}
	s.svc = NewService(s.store.Orders, s.store.Meals, s.store.Restaurants, s.notifier, FeeSchedule{
		Base:  decimal.NewFromInt(100),
		PerKm: decimal.NewFromInt(20),
	})
}

func (s *OrderServiceSuite) customer() *auth.Claims {
	return &auth.Claims{UserID: s.fx.Customer.ID, Role: models.RoleCustomer}
}

func (s *OrderServiceSuite) owner() *auth.Claims {
	rid := s.fx.Restaurant.ID
	return &auth.Claims{UserID: s.fx.Owner.ID, Role: models.RoleRestaurantOwner, RestaurantID: &rid}
}

func (s *OrderServiceSuite) courier() *auth.Claims {
	rid, dpid := s.fx.Restaurant.ID, s.fx.DeliveryPerson.ID
	return &auth.Claims{UserID: s.fx.Courier.ID, Role: models.RoleDeliveryPerson, RestaurantID: &rid, DeliveryPersonID: &dpid}
}

func (s *OrderServiceSuite) admin() *auth.Claims {
	return &auth.Claims{UserID: s.fx.Admin.ID, Role: models.RoleAdmin}
}

func (s *OrderServiceSuite) input() CreateInput {
	return CreateInput{
		MealID:        RawID(strconv.FormatUint(uint64(s.fx.Meal.ID), 10)),
		RestaurantID:  RawID(strconv.FormatUint(uint64(s.fx.Restaurant.ID), 10)),
		PaymentMethod: "mpesa",
		Quantity:      2,
		Spicy:         true,
		AddOns:        true,
	}
}

func (s *OrderServiceSuite) place() *models.Order {
	order, err := s.svc.Create(s.ctx, s.fx.Customer.ID, s.input())
	s.Require().NoError(err)
	return order
}

func (s *OrderServiceSuite) countOrders() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func (s *OrderServiceSuite) TestCreate() {
	order := s.place()

	s.Equal(models.StatusPending, order.Status)
	s.Regexp(`^ORD-\d{6}-\d{4}$`, order.OrderNumber)
	s.True(order.Spicy)
	s.False(order.AddOns, "meal offers no add-ons")
	s.True(decimal.NewFromInt(100).Equal(order.DeliveryFee))
	s.True(decimal.NewFromInt(1000).Equal(order.TotalPrice))

	history, err := s.store.Orders.History(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *OrderServiceSuite) TestCreateValidationPersistsNothing() {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		want   *apperrors.Error
	}{
		{"missing meal", func(in *CreateInput) { in.MealID = "" }, apperrors.ErrMissingMealID},
		{"missing restaurant", func(in *CreateInput) { in.RestaurantID = "" }, apperrors.ErrMissingRestaurantID},
		{"missing payment", func(in *CreateInput) { in.PaymentMethod = "" }, apperrors.ErrMissingPaymentMethod},
		{"meal not numeric", func(in *CreateInput) { in.MealID = "abc" }, apperrors.ErrInvalidMealID},
		{"restaurant not numeric", func(in *CreateInput) { in.RestaurantID = "1x" }, apperrors.ErrInvalidRestaurantID},
		{"bad payment", func(in *CreateInput) { in.PaymentMethod = "barter" }, apperrors.ErrInvalidPaymentMethod},
		{"negative quantity", func(in *CreateInput) { in.Quantity = -1 }, apperrors.ErrInvalidQuantity},
		{"unknown meal", func(in *CreateInput) { in.MealID = "999" }, apperrors.ErrMealNotFound},
	}
	for _, tc := range cases {
		in := s.input()
		tc.mutate(&in)
		_, err := s.svc.Create(s.ctx, s.fx.Customer.ID, in)
		s.ErrorIs(err, tc.want, tc.name)
	}
	s.Zero(s.countOrders())
}

func (s *OrderServiceSuite) TestCreateRejectsMealFromOtherRestaurant() {
	other := models.Restaurant{OwnerID: s.fx.Admin.ID, Name: "Elsewhere"}
	s.Require().NoError(s.db.Create(&other).Error)

	in := s.input()
	in.RestaurantID = RawID(strconv.FormatUint(uint64(other.ID), 10))
	_, err := s.svc.Create(s.ctx, s.fx.Customer.ID, in)
	s.ErrorIs(err, apperrors.ErrMealRestaurantMismatch)
	s.Zero(s.countOrders())
}

func (s *OrderServiceSuite) TestCreateRetriesOnNumberCollision() {
	first := s.place()
	calls := 0
	s.svc.numbers = func(time.Time) string {
		calls++
		if calls == 1 {
			return first.OrderNumber
		}
		return "ORD-123456-0001"
	}
	second := s.place()
	s.Equal("ORD-123456-0001", second.OrderNumber)
	s.Equal(2, calls)
}

func (s *OrderServiceSuite) TestLifecycle() {
	order := s.place()

	_, _, err := s.svc.SetStatus(s.ctx, s.customer(), order.ID, "In the Kitchen", "")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, prev, err := s.svc.SetStatus(s.ctx, s.owner(), order.ID, "In the Kitchen", "on it")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, prev)

	updated, _, err := s.svc.SetStatus(s.ctx, s.courier(), order.ID, "Out for Delivery", "")
	s.Require().NoError(err)
	s.Require().NotNil(updated.DeliveryPersonID)
	s.Equal(s.fx.DeliveryPerson.ID, *updated.DeliveryPersonID)

	updated, _, err = s.svc.SetStatus(s.ctx, s.courier(), order.ID, "Delivered", "")
	s.Require().NoError(err)
	s.Equal(models.StatusDelivered, updated.Status)

	_, _, err = s.svc.SetStatus(s.ctx, s.owner(), order.ID, "pending", "")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	s.Require().Len(s.notifier.events, 3)
	last := s.notifier.events[2]
	s.Equal(order.ID, last.OrderID)
	s.Equal(models.StatusDelivered, last.Status)
	s.Equal("Delivered", last.Label)
}

func (s *OrderServiceSuite) TestCancelOnlyFromPending() {
	order := s.place()
	_, _, err := s.svc.SetStatus(s.ctx, s.owner(), order.ID, "preparing", "")
	s.Require().NoError(err)

	_, _, err = s.svc.SetStatus(s.ctx, s.customer(), order.ID, "cancelled", "")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	appErr, ok := apperrors.From(err)
	s.Require().True(ok)
	s.Equal(models.StatusPreparing, appErr.Details["current_status"])
}

func (s *OrderServiceSuite) TestStatusRequiresAccess() {
	order := s.place()
	stranger := &auth.Claims{UserID: 4242, Role: models.RoleCustomer}
	_, _, err := s.svc.SetStatus(s.ctx, stranger, order.ID, "cancelled", "")
	s.ErrorIs(err, apperrors.ErrOrderForbidden)

	otherRid := uint(777)
	otherOwner := &auth.Claims{UserID: 5, Role: models.RoleRestaurantOwner, RestaurantID: &otherRid}
	_, _, err = s.svc.SetStatus(s.ctx, otherOwner, order.ID, "preparing", "")
	s.ErrorIs(err, apperrors.ErrOrderForbidden)

	_, _, err = s.svc.SetStatus(s.ctx, s.owner(), order.ID, "teleported", "")
	s.ErrorIs(err, apperrors.ErrUnknownStatus)
	s.Empty(s.notifier.events)
}

func (s *OrderServiceSuite) TestGetAppliesOnePolicyToBothLookups() {
	order := s.place()
	stranger := &auth.Claims{UserID: 4242, Role: models.RoleCustomer}

	for _, ref := range []string{strconv.FormatUint(uint64(order.ID), 10), order.OrderNumber} {
		got, err := s.svc.Get(s.ctx, s.customer(), ref)
		s.Require().NoError(err)
		s.Equal(order.ID, got.ID)

		_, err = s.svc.Get(s.ctx, stranger, ref)
		s.ErrorIs(err, apperrors.ErrOrderForbidden, ref)

		_, err = s.svc.Get(s.ctx, s.courier(), ref)
		s.NoError(err)
	}

	_, err := s.svc.Get(s.ctx, s.admin(), "ORD-000000-0000")
	s.ErrorIs(err, apperrors.ErrOrderNotFound)
}

func (s *OrderServiceSuite) TestForceStatus() {
	order := s.place()
	_, _, err := s.svc.ForceStatus(s.ctx, s.owner(), order.ID, "delivered", "")
	s.ErrorIs(err, apperrors.ErrForbiddenRole)

	updated, prev, err := s.svc.ForceStatus(s.ctx, s.admin(), order.ID, "delivered", "courier app down")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, prev)
	s.Equal(models.StatusDelivered, updated.Status)

	history, err := s.svc.History(s.ctx, s.admin(), order.ID)
	s.Require().NoError(err)
	s.Contains(history[len(history)-1].Note, "[ADMIN OVERRIDE]")
}

func (s *OrderServiceSuite) TestListings() {
	a := s.place()
	s.place()
	_, _, err := s.svc.SetStatus(s.ctx, s.owner(), a.ID, "preparing", "")
	s.Require().NoError(err)

	processed, err := s.svc.ListProcessed(s.ctx, s.fx.Restaurant.ID)
	s.Require().NoError(err)
	s.Len(processed, 1)

	queue, err := s.svc.DispatchQueue(s.ctx, s.fx.Restaurant.ID)
	s.Require().NoError(err)
	s.Len(queue, 1)

	pending, err := s.svc.ListForRestaurant(s.ctx, s.fx.Restaurant.ID, "Pending")
	s.Require().NoError(err)
	s.Len(pending, 1)

	mine, err := s.svc.ListForCustomer(s.ctx, s.fx.Customer.ID)
	s.Require().NoError(err)
	s.Len(mine, 2)

	all, err := s.svc.ListAll(s.ctx, "")
	s.Require().NoError(err)
	summary, revenue := Summarize(all)
	s.Equal(1, summary["pending"])
	s.Equal(1, summary["preparing"])
	s.True(revenue.IsZero())
}

func TestRawID(t *testing.T) {
	var in CreateInput
	require.NoError(t, json.Unmarshal([]byte(`{"meal_id": 12, "restaurant_id": "3"}`), &in))
	id, ok := in.MealID.Uint()
	require.True(t, ok)
	require.Equal(t, uint(12), id)
	id, ok = in.RestaurantID.Uint()
	require.True(t, ok)
	require.Equal(t, uint(3), id)

	require.NoError(t, json.Unmarshal([]byte(`{"meal_id": null, "restaurant_id": "abc"}`), &in))
	require.True(t, in.MealID.Empty())
	_, ok = in.RestaurantID.Uint()
	require.False(t, ok)
}

func TestFeeSchedule(t *testing.T) {
	fees := FeeSchedule{Base: decimal.NewFromInt(100), PerKm: decimal.NewFromInt(20)}
	require.True(t, decimal.NewFromInt(100).Equal(fees.Fee(-1.29, 36.82, nil, nil)))

	lat, lng := -1.29, 36.92 // ~11 km east
	fee := fees.Fee(-1.29, 36.82, &lat, &lng)
	require.True(t, fee.GreaterThan(decimal.NewFromInt(300)), fee.String())
	require.True(t, fee.LessThan(decimal.NewFromInt(340)), fee.String())
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber(time.UnixMilli(1_700_000_123_456))
	require.Regexp(t, `^ORD-123456-\d{4}$`, n)
}
