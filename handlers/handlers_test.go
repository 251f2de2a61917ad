package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"food-ordering-api/auth"
	"food-ordering-api/cache"
	"food-ordering-api/handlers"
	"food-ordering-api/models"
	"food-ordering-api/notify"
	"food-ordering-api/orders"
	"food-ordering-api/payment"
	"food-ordering-api/payment/mocks"
	"food-ordering-api/repository"
	"food-ordering-api/routes"
	"food-ordering-api/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

type env struct {
	t         *testing.T
	db        *gorm.DB
	fx        *testutil.Fixture
	store     *repository.Store
	auth      *auth.Service
	hub       *notify.Hub
	redis     *miniredis.Miniredis
	router    *gin.Engine
	card      *mocks.MockCardProcessor
	uploads   string
	mpesaHits atomic.Int32
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{t: t}
	e.db = testutil.NewDB(t)
	e.fx = testutil.Seed(t, e.db)
	e.store = repository.New(e.db)

	e.redis = miniredis.RunT(t)
	kv, closeCache, err := cache.New(context.Background(), e.redis.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeCache() })

	mpesaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mpesaHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(mpesaSrv.Close)

	e.hub = notify.NewHub()
	t.Cleanup(e.hub.Close)
	e.card = mocks.NewMockCardProcessor(gomock.NewController(t))

	tokens := auth.NewTokens("test-secret-0123456789", time.Hour)
	e.auth = auth.NewService(e.store.Accounts, e.store.Restaurants, e.store.DeliveryPersons, tokens)
	orderSvc := orders.NewService(e.store.Orders, e.store.Meals, e.store.Restaurants, notify.NewDispatcher(e.hub, nil), orders.FeeSchedule{
		Base:  decimal.NewFromInt(100),
		PerKm: decimal.NewFromInt(20),
	})
	uploads := t.TempDir()
	e.uploads = uploads
	h := handlers.New(handlers.Deps{
		Store:    e.store,
		Auth:     e.auth,
		Orders:   orderSvc,
		Hub:      e.hub,
		Cache:    kv,
		CacheTTL: time.Minute,
		Mpesa: payment.NewMpesa(payment.MpesaConfig{
			BaseURL: mpesaSrv.URL, ConsumerKey: "k", ConsumerSecret: "s", Shortcode: "174379", Passkey: "p",
		}),
		Card:      e.card,
		UploadDir: uploads,
	})
	e.router = routes.NewRouter(h, tokens, uploads, false)
	return e
}

func (e *env) login(user models.User) string {
	e.t.Helper()
	token, _, err := e.auth.SignIn(context.Background(), user.Email, testutil.Password)
	require.NoError(e.t, err)
	return token
}

func (e *env) addCustomer(username string) models.User {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testutil.Password), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := models.User{Name: username, Username: username, Email: username + "@x.com", PasswordHash: string(hash), Role: models.RoleCustomer}
	require.NoError(e.t, e.db.Create(&u).Error)
	return u
}

func (e *env) addOrder(id uint, status models.OrderStatus) models.Order {
	e.t.Helper()
	o := models.Order{
		ID:            id,
		OrderNumber:   fmt.Sprintf("ORD-000000-%04d", id),
		CustomerID:    e.fx.Customer.ID,
		MealID:        e.fx.Meal.ID,
		RestaurantID:  e.fx.Restaurant.ID,
		Quantity:      1,
		UnitPrice:     e.fx.Meal.Price,
		DeliveryFee:   decimal.NewFromInt(100),
		TotalPrice:    e.fx.Meal.Price.Add(decimal.NewFromInt(100)),
		PaymentMethod: models.PaymentCash,
		Status:        status,
	}
	require.NoError(e.t, e.db.Create(&o).Error)
	return o
}

func (e *env) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	e.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestSignUpStoresBcryptHash(t *testing.T) {
	e := newEnv(t)
	w, body := e.do(http.MethodPost, "/api/signup", "", gin.H{
		"name": "Jane", "username": "jane", "email": "jane@x.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, w.Body.String(), "hunter22")

	var user models.User
	require.NoError(t, e.db.Where("email = ?", "jane@x.com").First(&user).Error)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
	assert.Equal(t, models.RoleCustomer, user.Role)

	w, body = e.do(http.MethodPost, "/api/signup", "", gin.H{
		"name": "Jane", "username": "jane2", "email": "jane@x.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_TAKEN", body["code"])
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	w, body := e.do(http.MethodPost, "/api/login", "", gin.H{"email": "owner@x.com", "password": testutil.Password})
	require.Equal(t, http.StatusOK, w.Code)
	claims, err := e.auth.Tokens().Verify(body["token"].(string))
	require.NoError(t, err)
	assert.True(t, claims.HasRestaurant(e.fx.Restaurant.ID))

	w, body = e.do(http.MethodPost, "/api/login", "", gin.H{"email": "owner@x.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "BAD_CREDENTIALS", body["code"])

	w, body = e.do(http.MethodPost, "/api/login", "", gin.H{"email": "ghost@x.com", "password": "whatever"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", body["code"])
}

func TestDisabledAccountGetsNoToken(t *testing.T) {
	e := newEnv(t)
	admin := e.login(e.fx.Admin)

	w, _ := e.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/disable", e.fx.Customer.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := e.do(http.MethodPost, "/api/login", "", gin.H{"email": "cust@x.com", "password": testutil.Password})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_DISABLED", body["code"])
	assert.NotContains(t, body, "token")

	w, _ = e.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/enable", e.fx.Customer.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(http.MethodPost, "/api/login", "", gin.H{"email": "cust@x.com", "password": testutil.Password})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfile(t *testing.T) {
	e := newEnv(t)
	w, body := e.do(http.MethodGet, "/api/profile", e.login(e.fx.Courier), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, e.fx.DeliveryPerson.ID, body["delivery_person_id"])
	assert.EqualValues(t, e.fx.Restaurant.ID, body["restaurant_id"])
	assert.NotContains(t, w.Body.String(), "password")

	w, body = e.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
}

func TestAdminAddsRestaurant(t *testing.T) {
	e := newEnv(t)
	w, body := e.do(http.MethodPost, "/api/admin/addRestaurant", e.login(e.fx.Admin), gin.H{
		"name": "Pasta Place", "email": "p@x.com", "location": "CBD", "description": "d",
		"image": "u", "username": "pastaowner", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Restaurant added successfully", body["message"])

	w, body = e.do(http.MethodGet, "/api/restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	for _, r := range body["restaurants"].([]any) {
		names = append(names, r.(map[string]any)["name"].(string))
	}
	assert.Contains(t, names, "Pasta Place")

	var owner models.User
	require.NoError(t, e.db.Where("username = ?", "pastaowner").First(&owner).Error)
	assert.Equal(t, models.RoleRestaurantOwner, owner.Role)
}

func TestAddRestaurantRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	w, body := e.do(http.MethodPost, "/api/admin/addRestaurant", e.login(e.fx.Owner), gin.H{
		"name": "X", "email": "x@x.com", "username": "xowner", "password": "pw123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN_ROLE", body["code"])
}

func TestGetRestaurantIsStableAndCached(t *testing.T) {
	e := newEnv(t)
	path := fmt.Sprintf("/api/restaurants/%d", e.fx.Restaurant.ID)

	first, _ := e.do(http.MethodGet, path, "", nil)
	second, _ := e.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.True(t, e.redis.Exists(fmt.Sprintf("food:restaurant:%d", e.fx.Restaurant.ID)))

	w, _ := e.do(http.MethodPut, path, e.login(e.fx.Owner), gin.H{"description": "Best fish in town"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	third, body := e.do(http.MethodGet, path, "", nil)
	assert.NotEqual(t, first.Body.String(), third.Body.String())
	assert.Equal(t, "Best fish in town", body["restaurant"].(map[string]any)["description"])

	w, body = e.do(http.MethodGet, "/api/restaurants/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESTAURANT_NOT_FOUND", body["code"])
}

func TestOwnerCannotEditAnotherRestaurant(t *testing.T) {
	e := newEnv(t)
	other := models.Restaurant{OwnerID: e.fx.Admin.ID, Name: "Other"}
	require.NoError(t, e.db.Create(&other).Error)

	w, body := e.do(http.MethodPut, fmt.Sprintf("/api/restaurants/%d", other.ID), e.login(e.fx.Owner), gin.H{"name": "Mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_RESTAURANT_OWNER", body["code"])
}

func TestMealRoundTrip(t *testing.T) {
	e := newEnv(t)
	owner := e.login(e.fx.Owner)

	w, body := e.do(http.MethodPost, "/api/categories", owner, gin.H{"restaurant_id": e.fx.Restaurant.ID, "name": "Mains"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	categoryID := body["category"].(map[string]any)["id"]

	w, body = e.do(http.MethodPost, "/api/meals", owner, gin.H{
		"restaurant_id": e.fx.Restaurant.ID, "category_id": categoryID, "name": "Ugali Beef",
		"description": "Stewed beef", "price": "350.50", "image": "/uploads/beef.png",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["meal"].(map[string]any)["id"]

	w, body = e.do(http.MethodGet, fmt.Sprintf("/api/meals/%v", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	meal := body["meal"].(map[string]any)
	assert.Equal(t, "Ugali Beef", meal["name"])
	assert.Equal(t, "350.5", meal["price"])
	assert.Equal(t, "Stewed beef", meal["description"])
	assert.Equal(t, "/uploads/beef.png", meal["image"])
	assert.Equal(t, true, meal["is_available"])

	w, body = e.do(http.MethodPut, fmt.Sprintf("/api/updatemeals/%v", id), owner, gin.H{"price": 400, "is_available": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	meal = body["meal"].(map[string]any)
	assert.Equal(t, "400", meal["price"])
	assert.Equal(t, false, meal["is_available"])

	w, body = e.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d/meals?category_id=%v", e.fx.Restaurant.ID, categoryID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, _ = e.do(http.MethodDelete, fmt.Sprintf("/api/meals/%v", id), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(http.MethodGet, fmt.Sprintf("/api/meals/%v", id), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMealValidation(t *testing.T) {
	e := newEnv(t)
	owner := e.login(e.fx.Owner)

	w, body := e.do(http.MethodPost, fmt.Sprintf("/api/restaurants/%d/meals", e.fx.Restaurant.ID), owner, gin.H{"name": "Free lunch", "price": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PRICE", body["code"])

	w, body = e.do(http.MethodPost, "/api/meals", owner, gin.H{"price": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])

	w, body = e.do(http.MethodPost, "/api/categories", owner, gin.H{"restaurant_id": e.fx.Restaurant.ID, "name": "Mains"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, body = e.do(http.MethodPost, "/api/categories", owner, gin.H{"restaurant_id": e.fx.Restaurant.ID, "name": "Mains"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CATEGORY_EXISTS", body["code"])
}

func TestSearch(t *testing.T) {
	e := newEnv(t)

	w, body := e.do(http.MethodGet, "/api/search?query=fish", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["meals"], 1)
	assert.Len(t, body["restaurants"], 0)

	w, body = e.do(http.MethodGet, "/api/search?query=mama&filter=restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["restaurants"], 1)
	assert.Len(t, body["meals"], 0)

	w, body = e.do(http.MethodGet, "/api/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_QUERY", body["code"])
}

func TestDeliveryPersonLifecycle(t *testing.T) {
	e := newEnv(t)
	owner := e.login(e.fx.Owner)

	w, body := e.do(http.MethodPost, "/api/delivery-persons", owner, gin.H{
		"name": "Otieno", "username": "otieno", "email": "otieno@x.com", "password": "ride123", "vehicle": "bicycle",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dp := body["delivery_person"].(map[string]any)
	assert.EqualValues(t, e.fx.Restaurant.ID, dp["restaurant_id"])
	id := dp["id"]

	w, body = e.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d/delivery-persons", e.fx.Restaurant.ID), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])

	tokenResp, tb := e.do(http.MethodPost, "/api/login", "", gin.H{"email": "otieno@x.com", "password": "ride123"})
	require.Equal(t, http.StatusOK, tokenResp.Code)
	self := tb["token"].(string)

	w, body = e.do(http.MethodPut, fmt.Sprintf("/api/delivery-persons/%v", id), self, gin.H{"vehicle": "motorbike", "active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dp = body["delivery_person"].(map[string]any)
	assert.Equal(t, "motorbike", dp["vehicle"])
	assert.Equal(t, true, dp["active"])

	w, body = e.do(http.MethodPut, fmt.Sprintf("/api/delivery-persons/%v/password", id), self, gin.H{"current_password": "nope", "new_password": "ride456"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "BAD_CREDENTIALS", body["code"])

	w, _ = e.do(http.MethodPut, fmt.Sprintf("/api/delivery-persons/%v/password", id), self, gin.H{"current_password": "ride123", "new_password": "ride456"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(http.MethodPost, "/api/login", "", gin.H{"email": "otieno@x.com", "password": "ride456"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = e.do(http.MethodGet, fmt.Sprintf("/api/delivery-persons/%d", e.fx.DeliveryPerson.ID), self, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN_ROLE", body["code"])
}

func TestDeleteRestaurant(t *testing.T) {
	e := newEnv(t)
	admin := e.login(e.fx.Admin)
	e.addOrder(1, models.StatusPending)

	w, body := e.do(http.MethodDelete, fmt.Sprintf("/api/restaurants/%d", e.fx.Restaurant.ID), admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RESTAURANT_HAS_ORDERS", body["code"])

	empty := models.Restaurant{OwnerID: e.fx.Owner.ID, Name: "Empty"}
	require.NoError(t, e.db.Create(&empty).Error)
	w, _ = e.do(http.MethodDelete, fmt.Sprintf("/api/restaurants/%d", empty.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d", empty.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload(t *testing.T) {
	e := newEnv(t)
	token := e.login(e.fx.Owner)

	send := func(name string, content []byte) (*httptest.ResponseRecorder, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("image", name)
		require.NoError(t, err)
		_, _ = part.Write(content)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		var out map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		return w, out
	}

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	w, body := send("dish.PNG", img.Bytes())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	url := body["url"].(string)
	assert.Regexp(t, `^/uploads/[0-9a-f-]{36}\.png$`, url)

	get := httptest.NewRecorder()
	e.router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, img.Bytes(), get.Body.Bytes())

	w, body = send("run.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", body["code"])
}

func TestUploadRejectsRenamedNonImages(t *testing.T) {
	e := newEnv(t)
	token := e.login(e.fx.Owner)

	for name, content := range map[string]string{
		"page.png":   "<html><body><script>alert(1)</script></body></html>",
		"vector.png": `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`,
		"notes.jpg":  "just some text",
	} {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("image", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte(content))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.Contains(t, w.Body.String(), "UNSUPPORTED_FILE_TYPE", name)
	}

	entries, err := os.ReadDir(e.uploads)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestStateMachineAndHealth(t *testing.T) {
	e := newEnv(t)
	w, body := e.do(http.MethodGet, "/api/state-machine", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", body["initial_state"])
	assert.Len(t, body["transitions"], 4)

	w, body = e.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}
