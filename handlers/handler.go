package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/cache"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/notify"
	"food-ordering-api/orders"
	"food-ordering-api/payment"
	"food-ordering-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// Deps are the collaborators every handler shares.
type Deps struct {
	Store     *repository.Store
	Auth      *auth.Service
	Orders    *orders.Service
	Hub       *notify.Hub
	Cache     cache.Cache
	CacheTTL  time.Duration
	Mpesa     *payment.Mpesa
	Card      payment.CardProcessor
	UploadDir string
}

type Handler struct {
	Deps
	upgrader websocket.Upgrader
}

func New(d Deps) *Handler {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	return &Handler{
		Deps: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// fail attaches err for middleware.ErrorHandler to render.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// bindJSON decodes and validates the body. Anything that is not a
// validator error, including field decoders such as decimal's, becomes
// VALIDATION_FAILED.
func bindJSON(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	var verrs validator.ValidationErrors
	if err == nil || errors.As(err, &verrs) {
		return err
	}
	e := apperrors.ErrValidation.Wrap(err)
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) && typ.Field != "" {
		e.Message = fmt.Sprintf("%s must be a %s", typ.Field, typ.Type)
	} else {
		e.Message = "Request body must be valid JSON"
	}
	return e
}

func paramID(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, apperrors.ErrInvalidID
	}
	return uint(n), nil
}

// manages reports whether the caller administers the restaurant.
func manages(claims *auth.Claims, restaurantID uint) error {
	switch {
	case claims.Role == models.RoleAdmin:
		return nil
	case claims.Role == models.RoleRestaurantOwner && claims.HasRestaurant(restaurantID):
		return nil
	}
	return apperrors.ErrNotOwner
}

func restaurantCacheKey(id uint) string {
	return "restaurant:" + strconv.FormatUint(uint64(id), 10)
}

func (h *Handler) claims(c *gin.Context) *auth.Claims {
	return middleware.Claims(c)
}
