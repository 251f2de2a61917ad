package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure that knows how it should be reported to API clients.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithDetails returns a copy of e carrying extra response fields.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Is matches on Code so sentinel errors compare equal to wrapped copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(code, message string) *Error {
	return New(http.StatusUnauthorized, code, message)
}

func Forbidden(code, message string) *Error {
	return New(http.StatusForbidden, code, message)
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

func Unprocessable(code, message string) *Error {
	return New(http.StatusUnprocessableEntity, code, message)
}

func Internal(message string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: message, Err: cause}
}

// From extracts an *Error from err's chain, or reports false.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Auth
var (
	ErrMissingToken   = Unauthorized("MISSING_TOKEN", "Authorization header required (Bearer <token>)")
	ErrMalformedToken = Unauthorized("MALFORMED_TOKEN", "Authorization token is malformed")
	ErrTokenInvalid   = Forbidden("TOKEN_INVALID", "Invalid or expired token")
	ErrUserNotFound   = NotFound("USER_NOT_FOUND", "No account found for that email")
	ErrDisabled       = Forbidden("ACCOUNT_DISABLED", "This account has been disabled")
	ErrBadCredentials = Unauthorized("BAD_CREDENTIALS", "Invalid email or password")
	ErrEmailTaken     = Conflict("EMAIL_TAKEN", "Email already registered")
	ErrUsernameTaken  = Conflict("USERNAME_TAKEN", "Username already taken")
	ErrForbiddenRole  = Forbidden("FORBIDDEN_ROLE", "Your role is not allowed to perform this action")
)

// Resources
var (
	ErrRestaurantNotFound     = NotFound("RESTAURANT_NOT_FOUND", "Restaurant not found")
	ErrRestaurantHasOrders    = Conflict("RESTAURANT_HAS_ORDERS", "Restaurant has orders and cannot be deleted")
	ErrMealNotFound           = NotFound("MEAL_NOT_FOUND", "Meal not found")
	ErrCategoryNotFound       = NotFound("CATEGORY_NOT_FOUND", "Category not found")
	ErrMealHasOrders          = Conflict("MEAL_HAS_ORDERS", "Meal has orders and cannot be deleted; mark it unavailable instead")
	ErrCategoryExists         = Conflict("CATEGORY_EXISTS", "Category already exists for this restaurant")
	ErrDeliveryPersonNotFound = NotFound("DELIVERY_PERSON_NOT_FOUND", "Delivery person not found")
	ErrNotOwner               = Forbidden("NOT_RESTAURANT_OWNER", "You do not manage this restaurant")
	ErrInvalidID              = BadRequest("INVALID_ID", "Path id must be numeric")
	ErrValidation             = BadRequest("VALIDATION_FAILED", "Request validation failed")
	ErrDuplicate              = Conflict("CONFLICT", "A record with the same unique value already exists")
	ErrStillReferenced        = Conflict("STILL_REFERENCED", "Record is still referenced by other records")
	ErrInvalidPrice           = BadRequest("INVALID_PRICE", "price must be greater than zero")
	ErrMissingQuery           = BadRequest("MISSING_QUERY", "query is required")
	ErrMissingFile            = BadRequest("MISSING_FILE", "multipart field image is required")
	ErrUnsupportedFile        = BadRequest("UNSUPPORTED_FILE_TYPE", "Only jpg, png, webp and gif images are accepted")
	ErrFileTooLarge           = New(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Images must be 5 MiB or smaller")
)

// Orders
var (
	ErrMissingMealID          = BadRequest("MISSING_MEAL_ID", "meal_id is required")
	ErrInvalidMealID          = BadRequest("INVALID_MEAL_ID", "meal_id must be numeric")
	ErrMissingRestaurantID    = BadRequest("MISSING_RESTAURANT_ID", "restaurant_id is required")
	ErrInvalidRestaurantID    = BadRequest("INVALID_RESTAURANT_ID", "restaurant_id must be numeric")
	ErrMissingPaymentMethod   = BadRequest("MISSING_PAYMENT_METHOD", "payment_method is required")
	ErrInvalidPaymentMethod   = BadRequest("INVALID_PAYMENT_METHOD", "payment_method must be one of mpesa, card, cash")
	ErrMealRestaurantMismatch = BadRequest("MEAL_RESTAURANT_MISMATCH", "Meal does not belong to this restaurant")
	ErrInvalidQuantity        = BadRequest("INVALID_QUANTITY", "quantity must be at least 1")
	ErrOrderNotFound          = NotFound("ORDER_NOT_FOUND", "Order not found")
	ErrOrderForbidden         = Forbidden("ORDER_FORBIDDEN", "You are not allowed to access this order")
	ErrUnknownStatus          = BadRequest("UNKNOWN_STATUS", "Unknown order status")
	ErrInvalidTransition      = Unprocessable("INVALID_TRANSITION", "Invalid state transition")
)
