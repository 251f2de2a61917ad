package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: who the caller is and which profile they act for.
type Claims struct {
	UserID           uint            `json:"userId"`
	Email            string          `json:"email"`
	Role             models.UserRole `json:"role"`
	RestaurantID     *uint           `json:"restaurantId,omitempty"`
	DeliveryPersonID *uint           `json:"deliveryPersonId,omitempty"`
	jwt.RegisteredClaims
}

// HasRestaurant reports whether the claims are scoped to restaurant id.
func (c *Claims) HasRestaurant(id uint) bool {
	return c.RestaurantID != nil && *c.RestaurantID == id
}

// Tokens signs and verifies HS256 tokens with a single shared secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for the user, embedding the profile ids when present.
func (t *Tokens) Issue(user *models.User, restaurantID, deliveryPersonID *uint) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:           user.ID,
		Email:            user.Email,
		Role:             user.Role,
		RestaurantID:     restaurantID,
		DeliveryPersonID: deliveryPersonID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// VerifyHeader checks an Authorization header value of the form "Bearer <token>".
func (t *Tokens) VerifyHeader(header string) (*Claims, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, apperrors.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, apperrors.ErrMalformedToken
	}
	return t.Verify(strings.TrimSpace(token))
}

// Verify parses a raw token. Structural problems are MALFORMED_TOKEN, bad
// signatures and expiry are TOKEN_INVALID.
func (t *Tokens) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, apperrors.ErrMissingToken
	}
	if strings.Count(raw, ".") != 2 {
		return nil, apperrors.ErrMalformedToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	switch {
	case err == nil && token.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, apperrors.ErrMalformedToken.Wrap(err)
	default:
		return nil, apperrors.ErrTokenInvalid.Wrap(err)
	}
}
