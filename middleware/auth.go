package middleware

import (
	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// AuthRequired validates the bearer token and injects its claims into context.
func AuthRequired(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.VerifyHeader(c.GetHeader("Authorization"))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles.
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims != nil {
			for _, r := range roles {
				if claims.Role == r {
					c.Next()
					return
				}
			}
		}
		_ = c.Error(apperrors.ErrForbiddenRole.WithDetails(map[string]any{"required_roles": roles}))
		c.Abort()
	}
}

// Claims returns the verified caller, or nil on public routes.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// SetClaims is used by handlers that authenticate outside the header flow.
func SetClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
}
