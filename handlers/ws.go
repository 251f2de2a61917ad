package handlers

import (
	"context"
	"strings"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/notify"
	"food-ordering-api/orders"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Subscribe upgrades to a WebSocket that receives status events for the
// topics the client subscribes to. The token comes from ?token= or the
// Authorization header.
func (h *Handler) Subscribe(c *gin.Context) {
	var (
		claims *auth.Claims
		err    error
	)
	tokens := h.Auth.Tokens()
	if raw := strings.TrimSpace(c.Query("token")); raw != "" {
		claims, err = tokens.Verify(raw)
	} else {
		claims, err = tokens.VerifyHeader(c.GetHeader("Authorization"))
	}
	if err != nil {
		fail(c, err)
		return
	}
	middleware.SetClaims(c, claims)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade")
		return
	}
	h.Hub.Serve(conn, h.topicAuthorizer(c.Request.Context(), claims))
}

// topicAuthorizer applies the order read policy to order topics and the
// restaurant membership rule to restaurant topics.
func (h *Handler) topicAuthorizer(ctx context.Context, claims *auth.Claims) notify.Authorizer {
	return func(topic string) error {
		kind, id, err := notify.ParseTopic(topic)
		if err != nil {
			return err
		}
		if kind == "order" {
			order, err := h.Store.Orders.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if !orders.CanAccess(claims, order) {
				return apperrors.ErrOrderForbidden
			}
			return nil
		}
		if claims.Role == models.RoleAdmin || claims.HasRestaurant(id) {
			return nil
		}
		return apperrors.ErrNotOwner
	}
}
