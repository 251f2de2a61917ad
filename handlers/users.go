package handlers

import (
	"net/http"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func selfOrAdmin(claims *auth.Claims, userID uint) error {
	if claims.Role == models.RoleAdmin || claims.UserID == userID {
		return nil
	}
	return apperrors.ErrForbiddenRole
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := selfOrAdmin(h.claims(c), id); err != nil {
		fail(c, err)
		return
	}
	user, err := h.Store.Accounts.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UserOrders lists the orders a customer has placed
func (h *Handler) UserOrders(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := selfOrAdmin(h.claims(c), id); err != nil {
		fail(c, err)
		return
	}
	list, err := h.Orders.ListForCustomer(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respondOrders(c, list)
}

// AdminUsers lists every account, optionally filtered by ?role=
func (h *Handler) AdminUsers(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	if role != "" && !role.Valid() {
		fail(c, apperrors.ErrValidation.WithDetails(map[string]any{"role": "unknown role"}))
		return
	}
	users, err := h.Store.Accounts.List(c.Request.Context(), role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (h *Handler) DisableUser(c *gin.Context) { h.setDisabled(c, true) }

func (h *Handler) EnableUser(c *gin.Context) { h.setDisabled(c, false) }

func (h *Handler) setDisabled(c *gin.Context, disabled bool) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if disabled && id == h.claims(c).UserID {
		fail(c, apperrors.BadRequest("SELF_DISABLE", "Admins cannot disable their own account"))
		return
	}
	if err := h.Store.Accounts.SetDisabled(c.Request.Context(), id, disabled); err != nil {
		fail(c, err)
		return
	}
	log.WithFields(log.Fields{"user_id": id, "disabled": disabled}).Info("account status changed")
	c.JSON(http.StatusOK, gin.H{"user_id": id, "disabled": disabled})
}
