package handlers

import (
	"context"
	"net/http"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/models"
	"food-ordering-api/repository"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type DeliveryPersonRequest struct {
	RestaurantID uint   `json:"restaurant_id"`
	Name         string `json:"name" binding:"required"`
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6,max=72"`
	Phone        string `json:"phone"`
	Vehicle      string `json:"vehicle"`
}

type PasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

// UpdateDeliveryPersonRequest is a partial update: absent fields keep their value.
type UpdateDeliveryPersonRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1"`
	Phone   *string `json:"phone"`
	Vehicle *string `json:"vehicle"`
	Active  *bool   `json:"active"`
}

// CreateDeliveryPerson registers a delivery account for a restaurant.
// Owners always create for their own restaurant.
func (h *Handler) CreateDeliveryPerson(c *gin.Context) {
	var req DeliveryPersonRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	claims := h.claims(c)
	if claims.Role == models.RoleRestaurantOwner && req.RestaurantID == 0 && claims.RestaurantID != nil {
		req.RestaurantID = *claims.RestaurantID
	}
	if req.RestaurantID == 0 {
		fail(c, apperrors.ErrMissingRestaurantID)
		return
	}
	if err := manages(claims, req.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.Restaurants.FindByID(ctx, req.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	user := &models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         models.RoleDeliveryPerson,
	}
	dp := &models.DeliveryPerson{
		RestaurantID: req.RestaurantID,
		Vehicle:      req.Vehicle,
		Phone:        req.Phone,
		Active:       true,
	}
	if err := h.Store.DeliveryPersons.CreateWithAccount(ctx, user, dp); err != nil {
		fail(c, err)
		return
	}
	dp.User = user
	log.WithFields(log.Fields{"delivery_person_id": dp.ID, "restaurant_id": dp.RestaurantID}).Info("delivery person created")
	c.JSON(http.StatusCreated, gin.H{"message": "Delivery person created", "delivery_person": dp})
}

// deliveryPerson loads the profile if the caller is that person, manages
// their restaurant, or is an admin.
func (h *Handler) deliveryPerson(ctx context.Context, claims *auth.Claims, id uint) (*models.DeliveryPerson, error) {
	dp, err := h.Store.DeliveryPersons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims.DeliveryPersonID != nil && *claims.DeliveryPersonID == id {
		return dp, nil
	}
	if err := manages(claims, dp.RestaurantID); err != nil {
		return nil, apperrors.ErrForbiddenRole
	}
	return dp, nil
}

func (h *Handler) GetDeliveryPerson(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	dp, err := h.deliveryPerson(c.Request.Context(), h.claims(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_person": dp})
}

// UpdateDeliveryPerson edits vehicle, phone, active and the account name
func (h *Handler) UpdateDeliveryPerson(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req UpdateDeliveryPersonRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	claims := h.claims(c)
	dp, err := h.deliveryPerson(ctx, claims, id)
	if err != nil {
		fail(c, err)
		return
	}
	update := repository.DeliveryPersonUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Vehicle: req.Vehicle,
		Active:  req.Active,
	}
	// Only managers can bench a delivery person.
	if manages(claims, dp.RestaurantID) != nil {
		update.Active = nil
	}
	if err := h.Store.DeliveryPersons.Update(ctx, dp, update); err != nil {
		fail(c, err)
		return
	}
	if dp, err = h.Store.DeliveryPersons.FindByID(ctx, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery person updated", "delivery_person": dp})
}

// UpdateDeliveryPassword changes the password. The person themselves must
// confirm the current one; managers may reset it.
func (h *Handler) UpdateDeliveryPassword(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req PasswordRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	claims := h.claims(c)
	dp, err := h.deliveryPerson(ctx, claims, id)
	if err != nil {
		fail(c, err)
		return
	}
	if claims.UserID == dp.UserID && (dp.User == nil || !auth.CheckPassword(dp.User.PasswordHash, req.CurrentPassword)) {
		fail(c, apperrors.ErrBadCredentials)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Store.Accounts.UpdatePassword(ctx, dp.UserID, hash); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// DeliveryPersonOrders is the dispatch queue of the person's restaurant
func (h *Handler) DeliveryPersonOrders(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	dp, err := h.deliveryPerson(ctx, h.claims(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.Orders.DispatchQueue(ctx, dp.RestaurantID)
	if err != nil {
		fail(c, err)
		return
	}
	respondOrders(c, list)
}
