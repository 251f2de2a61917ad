package handlers

import (
	"net/http"

	"food-ordering-api/auth"

	"github.com/gin-gonic/gin"
)

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUp creates a customer account and returns a token for it
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	token, user, err := h.Auth.SignUp(c.Request.Context(), auth.SignUpInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    user,
	})
}

// Login authenticates and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	token, user, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetProfile returns the current user's account and profile ids
func (h *Handler) GetProfile(c *gin.Context) {
	claims := h.claims(c)
	user, err := h.Store.Accounts.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":               user,
		"restaurant_id":      claims.RestaurantID,
		"delivery_person_id": claims.DeliveryPersonID,
	})
}
