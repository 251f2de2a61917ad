package handlers

import (
	"net/http"
	"strings"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
)

// Search matches restaurants and meals by name; ?filter= narrows it to one kind
func (h *Handler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("query"))
	if q == "" {
		fail(c, apperrors.ErrMissingQuery)
		return
	}
	filter := c.DefaultQuery("filter", "all")
	if filter != "all" && filter != "restaurants" && filter != "meals" {
		fail(c, apperrors.ErrValidation.WithDetails(map[string]any{"filter": "must be restaurants, meals or all"}))
		return
	}

	ctx := c.Request.Context()
	restaurants := []models.Restaurant{}
	meals := []models.Meal{}
	if filter != "meals" {
		found, err := h.Store.Restaurants.List(ctx, q)
		if err != nil {
			fail(c, err)
			return
		}
		restaurants = append(restaurants, found...)
	}
	if filter != "restaurants" {
		found, err := h.Store.Meals.Search(ctx, q)
		if err != nil {
			fail(c, err)
			return
		}
		meals = append(meals, found...)
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "restaurants": restaurants, "meals": meals})
}
