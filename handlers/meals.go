package handlers

import (
	"context"
	"net/http"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"
	"food-ordering-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MealRequest struct {
	RestaurantID   uint            `json:"restaurant_id"`
	CategoryID     *uint           `json:"category_id"`
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Image          string          `json:"image"`
	HasSpiceOption bool            `json:"has_spice_option"`
	HasAddons      bool            `json:"has_addons"`
	IsAvailable    *bool           `json:"is_available"`
}

// UpdateMealRequest is a partial update: absent fields keep their value.
type UpdateMealRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	Image          *string          `json:"image"`
	CategoryID     *uint            `json:"category_id" binding:"omitempty,min=1"`
	HasSpiceOption *bool            `json:"has_spice_option"`
	HasAddons      *bool            `json:"has_addons"`
	IsAvailable    *bool            `json:"is_available"`
}

type CategoryRequest struct {
	RestaurantID uint   `json:"restaurant_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
}

func (h *Handler) GetMeal(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	meal, err := h.Store.Meals.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": meal})
}

// CreateMeal adds a meal; the restaurant comes from the path when present
func (h *Handler) CreateMeal(c *gin.Context) {
	var req MealRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if c.Param("id") != "" {
		id, err := paramID(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		req.RestaurantID = id
	}
	if req.RestaurantID == 0 {
		fail(c, apperrors.ErrMissingRestaurantID)
		return
	}
	if !req.Price.IsPositive() {
		fail(c, apperrors.ErrInvalidPrice)
		return
	}
	if err := manages(h.claims(c), req.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.Restaurants.FindByID(ctx, req.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	if err := h.checkCategory(ctx, req.RestaurantID, req.CategoryID); err != nil {
		fail(c, err)
		return
	}

	meal := &models.Meal{
		RestaurantID:   req.RestaurantID,
		CategoryID:     req.CategoryID,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price.Round(2),
		Image:          req.Image,
		HasSpiceOption: req.HasSpiceOption,
		HasAddons:      req.HasAddons,
		IsAvailable:    req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.Store.Meals.Create(ctx, meal); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Meal created", "meal": meal})
}

// UpdateMeal edits any of the meal's fields present in the body
func (h *Handler) UpdateMeal(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req UpdateMealRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	meal, err := h.Store.Meals.FindByID(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := manages(h.claims(c), meal.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			fail(c, apperrors.ErrInvalidPrice)
			return
		}
		price := req.Price.Round(2)
		req.Price = &price
	}
	if err := h.checkCategory(ctx, meal.RestaurantID, req.CategoryID); err != nil {
		fail(c, err)
		return
	}
	update := repository.MealUpdate{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Image:          req.Image,
		CategoryID:     req.CategoryID,
		HasSpiceOption: req.HasSpiceOption,
		HasAddons:      req.HasAddons,
		IsAvailable:    req.IsAvailable,
	}
	if err := h.Store.Meals.Update(ctx, meal, update); err != nil {
		fail(c, err)
		return
	}
	if meal, err = h.Store.Meals.FindByID(ctx, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal updated", "meal": meal})
}

func (h *Handler) DeleteMeal(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	meal, err := h.Store.Meals.FindByID(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := manages(h.claims(c), meal.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	if err := h.Store.Meals.Delete(ctx, meal); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal deleted"})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := manages(h.claims(c), req.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.Restaurants.FindByID(ctx, req.RestaurantID); err != nil {
		fail(c, err)
		return
	}
	category := &models.Category{RestaurantID: req.RestaurantID, Name: req.Name}
	if err := h.Store.Categories.Create(ctx, category); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
}

// checkCategory requires an optional category to belong to the restaurant.
func (h *Handler) checkCategory(ctx context.Context, restaurantID uint, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	category, err := h.Store.Categories.FindByID(ctx, *categoryID)
	if err != nil {
		return err
	}
	if category.RestaurantID != restaurantID {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
