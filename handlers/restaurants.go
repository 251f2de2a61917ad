package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"food-ordering-api/apperrors"
	"food-ordering-api/auth"
	"food-ordering-api/cache"
	"food-ordering-api/models"
	"food-ordering-api/repository"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type AddRestaurantRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Username    string  `json:"username" binding:"required"`
	Password    string  `json:"password" binding:"required,min=5,max=72"`
	OwnerName   string  `json:"owner_name"`
	Phone       string  `json:"phone"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" binding:"min=-180,max=180"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// UpdateRestaurantRequest is a partial update: absent fields keep their value.
type UpdateRestaurantRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Location    *string  `json:"location"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

// AddRestaurant creates a restaurant together with its owner account
func (h *Handler) AddRestaurant(c *gin.Context) {
	var req AddRestaurantRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ownerName := req.OwnerName
	if ownerName == "" {
		ownerName = req.Name
	}
	owner := &models.User{
		Name:         ownerName,
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         models.RoleRestaurantOwner,
	}
	restaurant := &models.Restaurant{
		Name:        req.Name,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.Store.Restaurants.CreateWithOwner(c.Request.Context(), owner, restaurant); err != nil {
		fail(c, err)
		return
	}
	log.WithFields(log.Fields{"restaurant_id": restaurant.ID, "owner_id": owner.ID}).Info("restaurant created")
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Restaurant added successfully",
		"restaurant": restaurant,
		"owner":      owner,
	})
}

// ListRestaurants returns all restaurants, optionally filtered by ?search=
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.Store.Restaurants.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants, "count": len(restaurants)})
}

// GetRestaurant reads through the cache so repeated reads return the same bytes
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	key := restaurantCacheKey(id)

	body, err := h.Cache.Get(ctx, key)
	if err == nil {
		c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", body)
		return
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.WithError(err).WithField("key", key).Warn("cache read")
	}

	restaurant, err := h.Store.Restaurants.FindByID(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	body, err = json.Marshal(gin.H{"restaurant": restaurant})
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Cache.Set(ctx, key, body, h.CacheTTL); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache write")
	}
	c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", body)
}

// UpdateRestaurant edits the restaurant profile (owner or admin)
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := manages(h.claims(c), id); err != nil {
		fail(c, err)
		return
	}
	var req UpdateRestaurantRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	restaurant, err := h.Store.Restaurants.FindByID(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	update := repository.RestaurantUpdate{
		Name:        req.Name,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.Store.Restaurants.Update(ctx, restaurant, update); err != nil {
		fail(c, err)
		return
	}
	h.forgetRestaurant(c, id)
	if restaurant, err = h.Store.Restaurants.FindByID(ctx, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// DeleteRestaurant removes a restaurant with its roster and menu (admin)
func (h *Handler) DeleteRestaurant(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Store.Restaurants.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.forgetRestaurant(c, id)
	log.WithField("restaurant_id", id).Info("restaurant deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

func (h *Handler) forgetRestaurant(c *gin.Context, id uint) {
	if err := h.Cache.Delete(c.Request.Context(), restaurantCacheKey(id)); err != nil {
		log.WithError(err).WithField("restaurant_id", id).Warn("cache invalidate")
	}
}

// ListMeals returns a restaurant's menu, optionally for one ?category_id=
func (h *Handler) ListMeals(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.Restaurants.FindByID(ctx, id); err != nil {
		fail(c, err)
		return
	}
	var categoryID *uint
	if raw := c.Query("category_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fail(c, apperrors.ErrInvalidID)
			return
		}
		cid := uint(n)
		categoryID = &cid
	}
	meals, err := h.Store.Meals.ListByRestaurant(ctx, id, categoryID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals, "count": len(meals)})
}

func (h *Handler) ListCategories(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	categories, err := h.Store.Categories.ListByRestaurant(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

// RestaurantOrders returns the restaurant's orders with a per-status summary
func (h *Handler) RestaurantOrders(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := manages(h.claims(c), id); err != nil {
		fail(c, err)
		return
	}
	list, err := h.Orders.ListForRestaurant(c.Request.Context(), id, c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	respondOrders(c, list)
}

// ProcessedOrders lists orders that have left pending for ?restaurantId=
func (h *Handler) ProcessedOrders(c *gin.Context) {
	n, err := strconv.ParseUint(c.Query("restaurantId"), 10, 64)
	if err != nil || n == 0 {
		fail(c, apperrors.ErrInvalidRestaurantID)
		return
	}
	id := uint(n)
	if err := manages(h.claims(c), id); err != nil {
		fail(c, err)
		return
	}
	list, err := h.Orders.ListProcessed(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respondOrders(c, list)
}

// RestaurantDeliveryPersons returns the restaurant's delivery roster
func (h *Handler) RestaurantDeliveryPersons(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := manages(h.claims(c), id); err != nil {
		fail(c, err)
		return
	}
	people, err := h.Store.DeliveryPersons.ListByRestaurant(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_persons": people, "count": len(people)})
}
