package handlers

import (
	"fmt"
	"net/http"

	"food-ordering-api/models"
	"food-ordering-api/orders"
	"food-ordering-api/statemachine"

	"github.com/gin-gonic/gin"
)

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type ForceStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// CreateOrder places an order for the calling customer
func (h *Handler) CreateOrder(c *gin.Context) {
	var in orders.CreateInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	order, err := h.Orders.Create(c.Request.Context(), h.claims(c).UserID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
		"label":   statemachine.Label(order.Status),
	})
}

// GetOrder looks an order up by numeric id or order number
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.Orders.Get(c.Request.Context(), h.claims(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"label":             statemachine.Label(order.Status),
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}

// UpdateOrderStatus moves an order along the state machine
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req StatusRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	order, prev, err := h.Orders.SetStatus(c.Request.Context(), h.claims(c), id, req.Status, req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	respondTransition(c, order, prev)
}

// ForceOrderStatus is the admin override that skips the transition table
func (h *Handler) ForceOrderStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req ForceStatusRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	order, prev, err := h.Orders.ForceStatus(c.Request.Context(), h.claims(c), id, req.Status, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	respondTransition(c, order, prev)
}

func (h *Handler) OrderHistory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	history, err := h.Orders.History(c.Request.Context(), h.claims(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "history": history})
}

func respondTransition(c *gin.Context, order *models.Order, prev models.OrderStatus) {
	c.JSON(http.StatusOK, gin.H{
		"message":           fmt.Sprintf("Order moved from %s to %s", prev, order.Status),
		"previous_status":   prev,
		"status":            order.Status,
		"label":             statemachine.Label(order.Status),
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
		"order":             order,
	})
}

func respondOrders(c *gin.Context, list []models.Order) {
	summary, _ := orders.Summarize(list)
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(list),
		"orders":        list,
	})
}
