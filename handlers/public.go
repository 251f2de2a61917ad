package handlers

import (
	"net/http"

	"food-ordering-api/models"
	"food-ordering-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns the full state machine definition
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	statuses := []models.OrderStatus{
		models.StatusPending, models.StatusPreparing, models.StatusOutForDelivery,
		models.StatusDelivered, models.StatusCancelled,
	}
	states := make([]gin.H, 0, len(statuses))
	for _, s := range statuses {
		states = append(states, gin.H{
			"status":      s,
			"label":       statemachine.Label(s),
			"terminal":    statemachine.IsTerminal(s),
			"next_states": statemachine.ValidTransitionsFrom(s),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"initial_state": models.StatusPending,
		"states":        states,
		"transitions":   statemachine.GetAllTransitions(),
	})
}

// Health pings the database
func (h *Handler) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	sqlDB, err := h.Store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":      status,
		"service":     "Food Ordering API",
		"connections": h.Hub.Connections(),
	})
}
