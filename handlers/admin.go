package handlers

import (
	"fmt"
	"net/http"
	"time"

	"food-ordering-api/orders"
	"food-ordering-api/report"

	"github.com/gin-gonic/gin"
)

// AdminOrders returns all orders with a status summary and delivered revenue
func (h *Handler) AdminOrders(c *gin.Context) {
	list, err := h.Orders.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	summary, revenue := orders.Summarize(list)
	c.JSON(http.StatusOK, gin.H{
		"total_orders":  len(list),
		"order_summary": summary,
		"revenue":       revenue,
		"orders":        list,
	})
}

// ExportOrders streams the admin order list as an .xlsx workbook
func (h *Handler) ExportOrders(c *gin.Context) {
	list, err := h.Orders.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	buf, err := report.Orders(list)
	if err != nil {
		fail(c, err)
		return
	}
	name := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, report.XLSXType, buf.Bytes())
}
