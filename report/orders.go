// Package report renders admin exports.
package report

import (
	"bytes"
	"fmt"

	"food-ordering-api/models"
	"food-ordering-api/statemachine"

	"github.com/xuri/excelize/v2"
)

const (
	OrdersSheet = "Orders"
	XLSXType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var orderColumns = []any{
	"ID", "Order Number", "Restaurant", "Meal", "Customer ID", "Quantity",
	"Unit Price", "Delivery Fee", "Total", "Payment", "Status", "Created At",
}

// Orders writes one row per order under a bold header row.
func Orders(orders []models.Order) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", OrdersSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(OrdersSheet, "A1", &orderColumns); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(orderColumns))
	if err := f.SetCellStyle(OrdersSheet, "A1", last+"1", bold); err != nil {
		return nil, err
	}

	for i, o := range orders {
		var restaurant, meal string
		if o.Restaurant != nil {
			restaurant = o.Restaurant.Name
		}
		if o.Meal != nil {
			meal = o.Meal.Name
		}
		row := []any{
			o.ID, o.OrderNumber, restaurant, meal, o.CustomerID, o.Quantity,
			o.UnitPrice.InexactFloat64(), o.DeliveryFee.InexactFloat64(), o.TotalPrice.InexactFloat64(),
			string(o.PaymentMethod), statemachine.Label(o.Status), o.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(OrdersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write order %d: %w", o.ID, err)
		}
	}
	return f.WriteToBuffer()
}
