package orders

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawID keeps an id exactly as the client sent it (JSON number or string) so
// that missing and non-numeric values can be reported separately.
type RawID string

func (r *RawID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RawID(strings.TrimSpace(s))
		return nil
	}
	*r = RawID(b)
	return nil
}

func (r RawID) Empty() bool { return r == "" }

// Uint parses the id; ok is false unless it is a positive integer.
func (r RawID) Uint() (uint, bool) {
	n, err := strconv.ParseUint(string(r), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// CreateInput is the checkout payload.
type CreateInput struct {
	MealID          RawID    `json:"meal_id"`
	RestaurantID    RawID    `json:"restaurant_id"`
	PaymentMethod   string   `json:"payment_method"`
	Quantity        int      `json:"quantity"`
	Spicy           bool     `json:"spicy"`
	AddOns          bool     `json:"add_ons"`
	Drink           string   `json:"drink"`
	DeliveryAddress string   `json:"delivery_address"`
	DeliveryLat     *float64 `json:"delivery_lat"`
	DeliveryLng     *float64 `json:"delivery_lng"`
	Instructions    string   `json:"instructions"`
}
