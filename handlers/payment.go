package handlers

import (
	"net/http"

	"food-ordering-api/payment"

	"github.com/gin-gonic/gin"
)

type MpesaRequest struct {
	PhoneNumber      string  `json:"phoneNumber" binding:"required"`
	Amount           float64 `json:"amount"`
	AccountReference string  `json:"accountReference"`
	Description      string  `json:"description"`
}

type StripeRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	Source      string `json:"source" binding:"required"`
	Description string `json:"description"`
}

// MpesaPay starts an STK push to the customer's phone
func (h *Handler) MpesaPay(c *gin.Context) {
	var req MpesaRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Mpesa.StkPush(c.Request.Context(), payment.StkPushRequest{
		PhoneNumber:      req.PhoneNumber,
		Amount:           req.Amount,
		AccountReference: req.AccountReference,
		Description:      req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "STK push sent", "response": res})
}

// StripePay charges a tokenised card and returns the charge as Stripe sent it
func (h *Handler) StripePay(c *gin.Context) {
	var req StripeRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if h.Card == nil {
		fail(c, payment.ErrCardDisabled)
		return
	}
	charge, err := h.Card.Charge(c.Request.Context(), payment.ChargeRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Source:      req.Source,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, charge)
}
