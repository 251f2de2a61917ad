// Package payment starts payments with external providers. It keeps no
// payment state: provider responses are handed back to the caller as-is.
package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"food-ordering-api/apperrors"

	log "github.com/sirupsen/logrus"
)

const (
	MinMpesaAmount     = 10
	MaxMpesaAmount     = 250000
	defaultMpesaFailed = "Failed to initiate M-Pesa payment"
	providerTimeout    = 30 * time.Second
)

var (
	ErrInvalidPhone  = apperrors.BadRequest("INVALID_PHONE", "Phone number must look like 07XXXXXXXX, 01XXXXXXXX or 254XXXXXXXXX")
	ErrAmountTooLow  = apperrors.BadRequest("AMOUNT_TOO_LOW", fmt.Sprintf("Minimum amount is %d KES", MinMpesaAmount))
	ErrAmountTooHigh = apperrors.BadRequest("AMOUNT_TOO_HIGH", fmt.Sprintf("Maximum amount is %d KES", MaxMpesaAmount))
	ErrMpesaFailed   = apperrors.New(http.StatusBadGateway, "MPESA_FAILED", defaultMpesaFailed)
	ErrMpesaDisabled = apperrors.New(http.StatusServiceUnavailable, "MPESA_NOT_CONFIGURED", "M-Pesa is not configured")
)

// NormalizePhone accepts the local and international Safaricom forms and
// returns the 2547XXXXXXXX / 2541XXXXXXXX form the provider expects.
func NormalizePhone(phone string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	p = strings.TrimPrefix(p, "+")
	switch {
	case len(p) == 10 && (strings.HasPrefix(p, "07") || strings.HasPrefix(p, "01")):
		p = "254" + p[1:]
	case len(p) == 12 && (strings.HasPrefix(p, "2547") || strings.HasPrefix(p, "2541")):
	default:
		return "", ErrInvalidPhone
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return p, nil
}

// WholeAmount floors amount to whole shillings within the STK push limits.
func WholeAmount(amount float64) (int64, error) {
	whole := math.Floor(amount)
	switch {
	case math.IsNaN(whole) || whole < MinMpesaAmount:
		return 0, ErrAmountTooLow
	case whole > MaxMpesaAmount:
		return 0, ErrAmountTooHigh
	}
	return int64(whole), nil
}

type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	CallbackURL    string
}

// Mpesa starts Lipa na M-Pesa STK push payments.
type Mpesa struct {
	cfg  MpesaConfig
	http *http.Client
	now  func() time.Time
}

func NewMpesa(cfg MpesaConfig) *Mpesa {
	return &Mpesa{
		cfg:  cfg,
		http: &http.Client{Timeout: providerTimeout},
		now:  time.Now,
	}
}

func (m *Mpesa) configured() bool {
	return m.cfg.BaseURL != "" && m.cfg.ConsumerKey != "" && m.cfg.ConsumerSecret != "" &&
		m.cfg.Shortcode != "" && m.cfg.Passkey != ""
}

// StkPushRequest is the caller-facing payment request.
type StkPushRequest struct {
	PhoneNumber      string
	Amount           float64
	AccountReference string
	Description      string
}

// StkPush validates the request locally, then exchanges credentials for a
// bearer token and submits the push. No provider call is made when local
// validation fails.
func (m *Mpesa) StkPush(ctx context.Context, req StkPushRequest) (map[string]any, error) {
	phone, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	amount, err := WholeAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if !m.configured() {
		return nil, ErrMpesaDisabled
	}

	token, err := m.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := m.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(m.cfg.Shortcode + m.cfg.Passkey + timestamp))
	ref := req.AccountReference
	if ref == "" {
		ref = "FoodOrder"
	}
	desc := req.Description
	if desc == "" {
		desc = "Food order payment"
	}
	payload := map[string]any{
		"BusinessShortCode": m.cfg.Shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount,
		"PartyA":            phone,
		"PartyB":            m.cfg.Shortcode,
		"PhoneNumber":       phone,
		"CallBackURL":       m.cfg.CallbackURL,
		"AccountReference":  ref,
		"TransactionDesc":   desc,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	var out map[string]any
	status, err := m.do(httpReq, &out)
	if err != nil {
		return nil, err
	}
	if status >= 300 || (out["ResponseCode"] != nil && fmt.Sprint(out["ResponseCode"]) != "0") {
		return nil, providerError(out)
	}
	log.WithFields(log.Fields{"phone_suffix": phone[len(phone)-3:], "amount": amount}).Info("mpesa stk push accepted")
	return out, nil
}

func (m *Mpesa) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(m.cfg.ConsumerKey, m.cfg.ConsumerSecret)

	var out map[string]any
	status, err := m.do(req, &out)
	if err != nil {
		return "", err
	}
	token, _ := out["access_token"].(string)
	if status >= 300 || token == "" {
		return "", providerError(out)
	}
	return token, nil
}

func (m *Mpesa) do(req *http.Request, out *map[string]any) (int, error) {
	resp, err := m.http.Do(req)
	if err != nil {
		return 0, ErrMpesaFailed.Wrap(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		*out = map[string]any{}
		if resp.StatusCode < 300 {
			return resp.StatusCode, ErrMpesaFailed.Wrap(err)
		}
	}
	return resp.StatusCode, nil
}

// providerError surfaces the provider's errorCode/errorMessage when it sent them.
func providerError(body map[string]any) error {
	code, _ := body["errorCode"].(string)
	msg, _ := body["errorMessage"].(string)
	if msg == "" {
		msg, _ = body["ResponseDescription"].(string)
	}
	if msg == "" {
		msg = defaultMpesaFailed
	}
	e := apperrors.New(http.StatusBadGateway, "MPESA_FAILED", msg)
	if code != "" {
		e.Code = "MPESA_" + code
	}
	return e
}
