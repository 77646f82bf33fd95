// services/payment_bridge.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gosimple/unidecode"

	"tournament-join-service/logger"
	"tournament-join-service/models"
)

const defaultCurrency = "INR"

var (
	keyIDSpellings   = []string{"keyId", "key_id", "keyID", "key"}
	orderIDSpellings = []string{"orderId", "order_id", "orderID", "order"}

	ErrInvalidPaymentConfig = errors.New("invalid payment configuration")
)

// PaymentClient is the slice of the backend the bridge depends on.
type PaymentClient interface {
	PaymentConfig(ctx context.Context, cred Credential, tournamentID string) (map[string]json.RawMessage, error)
	VerifyPayment(ctx context.Context, cred Credential, req models.VerifyPaymentRequest) error
}

// Widget opens the external payment checkout for a session.
type Widget interface {
	Open(ctx context.Context, sessionID string, checkout models.CheckoutRequest) error
}

// StreamWidget hands the checkout to the browser through the session stream; it only logs here.
type StreamWidget struct {
	Log *logger.Logger
}

func (w StreamWidget) Open(_ context.Context, sessionID string, checkout models.CheckoutRequest) error {
	w.Log.Info("[PAYMENT] checkout ready", "session", sessionID, "order", checkout.OrderID, "amount", checkout.Amount, "currency", checkout.Currency)
	return nil
}

type PaymentBridge struct {
	client PaymentClient
	widget Widget
	log    *logger.Logger
}

func NewPaymentBridge(client PaymentClient, widget Widget, log *logger.Logger) *PaymentBridge {
	if log == nil {
		log = logger.Nop()
	}
	if widget == nil {
		widget = StreamWidget{Log: log}
	}
	return &PaymentBridge{client: client, widget: widget, log: log}
}

// RequestConfig fetches and canonicalizes the payment configuration for a tournament.
func (b *PaymentBridge) RequestConfig(ctx context.Context, cred Credential, tournamentID string) (models.PaymentConfig, error) {
	raw, err := b.client.PaymentConfig(ctx, cred, tournamentID)
	if err != nil {
		return models.PaymentConfig{}, err
	}
	return CanonicalPaymentConfig(raw)
}

func (b *PaymentBridge) Checkout(cfg models.PaymentConfig, registrationID string) models.CheckoutRequest {
	return models.CheckoutRequest{PaymentConfig: cfg, RegistrationID: registrationID}
}

func (b *PaymentBridge) Open(ctx context.Context, sessionID string, checkout models.CheckoutRequest) error {
	return b.widget.Open(ctx, sessionID, checkout)
}

// Verify confirms the widget's receipt with the backend. Any error means the payment failed.
func (b *PaymentBridge) Verify(ctx context.Context, cred Credential, registrationID string, receipt models.PaymentReceipt) error {
	if err := validate.Struct(receipt); err != nil {
		return validationErrorFrom(err)
	}
	return b.client.VerifyPayment(ctx, cred, models.VerifyPaymentRequest{
		RegistrationID: registrationID,
		PaymentReceipt: receipt,
	})
}

// CanonicalPaymentConfig reconciles the field spellings the backend uses and converts
// the amount from major to minor units for the widget.
func CanonicalPaymentConfig(raw map[string]json.RawMessage) (models.PaymentConfig, error) {
	cfg := models.PaymentConfig{
		KeyID:       pickString(raw, keyIDSpellings...),
		OrderID:     pickString(raw, orderIDSpellings...),
		Currency:    strings.ToUpper(pickString(raw, "currency")),
		Name:        asciiFold(pickString(raw, "name")),
		Description: asciiFold(pickString(raw, "description")),
	}

	// Razorpay-style payloads nest the order: {"order": {"id": ..., "amount": ...}}.
	order := pickObject(raw, "order")
	if cfg.OrderID == "" && order != nil {
		cfg.OrderID = pickString(order, "id", "orderId")
	}

	amount, ok := 0.0, false
	if v, found := raw["amount"]; found {
		amount, ok = numberValue(v)
	}
	if !ok && order != nil {
		if v, found := order["amount"]; found {
			amount, ok = numberValue(v)
		}
	}

	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if p := pickObject(raw, "prefill"); p != nil {
		cfg.Prefill = models.Prefill{
			Name:    pickString(p, "name"),
			Email:   pickString(p, "email"),
			Contact: pickString(p, "contact", "phone"),
		}
	}

	switch {
	case cfg.KeyID == "":
		return cfg, fmt.Errorf("%w: missing provider key", ErrInvalidPaymentConfig)
	case cfg.OrderID == "":
		return cfg, fmt.Errorf("%w: missing order id", ErrInvalidPaymentConfig)
	case !ok || amount <= 0:
		return cfg, fmt.Errorf("%w: missing or non-positive amount", ErrInvalidPaymentConfig)
	}
	cfg.Amount = MajorToMinor(amount)
	return cfg, nil
}

// MajorToMinor converts rupees to paise.
func MajorToMinor(major float64) int64 {
	return int64(math.Round(major * 100))
}

func asciiFold(s string) string {
	if s == "" {
		return s
	}
	return unidecode.Unidecode(s)
}
