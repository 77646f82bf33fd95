package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-join-service/models"
)

func TestCanonicalPaymentConfigSpellings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"camel", `{"keyId":"rzp_1","orderId":"order_1","amount":499}`},
		{"snake", `{"key_id":"rzp_1","order_id":"order_1","amount":"499"}`},
		{"upper id", `{"keyID":"rzp_1","orderID":"order_1","amount":499.0}`},
		{"short", `{"key":"rzp_1","order":"order_1","amount":499}`},
		{"nested order", `{"key":"rzp_1","order":{"id":"order_1","amount":499}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := CanonicalPaymentConfig(rawConfig(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, "rzp_1", cfg.KeyID)
			assert.Equal(t, "order_1", cfg.OrderID)
			assert.Equal(t, int64(49900), cfg.Amount)
			assert.Equal(t, "INR", cfg.Currency)
		})
	}
}

func TestCanonicalPaymentConfigRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no key", `{"order_id":"order_1","amount":499}`},
		{"no order", `{"key_id":"rzp_1","amount":499}`},
		{"no amount", `{"key_id":"rzp_1","order_id":"order_1"}`},
		{"zero amount", `{"key_id":"rzp_1","order_id":"order_1","amount":0}`},
		{"null amount", `{"key_id":"rzp_1","order_id":"order_1","amount":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CanonicalPaymentConfig(rawConfig(tt.raw))
			assert.ErrorIs(t, err, ErrInvalidPaymentConfig)
		})
	}
}

func TestCanonicalPaymentConfigFoldsDisplayText(t *testing.T) {
	cfg, err := CanonicalPaymentConfig(rawConfig(`{"key_id":"rzp_1","order_id":"o","amount":10,"currency":"usd","name":"Café Cup","prefill":{"contact":"+911234567890"}}`))
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "Cafe Cup", cfg.Name)
	assert.Equal(t, "+911234567890", cfg.Prefill.Contact)
}

func TestMajorToMinorRounds(t *testing.T) {
	assert.Equal(t, int64(1999), MajorToMinor(19.99))
	assert.Equal(t, int64(49950), MajorToMinor(499.5))
	assert.Equal(t, int64(50000), MajorToMinor(500))
}

type recordingWidget struct {
	opened []models.CheckoutRequest
}

func (w *recordingWidget) Open(_ context.Context, _ string, checkout models.CheckoutRequest) error {
	w.opened = append(w.opened, checkout)
	return nil
}

func TestBridgeOpensWidgetWithRegistration(t *testing.T) {
	widget := &recordingWidget{}
	bridge := NewPaymentBridge(&fakeBackend{}, widget, nil)

	cfg, err := bridge.RequestConfig(context.Background(), testCred, "X")
	require.NoError(t, err)
	checkout := bridge.Checkout(cfg, "R1")
	require.NoError(t, bridge.Open(context.Background(), "s-1", checkout))

	require.Len(t, widget.opened, 1)
	assert.Equal(t, "R1", widget.opened[0].RegistrationID)
	assert.Equal(t, "order_1", widget.opened[0].OrderID)
}

func TestBridgeVerifyRequiresFullReceipt(t *testing.T) {
	backend := &fakeBackend{}
	bridge := NewPaymentBridge(backend, nil, nil)

	err := bridge.Verify(context.Background(), testCred, "R1", models.PaymentReceipt{PaymentID: "pay_1"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "razorpay_signature")
	assert.Empty(t, backend.Calls())
}
