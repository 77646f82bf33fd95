package models

// Prefill carries the contact fields shown pre-filled in the payment widget.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// PaymentConfig is the canonical payment configuration.
// Amount is in minor units; this is the only minor-unit value outside RawTournament.
type PaymentConfig struct {
	KeyID       string  `json:"keyId"`
	OrderID     string  `json:"orderId"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Prefill     Prefill `json:"prefill"`
}

// CheckoutRequest is what the payment widget is opened with.
type CheckoutRequest struct {
	PaymentConfig
	RegistrationID string `json:"registrationId"`
}

// PaymentReceipt is the widget's success callback payload.
type PaymentReceipt struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

type VerifyPaymentRequest struct {
	RegistrationID string `json:"registrationId"`
	PaymentReceipt
}
