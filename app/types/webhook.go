package types

import (
	"encoding/json"
	"errors"
)

// Gateway webhook event names. Anything else is acknowledged and ignored
// so new gateway event types never break delivery.
const (
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentOverdue   = "PAYMENT_OVERDUE"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"
	EventPaymentDeleted   = "PAYMENT_DELETED"
)

type WebhookPayment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Value       Cents  `json:"value"`
	BillingType string `json:"billingType"`
	Customer    string `json:"customer"`
	InvoiceURL  string `json:"invoiceUrl,omitempty"`
	QRCode      string `json:"qrcode,omitempty"`
	QRCodeImage string `json:"qrcodeImage,omitempty"`
}

// WebhookEvent is the decoded gateway notification. Payment is nil for
// events that carry no payment object.
type WebhookEvent struct {
	Event   string          `json:"event"`
	Payment *WebhookPayment `json:"payment"`
}

var ErrMalformedWebhook = errors.New("malformed webhook payload")

// ParseWebhookEvent decodes body at the boundary before any field access.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, ErrMalformedWebhook
	}
	if event.Event == "" {
		return nil, ErrMalformedWebhook
	}
	if event.Payment != nil && event.Payment.ID == "" {
		return nil, ErrMalformedWebhook
	}
	return &event, nil
}
