package entity

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusOverdue   = "overdue"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

const (
	BillingTypePix        = "PIX"
	BillingTypeBoleto     = "BOLETO"
	BillingTypeCreditCard = "CREDIT_CARD"
)

// Payment tracks the external financial instrument behind an Order.
// AsaasID is the gateway's payment identifier and is unique locally.
type Payment struct {
	ID          string
	OrderID     string
	AsaasID     string
	ValueCents  int64
	BillingType string
	Status      string

	PaymentURL     *string
	QRCodePayload  *string
	QRCodeImageURL *string

	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TerminalPaymentStatus reports whether status admits no further
// transitions. Overdue payments may still confirm or cancel.
func TerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusConfirmed, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}
