package entity

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusRefunded  = "refunded"
	OrderStatusCancelled = "cancelled"
)

// Order anchors one purchase intent for a single line item. Orders are
// never deleted; cancellation is a status.
type Order struct {
	ID               string
	UserID           string
	ProductID        string
	Quantity         int32
	TotalCents       int64
	GatewayPaymentID *string
	Status           string
	RequestID        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
