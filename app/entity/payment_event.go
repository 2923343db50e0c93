package entity

import "time"

// PaymentEvent is an append-only audit row. Events are keyed by the
// gateway payment id so a correlation survives even when the local
// payment row failed to persist.
type PaymentEvent struct {
	ID uint64

	AsaasID   string
	EventType string

	OldStatus *string
	NewStatus string

	PayloadJSON *string

	CreatedAt time.Time
}
