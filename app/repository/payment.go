package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/codegrana/storefront-payments/app/entity"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already exists")
)

const paymentColumns = `
	id, order_id, asaas_id, value, billing_type, status,
	payment_url, qr_code_payload, qr_code_url,
	processed_at, created_at, updated_at
`

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, asaas_id, value, billing_type, status,
			payment_url, qr_code_payload, qr_code_url,
			processed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.AsaasID,
		payment.ValueCents,
		payment.BillingType,
		payment.Status,
		nullableStringValue(payment.PaymentURL),
		nullableStringValue(payment.QRCodePayload),
		nullableStringValue(payment.QRCodeImageURL),
		nullableTimeValue(payment.ProcessedAt),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PaymentRepository) FindByAsaasID(ctx context.Context, asaasID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE asaas_id = ? LIMIT 1`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, asaasID), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = ? ORDER BY created_at DESC LIMIT 1`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, orderID), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

// UpdateStatusIf moves the payment keyed by gateway id to the target
// status only when its current status is one of from. The boolean result
// reports whether this call applied the transition; concurrent webhook
// deliveries serialize through this conditional write.
func (r *PaymentRepository) UpdateStatusIf(ctx context.Context, asaasID string, from []string, to string, now time.Time) (bool, error) {
	placeholders, fromArgs := statusPlaceholders(from)
	query := `UPDATE payments SET status = ?, updated_at = ? WHERE asaas_id = ? AND status IN (` + placeholders + `)`

	args := append([]interface{}{to, now, asaasID}, fromArgs...)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkConfirmed confirms the payment and stamps processed_at, but only
// once: a second delivery finds processed_at already set and applies
// nothing, which is the duplicate-notification guard.
func (r *PaymentRepository) MarkConfirmed(ctx context.Context, asaasID string, now time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = ?, processed_at = ?, updated_at = ?
		WHERE asaas_id = ? AND processed_at IS NULL AND status IN (?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.PaymentStatusConfirmed,
		now,
		now,
		asaasID,
		entity.PaymentStatusPending,
		entity.PaymentStatusOverdue,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListStalePending returns pending payments untouched since before, for
// the reconcile job to re-check against the gateway.
func (r *PaymentRepository) ListStalePending(ctx context.Context, before time.Time, limit int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = ? AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, entity.PaymentStatusPending, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var paymentURL sql.NullString
	var qrCodePayload sql.NullString
	var qrCodeImageURL sql.NullString
	var processedAt sql.NullTime

	err := scan.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.AsaasID,
		&payment.ValueCents,
		&payment.BillingType,
		&payment.Status,
		&paymentURL,
		&qrCodePayload,
		&qrCodeImageURL,
		&processedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	payment.PaymentURL = stringPtrFromNull(paymentURL)
	payment.QRCodePayload = stringPtrFromNull(qrCodePayload)
	payment.QRCodeImageURL = stringPtrFromNull(qrCodeImageURL)
	payment.ProcessedAt = timePtrFromNull(processedAt)

	return nil
}
