package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/codegrana/storefront-payments/app/entity"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyExists = errors.New("order already exists")
)

const orderColumns = `
	id, user_id, product_id, quantity, total, asaas_payment_id, status, request_id,
	created_at, updated_at
`

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, product_id, quantity, total, asaas_payment_id, status, request_id,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.ProductID,
		order.Quantity,
		order.TotalCents,
		nullableStringValue(order.GatewayPaymentID),
		order.Status,
		nullableStringValue(order.RequestID),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrOrderAlreadyExists
		}
		return err
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order := &entity.Order{}
	if err := scanOrder(r.db.QueryRowContext(ctx, query, id), order); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return order, nil
}

// FindByUserRequestID resolves a prior order created under the same
// client idempotency key, if any.
func (r *OrderRepository) FindByUserRequestID(ctx context.Context, userID, requestID string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? AND request_id = ? LIMIT 1`

	order := &entity.Order{}
	if err := scanOrder(r.db.QueryRowContext(ctx, query, userID, requestID), order); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateStatusByGatewayID conditionally transitions the order that owns
// the given gateway payment.
func (r *OrderRepository) UpdateStatusByGatewayID(ctx context.Context, asaasPaymentID string, from []string, to string, now time.Time) (bool, error) {
	placeholders, fromArgs := statusPlaceholders(from)
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE asaas_payment_id = ? AND status IN (` + placeholders + `)`

	args := append([]interface{}{to, now, asaasPaymentID}, fromArgs...)
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

// PurchaseDetail is the joined order, buyer, and product view the
// entitlement notifier needs after a confirmation.
type PurchaseDetail struct {
	OrderID        string
	Quantity       int32
	TotalCents     int64
	UserEmail      string
	UserName       *string
	ProductName    string
	ProductFileURL *string
}

func (r *OrderRepository) FindPurchaseDetailByGatewayID(ctx context.Context, asaasPaymentID string) (*PurchaseDetail, error) {
	query := `
		SELECT o.id, o.quantity, o.total, u.email, u.full_name, p.name, p.file_url
		FROM orders o
		JOIN users u ON u.id = o.user_id
		JOIN products p ON p.id = o.product_id
		WHERE o.asaas_payment_id = ?
		LIMIT 1
	`

	var detail PurchaseDetail
	var userName sql.NullString
	var fileURL sql.NullString
	err := r.db.QueryRowContext(ctx, query, asaasPaymentID).Scan(
		&detail.OrderID,
		&detail.Quantity,
		&detail.TotalCents,
		&detail.UserEmail,
		&userName,
		&detail.ProductName,
		&fileURL,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	detail.UserName = stringPtrFromNull(userName)
	detail.ProductFileURL = stringPtrFromNull(fileURL)

	return &detail, nil
}

func scanOrder(scan rowScanner, order *entity.Order) error {
	var gatewayPaymentID sql.NullString
	var requestID sql.NullString

	err := scan.Scan(
		&order.ID,
		&order.UserID,
		&order.ProductID,
		&order.Quantity,
		&order.TotalCents,
		&gatewayPaymentID,
		&order.Status,
		&requestID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	order.GatewayPaymentID = stringPtrFromNull(gatewayPaymentID)
	order.RequestID = stringPtrFromNull(requestID)

	return nil
}
