package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codegrana/storefront-payments/app/entity"
	"github.com/codegrana/storefront-payments/app/factory"
	"github.com/codegrana/storefront-payments/app/gateway"
	"github.com/codegrana/storefront-payments/app/taxid"
	"github.com/codegrana/storefront-payments/app/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultItemTimeout = 15 * time.Second

type productRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Product, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type checkoutOrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByUserRequestID(ctx context.Context, userID, requestID string) (*entity.Order, error)
}

type checkoutPaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*entity.Payment, error)
}

type eventRepository interface {
	Create(ctx context.Context, event *entity.PaymentEvent) error
}

type gatewayClient interface {
	FindCustomerByEmail(ctx context.Context, email string) (*gateway.Customer, error)
	CreateCustomer(ctx context.Context, input gateway.CustomerInput) (*gateway.Customer, error)
	CreatePayment(ctx context.Context, input gateway.PaymentInput) (*gateway.Payment, error)
	FetchPixQRCode(ctx context.Context, paymentID string) (*gateway.PixQRCode, error)
}

// CheckoutService orchestrates payment-intent creation: it resolves the
// product, buyer, and gateway customer, opens the gateway payment, and
// persists the Order and Payment pair.
type CheckoutService struct {
	products    productRepository
	users       userRepository
	orders      checkoutOrderRepository
	payments    checkoutPaymentRepository
	events      eventRepository
	gateway     gatewayClient
	itemTimeout time.Duration
	logger      logrus.FieldLogger
}

func NewCheckoutService(
	products productRepository,
	users userRepository,
	orders checkoutOrderRepository,
	payments checkoutPaymentRepository,
	events eventRepository,
	gw gatewayClient,
	itemTimeout time.Duration,
) *CheckoutService {
	if itemTimeout <= 0 {
		itemTimeout = defaultItemTimeout
	}
	return &CheckoutService{
		products:    products,
		users:       users,
		orders:      orders,
		payments:    payments,
		events:      events,
		gateway:     gw,
		itemTimeout: itemTimeout,
		logger:      factory.NewModuleLogger("checkout-service"),
	}
}

// CreateIntent runs one line item through the full intent flow. Orders
// are only ever created in pending; every later status change belongs to
// the webhook reconciler.
func (s *CheckoutService) CreateIntent(ctx context.Context, req *types.CreateIntentRequest) (*entity.Order, *entity.Payment, error) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}

	totalCents := product.PriceCents * int64(req.Quantity)

	user, err := s.users.FindByEmail(ctx, req.UserEmail)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	if req.RequestID != "" {
		existing, err := s.orders.FindByUserRequestID(ctx, user.ID, req.RequestID)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			payment, err := s.payments.FindByOrderID(ctx, existing.ID)
			if err != nil {
				return nil, nil, err
			}
			if payment == nil {
				return nil, nil, fmt.Errorf("order %s has no payment record", existing.ID)
			}
			// A replay must carry the same line item; a reused request id
			// with a different payload is a client bug, not idempotency.
			if existing.ProductID != req.ProductID || existing.Quantity != req.Quantity ||
				payment.BillingType != req.BillingType {
				return nil, nil, ErrRequestConflict
			}
			return existing, payment, nil
		}
	}

	customerID, err := s.resolveGatewayCustomer(ctx, user, req.CustomerData)
	if err != nil {
		return nil, nil, err
	}

	externalReference := newExternalReference()
	gwPayment, err := s.gateway.CreatePayment(ctx, gateway.PaymentInput{
		CustomerID:        customerID,
		Value:             types.Cents(totalCents),
		BillingType:       req.BillingType,
		Description:       fmt.Sprintf("Order: %s (x%d)", product.Name, req.Quantity),
		ExternalReference: externalReference,
	})
	if err != nil {
		return nil, nil, err
	}

	var qrPayload, qrImage *string
	if req.BillingType == entity.BillingTypePix {
		qr, err := s.gateway.FetchPixQRCode(ctx, gwPayment.ID)
		if err != nil {
			s.logger.WithError(err).WithField("asaas_id", gwPayment.ID).Warn("Fetching PIX QR code failed")
		} else if qr != nil {
			if qr.Payload != "" {
				qrPayload = &qr.Payload
			}
			if qr.EncodedImage != "" {
				qrImage = &qr.EncodedImage
			}
		}
	}

	now := time.Now().UTC()
	order := &entity.Order{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		ProductID:        product.ID,
		Quantity:         req.Quantity,
		TotalCents:       totalCents,
		GatewayPaymentID: &gwPayment.ID,
		Status:           entity.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.RequestID != "" {
		requestID := req.RequestID
		order.RequestID = &requestID
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.recordOrphanedIntent(ctx, gwPayment.ID, externalReference, err)
		return nil, nil, err
	}

	payment := &entity.Payment{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		AsaasID:     gwPayment.ID,
		ValueCents:  totalCents,
		BillingType: req.BillingType,
		Status:      entity.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if gwPayment.InvoiceURL != "" {
		invoiceURL := gwPayment.InvoiceURL
		payment.PaymentURL = &invoiceURL
	}
	payment.QRCodePayload = qrPayload
	payment.QRCodeImageURL = qrImage

	if err := s.payments.Create(ctx, payment); err != nil {
		s.recordOrphanedIntent(ctx, gwPayment.ID, externalReference, err)
		return nil, nil, err
	}

	_ = s.events.Create(ctx, &entity.PaymentEvent{
		AsaasID:   gwPayment.ID,
		EventType: "intent_created",
		NewStatus: entity.PaymentStatusPending,
		CreatedAt: now,
	})

	return order, payment, nil
}

// BatchOutcome is the per-item result of a cart checkout. A failed item
// never rolls back earlier successes.
type BatchOutcome struct {
	Item    types.BatchItem
	Order   *entity.Order
	Payment *entity.Payment
	Err     error
}

// CreateBatch processes cart items as independent intents, each under
// its own deadline so one slow gateway call cannot stall the rest.
func (s *CheckoutService) CreateBatch(ctx context.Context, req *types.CreateBatchRequest) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(req.Items))
	for i, item := range req.Items {
		itemReq := &types.CreateIntentRequest{
			UserEmail:    req.UserEmail,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			BillingType:  item.BillingType,
			CustomerData: req.CustomerData,
		}
		if req.RequestID != "" {
			itemReq.RequestID = fmt.Sprintf("%s-%d", req.RequestID, i)
		}

		itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
		order, payment, err := s.CreateIntent(itemCtx, itemReq)
		cancel()

		if err != nil {
			s.logger.WithError(err).WithField("product_id", item.ProductID).Warn("Cart item intent failed")
		}
		outcomes = append(outcomes, BatchOutcome{Item: item, Order: order, Payment: payment, Err: err})
	}
	return outcomes
}

// resolveGatewayCustomer reuses the gateway customer registered under the
// buyer's email, or creates one after validating the tax id.
func (s *CheckoutService) resolveGatewayCustomer(ctx context.Context, user *entity.User, data *types.CustomerData) (string, error) {
	existing, err := s.gateway.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	rawTaxID := ""
	if data != nil {
		rawTaxID = strings.TrimSpace(data.TaxID)
	}
	if rawTaxID == "" && user.TaxID != nil {
		rawTaxID = strings.TrimSpace(*user.TaxID)
	}
	if rawTaxID == "" {
		return "", fmt.Errorf("%w: tax id is required for payments", ErrValidation)
	}

	cleanTaxID, err := taxid.Validate(rawTaxID)
	if err != nil {
		return "", fmt.Errorf("%w: invalid tax id", ErrValidation)
	}

	input := gateway.CustomerInput{
		Name:  customerName(user, data),
		TaxID: cleanTaxID,
		Email: user.Email,
	}
	if data != nil {
		input.Phone = strings.TrimSpace(data.Phone)
		input.Address = strings.TrimSpace(data.Address)
		input.City = strings.TrimSpace(data.City)
		input.State = strings.TrimSpace(data.State)
		input.PostalCode = strings.TrimSpace(data.PostalCode)
	}
	fillCustomerFromProfile(&input, user)

	customer, err := s.gateway.CreateCustomer(ctx, input)
	if err != nil {
		return "", err
	}

	s.logger.WithField("customer_id", customer.ID).Info("Gateway customer created")
	return customer.ID, nil
}

// recordOrphanedIntent keeps the gateway correlation recoverable when the
// local write fails after the gateway call already succeeded.
func (s *CheckoutService) recordOrphanedIntent(ctx context.Context, asaasID, externalReference string, cause error) {
	s.logger.WithError(cause).
		WithField("asaas_id", asaasID).
		WithField("external_reference", externalReference).
		Error("Gateway payment exists without a local record, manual reconciliation required")

	payload := fmt.Sprintf(`{"externalReference":%q}`, externalReference)
	_ = s.events.Create(ctx, &entity.PaymentEvent{
		AsaasID:     asaasID,
		EventType:   "intent_orphaned",
		NewStatus:   entity.PaymentStatusPending,
		PayloadJSON: &payload,
		CreatedAt:   time.Now().UTC(),
	})
}

func customerName(user *entity.User, data *types.CustomerData) string {
	if data != nil && strings.TrimSpace(data.Name) != "" {
		return strings.TrimSpace(data.Name)
	}
	if user.FullName != nil && strings.TrimSpace(*user.FullName) != "" {
		return strings.TrimSpace(*user.FullName)
	}
	if i := strings.IndexByte(user.Email, '@'); i > 0 {
		return user.Email[:i]
	}
	return user.Email
}

func fillCustomerFromProfile(input *gateway.CustomerInput, user *entity.User) {
	if input.Phone == "" && user.Phone != nil {
		input.Phone = *user.Phone
	}
	if input.Address == "" && user.Address != nil {
		input.Address = *user.Address
	}
	if input.City == "" && user.City != nil {
		input.City = *user.City
	}
	if input.State == "" && user.State != nil {
		input.State = *user.State
	}
	if input.PostalCode == "" && user.PostalCode != nil {
		input.PostalCode = *user.PostalCode
	}
}

// newExternalReference builds an unguessable per-intent correlation key
// carried by the gateway payment from the moment it is created.
func newExternalReference() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), token[:12])
}
