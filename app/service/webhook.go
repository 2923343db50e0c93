package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/codegrana/storefront-payments/app/entity"
	"github.com/codegrana/storefront-payments/app/factory"
	"github.com/codegrana/storefront-payments/app/gateway"
	"github.com/codegrana/storefront-payments/app/notifier"
	"github.com/codegrana/storefront-payments/app/repository"
	"github.com/codegrana/storefront-payments/app/types"
	"github.com/sirupsen/logrus"
)

type webhookPaymentRepository interface {
	FindByAsaasID(ctx context.Context, asaasID string) (*entity.Payment, error)
	UpdateStatusIf(ctx context.Context, asaasID string, from []string, to string, now time.Time) (bool, error)
	MarkConfirmed(ctx context.Context, asaasID string, now time.Time) (bool, error)
	ListStalePending(ctx context.Context, before time.Time, limit int32) ([]*entity.Payment, error)
}

type webhookOrderRepository interface {
	UpdateStatusByGatewayID(ctx context.Context, asaasPaymentID string, from []string, to string, now time.Time) (bool, error)
	FindPurchaseDetailByGatewayID(ctx context.Context, asaasPaymentID string) (*repository.PurchaseDetail, error)
}

// EntitlementNotifier grants the purchased benefit after confirmation.
type EntitlementNotifier interface {
	Notify(ctx context.Context, delivery notifier.Delivery) error
}

type paymentFetcher interface {
	FetchPayment(ctx context.Context, id string) (*gateway.Payment, error)
}

// WebhookService reconciles asynchronous gateway notifications onto the
// local Order/Payment pair. Transitions go through conditional writes
// keyed on the current persisted status, so duplicated and out-of-order
// deliveries degrade to no-ops.
type WebhookService struct {
	payments webhookPaymentRepository
	orders   webhookOrderRepository
	events   eventRepository
	notifier EntitlementNotifier
	gateway  paymentFetcher
	secret   string
	logger   logrus.FieldLogger
}

func NewWebhookService(
	payments webhookPaymentRepository,
	orders webhookOrderRepository,
	events eventRepository,
	entitlements EntitlementNotifier,
	gw paymentFetcher,
	webhookSecret string,
) *WebhookService {
	return &WebhookService{
		payments: payments,
		orders:   orders,
		events:   events,
		notifier: entitlements,
		gateway:  gw,
		secret:   strings.TrimSpace(webhookSecret),
		logger:   factory.NewModuleLogger("webhook-service"),
	}
}

// HandleEvent verifies and applies one gateway notification. A nil
// return means the event was applied or deliberately ignored; the caller
// answers 200 either way so the gateway stops redelivering.
func (s *WebhookService) HandleEvent(ctx context.Context, signature string, body []byte) error {
	if !s.verifySignature(signature, body) {
		return ErrBadSignature
	}

	event, err := types.ParseWebhookEvent(body)
	if err != nil {
		return err
	}

	if event.Payment == nil {
		s.logger.WithField("event", event.Event).Info("Webhook without payment payload ignored")
		return nil
	}

	log := s.logger.WithField("event", event.Event).WithField("asaas_id", event.Payment.ID)

	payment, err := s.payments.FindByAsaasID(ctx, event.Payment.ID)
	if err != nil {
		return err
	}
	if payment == nil {
		// Gateways retry undelivered webhooks; an unknown payment is
		// acknowledged so a foreign or pre-migration id never loops.
		log.Warn("Webhook for unknown payment acknowledged and ignored")
		return nil
	}

	payloadJSON := string(body)

	switch event.Event {
	case types.EventPaymentReceived, types.EventPaymentConfirmed:
		return s.applyConfirmation(ctx, payment, &payloadJSON)
	case types.EventPaymentOverdue:
		return s.applyTransition(ctx, payment, statusTransition{
			eventType:   "payment_overdue",
			paymentTo:   entity.PaymentStatusOverdue,
			paymentFrom: []string{entity.PaymentStatusPending},
		}, &payloadJSON)
	case types.EventPaymentRefunded:
		return s.applyTransition(ctx, payment, statusTransition{
			eventType:   "payment_refunded",
			paymentTo:   entity.PaymentStatusRefunded,
			paymentFrom: []string{entity.PaymentStatusPending, entity.PaymentStatusConfirmed},
			orderTo:     entity.OrderStatusRefunded,
			orderFrom:   []string{entity.OrderStatusPending, entity.OrderStatusPaid},
		}, &payloadJSON)
	case types.EventPaymentDeleted:
		return s.applyTransition(ctx, payment, statusTransition{
			eventType:   "payment_cancelled",
			paymentTo:   entity.PaymentStatusCancelled,
			paymentFrom: []string{entity.PaymentStatusPending, entity.PaymentStatusOverdue},
			orderTo:     entity.OrderStatusCancelled,
			orderFrom:   []string{entity.OrderStatusPending},
		}, &payloadJSON)
	default:
		log.Info("Unrecognized webhook event acknowledged and ignored")
		return nil
	}
}

// applyConfirmation flips payment and order into their paid states and
// fires the entitlement notification. MarkConfirmed only succeeds for
// the delivery that sets processed_at; the order flip stays conditional
// on the order still being pending, so a redelivery after a partial
// failure (payment confirmed, order write lost) finishes the job instead
// of skipping it.
func (s *WebhookService) applyConfirmation(ctx context.Context, payment *entity.Payment, payloadJSON *string) error {
	now := time.Now().UTC()
	log := s.logger.WithField("asaas_id", payment.AsaasID)

	applied, err := s.payments.MarkConfirmed(ctx, payment.AsaasID, now)
	if err != nil {
		return err
	}

	orderApplied, err := s.orders.UpdateStatusByGatewayID(ctx, payment.AsaasID,
		[]string{entity.OrderStatusPending}, entity.OrderStatusPaid, now)
	if err != nil {
		return err
	}

	// Both writes already settled: this is a plain redelivery of a fully
	// applied confirmation, or a stale event after a later transition.
	if !applied && !orderApplied {
		log.WithField("status", payment.Status).Info("Confirmation already applied, skipping")
		return nil
	}

	oldStatus := payment.Status
	_ = s.events.Create(ctx, &entity.PaymentEvent{
		AsaasID:     payment.AsaasID,
		EventType:   "payment_confirmed",
		OldStatus:   &oldStatus,
		NewStatus:   entity.PaymentStatusConfirmed,
		PayloadJSON: payloadJSON,
		CreatedAt:   now,
	})

	detail, err := s.orders.FindPurchaseDetailByGatewayID(ctx, payment.AsaasID)
	if err != nil || detail == nil {
		log.WithError(err).Warn("Purchase detail unavailable, entitlement not delivered")
		return nil
	}

	delivery := notifier.Delivery{
		OrderID:        detail.OrderID,
		UserEmail:      detail.UserEmail,
		ProductName:    detail.ProductName,
		ProductFileURL: detail.ProductFileURL,
		Quantity:       detail.Quantity,
		TotalCents:     detail.TotalCents,
	}
	if detail.UserName != nil {
		delivery.UserName = *detail.UserName
	}

	// processed_at is already stamped; a notify failure here must not
	// fail the webhook, or redelivery would still skip the notification.
	if err := s.notifier.Notify(ctx, delivery); err != nil {
		log.WithError(err).Error("Entitlement notification failed")
	}

	return nil
}

type statusTransition struct {
	eventType   string
	paymentTo   string
	paymentFrom []string
	orderTo     string
	orderFrom   []string
}

func (s *WebhookService) applyTransition(ctx context.Context, payment *entity.Payment, tr statusTransition, payloadJSON *string) error {
	now := time.Now().UTC()
	log := s.logger.WithField("asaas_id", payment.AsaasID).WithField("target", tr.paymentTo)

	applied, err := s.payments.UpdateStatusIf(ctx, payment.AsaasID, tr.paymentFrom, tr.paymentTo, now)
	if err != nil {
		return err
	}
	if !applied {
		log.WithField("status", payment.Status).Info("Transition not valid from current status, skipping")
		return nil
	}

	if tr.orderTo != "" {
		if _, err := s.orders.UpdateStatusByGatewayID(ctx, payment.AsaasID, tr.orderFrom, tr.orderTo, now); err != nil {
			return err
		}
	}

	oldStatus := payment.Status
	_ = s.events.Create(ctx, &entity.PaymentEvent{
		AsaasID:     payment.AsaasID,
		EventType:   tr.eventType,
		OldStatus:   &oldStatus,
		NewStatus:   tr.paymentTo,
		PayloadJSON: payloadJSON,
		CreatedAt:   now,
	})

	return nil
}

// verifySignature accepts either a hex HMAC-SHA256 digest of the raw
// body or the gateway's raw shared token, both compared in constant
// time. An unset secret rejects everything.
func (s *WebhookService) verifySignature(signature string, body []byte) bool {
	signature = strings.TrimSpace(signature)
	if s.secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	_, _ = mac.Write(body)
	expected := mac.Sum(nil)

	if candidate, err := hex.DecodeString(signature); err == nil && len(candidate) == sha256.Size {
		return hmac.Equal(candidate, expected)
	}

	return subtle.ConstantTimeCompare([]byte(signature), []byte(s.secret)) == 1
}
