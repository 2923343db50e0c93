package service

import (
	"context"
	"fmt"
	"time"

	"github.com/codegrana/storefront-payments/app/entity"
)

// ReconcileReport summarizes one sweep of the reconcile job.
type ReconcileReport struct {
	Scanned   int
	Confirmed int
	Overdue   int
	Refunded  int
	Failed    int
}

// RunReconcileBatch re-reads stale pending payments straight from the
// gateway and applies whatever the webhooks missed. Each payment is
// handled on its own; a gateway failure on one never stops the sweep.
func (s *WebhookService) RunReconcileBatch(ctx context.Context, staleAfter time.Duration, limit int32) (ReconcileReport, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)

	stale, err := s.payments.ListStalePending(ctx, cutoff, limit)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("listing stale payments: %w", err)
	}

	report := ReconcileReport{Scanned: len(stale)}
	for _, payment := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.reconcilePayment(ctx, payment, &report); err != nil {
			report.Failed++
			s.logger.WithError(err).WithField("asaas_id", payment.AsaasID).Warn("Reconciling payment failed")
		}
	}

	s.logger.WithField("scanned", report.Scanned).
		WithField("confirmed", report.Confirmed).
		WithField("overdue", report.Overdue).
		WithField("refunded", report.Refunded).
		WithField("failed", report.Failed).
		Info("Reconcile sweep finished")
	return report, nil
}

func (s *WebhookService) reconcilePayment(ctx context.Context, payment *entity.Payment, report *ReconcileReport) error {
	remote, err := s.gateway.FetchPayment(ctx, payment.AsaasID)
	if err != nil {
		return err
	}
	if remote == nil {
		// Deleted on the gateway side while still pending locally.
		return s.applyTransition(ctx, payment, statusTransition{
			eventType:   "payment_cancelled",
			paymentTo:   entity.PaymentStatusCancelled,
			paymentFrom: []string{entity.PaymentStatusPending, entity.PaymentStatusOverdue},
			orderTo:     entity.OrderStatusCancelled,
			orderFrom:   []string{entity.OrderStatusPending},
		}, nil)
	}

	switch remote.Status {
	case "RECEIVED", "CONFIRMED", "RECEIVED_IN_CASH":
		report.Confirmed++
		return s.applyConfirmation(ctx, payment, nil)
	case "OVERDUE":
		report.Overdue++
		return s.applyTransition(ctx, payment, statusTransition{
			eventType:   "payment_overdue",
			paymentTo:   entity.PaymentStatusOverdue,
			paymentFrom: []string{entity.PaymentStatusPending},
		}, nil)
	case "REFUNDED":
		report.Refunded++
		return s.applyTransition(ctx, payment, statusTransition{
			eventType:   "payment_refunded",
			paymentTo:   entity.PaymentStatusRefunded,
			paymentFrom: []string{entity.PaymentStatusPending, entity.PaymentStatusConfirmed},
			orderTo:     entity.OrderStatusRefunded,
			orderFrom:   []string{entity.OrderStatusPending, entity.OrderStatusPaid},
		}, nil)
	default:
		return nil
	}
}
