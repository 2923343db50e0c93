package mapper

import (
	"github.com/codegrana/storefront-payments/app/entity"
	"github.com/codegrana/storefront-payments/app/service"
	"github.com/codegrana/storefront-payments/app/types"
)

// IntentResponse shapes the created Order/Payment pair for the checkout
// frontend.
func IntentResponse(order *entity.Order, payment *entity.Payment) types.CreateIntentResponse {
	resp := types.CreateIntentResponse{
		Success:   true,
		OrderID:   order.ID,
		PaymentID: payment.ID,
	}
	if payment.PaymentURL != nil {
		resp.PaymentURL = *payment.PaymentURL
	}
	if payment.QRCodePayload != nil {
		resp.QRCode = *payment.QRCodePayload
	}
	if payment.QRCodeImageURL != nil {
		resp.QRCodeImage = *payment.QRCodeImageURL
	}
	return resp
}

// BatchResponse flattens per-item outcomes. Success reports the batch as
// a whole and is false as soon as any item failed.
func BatchResponse(outcomes []service.BatchOutcome) types.CreateBatchResponse {
	resp := types.CreateBatchResponse{
		Success: true,
		Items:   make([]types.BatchItemResponse, 0, len(outcomes)),
	}
	for _, outcome := range outcomes {
		item := types.BatchItemResponse{ProductID: outcome.Item.ProductID}
		if outcome.Err != nil {
			resp.Success = false
			item.Error = outcome.Err.Error()
		} else {
			item.Success = true
			item.OrderID = outcome.Order.ID
			item.PaymentID = outcome.Payment.ID
			if outcome.Payment.PaymentURL != nil {
				item.PaymentURL = *outcome.Payment.PaymentURL
			}
			if outcome.Payment.QRCodePayload != nil {
				item.QRCode = *outcome.Payment.QRCodePayload
			}
			if outcome.Payment.QRCodeImageURL != nil {
				item.QRCodeImage = *outcome.Payment.QRCodeImageURL
			}
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
