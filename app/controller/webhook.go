package controller

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/codegrana/storefront-payments/app/factory"
	"github.com/codegrana/storefront-payments/app/service"
	"github.com/codegrana/storefront-payments/app/types"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 1 << 20

type WebhookController struct {
	webhookService *service.WebhookService
	logger         logrus.FieldLogger
}

func NewWebhookController(webhookService *service.WebhookService) *WebhookController {
	return &WebhookController{
		webhookService: webhookService,
		logger:         factory.NewModuleLogger("webhook-controller"),
	}
}

// HandlePaymentEvent receives gateway notifications. Signature checks run
// over the raw body, so it is read before any decoding.
func (c *WebhookController) HandlePaymentEvent(ctx echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBody))
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "unreadable body")
	}

	signature := strings.TrimSpace(ctx.Request().Header.Get("asaas-access-token"))
	if signature == "" {
		signature = strings.TrimSpace(ctx.Request().Header.Get("x-signature"))
	}

	if err := c.webhookService.HandleEvent(ctx.Request().Context(), signature, body); err != nil {
		switch {
		case errors.Is(err, service.ErrBadSignature):
			factory.LoggerWithContext(c.logger, ctx).Warn("Webhook signature rejected")
			return c.writeError(ctx, http.StatusBadRequest, "invalid signature")
		case errors.Is(err, types.ErrMalformedWebhook):
			return c.writeError(ctx, http.StatusBadRequest, "malformed payload")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Webhook processing failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.String(http.StatusOK, "OK")
}

func (c *WebhookController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
