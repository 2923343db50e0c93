package controller

import (
	"errors"
	"net/http"

	"github.com/codegrana/storefront-payments/app/factory"
	"github.com/codegrana/storefront-payments/app/gateway"
	"github.com/codegrana/storefront-payments/app/mapper"
	"github.com/codegrana/storefront-payments/app/service"
	"github.com/codegrana/storefront-payments/app/types"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type CheckoutController struct {
	checkoutService *service.CheckoutService
	logger          logrus.FieldLogger
}

func NewCheckoutController(checkoutService *service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		logger:          factory.NewModuleLogger("checkout-controller"),
	}
}

func (c *CheckoutController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *CheckoutController) CreateIntent(ctx echo.Context) error {
	req, err := types.NewCreateIntentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	order, payment, err := c.checkoutService.CreateIntent(ctx.Request().Context(), req)
	if err != nil {
		return c.mapIntentError(ctx, err)
	}

	resp := mapper.IntentResponse(order, payment)
	return ctx.JSON(http.StatusOK, &resp)
}

func (c *CheckoutController) CreateBatch(ctx echo.Context) error {
	req, err := types.NewCreateBatchRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	outcomes := c.checkoutService.CreateBatch(ctx.Request().Context(), req)

	resp := mapper.BatchResponse(outcomes)
	status := http.StatusOK
	if !resp.Success {
		// Partial success still carries per-item results.
		status = http.StatusMultiStatus
	}
	return ctx.JSON(status, &resp)
}

func (c *CheckoutController) mapIntentError(ctx echo.Context, err error) error {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		return c.writeError(ctx, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrUserNotFound):
		return c.writeError(ctx, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrRequestConflict):
		return c.writeError(ctx, http.StatusConflict, err.Error())
	case errors.As(err, &gwErr):
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Payment gateway rejected the request")
		return c.writeError(ctx, http.StatusBadGateway, "payment gateway error")
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create intent failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *CheckoutController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
