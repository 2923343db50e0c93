package controller

import (
	"errors"
	"net/http"

	"github.com/codegrana/storefront-payments/app/factory"
	"github.com/codegrana/storefront-payments/app/notifier"
	"github.com/codegrana/storefront-payments/app/types"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type DownloadController struct {
	tokenSecret string
	logger      logrus.FieldLogger
}

func NewDownloadController(tokenSecret string) *DownloadController {
	return &DownloadController{
		tokenSecret: tokenSecret,
		logger:      factory.NewModuleLogger("download-controller"),
	}
}

// Redeem exchanges a signed download token for a redirect to the
// purchased file.
func (c *DownloadController) Redeem(ctx echo.Context) error {
	token := ctx.Param("token")

	orderID, fileURL, err := notifier.ParseDownloadToken(c.tokenSecret, token)
	if err != nil {
		if errors.Is(err, notifier.ErrTokenExpired) {
			return ctx.JSON(http.StatusGone, &types.ErrorResponse{Error: "download link has expired"})
		}
		return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "invalid download link"})
	}

	factory.LoggerWithContext(c.logger, ctx).WithField("order_id", orderID).Info("Download link redeemed")
	return ctx.Redirect(http.StatusFound, fileURL)
}
