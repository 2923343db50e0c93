package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codegrana/storefront-payments/app/notifier"
	"github.com/labstack/echo/v4"
)

const downloadSecret = "dl_secret_0001"

func redeemToken(c *DownloadController, token string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/downloads/"+token, nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("token")
	ctx.SetParamValues(token)
	if err := c.Redeem(ctx); err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}
	return rec
}

func TestDownloadRedeemRedirects(t *testing.T) {
	c := NewDownloadController(downloadSecret)

	token, err := notifier.MintDownloadToken(downloadSecret, time.Hour, "order-1", "https://cdn.example.com/curso-go.zip")
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	rec := redeemToken(c, token)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "https://cdn.example.com/curso-go.zip" {
		t.Errorf("redirect location = %q", got)
	}
}

func TestDownloadRedeemExpiredToken(t *testing.T) {
	c := NewDownloadController(downloadSecret)

	token, err := notifier.MintDownloadToken(downloadSecret, -time.Minute, "order-1", "https://cdn.example.com/curso-go.zip")
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	if rec := redeemToken(c, token); rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}
}

func TestDownloadRedeemGarbageToken(t *testing.T) {
	c := NewDownloadController(downloadSecret)

	if rec := redeemToken(c, "not-a-token"); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadRedeemWrongSecret(t *testing.T) {
	c := NewDownloadController(downloadSecret)

	token, err := notifier.MintDownloadToken("other_secret", time.Hour, "order-1", "https://cdn.example.com/curso-go.zip")
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	if rec := redeemToken(c, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
