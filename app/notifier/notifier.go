// Package notifier delivers purchase entitlements: once a payment
// confirms, it mints a time-limited signed download link and emails it to
// the buyer.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codegrana/storefront-payments/app/factory"
	"github.com/codegrana/storefront-payments/app/types"
	"github.com/sirupsen/logrus"
)

// Delivery describes one confirmed purchase to notify about.
type Delivery struct {
	OrderID        string
	UserEmail      string
	UserName       string
	ProductName    string
	ProductFileURL *string
	Quantity       int32
	TotalCents     int64
}

type Config struct {
	ResendAPIKey    string
	ResendBaseURL   string
	FromEmail       string
	DownloadBaseURL string
	TokenSecret     string
	TokenTTL        time.Duration
	HTTPTimeout     time.Duration
}

type EmailNotifier struct {
	cfg    Config
	client *http.Client
	logger logrus.FieldLogger
}

func NewEmailNotifier(cfg Config) *EmailNotifier {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ResendBaseURL == "" {
		cfg.ResendBaseURL = "https://api.resend.com"
	}
	cfg.ResendBaseURL = strings.TrimRight(cfg.ResendBaseURL, "/")

	return &EmailNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: factory.NewModuleLogger("entitlement-notifier"),
	}
}

// Notify sends the confirmation email. A purchase without a deliverable
// file, or a notifier without an API key, is logged and skipped.
func (n *EmailNotifier) Notify(ctx context.Context, delivery Delivery) error {
	log := n.logger.WithField("order_id", delivery.OrderID)

	if delivery.ProductFileURL == nil || strings.TrimSpace(*delivery.ProductFileURL) == "" {
		log.Info("Product has no deliverable file, skipping download link")
		return nil
	}

	token, err := MintDownloadToken(n.cfg.TokenSecret, n.cfg.TokenTTL, delivery.OrderID, *delivery.ProductFileURL)
	if err != nil {
		return err
	}
	downloadURL := strings.TrimRight(n.cfg.DownloadBaseURL, "/") + "/downloads/" + token

	if n.cfg.ResendAPIKey == "" {
		log.Warn("Email delivery is not configured, confirmation not sent")
		return nil
	}

	name := delivery.UserName
	if name == "" {
		name = "Customer"
	}

	payload := map[string]interface{}{
		"from":    n.cfg.FromEmail,
		"to":      []string{delivery.UserEmail},
		"subject": fmt.Sprintf("Purchase confirmed: %s", delivery.ProductName),
		"html": fmt.Sprintf(
			`<p>Hi %s,</p><p>Your purchase of <strong>%s</strong> (x%d, total %s) is confirmed.</p><p><a href="%s">Download your product</a></p><p>This link expires in %s.</p>`,
			name,
			delivery.ProductName,
			delivery.Quantity,
			types.Cents(delivery.TotalCents).String(),
			downloadURL,
			n.cfg.TokenTTL.String(),
		),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.ResendBaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.ResendAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email dispatch failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	log.WithField("email", delivery.UserEmail).Info("Confirmation email sent")
	return nil
}
