//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const defaultStorefrontHTTPBase = "http://localhost:48080"

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-http-%d", time.Now().UnixNano()))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestStorefrontE2E(t *testing.T) {
	httpBase := os.Getenv("STOREFRONT_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultStorefrontHTTPBase
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newHTTPClient(httpBase)

	t.Run("Health", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/health", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("CreateIntentValidation", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/payments", map[string]any{}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty intent, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("CreateIntentBadBillingType", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/payments", map[string]any{
			"userEmail":   "e2e@example.com",
			"productId":   "prod-e2e",
			"quantity":    1,
			"billingType": "BARTER",
		}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown billing type, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("BatchValidation", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/payments/batch", map[string]any{
			"userEmail": "e2e@example.com",
			"items":     []any{},
		}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty batch, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("WebhookUnsignedRejected", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/webhooks/payment", map[string]any{
			"event":   "PAYMENT_RECEIVED",
			"payment": map[string]any{"id": "pay_e2e"},
		}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for unsigned webhook, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("WebhookBadSignatureRejected", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/webhooks/payment", map[string]any{
			"event":   "PAYMENT_RECEIVED",
			"payment": map[string]any{"id": "pay_e2e"},
		}, map[string]string{"asaas-access-token": "not-the-secret"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for bad signature, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("DownloadGarbageToken", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/downloads/not-a-token", nil, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for garbage token, got %d body=%s", resp.StatusCode, string(body))
		}
	})
}
