package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func testDelivery(fileURL *string) Delivery {
	return Delivery{
		OrderID:        "order-1",
		UserEmail:      "maria@example.com",
		UserName:       "Maria Souza",
		ProductName:    "Curso Completo de Go",
		ProductFileURL: fileURL,
		Quantity:       1,
		TotalCents:     29700,
	}
}

func TestNotifySendsEmail(t *testing.T) {
	var captured map[string]interface{}
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	n := NewEmailNotifier(Config{
		ResendAPIKey:    "re_test_key",
		ResendBaseURL:   server.URL,
		FromEmail:       "entregas@codegrana.com.br",
		DownloadBaseURL: "https://loja.codegrana.com.br",
		TokenSecret:     "dl_secret",
		TokenTTL:        24 * time.Hour,
	})

	if err := n.Notify(context.Background(), testDelivery(strPtr("https://cdn.example.com/curso-go.zip"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if authHeader != "Bearer re_test_key" {
		t.Errorf("authorization header = %q", authHeader)
	}
	if captured["from"] != "entregas@codegrana.com.br" {
		t.Errorf("from = %v", captured["from"])
	}
	html, _ := captured["html"].(string)
	if !strings.Contains(html, "https://loja.codegrana.com.br/downloads/") {
		t.Error("email body must carry a signed download link")
	}
	if !strings.Contains(html, "297.00") {
		t.Error("email body must show the purchase total")
	}

	// The embedded link must redeem with the same secret.
	start := strings.Index(html, "/downloads/") + len("/downloads/")
	end := strings.Index(html[start:], `"`)
	token := html[start : start+end]
	orderID, fileURL, err := ParseDownloadToken("dl_secret", token)
	if err != nil {
		t.Fatalf("embedded token must parse: %v", err)
	}
	if orderID != "order-1" || fileURL != "https://cdn.example.com/curso-go.zip" {
		t.Errorf("token claims = %q %q", orderID, fileURL)
	}
}

func TestNotifySkipsWithoutFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no email must be sent for file-less products")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewEmailNotifier(Config{
		ResendAPIKey:  "re_test_key",
		ResendBaseURL: server.URL,
		TokenSecret:   "dl_secret",
	})

	if err := n.Notify(context.Background(), testDelivery(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotifySkipsWithoutAPIKey(t *testing.T) {
	n := NewEmailNotifier(Config{
		TokenSecret: "dl_secret",
	})

	if err := n.Notify(context.Background(), testDelivery(strPtr("https://cdn.example.com/f.zip"))); err != nil {
		t.Fatalf("missing API key must degrade to a logged skip: %v", err)
	}
}

func TestNotifyPropagatesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	n := NewEmailNotifier(Config{
		ResendAPIKey:  "re_test_key",
		ResendBaseURL: server.URL,
		TokenSecret:   "dl_secret",
	})

	err := n.Notify(context.Background(), testDelivery(strPtr("https://cdn.example.com/f.zip")))
	if err == nil {
		t.Fatal("expected error from rejected email dispatch")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should carry the provider status: %v", err)
	}
}
