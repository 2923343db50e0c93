// Package gateway wraps the Asaas payment platform's customer and
// payment REST APIs. The client is stateless; all payment state lives at
// the gateway and is reconciled locally through webhooks.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codegrana/storefront-payments/app/types"
)

const defaultDueDateDays = 3

// Error carries the gateway's HTTP status and raw response body so the
// upstream diagnostic survives verbatim into logs and API responses.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway request failed: status=%d body=%s", e.Status, e.Body)
}

type Config struct {
	BaseURL     string
	AccessToken string
	HTTPTimeout time.Duration
	DueDateDays int
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.DueDateDays <= 0 {
		cfg.DueDateDays = defaultDueDateDays
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type Customer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TaxID      string `json:"cpfCnpj"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
}

type CustomerInput struct {
	Name       string `json:"name"`
	TaxID      string `json:"cpfCnpj"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
}

type PaymentInput struct {
	CustomerID        string
	Value             types.Cents
	BillingType       string
	Description       string
	ExternalReference string
}

type Payment struct {
	ID                string      `json:"id"`
	Customer          string      `json:"customer"`
	BillingType       string      `json:"billingType"`
	Value             types.Cents `json:"value"`
	Status            string      `json:"status"`
	DueDate           string      `json:"dueDate"`
	Description       string      `json:"description,omitempty"`
	ExternalReference string      `json:"externalReference,omitempty"`
	InvoiceURL        string      `json:"invoiceUrl,omitempty"`
}

type PixQRCode struct {
	EncodedImage string `json:"encodedImage"`
	Payload      string `json:"payload"`
}

// FindCustomerByEmail returns the first gateway customer registered with
// email, or nil when no match exists. A missing customer is not an error.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	body, err := c.do(ctx, http.MethodGet, "/customers?email="+url.QueryEscape(email), nil)
	if err != nil {
		return nil, err
	}

	var page struct {
		Data []Customer `json:"data"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, nil
	}
	return &page.Data[0], nil
}

func (c *Client) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	body, err := c.do(ctx, http.MethodPost, "/customers", input)
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, err
	}
	if customer.ID == "" {
		return nil, errors.New("gateway customer id missing")
	}
	return &customer, nil
}

// CreatePayment opens a payment intent due DueDateDays from today.
func (c *Client) CreatePayment(ctx context.Context, input PaymentInput) (*Payment, error) {
	dueDate := time.Now().UTC().AddDate(0, 0, c.cfg.DueDateDays).Format("2006-01-02")

	payload := struct {
		Customer          string      `json:"customer"`
		BillingType       string      `json:"billingType"`
		Value             types.Cents `json:"value"`
		DueDate           string      `json:"dueDate"`
		Description       string      `json:"description,omitempty"`
		ExternalReference string      `json:"externalReference,omitempty"`
	}{
		Customer:          input.CustomerID,
		BillingType:       input.BillingType,
		Value:             input.Value,
		DueDate:           dueDate,
		Description:       input.Description,
		ExternalReference: input.ExternalReference,
	}

	body, err := c.do(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return nil, err
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, err
	}
	if payment.ID == "" {
		return nil, errors.New("gateway payment id missing")
	}
	return &payment, nil
}

// FetchPayment returns the gateway payment, or nil when the id is unknown.
func (c *Client) FetchPayment(ctx context.Context, id string) (*Payment, error) {
	body, err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), nil)
	if err != nil {
		var gwErr *Error
		if errors.As(err, &gwErr) && gwErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FetchPixQRCode fetches the copy-and-paste payload and base64 image for
// an instant-transfer payment.
func (c *Client) FetchPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	body, err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID)+"/pixQrCode", nil)
	if err != nil {
		return nil, err
	}

	var qr PixQRCode
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if strings.TrimSpace(c.cfg.AccessToken) == "" {
		return nil, errors.New("gateway access token is not configured")
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("access_token", c.cfg.AccessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &Error{Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
