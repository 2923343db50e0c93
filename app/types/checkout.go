package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

// CustomerData is the optional customer profile supplied at checkout when
// the gateway has no customer for the buyer's email yet.
type CustomerData struct {
	Name       string `json:"name"`
	TaxID      string `json:"cpfCnpj"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

type CreateIntentRequest struct {
	UserEmail    string        `json:"userEmail"`
	ProductID    string        `json:"productId"`
	Quantity     int32         `json:"quantity"`
	BillingType  string        `json:"billingType"`
	RequestID    string        `json:"requestId"`
	CustomerData *CustomerData `json:"customerData"`
}

func NewCreateIntentRequestFromContext(ctx echo.Context) (*CreateIntentRequest, error) {
	var body CreateIntentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.UserEmail = strings.TrimSpace(body.UserEmail)
	body.ProductID = strings.TrimSpace(body.ProductID)
	body.BillingType = strings.ToUpper(strings.TrimSpace(body.BillingType))
	body.RequestID = strings.TrimSpace(body.RequestID)
	if body.RequestID == "" {
		body.RequestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}

	return &body, nil
}

func (r *CreateIntentRequest) Validate() error {
	if r.UserEmail == "" {
		return errors.New("userEmail is required")
	}
	if r.ProductID == "" {
		return errors.New("productId is required")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	if !isValidBillingType(r.BillingType) {
		return errors.New("billingType must be PIX, BOLETO, or CREDIT_CARD")
	}
	return nil
}

type BatchItem struct {
	ProductID   string `json:"productId"`
	Quantity    int32  `json:"quantity"`
	BillingType string `json:"billingType"`
}

type CreateBatchRequest struct {
	UserEmail    string        `json:"userEmail"`
	Items        []BatchItem   `json:"items"`
	RequestID    string        `json:"requestId"`
	CustomerData *CustomerData `json:"customerData"`
}

func NewCreateBatchRequestFromContext(ctx echo.Context) (*CreateBatchRequest, error) {
	var body CreateBatchRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.UserEmail = strings.TrimSpace(body.UserEmail)
	body.RequestID = strings.TrimSpace(body.RequestID)
	if body.RequestID == "" {
		body.RequestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}
	for i := range body.Items {
		body.Items[i].ProductID = strings.TrimSpace(body.Items[i].ProductID)
		body.Items[i].BillingType = strings.ToUpper(strings.TrimSpace(body.Items[i].BillingType))
	}

	return &body, nil
}

func (r *CreateBatchRequest) Validate() error {
	if r.UserEmail == "" {
		return errors.New("userEmail is required")
	}
	if len(r.Items) == 0 {
		return errors.New("items must not be empty")
	}
	for _, item := range r.Items {
		if item.ProductID == "" {
			return errors.New("items[].productId is required")
		}
		if item.Quantity <= 0 {
			return errors.New("items[].quantity must be > 0")
		}
		if !isValidBillingType(item.BillingType) {
			return errors.New("items[].billingType must be PIX, BOLETO, or CREDIT_CARD")
		}
	}
	return nil
}

func isValidBillingType(billingType string) bool {
	switch billingType {
	case "PIX", "BOLETO", "CREDIT_CARD":
		return true
	default:
		return false
	}
}

type CreateIntentResponse struct {
	Success     bool   `json:"success"`
	PaymentURL  string `json:"paymentUrl,omitempty"`
	QRCode      string `json:"qrCode,omitempty"`
	QRCodeImage string `json:"qrCodeImage,omitempty"`
	OrderID     string `json:"orderId"`
	PaymentID   string `json:"paymentId"`
}

type BatchItemResponse struct {
	ProductID   string `json:"productId"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	PaymentURL  string `json:"paymentUrl,omitempty"`
	QRCode      string `json:"qrCode,omitempty"`
	QRCodeImage string `json:"qrCodeImage,omitempty"`
	OrderID     string `json:"orderId,omitempty"`
	PaymentID   string `json:"paymentId,omitempty"`
}

type CreateBatchResponse struct {
	Success bool                `json:"success"`
	Items   []BatchItemResponse `json:"items"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
