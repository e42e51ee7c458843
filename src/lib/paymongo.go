package lib

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"stagelink/src/types"
)

const paymongoBaseURL = "https://api.paymongo.com/v1"

// PaymongoClient is a thin client over the provider's checkout-session REST
// API. PayMongo has no Go SDK, so requests are built by hand.
type PaymongoClient struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

var paymongoClient *PaymongoClient

func GetPaymongoClient() *PaymongoClient {
	if paymongoClient != nil {
		return paymongoClient
	}
	c := &PaymongoClient{
		SecretKey:  os.Getenv("PAYMONGO_SECRET_KEY"),
		BaseURL:    paymongoBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	paymongoClient = c
	return c
}

// NewPaymongoClient replaces the provider client. Used by tests to point at
// a stub server.
func NewPaymongoClient(c *PaymongoClient) {
	paymongoClient = c
}

type CheckoutLineItem struct {
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
}

type CheckoutSessionParams struct {
	LineItems          []CheckoutLineItem `json:"line_items"`
	PaymentMethodTypes []string           `json:"payment_method_types"`
	SendEmailReceipt   bool               `json:"send_email_receipt"`
	ShowDescription    bool               `json:"show_description"`
	ShowLineItems      bool               `json:"show_line_items"`
	SuccessURL         string             `json:"success_url"`
	CancelURL          string             `json:"cancel_url"`
	Description        string             `json:"description"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
}

type SessionPayment struct {
	ID         string `json:"id"`
	Attributes struct {
		Status string `json:"status"`
	} `json:"attributes"`
}

type CheckoutSession struct {
	ID          string
	CheckoutURL string
	Status      string
	Payments    []SessionPayment
	Metadata    map[string]string
}

type sessionEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			CheckoutURL string            `json:"checkout_url"`
			Status      string            `json:"status"`
			Payments    []SessionPayment  `json:"payments"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"attributes"`
	} `json:"data"`
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (c *PaymongoClient) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.SecretKey+":"))
}

func (c *PaymongoClient) do(ctx context.Context, method, path string, body any) (*sessionEnvelope, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader())
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &types.UpstreamProviderError{Detail: err.Error()}
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	var envelope sessionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &types.UpstreamProviderError{Detail: fmt.Sprintf("unreadable provider response: %s", err.Error())}
	}
	if len(envelope.Errors) > 0 {
		return nil, &types.UpstreamProviderError{Detail: envelope.Errors[0].Detail}
	}
	return &envelope, nil
}

// CreateCheckoutSession opens a provider-hosted checkout page and returns
// its id and redirect URL.
func (c *PaymongoClient) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error) {
	payload := map[string]any{
		"data": map[string]any{
			"attributes": params,
		},
	}
	envelope, err := c.do(ctx, http.MethodPost, "/checkout_sessions", payload)
	if err != nil {
		return nil, err
	}
	return sessionFromEnvelope(envelope), nil
}

// RetrieveCheckoutSession fetches the current provider-side state of a
// checkout session, payments included.
func (c *PaymongoClient) RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/checkout_sessions/"+id, nil)
	if err != nil {
		return nil, err
	}
	return sessionFromEnvelope(envelope), nil
}

func sessionFromEnvelope(envelope *sessionEnvelope) *CheckoutSession {
	return &CheckoutSession{
		ID:          envelope.Data.ID,
		CheckoutURL: envelope.Data.Attributes.CheckoutURL,
		Status:      envelope.Data.Attributes.Status,
		Payments:    envelope.Data.Attributes.Payments,
		Metadata:    envelope.Data.Attributes.Metadata,
	}
}

// SessionPaid reports whether any payment attached to the session succeeded.
func (s *CheckoutSession) SessionPaid() bool {
	for _, p := range s.Payments {
		if p.Attributes.Status == "paid" {
			return true
		}
	}
	return false
}
