// Package gateway talks to the payment gateway. Amounts cross this
// boundary in whole currency units; the paise conversion the gateway
// wire format wants happens here and nowhere else.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com"

// Order is a gateway order awaiting payment.
type Order struct {
	ID       string
	Amount   int64 // whole currency units
	Currency string
	Receipt  string
	Status   string
}

// PaymentLink is a shareable hosted checkout page.
type PaymentLink struct {
	ID       string
	ShortURL string
	Amount   int64 // whole currency units
	Status   string
}

// Client is a minimal Razorpay REST client covering orders, payment
// links and signature verification.
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

// NewClient creates a gateway client with the given credentials.
func NewClient(keyID, keySecret, webhookSecret string) *Client {
	return &Client{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

type orderWire struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (w *orderWire) toOrder() *Order {
	return &Order{
		ID:       w.ID,
		Amount:   w.Amount / 100,
		Currency: w.Currency,
		Receipt:  w.Receipt,
		Status:   w.Status,
	}
}

// CreateOrder opens a new order for the given amount.
func (c *Client) CreateOrder(ctx context.Context, amount int64, receipt string) (*Order, error) {
	body := map[string]any{
		"amount":   amount * 100,
		"currency": "INR",
		"receipt":  receipt,
	}

	var wire orderWire
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &wire); err != nil {
		return nil, err
	}

	return wire.toOrder(), nil
}

// FetchOrder retrieves an existing order by id.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	var wire orderWire
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+orderID, nil, &wire); err != nil {
		return nil, err
	}

	return wire.toOrder(), nil
}

// CreatePaymentLink creates a hosted checkout link.
func (c *Client) CreatePaymentLink(ctx context.Context, amount int64, description, referenceID string) (*PaymentLink, error) {
	body := map[string]any{
		"amount":       amount * 100,
		"currency":     "INR",
		"description":  description,
		"reference_id": referenceID,
	}

	var wire struct {
		ID       string `json:"id"`
		ShortURL string `json:"short_url"`
		Amount   int64  `json:"amount"`
		Status   string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payment_links", body, &wire); err != nil {
		return nil, err
	}

	return &PaymentLink{
		ID:       wire.ID,
		ShortURL: wire.ShortURL,
		Amount:   wire.Amount / 100,
		Status:   wire.Status,
	}, nil
}

// VerifyPaymentSignature checks the checkout callback signature:
// HMAC-SHA256 over "orderID|paymentID" keyed with the API secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifyHMAC([]byte(orderID+"|"+paymentID), signature, c.keySecret)
}

// VerifyWebhookSignature checks a webhook delivery against the raw
// request body. Must run before the body is parsed.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	return verifyHMAC(body, signature, c.webhookSecret)
}

func verifyHMAC(message []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway: %s %s returned %d: %s", method, path, resp.StatusCode, data)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
