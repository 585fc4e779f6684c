package gateway

import "encoding/json"

// EventPaymentCaptured is the webhook event fired when a payment settles.
const EventPaymentCaptured = "payment.captured"

// WebhookPayment is the payment entity inside a webhook delivery.
// Amount and Fee are converted out of paise during parsing.
type WebhookPayment struct {
	ID      string
	OrderID string
	Amount  int64 // whole currency units
	Fee     int64 // whole currency units, kept by the gateway
	Status  string
	Notes   map[string]string
}

// WebhookEvent is one parsed webhook delivery.
type WebhookEvent struct {
	Event   string
	Payment WebhookPayment
}

type webhookWire struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Amount  int64             `json:"amount"`
				Fee     int64             `json:"fee"`
				Status  string            `json:"status"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhook decodes a webhook body. Call only after the signature
// has been verified against the same raw bytes.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var wire webhookWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}

	entity := wire.Payload.Payment.Entity
	return &WebhookEvent{
		Event: wire.Event,
		Payment: WebhookPayment{
			ID:      entity.ID,
			OrderID: entity.OrderID,
			Amount:  entity.Amount / 100,
			Fee:     entity.Fee / 100,
			Status:  entity.Status,
			Notes:   entity.Notes,
		},
	}, nil
}
