package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"starkride/internal/domain"
	"starkride/internal/service"
)

// PaymentHandler handles HTTP requests for wallet recharges and the
// gateway webhook.
type PaymentHandler struct {
	paymentService *service.PaymentService
	walletService  *service.WalletService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, walletService *service.WalletService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		walletService:  walletService,
	}
}

// RechargeRequest is the HTTP request body for starting a recharge.
type RechargeRequest struct {
	Amount int64 `json:"amount"`
}

// OrderResponse is the HTTP response for a created gateway order.
type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder handles POST /v1/wallet/recharge/order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.paymentService.CreateRechargeOrder(c.Request.Context(), c.GetString("driver_id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Status:   order.Status,
	})
}

// PaymentLinkResponse is the HTTP response for a created payment link.
type PaymentLinkResponse struct {
	LinkID   string `json:"link_id"`
	ShortURL string `json:"short_url"`
	Amount   int64  `json:"amount"`
	Status   string `json:"status"`
}

// CreateLink handles POST /v1/wallet/recharge/link
func (h *PaymentHandler) CreateLink(c *gin.Context) {
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	link, err := h.paymentService.CreateRechargeLink(c.Request.Context(), c.GetString("driver_id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, PaymentLinkResponse{
		LinkID:   link.ID,
		ShortURL: link.ShortURL,
		Amount:   link.Amount,
		Status:   link.Status,
	})
}

// VerifyPaymentRequest is the HTTP request body for the checkout callback.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// TransactionResponse is the HTTP response for a reconciled payment.
type TransactionResponse struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	GrossAmount int64     `json:"gross_amount"`
	NetAmount   int64     `json:"net_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResponse(txn *domain.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          txn.ID,
		PaymentID:   txn.PaymentID,
		GrossAmount: txn.GrossAmount,
		NetAmount:   txn.NetAmount,
		Status:      string(txn.Status),
		CreatedAt:   txn.CreatedAt,
	}
}

// Verify handles POST /v1/wallet/recharge/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	txn, err := h.paymentService.VerifyPayment(c.Request.Context(), service.VerifyPaymentRequest{
		DriverID:  c.GetString("driver_id"),
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTransactionResponse(txn))
}

// Webhook handles POST /v1/webhooks/payment
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable body"})
		return
	}

	_, err = h.paymentService.HandleWebhook(c.Request.Context(), body, c.GetHeader("X-Razorpay-Signature"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// WalletResponse is the HTTP response for the wallet balance.
type WalletResponse struct {
	DriverID string `json:"driver_id"`
	Balance  int64  `json:"balance"`
}

// Wallet handles GET /v1/wallet
func (h *PaymentHandler) Wallet(c *gin.Context) {
	wallet, err := h.walletService.GetWallet(c.Request.Context(), c.GetString("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WalletResponse{
		DriverID: wallet.DriverID,
		Balance:  wallet.Balance,
	})
}

// LedgerEntryResponse is one wallet history row on the wire.
type LedgerEntryResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Action       string    `json:"action"`
	Amount       int64     `json:"amount"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	BalanceAfter int64     `json:"balance_after"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// History handles GET /v1/wallet/history
func (h *PaymentHandler) History(c *gin.Context) {
	entries, err := h.walletService.History(c.Request.Context(), c.GetString("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, LedgerEntryResponse{
			ID:           entry.ID,
			Type:         string(entry.Type),
			Action:       string(entry.Action),
			Amount:       entry.Amount,
			ReferenceID:  entry.ReferenceID,
			BalanceAfter: entry.BalanceAfter,
			OccurredAt:   entry.OccurredAt,
		})
	}

	respondJSON(c, http.StatusOK, gin.H{"entries": responses})
}

// Transactions handles GET /v1/wallet/transactions
func (h *PaymentHandler) Transactions(c *gin.Context) {
	txns, err := h.paymentService.Transactions(c.Request.Context(), c.GetString("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, toTransactionResponse(txn))
	}

	respondJSON(c, http.StatusOK, gin.H{"transactions": responses})
}
