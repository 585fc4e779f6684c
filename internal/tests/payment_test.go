package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"starkride/internal/domain"
	"starkride/internal/gateway"
	"starkride/internal/service"
)

type paymentFixture struct {
	svc        *service.PaymentService
	txnRepo    *MockTransactionRepository
	walletRepo *MockWalletRepository
	driverRepo *MockDriverRepository
	gateway    *MockGateway
	notifier   *MockNotifier
}

func newPaymentFixture(cooldown service.CooldownStore) *paymentFixture {
	f := &paymentFixture{
		txnRepo:    NewMockTransactionRepository(),
		walletRepo: NewMockWalletRepository(),
		driverRepo: NewMockDriverRepository(),
		gateway:    NewMockGateway(),
		notifier:   NewMockNotifier(),
	}
	f.driverRepo.AddDriver(&domain.Driver{
		ID:          "driver-1",
		Name:        "Asha",
		VehicleType: domain.VehicleSedan,
		Status:      domain.DriverStatusActive,
		IsApproved:  true,
	})
	f.walletRepo.SetBalance("driver-1", 0)

	logger := zap.NewNop()
	notifications := service.NewNotificationService(f.notifier, logger)
	f.svc = service.NewPaymentService(
		nil, f.txnRepo, f.walletRepo, f.driverRepo,
		f.gateway, cooldown, notifications, logger,
		time.Minute,
		map[domain.VehicleType]int64{
			domain.VehicleSedan: 200,
		},
	)
	return f
}

func webhookBody(orderID, driverID string, amount, fee int64) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {
			"id": "pay_1",
			"order_id": %q,
			"amount": %d,
			"fee": %d,
			"status": "captured",
			"notes": {"driver_id": %q}
		}}}
	}`, orderID, amount*100, fee*100, driverID))
}

func TestPayment_VerifyCreditsWalletOnce(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)

	f.gateway.AddOrder(&gateway.Order{ID: "order-1", Amount: 500, Status: "paid"})

	req := service.VerifyPaymentRequest{
		DriverID:  "driver-1",
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Signature: "sig",
	}

	txn, err := f.svc.VerifyPayment(ctx, req)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if txn.NetAmount != 500 {
		t.Errorf("expected net 500, got %d", txn.NetAmount)
	}
	if got := f.walletRepo.Balance("driver-1"); got != 500 {
		t.Errorf("expected balance 500, got %d", got)
	}
	if got := f.notifier.CountByType(service.NotificationWalletCredited); got != 1 {
		t.Errorf("expected one credited notification, got %d", got)
	}

	// A replayed callback returns the stored record and does not credit
	// or notify again.
	replay, err := f.svc.VerifyPayment(ctx, req)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replay.ID != txn.ID {
		t.Errorf("expected replayed transaction %s, got %s", txn.ID, replay.ID)
	}
	if got := f.walletRepo.Balance("driver-1"); got != 500 {
		t.Errorf("expected balance to stay 500, got %d", got)
	}
	if got := f.notifier.CountByType(service.NotificationWalletCredited); got != 1 {
		t.Errorf("expected still one credited notification, got %d", got)
	}
}

func TestPayment_VerifyRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)
	f.gateway.RejectPaymentSignature = true

	_, err := f.svc.VerifyPayment(ctx, service.VerifyPaymentRequest{
		DriverID:  "driver-1",
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Signature: "forged",
	})
	if !errors.Is(err, service.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	// Nothing may have been touched.
	if got := f.walletRepo.Balance("driver-1"); got != 0 {
		t.Errorf("expected untouched balance, got %d", got)
	}
	if f.txnRepo.CreateCallCount != 0 {
		t.Errorf("expected no transaction writes, got %d", f.txnRepo.CreateCallCount)
	}
}

func TestPayment_WebhookCreditsNetOfFees(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)

	txn, err := f.svc.HandleWebhook(ctx, webhookBody("order-1", "driver-1", 500, 12), "sig")
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if txn.GrossAmount != 500 {
		t.Errorf("expected gross 500, got %d", txn.GrossAmount)
	}
	if txn.NetAmount != 488 {
		t.Errorf("expected net 488, got %d", txn.NetAmount)
	}
	if got := f.walletRepo.Balance("driver-1"); got != 488 {
		t.Errorf("expected balance 488, got %d", got)
	}
}

func TestPayment_WebhookRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)
	f.gateway.RejectWebhookSignature = true

	_, err := f.svc.HandleWebhook(ctx, webhookBody("order-1", "driver-1", 500, 12), "forged")
	if !errors.Is(err, service.ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
	if got := f.walletRepo.Balance("driver-1"); got != 0 {
		t.Errorf("expected untouched balance, got %d", got)
	}
}

func TestPayment_WebhookIgnoresOtherEvents(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)

	body := []byte(`{"event": "payment.failed", "payload": {"payment": {"entity": {"id": "pay_1", "order_id": "order-1", "amount": 50000}}}}`)

	txn, err := f.svc.HandleWebhook(ctx, body, "sig")
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if txn != nil {
		t.Errorf("expected no transaction for ignored event, got %+v", txn)
	}
	if got := f.walletRepo.Balance("driver-1"); got != 0 {
		t.Errorf("expected untouched balance, got %d", got)
	}
}

func TestPayment_ConcurrentDeliveriesCreditOnce(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)

	body := webhookBody("order-1", "driver-1", 500, 0)

	const deliveries = 10
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.HandleWebhook(ctx, body, "sig"); err != nil {
				t.Errorf("webhook delivery failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Every delivery resolved to the same transaction record.
	txns, _ := f.txnRepo.GetAllByDriverID(ctx, "driver-1")
	if len(txns) != 1 {
		t.Fatalf("expected one stored transaction, got %d", len(txns))
	}
}

func TestPayment_FirstRechargeMinimum(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)

	// Below the Sedan minimum with no prior recharge.
	_, err := f.svc.CreateRechargeOrder(ctx, "driver-1", 50)
	if !errors.Is(err, service.ErrBelowMinimumRecharge) {
		t.Fatalf("expected ErrBelowMinimumRecharge, got %v", err)
	}

	// Meeting the minimum works.
	order, err := f.svc.CreateRechargeOrder(ctx, "driver-1", 200)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Amount != 200 {
		t.Errorf("expected order amount 200, got %d", order.Amount)
	}

	// After one successful recharge the minimum no longer applies.
	if _, err := f.svc.HandleWebhook(ctx, webhookBody(order.ID, "driver-1", 200, 0), "sig"); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if _, err := f.svc.CreateRechargeOrder(ctx, "driver-1", 50); err != nil {
		t.Errorf("expected top-up below minimum to pass, got %v", err)
	}
}

func TestPayment_RechargeCooldown(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(service.NewMemoryCooldown())

	if _, err := f.svc.CreateRechargeOrder(ctx, "driver-1", 300); err != nil {
		t.Fatalf("first order failed: %v", err)
	}

	_, err := f.svc.CreateRechargeOrder(ctx, "driver-1", 300)
	if !errors.Is(err, service.ErrRechargeCooldown) {
		t.Errorf("expected ErrRechargeCooldown, got %v", err)
	}

	// The window is per driver.
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-2", VehicleType: domain.VehicleSedan})
	if _, err := f.svc.CreateRechargeOrder(ctx, "driver-2", 300); err != nil {
		t.Errorf("expected another driver to pass, got %v", err)
	}
}

func TestPayment_PaymentLink(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(nil)

	link, err := f.svc.CreateRechargeLink(ctx, "driver-1", 300)
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if link.ShortURL == "" {
		t.Error("expected a short url")
	}
	if link.Amount != 300 {
		t.Errorf("expected link amount 300, got %d", link.Amount)
	}
}
