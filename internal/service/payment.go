package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"starkride/internal/domain"
	"starkride/internal/gateway"
	"starkride/internal/repository"
)

// DefaultRechargeCooldown is the minimum gap between recharge orders
// from the same driver.
const DefaultRechargeCooldown = 30 * time.Second

// Gateway is the interface to the payment gateway.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (*gateway.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*gateway.Order, error)
	CreatePaymentLink(ctx context.Context, amount int64, description, referenceID string) (*gateway.PaymentLink, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// CooldownStore rate-limits an action behind a key. Acquire reports
// whether the caller won the window; the window releases itself via TTL.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryCooldown is an in-process CooldownStore used when Redis is not
// configured. Windows do not survive a restart.
type MemoryCooldown struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryCooldown creates an in-process cooldown store.
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{entries: make(map[string]time.Time)}
}

// Acquire claims the key unless an unexpired window already holds it.
func (c *MemoryCooldown) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if until, ok := c.entries[key]; ok && until.After(now) {
		return false, nil
	}
	c.entries[key] = now.Add(ttl)
	return true, nil
}

// errAlreadyReconciled aborts a reconcile transaction when the
// payment_id row already exists; the caller replays the stored record.
var errAlreadyReconciled = errors.New("payment already reconciled")

// PaymentService handles wallet recharges through the payment gateway.
// Reconciliation is exactly-once per payment id: the credit and its
// audit record commit together, and the payment_id uniqueness
// constraint turns any replay into a read of the first outcome.
type PaymentService struct {
	db            *sql.DB
	txnRepo       repository.TransactionRepository
	walletRepo    repository.WalletRepository
	driverRepo    repository.DriverRepository
	gateway       Gateway
	cooldown      CooldownStore
	notifications *NotificationService
	logger        *zap.Logger

	cooldownTTL      time.Duration
	minFirstRecharge map[domain.VehicleType]int64
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	db *sql.DB,
	txnRepo repository.TransactionRepository,
	walletRepo repository.WalletRepository,
	driverRepo repository.DriverRepository,
	gw Gateway,
	cooldown CooldownStore,
	notifications *NotificationService,
	logger *zap.Logger,
	cooldownTTL time.Duration,
	minFirstRecharge map[domain.VehicleType]int64,
) *PaymentService {
	if cooldownTTL <= 0 {
		cooldownTTL = DefaultRechargeCooldown
	}
	return &PaymentService{
		db:               db,
		txnRepo:          txnRepo,
		walletRepo:       walletRepo,
		driverRepo:       driverRepo,
		gateway:          gw,
		cooldown:         cooldown,
		notifications:    notifications,
		logger:           logger,
		cooldownTTL:      cooldownTTL,
		minFirstRecharge: minFirstRecharge,
	}
}

func (s *PaymentService) fallbackRepos() repos {
	return repos{
		wallets: s.walletRepo,
		txns:    s.txnRepo,
	}
}

// CreateRechargeOrder opens a gateway order for a wallet recharge.
func (s *PaymentService) CreateRechargeOrder(ctx context.Context, driverID string, amount int64) (*gateway.Order, error) {
	if err := s.checkRecharge(ctx, driverID, amount); err != nil {
		return nil, err
	}

	return s.gateway.CreateOrder(ctx, amount, "recharge_"+driverID)
}

// CreateRechargeLink creates a hosted checkout link for a wallet
// recharge, for drivers paying from outside the app.
func (s *PaymentService) CreateRechargeLink(ctx context.Context, driverID string, amount int64) (*gateway.PaymentLink, error) {
	if err := s.checkRecharge(ctx, driverID, amount); err != nil {
		return nil, err
	}

	return s.gateway.CreatePaymentLink(ctx, amount, "Wallet recharge", "recharge_"+driverID)
}

// checkRecharge runs the shared recharge preconditions: positive
// amount, known driver, first-recharge minimum, cooldown window.
func (s *PaymentService) checkRecharge(ctx context.Context, driverID string, amount int64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}

	if minAmount, ok := s.minFirstRecharge[driver.VehicleType]; ok && amount < minAmount {
		recharged, err := s.walletRepo.HasEntryWithAction(ctx, driverID, domain.ActionRecharge)
		if err != nil {
			return err
		}
		if !recharged {
			return ErrBelowMinimumRecharge
		}
	}

	if s.cooldown != nil {
		acquired, err := s.cooldown.Acquire(ctx, "recharge:"+driverID, s.cooldownTTL)
		if err != nil {
			// Cooldown store being down should not block recharges.
			s.logger.Warn("recharge cooldown check failed", zap.String("driver_id", driverID), zap.Error(err))
		} else if !acquired {
			return ErrRechargeCooldown
		}
	}

	return nil
}

// VerifyPaymentRequest contains a checkout callback from the app.
type VerifyPaymentRequest struct {
	DriverID  string
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyPayment checks the checkout callback signature and credits the
// wallet. Safe to call any number of times per order.
func (s *PaymentService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*domain.WalletTransaction, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		return nil, ErrInvalidSignature
	}

	order, err := s.gateway.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	// Gateway fees are only known on the webhook path; the callback
	// path credits the full order amount.
	txn, replayed, err := s.reconcile(ctx, req.DriverID, req.OrderID, order.Amount, order.Amount)
	if err != nil {
		return nil, err
	}
	if !replayed {
		s.notifications.NotifyWalletCredited(ctx, txn)
	}

	return txn, nil
}

// HandleWebhook processes a gateway webhook delivery. The signature is
// checked against the raw body before anything is parsed.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (*domain.WalletTransaction, error) {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return nil, ErrInvalidSignature
	}

	event, err := gateway.ParseWebhook(body)
	if err != nil {
		return nil, err
	}

	if event.Event != gateway.EventPaymentCaptured {
		return nil, nil
	}

	driverID := event.Payment.Notes["driver_id"]
	if driverID == "" {
		s.logger.Warn("webhook payment without driver_id note", zap.String("order_id", event.Payment.OrderID))
		return nil, nil
	}

	net := event.Payment.Amount - event.Payment.Fee
	txn, replayed, err := s.reconcile(ctx, driverID, event.Payment.OrderID, event.Payment.Amount, net)
	if err != nil {
		return nil, err
	}
	if !replayed {
		s.notifications.NotifyWalletCredited(ctx, txn)
	}

	return txn, nil
}

// reconcile credits the wallet for one gateway payment exactly once.
// The credit, its ledger entry and the audit record commit in one
// transaction; any later call with the same payment id returns the
// stored record without touching the wallet.
func (s *PaymentService) reconcile(ctx context.Context, driverID, paymentID string, gross, net int64) (*domain.WalletTransaction, bool, error) {
	existing, err := s.txnRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	txn := &domain.WalletTransaction{
		ID:          uuid.New().String(),
		DriverID:    driverID,
		GrossAmount: gross,
		NetAmount:   net,
		PaymentID:   paymentID,
		Status:      domain.TransactionStatusSuccess,
		CreatedAt:   time.Now(),
	}

	err = runTx(ctx, s.db, s.fallbackRepos(), func(r repos) error {
		if _, txErr := creditWithEntry(ctx, r.wallets, driverID, net, domain.ActionRecharge, paymentID); txErr != nil {
			return txErr
		}
		if txErr := r.txns.Create(ctx, txn); txErr != nil {
			if errors.Is(txErr, repository.ErrDuplicateKey) {
				// Raced with another delivery of the same payment; the
				// rollback undoes our credit and we replay theirs.
				return errAlreadyReconciled
			}
			return txErr
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyReconciled) {
			winner, getErr := s.txnRepo.GetByPaymentID(ctx, paymentID)
			if getErr != nil {
				return nil, false, getErr
			}
			if winner != nil {
				return winner, true, nil
			}
		}
		return nil, false, err
	}

	return txn, false, nil
}

// Transactions returns the driver's gateway payment history, newest
// first.
func (s *PaymentService) Transactions(ctx context.Context, driverID string) ([]*domain.WalletTransaction, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.txnRepo.GetAllByDriverID(ctx, driverID)
}
