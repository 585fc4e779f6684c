package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"starkride/internal/domain"
	"starkride/internal/gateway"
	"starkride/internal/notifier"
	"starkride/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is an in-memory WalletRepository. Debit carries
// the same balance guard as the real store.
type MockWalletRepository struct {
	mu       sync.Mutex
	balances map[string]int64
	entries  []*domain.LedgerEntry

	// Counters for verification
	DebitCallCount  int32
	CreditCallCount int32

	// Error injection
	DebitError  error
	CreditError error
	AppendError error
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		balances: make(map[string]int64),
	}
}

// SetBalance seeds a wallet balance directly, bypassing the ledger.
func (m *MockWalletRepository) SetBalance(driverID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[driverID] = balance
}

func (m *MockWalletRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.Wallet{DriverID: driverID, Balance: balance}, nil
}

func (m *MockWalletRepository) Create(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[driverID]; !ok {
		m.balances[driverID] = 0
	}
	return nil
}

func (m *MockWalletRepository) Debit(ctx context.Context, driverID string, amount int64) (int64, error) {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return 0, m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[driverID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if balance < amount {
		return 0, repository.ErrInsufficientBalance
	}
	m.balances[driverID] = balance - amount
	return m.balances[driverID], nil
}

func (m *MockWalletRepository) Credit(ctx context.Context, driverID string, amount int64) (int64, error) {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return 0, m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[driverID] += amount
	return m.balances[driverID], nil
}

func (m *MockWalletRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *MockWalletRepository) PatchEntryReference(ctx context.Context, entryID, referenceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == entryID && e.ReferenceID == "" {
			e.ReferenceID = referenceID
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockWalletRepository) ListEntries(ctx context.Context, driverID string) ([]*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.LedgerEntry, 0)
	for _, e := range m.entries {
		if e.DriverID == driverID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockWalletRepository) HasEntryWithAction(ctx context.Context, driverID string, action domain.EntryAction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.DriverID == driverID && e.Action == action {
			return true, nil
		}
	}
	return false, nil
}

// Balance returns the current balance for test assertions.
func (m *MockWalletRepository) Balance(driverID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[driverID]
}

// ──────────────────────────────────────────────
// MOCK RIDE REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRideRequestRepository is an in-memory RideRequestRepository. Claim,
// Finalize and Release run under one mutex so the conditional-update
// semantics of the real store hold under concurrency.
type MockRideRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*domain.RideRequest // keyed by unique ride key

	ClaimCallCount   int32
	ReleaseCallCount int32
}

// NewMockRideRequestRepository creates a new mock ride request repository.
func NewMockRideRequestRepository() *MockRideRequestRepository {
	return &MockRideRequestRepository{
		requests: make(map[string]*domain.RideRequest),
	}
}

// AddRequest seeds a request.
func (m *MockRideRequestRepository) AddRequest(req *domain.RideRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *req
	m.requests[req.UniqueRideKey] = &copied
}

func (m *MockRideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.UniqueRideKey]; ok {
		return repository.ErrDuplicateKey
	}
	copied := *req
	m.requests[req.UniqueRideKey] = &copied
	return nil
}

func (m *MockRideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRequestRepository) GetByKey(ctx context.Context, uniqueRideKey string) (*domain.RideRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[uniqueRideKey]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockRideRequestRepository) FindActiveByUser(ctx context.Context, userID string, now time.Time) (*domain.RideRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.UserID != userID || r.Expired(now) {
			continue
		}
		if r.Status == domain.RequestStatusPending || r.Status == domain.RequestStatusLocked {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRequestRepository) Claim(ctx context.Context, uniqueRideKey, driverID string, now time.Time) (*domain.RideRequest, error) {
	atomic.AddInt32(&m.ClaimCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[uniqueRideKey]
	if !ok || r.Status != domain.RequestStatusPending || r.Expired(now) {
		return nil, repository.ErrNotFound
	}
	r.Status = domain.RequestStatusLocked
	r.AcceptedBy = driverID
	copied := *r
	return &copied, nil
}

func (m *MockRideRequestRepository) Finalize(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id && r.Status == domain.RequestStatusLocked {
			r.Status = domain.RequestStatusAssigned
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockRideRequestRepository) Release(ctx context.Context, id string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id && r.Status == domain.RequestStatusLocked {
			r.Status = domain.RequestStatusPending
			r.AcceptedBy = ""
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockRideRequestRepository) Expire(ctx context.Context, uniqueRideKey, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[uniqueRideKey]
	if ok && r.UserID == userID && r.Status == domain.RequestStatusPending {
		r.Status = domain.RequestStatusExpired
	}
	return nil
}

// GetRequest returns the stored request for test assertions.
func (m *MockRideRequestRepository) GetRequest(uniqueRideKey string) *domain.RideRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[uniqueRideKey]
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is an in-memory RideRepository. The status and
// rating writers keep their conditional-update semantics.
type MockRideRepository struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride

	CreateCallCount        int32
	SetStatusCallCount     int32
	MarkCancelledCallCount int32

	CreateError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide seeds a ride.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *ride
	m.rides[ride.ID] = &copied
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *ride
	m.rides[ride.ID] = &copied
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ride
	return &copied, nil
}

func (m *MockRideRepository) GetAllByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.UserID == userID {
			copied := *r
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockRideRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rides {
		if r.UserID == userID && !r.Status.Terminal() {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rides {
		if r.DriverID == driverID && !r.Status.Terminal() {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRepository) SetStatus(ctx context.Context, id string, from, to domain.RideStatus) error {
	atomic.AddInt32(&m.SetStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok || ride.Status != from {
		return repository.ErrNotFound
	}
	ride.Status = to
	return nil
}

func (m *MockRideRepository) MarkCancelled(ctx context.Context, id string, status domain.RideStatus, details *domain.CancelDetails) error {
	atomic.AddInt32(&m.MarkCancelledCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok || ride.Status.Terminal() {
		return repository.ErrNotFound
	}
	ride.Status = status
	copied := *details
	ride.Cancel = &copied
	return nil
}

func (m *MockRideRepository) SetUserRating(ctx context.Context, id string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok || ride.UserRating != 0 {
		return repository.ErrNotFound
	}
	ride.UserRating = rating
	return nil
}

func (m *MockRideRepository) SetDriverRating(ctx context.Context, id string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok || ride.DriverRating != 0 {
		return repository.ErrNotFound
	}
	ride.DriverRating = rating
	return nil
}

func (m *MockRideRepository) SetCombinedRating(ctx context.Context, id string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	ride.Rating = rating
	return nil
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION REPOSITORY
// ──────────────────────────────────────────────

// MockTransactionRepository is an in-memory TransactionRepository with
// the payment_id uniqueness constraint.
type MockTransactionRepository struct {
	mu   sync.Mutex
	txns map[string]*domain.WalletTransaction // keyed by payment id

	CreateCallCount int32
}

// NewMockTransactionRepository creates a new mock transaction repository.
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns: make(map[string]*domain.WalletTransaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *domain.WalletTransaction) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[txn.PaymentID]; ok {
		return repository.ErrDuplicateKey
	}
	copied := *txn
	m.txns[txn.PaymentID] = &copied
	return nil
}

func (m *MockTransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[paymentID]
	if !ok {
		return nil, nil
	}
	copied := *txn
	return &copied, nil
}

func (m *MockTransactionRepository) GetAllByDriverID(ctx context.Context, driverID string) ([]*domain.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.WalletTransaction, 0)
	for _, t := range m.txns {
		if t.DriverID == driverID {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is an in-memory DriverRepository.
type MockDriverRepository struct {
	mu      sync.Mutex
	drivers map[string]*domain.Driver

	SuspensionCallCount int32
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver seeds a driver.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *driver
	m.drivers[driver.ID] = &copied
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *driver
	m.drivers[driver.ID] = &copied
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *driver
	return &copied, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

func (m *MockDriverRepository) IncrementPendingRides(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.PendingRides++
	return nil
}

func (m *MockDriverRepository) ApplyCompletionStats(ctx context.Context, id string, totalFare, platformShare int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	if driver.PendingRides > 0 {
		driver.PendingRides--
	}
	driver.TotalEarning += totalFare
	driver.TotalShare += platformShare
	driver.TotalRides++
	return nil
}

func (m *MockDriverRepository) ApplyCancellationStats(ctx context.Context, id string, totalFare, platformShare int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	if driver.PendingRides > 0 {
		driver.PendingRides--
	}
	driver.CancelRides++
	driver.TotalEarning += totalFare
	driver.TotalShare += platformShare
	return nil
}

func (m *MockDriverRepository) ApplyDeferredSuspension(ctx context.Context, id string) (bool, error) {
	atomic.AddInt32(&m.SuspensionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok || !driver.PendingSuspension {
		return false, nil
	}
	driver.IsApproved = false
	driver.PendingSuspension = false
	return true, nil
}

func (m *MockDriverRepository) ApplyRating(ctx context.Context, id string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Ratings = (driver.Ratings*float64(driver.TotalRatings) + rating) / float64(driver.TotalRatings+1)
	driver.TotalRatings++
	return nil
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is an in-memory UserRepository.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser seeds a user.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) IncrementPendingRides(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PendingRides++
	return nil
}

func (m *MockUserRepository) ApplyCompletionStats(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if user.PendingRides > 0 {
		user.PendingRides--
	}
	user.TotalRides++
	return nil
}

func (m *MockUserRepository) ApplyCancellationStats(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if user.PendingRides > 0 {
		user.PendingRides--
	}
	user.CancelRides++
	return nil
}

func (m *MockUserRepository) ApplyRating(ctx context.Context, id string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Ratings = (user.Ratings*float64(user.TotalRatings) + rating) / float64(user.TotalRatings+1)
	user.TotalRatings++
	return nil
}

// GetUser returns the stored user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK FARE REPOSITORY
// ──────────────────────────────────────────────

// MockFareRepository is an in-memory FareRepository keyed by
// (vehicle type, district).
type MockFareRepository struct {
	mu    sync.Mutex
	fares map[string]*domain.Fare
}

// NewMockFareRepository creates a new mock fare repository.
func NewMockFareRepository() *MockFareRepository {
	return &MockFareRepository{
		fares: make(map[string]*domain.Fare),
	}
}

func fareKey(vehicleType domain.VehicleType, district string) string {
	return string(vehicleType) + ":" + district
}

// AddFare seeds a fare config row.
func (m *MockFareRepository) AddFare(fare *domain.Fare) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *fare
	m.fares[fareKey(fare.VehicleType, fare.District)] = &copied
}

func (m *MockFareRepository) Get(ctx context.Context, vehicleType domain.VehicleType, district string) (*domain.Fare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fare, ok := m.fares[fareKey(vehicleType, district)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *fare
	return &copied, nil
}

func (m *MockFareRepository) Create(ctx context.Context, fare *domain.Fare) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fareKey(fare.VehicleType, fare.District)
	if _, ok := m.fares[key]; ok {
		return repository.ErrDuplicateKey
	}
	copied := *fare
	m.fares[key] = &copied
	return nil
}

func (m *MockFareRepository) Update(ctx context.Context, fare *domain.Fare) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fareKey(fare.VehicleType, fare.District)
	if _, ok := m.fares[key]; !ok {
		return repository.ErrNotFound
	}
	copied := *fare
	m.fares[key] = &copied
	return nil
}

func (m *MockFareRepository) GetAll(ctx context.Context) ([]*domain.Fare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Fare, 0, len(m.fares))
	for _, f := range m.fares {
		copied := *f
		result = append(result, &copied)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a scriptable payment gateway.
type MockGateway struct {
	mu     sync.Mutex
	orders map[string]*gateway.Order

	// Signature verdicts; both default to accepting everything.
	RejectPaymentSignature bool
	RejectWebhookSignature bool

	CreateOrderCallCount int32
	FetchOrderCallCount  int32
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		orders: make(map[string]*gateway.Order),
	}
}

// AddOrder seeds an existing order.
func (m *MockGateway) AddOrder(order *gateway.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	m.orders[order.ID] = &copied
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount int64, receipt string) (*gateway.Order, error) {
	n := atomic.AddInt32(&m.CreateOrderCallCount, 1)
	order := &gateway.Order{
		ID:       fmt.Sprintf("order_%s_%d", receipt, n),
		Amount:   amount,
		Currency: "INR",
		Receipt:  receipt,
		Status:   "created",
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	copied := *order
	return &copied, nil
}

func (m *MockGateway) FetchOrder(ctx context.Context, orderID string) (*gateway.Order, error) {
	atomic.AddInt32(&m.FetchOrderCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockGateway) CreatePaymentLink(ctx context.Context, amount int64, description, referenceID string) (*gateway.PaymentLink, error) {
	return &gateway.PaymentLink{
		ID:       "plink_" + referenceID,
		ShortURL: "https://rzp.test/" + referenceID,
		Amount:   amount,
		Status:   "created",
	}, nil
}

func (m *MockGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return !m.RejectPaymentSignature
}

func (m *MockGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return !m.RejectWebhookSignature
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records published notifications.
type MockNotifier struct {
	mu        sync.Mutex
	published []notifier.Notification

	PublishError error
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Publish(ctx context.Context, n notifier.Notification) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, n)
	return nil
}

func (m *MockNotifier) Close() error {
	return nil
}

// Published returns a copy of everything published so far.
func (m *MockNotifier) Published() []notifier.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]notifier.Notification, len(m.published))
	copy(result, m.published)
	return result
}

// CountByType returns how many notifications of one type were published.
func (m *MockNotifier) CountByType(notificationType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.published {
		if n.Type == notificationType {
			count++
		}
	}
	return count
}
