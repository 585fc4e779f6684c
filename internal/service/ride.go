package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// proximityRadiusKm is how close the driver must be to the pickup or
// destination for the Arrived and Reached transitions.
const proximityRadiusKm = 1.0

// statusTransitions maps each driver-settable status to the status the
// ride must currently be in. Ongoing is absent on purpose; it is only
// reachable through OTP verification.
var statusTransitions = map[domain.RideStatus]domain.RideStatus{
	domain.RideStatusProcessing: domain.RideStatusBooked,
	domain.RideStatusArrived:    domain.RideStatusProcessing,
	domain.RideStatusReached:    domain.RideStatusOngoing,
	domain.RideStatusCompleted:  domain.RideStatusReached,
}

// RideService handles the ride lifecycle from acceptance to settlement.
// Every money-touching transition runs its wallet and ride writes in
// one transaction; the denormalized driver and user counters ride along
// in the same transaction on completion and cancellation.
type RideService struct {
	db            *sql.DB
	rideRepo      repository.RideRepository
	requestRepo   repository.RideRequestRepository
	walletRepo    repository.WalletRepository
	driverRepo    repository.DriverRepository
	userRepo      repository.UserRepository
	fareService   *FareService
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewRideService creates a new RideService.
func NewRideService(
	db *sql.DB,
	rideRepo repository.RideRepository,
	requestRepo repository.RideRequestRepository,
	walletRepo repository.WalletRepository,
	driverRepo repository.DriverRepository,
	userRepo repository.UserRepository,
	fareService *FareService,
	notifications *NotificationService,
	logger *zap.Logger,
) *RideService {
	return &RideService{
		db:            db,
		rideRepo:      rideRepo,
		requestRepo:   requestRepo,
		walletRepo:    walletRepo,
		driverRepo:    driverRepo,
		userRepo:      userRepo,
		fareService:   fareService,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *RideService) fallbackRepos() repos {
	return repos{
		wallets:  s.walletRepo,
		requests: s.requestRepo,
		rides:    s.rideRepo,
		drivers:  s.driverRepo,
		users:    s.userRepo,
	}
}

// CreateRideRequest contains the parameters for turning a claimed
// request into a ride.
type CreateRideRequest struct {
	DriverID      string
	UniqueRideKey string
	Pickup        domain.Location
	Destination   domain.Location
	DistanceKm    float64
	District      string
}

// CreateRide turns the driver's claimed request into a booked ride. The
// driver pre-funds the platform share from their wallet; if the wallet
// cannot cover it the claim goes back into the pool for other drivers.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.UniqueRideKey == "" {
		return nil, ErrInvalidRideKey
	}

	request, err := s.requestRepo.GetByKey(ctx, req.UniqueRideKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestExpired
		}
		return nil, err
	}

	switch {
	case request.Status == domain.RequestStatusAssigned:
		return nil, ErrAlreadyAssigned
	case request.Status != domain.RequestStatusLocked:
		return nil, ErrRequestExpired
	case request.AcceptedBy != req.DriverID:
		return nil, ErrLockedByOther
	case request.Expired(s.now()):
		return nil, ErrRequestExpired
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	quote, err := s.fareService.Quote(ctx, driver.VehicleType, req.District, req.DistanceKm)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		UserID:         request.UserID,
		DriverID:       req.DriverID,
		TotalFare:      quote.Breakdown.TotalFare,
		DriverEarnings: quote.Breakdown.DriverEarnings,
		PlatformShare:  quote.Breakdown.PlatformShare,
		Status:         domain.RideStatusBooked,
		OTP:            newRideOtp(),
		Pickup:         req.Pickup,
		Destination:    req.Destination,
		DistanceKm:     req.DistanceKm,
		CreatedAt:      s.now(),
	}

	err = runTx(ctx, s.db, s.fallbackRepos(), func(r repos) error {
		entry, txErr := debitWithEntry(ctx, r.wallets, req.DriverID, quote.Breakdown.PlatformShare, domain.ActionPlatformFee, "")
		if txErr != nil {
			return txErr
		}
		if txErr := r.rides.Create(ctx, ride); txErr != nil {
			return txErr
		}
		return r.wallets.PatchEntryReference(ctx, entry.ID, ride.ID)
	})
	if err != nil {
		// Booking failed after a successful claim; the claim goes back
		// into the pool whatever the cause.
		if relErr := s.requestRepo.Release(ctx, request.ID); relErr != nil && !errors.Is(relErr, repository.ErrNotFound) {
			s.logger.Error("claim release failed", zap.String("request_id", request.ID), zap.Error(relErr))
		}
		return nil, err
	}

	// The ride exists from here on; bookkeeping failures are logged,
	// not surfaced.
	if err := s.requestRepo.Finalize(ctx, request.ID); err != nil {
		s.logger.Error("claim finalize failed", zap.String("request_id", request.ID), zap.Error(err))
	}
	if err := s.driverRepo.IncrementPendingRides(ctx, req.DriverID); err != nil {
		s.logger.Error("driver pending counter failed", zap.String("driver_id", req.DriverID), zap.Error(err))
	}
	if err := s.userRepo.IncrementPendingRides(ctx, request.UserID); err != nil {
		s.logger.Error("user pending counter failed", zap.String("user_id", request.UserID), zap.Error(err))
	}

	s.notifications.NotifyRideBooked(ctx, ride)

	return ride, nil
}

// VerifyStartOtp moves an arrived ride into Ongoing when the driver
// relays the rider's 4-digit code.
func (s *RideService) VerifyStartOtp(ctx context.Context, rideID, driverID, otp string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID != driverID {
		return nil, ErrNotRideOwner
	}
	if ride.Status == domain.RideStatusOngoing {
		return nil, ErrRideAlreadyStarted
	}
	if ride.Status != domain.RideStatusArrived {
		return nil, ErrInvalidTransition
	}
	if ride.OTP != otp {
		return nil, ErrInvalidOtp
	}

	if err := s.rideRepo.SetStatus(ctx, ride.ID, ride.Status, domain.RideStatusOngoing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	ride.Status = domain.RideStatusOngoing

	s.notifications.NotifyRideStarted(ctx, ride)

	return ride, nil
}

// UpdateStatusRequest contains the parameters for a lifecycle
// transition driven by the driver.
type UpdateStatusRequest struct {
	RideID   string
	DriverID string
	Status   domain.RideStatus
	Location domain.Location // driver's current position
}

// UpdateStatus advances the ride along its lifecycle. Arrived and
// Reached require the driver to be within a kilometer of the pickup or
// destination; Completed settles the ride into the driver and user
// aggregates atomically with the status write.
func (s *RideService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	from, ok := statusTransitions[req.Status]
	if !ok {
		return nil, ErrInvalidTransition
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if ride.DriverID != req.DriverID {
		return nil, ErrNotRideOwner
	}
	if ride.Status != from {
		return nil, ErrInvalidTransition
	}

	switch req.Status {
	case domain.RideStatusArrived:
		if haversineKm(req.Location, ride.Pickup) > proximityRadiusKm {
			return nil, ErrOutOfRange
		}
	case domain.RideStatusReached:
		if haversineKm(req.Location, ride.Destination) > proximityRadiusKm {
			return nil, ErrOutOfRange
		}
	}

	if req.Status == domain.RideStatusCompleted {
		err = runTx(ctx, s.db, s.fallbackRepos(), func(r repos) error {
			if txErr := r.rides.SetStatus(ctx, ride.ID, from, domain.RideStatusCompleted); txErr != nil {
				return txErr
			}
			if txErr := r.drivers.ApplyCompletionStats(ctx, ride.DriverID, ride.TotalFare, ride.PlatformShare); txErr != nil {
				return txErr
			}
			return r.users.ApplyCompletionStats(ctx, ride.UserID)
		})
	} else {
		err = s.rideRepo.SetStatus(ctx, ride.ID, from, req.Status)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	ride.Status = req.Status

	if req.Status == domain.RideStatusCompleted {
		s.settleDeferredSuspension(ctx, ride.DriverID)
	}

	s.notifications.NotifyRideStatus(ctx, ride, req.Status)

	return ride, nil
}

// CancelRideRequest contains the parameters for cancelling a ride.
type CancelRideRequest struct {
	RideID            string
	CancelledBy       string // rider's user id
	Reason            string
	TravelledDistance float64
	Location          domain.Location
	District          string
}

// Cancel terminates a non-terminal ride. Only the rider may cancel.
// The fare is recomputed over the distance actually travelled; the
// unused part of the pre-funded platform share goes back to the
// driver's wallet in the same transaction that writes the terminal
// status.
func (s *RideService) Cancel(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if req.CancelledBy != ride.UserID {
		return nil, ErrNotRideOwner
	}
	if ride.Status.Terminal() {
		return nil, ErrRideNotCancellable
	}

	status := domain.RideStatusCancelled
	if ride.Status == domain.RideStatusOngoing {
		status = domain.RideStatusCancelledMidway
	}

	driver, err := s.driverRepo.GetByID(ctx, ride.DriverID)
	if err != nil {
		return nil, err
	}

	// Settle only what was actually travelled.
	var partial domain.FareBreakdown
	if req.TravelledDistance > 0 {
		quote, err := s.fareService.Quote(ctx, driver.VehicleType, req.District, req.TravelledDistance)
		if err != nil {
			return nil, err
		}
		partial = quote.Breakdown
	}

	refund := ride.PlatformShare - partial.PlatformShare
	if refund < 0 {
		refund = 0
	}

	details := &domain.CancelDetails{
		CancelledBy:       "user",
		Reason:            req.Reason,
		TotalFare:         partial.TotalFare,
		DriverEarnings:    partial.DriverEarnings,
		PlatformShare:     partial.PlatformShare,
		RefundedAmount:    refund,
		TravelledDistance: req.TravelledDistance,
		Location:          req.Location,
		CancelledAt:       s.now(),
	}

	err = runTx(ctx, s.db, s.fallbackRepos(), func(r repos) error {
		// MarkCancelled goes first: its status predicate is what makes
		// a concurrent double cancel refund only once.
		if txErr := r.rides.MarkCancelled(ctx, ride.ID, status, details); txErr != nil {
			return txErr
		}
		if refund > 0 {
			if _, txErr := creditWithEntry(ctx, r.wallets, ride.DriverID, refund, domain.ActionRefund, ride.ID); txErr != nil {
				return txErr
			}
		}
		if txErr := r.drivers.ApplyCancellationStats(ctx, ride.DriverID, partial.TotalFare, partial.PlatformShare); txErr != nil {
			return txErr
		}
		return r.users.ApplyCancellationStats(ctx, ride.UserID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotCancellable
		}
		return nil, err
	}

	ride.Status = status
	ride.Cancel = details

	s.settleDeferredSuspension(ctx, ride.DriverID)

	if refund > 0 {
		s.notifications.NotifyWalletRefunded(ctx, ride.DriverID, ride.ID, refund)
	}
	s.notifications.NotifyRideCancelled(ctx, ride, req.CancelledBy, req.Reason)

	return ride, nil
}

// RateRideRequest contains the parameters for rating a finished ride.
type RateRideRequest struct {
	RideID  string
	RaterID string
	Rating  float64
}

// Rate records one side's rating of the other for a completed ride.
// Each side rates at most once; the counterpart's running average and
// the ride's combined rating update alongside.
func (s *RideService) Rate(ctx context.Context, req RateRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrInvalidTransition
	}

	switch req.RaterID {
	case ride.UserID:
		if err := s.rideRepo.SetUserRating(ctx, ride.ID, req.Rating); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAlreadyRated
			}
			return nil, err
		}
		ride.UserRating = req.Rating
		if err := s.driverRepo.ApplyRating(ctx, ride.DriverID, req.Rating); err != nil {
			s.logger.Error("driver rating aggregate failed", zap.String("driver_id", ride.DriverID), zap.Error(err))
		}
	case ride.DriverID:
		if err := s.rideRepo.SetDriverRating(ctx, ride.ID, req.Rating); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAlreadyRated
			}
			return nil, err
		}
		ride.DriverRating = req.Rating
		if err := s.userRepo.ApplyRating(ctx, ride.UserID, req.Rating); err != nil {
			s.logger.Error("user rating aggregate failed", zap.String("user_id", ride.UserID), zap.Error(err))
		}
	default:
		return nil, ErrNotRideOwner
	}

	combined := combinedRating(ride.UserRating, ride.DriverRating)
	if combined > 0 {
		if err := s.rideRepo.SetCombinedRating(ctx, ride.ID, combined); err != nil {
			s.logger.Error("combined rating write failed", zap.String("ride_id", ride.ID), zap.Error(err))
		} else {
			ride.Rating = combined
		}
	}

	return ride, nil
}

// GetRide retrieves a ride by id for one of its participants.
func (s *RideService) GetRide(ctx context.Context, rideID, callerID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if callerID != ride.UserID && callerID != ride.DriverID {
		return nil, ErrNotRideOwner
	}

	return ride, nil
}

// ListUserRides returns the rider's ride history, newest first.
func (s *RideService) ListUserRides(ctx context.Context, userID string) ([]*domain.Ride, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	return s.rideRepo.GetAllByUserID(ctx, userID)
}

// ActiveRideForUser returns the rider's in-flight ride, or nil.
func (s *RideService) ActiveRideForUser(ctx context.Context, userID string) (*domain.Ride, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ride, err := s.rideRepo.GetActiveByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return ride, err
}

// ActiveRideForDriver returns the driver's in-flight ride, or nil.
func (s *RideService) ActiveRideForDriver(ctx context.Context, driverID string) (*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetActiveByDriverID(ctx, driverID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return ride, err
}

// settleDeferredSuspension applies a queued suspension after the ride
// that was shielding it reaches a terminal state.
func (s *RideService) settleDeferredSuspension(ctx context.Context, driverID string) {
	applied, err := s.driverRepo.ApplyDeferredSuspension(ctx, driverID)
	if err != nil {
		s.logger.Error("deferred suspension failed", zap.String("driver_id", driverID), zap.Error(err))
		return
	}
	if applied {
		s.notifications.NotifyDriverSuspended(ctx, driverID)
	}
}

func combinedRating(userRating, driverRating float64) float64 {
	switch {
	case userRating > 0 && driverRating > 0:
		return (userRating + driverRating) / 2
	case userRating > 0:
		return userRating
	default:
		return driverRating
	}
}

func newRideOtp() string {
	return fmt.Sprintf("%04d", rand.IntN(10000))
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(a, b domain.Location) float64 {
	const earthRadiusKm = 6371.0

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
