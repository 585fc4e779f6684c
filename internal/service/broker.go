package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// DefaultClaimWindow is how long a ride request stays claimable.
const DefaultClaimWindow = 60 * time.Second

// RideRequestService brokers ride requests between riders and drivers.
// The claim itself is a conditional update in the store; this service
// only classifies the outcome and enforces eligibility around it.
type RideRequestService struct {
	requestRepo repository.RideRequestRepository
	rideRepo    repository.RideRepository
	driverRepo  repository.DriverRepository
	claimWindow time.Duration
	now         func() time.Time
}

// NewRideRequestService creates a new RideRequestService.
func NewRideRequestService(
	requestRepo repository.RideRequestRepository,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	claimWindow time.Duration,
) *RideRequestService {
	if claimWindow <= 0 {
		claimWindow = DefaultClaimWindow
	}
	return &RideRequestService{
		requestRepo: requestRepo,
		rideRepo:    rideRepo,
		driverRepo:  driverRepo,
		claimWindow: claimWindow,
		now:         time.Now,
	}
}

// CreateRequestRequest contains the parameters for opening a ride request.
type CreateRequestRequest struct {
	UserID        string
	UniqueRideKey string // optional; generated when empty
}

// CreateRequest opens a new claimable ride request for the rider. A
// rider can hold at most one open request and no active ride.
func (s *RideRequestService) CreateRequest(ctx context.Context, req CreateRequestRequest) (*domain.RideRequest, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}

	now := s.now()

	if _, err := s.requestRepo.FindActiveByUser(ctx, req.UserID, now); err == nil {
		return nil, ErrActiveRequest
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if _, err := s.rideRepo.GetActiveByUserID(ctx, req.UserID); err == nil {
		return nil, ErrActiveRequest
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	key := req.UniqueRideKey
	if key == "" {
		key = uuid.New().String()
	}

	request := &domain.RideRequest{
		ID:            uuid.New().String(),
		UniqueRideKey: key,
		UserID:        req.UserID,
		Status:        domain.RequestStatusPending,
		ExpiresAt:     now.Add(s.claimWindow),
		CreatedAt:     now,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	return request, nil
}

// Claim locks a pending request for the driver. Exactly one of any set
// of concurrent claimers wins; the losers learn why they lost.
func (s *RideRequestService) Claim(ctx context.Context, uniqueRideKey, driverID string) (*domain.RideRequest, error) {
	if uniqueRideKey == "" {
		return nil, ErrInvalidRideKey
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if _, err := s.rideRepo.GetActiveByDriverID(ctx, driverID); err == nil {
		return nil, ErrActiveRide
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := s.now()

	request, err := s.requestRepo.Claim(ctx, uniqueRideKey, driverID, now)
	if err == nil {
		return request, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	return nil, s.classifyLostClaim(ctx, uniqueRideKey, driverID, now)
}

// classifyLostClaim turns a zero-row claim into the reason it matched
// nothing. The request may keep moving underneath us; the answer is
// best-effort but always one of the claim errors.
func (s *RideRequestService) classifyLostClaim(ctx context.Context, uniqueRideKey, driverID string, now time.Time) error {
	request, err := s.requestRepo.GetByKey(ctx, uniqueRideKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRequestExpired
		}
		return err
	}

	if request.Expired(now) || request.Status == domain.RequestStatusExpired {
		return ErrRequestExpired
	}

	switch request.Status {
	case domain.RequestStatusAssigned:
		return ErrAlreadyAssigned
	case domain.RequestStatusLocked:
		return ErrLockedByOther
	default:
		// Pending again: released between our claim and this read.
		return ErrLockedByOther
	}
}

// GetByKey retrieves a request by its unique ride key.
func (s *RideRequestService) GetByKey(ctx context.Context, uniqueRideKey string) (*domain.RideRequest, error) {
	if uniqueRideKey == "" {
		return nil, ErrInvalidRideKey
	}

	request, err := s.requestRepo.GetByKey(ctx, uniqueRideKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestExpired
		}
		return nil, err
	}
	return request, nil
}

// Release puts a locked request back into the pool. Called when the
// winning driver cannot complete ride creation.
func (s *RideRequestService) Release(ctx context.Context, requestID string) error {
	err := s.requestRepo.Release(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		// Already released, expired or assigned; nothing to undo.
		return nil
	}
	return err
}

// Expire closes the rider's own pending request. Requests that a driver
// has already locked or assigned are left alone.
func (s *RideRequestService) Expire(ctx context.Context, uniqueRideKey, userID string) error {
	if uniqueRideKey == "" {
		return ErrInvalidRideKey
	}
	if userID == "" {
		return ErrInvalidUserID
	}

	return s.requestRepo.Expire(ctx, uniqueRideKey, userID)
}
