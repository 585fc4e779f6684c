package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

// DriverService handles driver onboarding and availability.
type DriverService struct {
	driverRepo repository.DriverRepository
	walletRepo repository.WalletRepository
	rideRepo   repository.RideRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	driverRepo repository.DriverRepository,
	walletRepo repository.WalletRepository,
	rideRepo repository.RideRepository,
) *DriverService {
	return &DriverService{
		driverRepo: driverRepo,
		walletRepo: walletRepo,
		rideRepo:   rideRepo,
	}
}

// RegisterDriverRequest contains the parameters for creating a driver.
type RegisterDriverRequest struct {
	Name        string
	VehicleType domain.VehicleType
}

// Register creates a new driver with an empty wallet. Drivers start
// inactive and approved.
func (s *DriverService) Register(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	driver := &domain.Driver{
		ID:          uuid.New().String(),
		Name:        req.Name,
		VehicleType: req.VehicleType,
		Status:      domain.DriverStatusInactive,
		IsApproved:  true,
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	if err := s.walletRepo.Create(ctx, driver.ID); err != nil {
		return nil, err
	}

	return driver, nil
}

// GetProfile retrieves a driver by id.
func (s *DriverService) GetProfile(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.driverRepo.GetByID(ctx, driverID)
}

// UpdateWorkingStatus flips the driver between active and inactive.
// Going active needs a funded wallet; neither direction is allowed
// while a ride is in flight.
func (s *DriverService) UpdateWorkingStatus(ctx context.Context, driverID string, status domain.DriverStatus) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if driver.Status == status {
		return driver, nil
	}

	if _, err := s.rideRepo.GetActiveByDriverID(ctx, driverID); err == nil {
		return nil, ErrActiveRide
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if status == domain.DriverStatusActive {
		wallet, err := s.walletRepo.GetByDriverID(ctx, driverID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if wallet == nil || wallet.Balance <= 0 {
			return nil, ErrLowBalance
		}
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, status); err != nil {
		return nil, err
	}

	driver.Status = status
	return driver, nil
}
