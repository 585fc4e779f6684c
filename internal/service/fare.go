package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"starkride/internal/domain"
	"starkride/internal/repository"
)

const (
	taxRate         = 0.05 // rider-paid tax on the surged base fare
	platformFeeRate = 0.10 // operator fee on the surged base fare
)

// roundHalfUp rounds to the nearest integer currency unit, halves up.
// Applied at each labeled step of the fare formula so settlement amounts
// are reproducible bit-for-bit.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// ComputeFare derives the settlement breakdown for one ride from a fare
// config and the trip distance.
//
// rawFare covers baseFareUptoKm; beyond that each km bills at perKmRate.
// The surge multiplier applies to the raw fare, the 5% tax is paid by the
// rider on top, and the platform keeps the 10% fee plus the tax. Driver
// earnings are whatever remains of the rider's total.
func ComputeFare(fare *domain.Fare, distanceKm float64) domain.FareBreakdown {
	rawFare := fare.BaseFare
	if distanceKm > fare.BaseFareUptoKm {
		rawFare += (distanceKm - fare.BaseFareUptoKm) * fare.PerKmRate
	}

	surged := roundHalfUp(rawFare * fare.SurgeMultiplier)
	if min := roundHalfUp(fare.MinFare); surged < min {
		surged = min
	}

	taxAmount := roundHalfUp(float64(surged) * taxRate)
	userPayable := surged + taxAmount
	platformFee := roundHalfUp(float64(surged) * platformFeeRate)
	platformShare := platformFee + taxAmount

	return domain.FareBreakdown{
		TotalFare:      userPayable,
		PlatformShare:  platformShare,
		DriverEarnings: userPayable - platformShare,
	}
}

// FareService looks up fare configuration and computes quotes. The
// config rows are read-only here; admin CRUD goes through the same
// service.
type FareService struct {
	fareRepo repository.FareRepository
}

// NewFareService creates a new FareService.
func NewFareService(fareRepo repository.FareRepository) *FareService {
	return &FareService{fareRepo: fareRepo}
}

// GetFare returns the fare config for the vehicle type and district,
// falling back to the Default district row.
func (s *FareService) GetFare(ctx context.Context, vehicleType domain.VehicleType, district string) (*domain.Fare, error) {
	fare, err := s.fareRepo.Get(ctx, vehicleType, district)
	if err == nil {
		return fare, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	fare, err = s.fareRepo.Get(ctx, vehicleType, domain.DefaultDistrict)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFareNotFound
		}
		return nil, err
	}
	return fare, nil
}

// QuoteResult is the outcome of a fare quote.
type QuoteResult struct {
	Breakdown domain.FareBreakdown
	Fare      *domain.Fare
}

// Quote computes the fare breakdown for a prospective ride.
func (s *FareService) Quote(ctx context.Context, vehicleType domain.VehicleType, district string, distanceKm float64) (*QuoteResult, error) {
	fare, err := s.GetFare(ctx, vehicleType, district)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		Breakdown: ComputeFare(fare, distanceKm),
		Fare:      fare,
	}, nil
}

// CreateFareRequest contains the parameters for creating a fare row.
type CreateFareRequest struct {
	VehicleType     domain.VehicleType
	District        string
	BaseFare        float64
	BaseFareUptoKm  float64
	PerKmRate       float64
	PerMinRate      float64
	MinFare         float64
	SurgeMultiplier float64
}

// CreateFare adds a new fare config row.
func (s *FareService) CreateFare(ctx context.Context, req CreateFareRequest) (*domain.Fare, error) {
	district := req.District
	if district == "" {
		district = domain.DefaultDistrict
	}
	surge := req.SurgeMultiplier
	if surge <= 0 {
		surge = 1
	}

	fare := &domain.Fare{
		ID:              uuid.New().String(),
		VehicleType:     req.VehicleType,
		District:        district,
		BaseFare:        req.BaseFare,
		BaseFareUptoKm:  req.BaseFareUptoKm,
		PerKmRate:       req.PerKmRate,
		PerMinRate:      req.PerMinRate,
		MinFare:         req.MinFare,
		SurgeMultiplier: surge,
	}

	if err := s.fareRepo.Create(ctx, fare); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrFareExists
		}
		return nil, err
	}

	return fare, nil
}

// UpdateFare overwrites the pricing fields of an existing row.
func (s *FareService) UpdateFare(ctx context.Context, req CreateFareRequest) (*domain.Fare, error) {
	district := req.District
	if district == "" {
		district = domain.DefaultDistrict
	}

	existing, err := s.fareRepo.Get(ctx, req.VehicleType, district)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFareNotFound
		}
		return nil, err
	}

	if req.BaseFare > 0 {
		existing.BaseFare = req.BaseFare
	}
	if req.BaseFareUptoKm > 0 {
		existing.BaseFareUptoKm = req.BaseFareUptoKm
	}
	if req.PerKmRate > 0 {
		existing.PerKmRate = req.PerKmRate
	}
	if req.PerMinRate > 0 {
		existing.PerMinRate = req.PerMinRate
	}
	if req.MinFare > 0 {
		existing.MinFare = req.MinFare
	}
	if req.SurgeMultiplier > 0 {
		existing.SurgeMultiplier = req.SurgeMultiplier
	}

	if err := s.fareRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

// ListFares returns all fare config rows.
func (s *FareService) ListFares(ctx context.Context) ([]*domain.Fare, error) {
	return s.fareRepo.GetAll(ctx)
}
