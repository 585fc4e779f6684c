package tests

import (
	"context"
	"errors"
	"testing"

	"starkride/internal/domain"
	"starkride/internal/service"
)

func standardFare() *domain.Fare {
	return &domain.Fare{
		ID:              "fare-1",
		VehicleType:     domain.VehicleSedan,
		District:        domain.DefaultDistrict,
		BaseFare:        50,
		BaseFareUptoKm:  2,
		PerKmRate:       15,
		MinFare:         30,
		SurgeMultiplier: 1,
	}
}

func TestComputeFare_Breakdown(t *testing.T) {
	// base 50 covering 2km, 15/km beyond, 10km trip:
	// raw = 50 + 8*15 = 170, tax 9, payable 179, fee 17, share 26.
	breakdown := service.ComputeFare(standardFare(), 10)

	if breakdown.TotalFare != 179 {
		t.Errorf("expected total fare 179, got %d", breakdown.TotalFare)
	}
	if breakdown.PlatformShare != 26 {
		t.Errorf("expected platform share 26, got %d", breakdown.PlatformShare)
	}
	if breakdown.DriverEarnings != 153 {
		t.Errorf("expected driver earnings 153, got %d", breakdown.DriverEarnings)
	}
}

func TestComputeFare_Deterministic(t *testing.T) {
	fare := standardFare()
	fare.SurgeMultiplier = 1.3

	first := service.ComputeFare(fare, 7.3)
	for i := 0; i < 100; i++ {
		if got := service.ComputeFare(fare, 7.3); got != first {
			t.Fatalf("fare computation not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestComputeFare_ShortTripUsesBaseFare(t *testing.T) {
	// Under the included distance only the base fare applies:
	// raw = 50, tax 3 (2.5 rounds up), payable 53, fee 5, share 8.
	breakdown := service.ComputeFare(standardFare(), 1.5)

	if breakdown.TotalFare != 53 {
		t.Errorf("expected total fare 53, got %d", breakdown.TotalFare)
	}
	if breakdown.PlatformShare != 8 {
		t.Errorf("expected platform share 8, got %d", breakdown.PlatformShare)
	}
}

func TestComputeFare_MinFareFloor(t *testing.T) {
	fare := standardFare()
	fare.BaseFare = 10
	fare.MinFare = 40

	// raw = 10 floors up to 40: tax 2, payable 42, fee 4, share 6.
	breakdown := service.ComputeFare(fare, 1)

	if breakdown.TotalFare != 42 {
		t.Errorf("expected total fare 42, got %d", breakdown.TotalFare)
	}
}

func TestComputeFare_SurgeAppliesBeforeMinFloor(t *testing.T) {
	fare := standardFare()
	fare.BaseFare = 20
	fare.MinFare = 35
	fare.SurgeMultiplier = 2

	// raw 20 surges to 40, above the 35 floor: tax 2, payable 42.
	breakdown := service.ComputeFare(fare, 1)

	if breakdown.TotalFare != 42 {
		t.Errorf("expected total fare 42, got %d", breakdown.TotalFare)
	}
}

func TestComputeFare_SharesAlwaysSumToTotal(t *testing.T) {
	fare := standardFare()

	cases := []struct {
		distance float64
		surge    float64
	}{
		{0.5, 1}, {2, 1}, {2.01, 1}, {10, 1},
		{10, 1.25}, {10, 1.5}, {37.8, 2.0}, {100, 3.7},
	}

	for _, tc := range cases {
		fare.SurgeMultiplier = tc.surge
		breakdown := service.ComputeFare(fare, tc.distance)
		if breakdown.DriverEarnings+breakdown.PlatformShare != breakdown.TotalFare {
			t.Errorf("distance %.2f surge %.2f: earnings %d + share %d != total %d",
				tc.distance, tc.surge, breakdown.DriverEarnings, breakdown.PlatformShare, breakdown.TotalFare)
		}
		if breakdown.TotalFare < 0 || breakdown.PlatformShare < 0 || breakdown.DriverEarnings < 0 {
			t.Errorf("distance %.2f surge %.2f: negative component in %+v", tc.distance, tc.surge, breakdown)
		}
	}
}

func TestFareService_DistrictFallback(t *testing.T) {
	ctx := context.Background()

	fareRepo := NewMockFareRepository()
	fareRepo.AddFare(standardFare())

	downtown := standardFare()
	downtown.ID = "fare-2"
	downtown.District = "Downtown"
	downtown.SurgeMultiplier = 1.5
	fareRepo.AddFare(downtown)

	fareService := service.NewFareService(fareRepo)

	// Exact district match wins.
	quote, err := fareService.Quote(ctx, domain.VehicleSedan, "Downtown", 10)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Fare.District != "Downtown" {
		t.Errorf("expected Downtown fare, got %s", quote.Fare.District)
	}

	// Unknown district falls back to the Default row.
	quote, err = fareService.Quote(ctx, domain.VehicleSedan, "Nowhere", 10)
	if err != nil {
		t.Fatalf("fallback quote failed: %v", err)
	}
	if quote.Fare.District != domain.DefaultDistrict {
		t.Errorf("expected Default fare, got %s", quote.Fare.District)
	}
}

func TestFareService_UnknownVehicleType(t *testing.T) {
	ctx := context.Background()

	fareRepo := NewMockFareRepository()
	fareRepo.AddFare(standardFare())

	fareService := service.NewFareService(fareRepo)

	_, err := fareService.Quote(ctx, domain.VehicleAuto, "Downtown", 10)
	if !errors.Is(err, service.ErrFareNotFound) {
		t.Errorf("expected ErrFareNotFound, got %v", err)
	}
}

func TestFareService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()

	fareRepo := NewMockFareRepository()
	fareService := service.NewFareService(fareRepo)

	req := service.CreateFareRequest{
		VehicleType:    domain.VehicleAuto,
		BaseFare:       30,
		BaseFareUptoKm: 2,
		PerKmRate:      10,
		MinFare:        20,
	}

	fare, err := fareService.CreateFare(ctx, req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if fare.District != domain.DefaultDistrict {
		t.Errorf("expected default district, got %s", fare.District)
	}
	if fare.SurgeMultiplier != 1 {
		t.Errorf("expected surge default 1, got %f", fare.SurgeMultiplier)
	}

	if _, err := fareService.CreateFare(ctx, req); !errors.Is(err, service.ErrFareExists) {
		t.Errorf("expected ErrFareExists, got %v", err)
	}
}
