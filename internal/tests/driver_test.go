package tests

import (
	"context"
	"errors"
	"testing"

	"starkride/internal/domain"
	"starkride/internal/service"
)

func newDriverFixture() (*service.DriverService, *MockDriverRepository, *MockWalletRepository, *MockRideRepository) {
	driverRepo := NewMockDriverRepository()
	walletRepo := NewMockWalletRepository()
	rideRepo := NewMockRideRepository()
	svc := service.NewDriverService(driverRepo, walletRepo, rideRepo)
	return svc, driverRepo, walletRepo, rideRepo
}

func TestDriver_RegisterCreatesWallet(t *testing.T) {
	ctx := context.Background()
	svc, _, walletRepo, _ := newDriverFixture()

	driver, err := svc.Register(ctx, service.RegisterDriverRequest{
		Name:        "Asha",
		VehicleType: domain.VehicleAuto,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if driver.Status != domain.DriverStatusInactive {
		t.Errorf("expected new driver inactive, got %s", driver.Status)
	}
	if !driver.IsApproved {
		t.Error("expected new driver approved")
	}

	wallet, err := walletRepo.GetByDriverID(ctx, driver.ID)
	if err != nil {
		t.Fatalf("expected a wallet to exist: %v", err)
	}
	if wallet.Balance != 0 {
		t.Errorf("expected empty wallet, got %d", wallet.Balance)
	}
}

func TestDriver_GoingActiveNeedsFundedWallet(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, walletRepo, _ := newDriverFixture()

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusInactive})
	walletRepo.SetBalance("driver-1", 0)

	_, err := svc.UpdateWorkingStatus(ctx, "driver-1", domain.DriverStatusActive)
	if !errors.Is(err, service.ErrLowBalance) {
		t.Fatalf("expected ErrLowBalance, got %v", err)
	}

	walletRepo.SetBalance("driver-1", 50)
	driver, err := svc.UpdateWorkingStatus(ctx, "driver-1", domain.DriverStatusActive)
	if err != nil {
		t.Fatalf("expected funded driver to go active: %v", err)
	}
	if driver.Status != domain.DriverStatusActive {
		t.Errorf("expected active, got %s", driver.Status)
	}
}

func TestDriver_StatusChangeBlockedByActiveRide(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, walletRepo, rideRepo := newDriverFixture()

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusActive})
	walletRepo.SetBalance("driver-1", 100)
	rideRepo.AddRide(&domain.Ride{
		ID:       "ride-1",
		UserID:   "user-1",
		DriverID: "driver-1",
		Status:   domain.RideStatusOngoing,
	})

	_, err := svc.UpdateWorkingStatus(ctx, "driver-1", domain.DriverStatusInactive)
	if !errors.Is(err, service.ErrActiveRide) {
		t.Errorf("expected ErrActiveRide, got %v", err)
	}

	// Setting the current status again is a no-op even mid-ride.
	driver, err := svc.UpdateWorkingStatus(ctx, "driver-1", domain.DriverStatusActive)
	if err != nil {
		t.Fatalf("expected same-status call to pass: %v", err)
	}
	if driver.Status != domain.DriverStatusActive {
		t.Errorf("expected active, got %s", driver.Status)
	}
}
