package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"starkride/internal/domain"
	"starkride/internal/service"
)

type rideFixture struct {
	svc         *service.RideService
	rideRepo    *MockRideRepository
	requestRepo *MockRideRequestRepository
	walletRepo  *MockWalletRepository
	driverRepo  *MockDriverRepository
	userRepo    *MockUserRepository
	notifier    *MockNotifier
}

func newRideFixture() *rideFixture {
	f := &rideFixture{
		rideRepo:    NewMockRideRepository(),
		requestRepo: NewMockRideRequestRepository(),
		walletRepo:  NewMockWalletRepository(),
		driverRepo:  NewMockDriverRepository(),
		userRepo:    NewMockUserRepository(),
		notifier:    NewMockNotifier(),
	}

	f.driverRepo.AddDriver(&domain.Driver{
		ID:          "driver-1",
		Name:        "Asha",
		VehicleType: domain.VehicleSedan,
		Status:      domain.DriverStatusActive,
		IsApproved:  true,
	})
	f.userRepo.AddUser(&domain.User{ID: "user-1", Name: "Ravi"})

	fareRepo := NewMockFareRepository()
	fareRepo.AddFare(standardFare())

	logger := zap.NewNop()
	notifications := service.NewNotificationService(f.notifier, logger)
	f.svc = service.NewRideService(
		nil, f.rideRepo, f.requestRepo, f.walletRepo,
		f.driverRepo, f.userRepo,
		service.NewFareService(fareRepo), notifications, logger,
	)
	return f
}

func (f *rideFixture) addLockedRequest(key, userID, driverID string) {
	f.requestRepo.AddRequest(&domain.RideRequest{
		ID:            "req-" + key,
		UniqueRideKey: key,
		UserID:        userID,
		Status:        domain.RequestStatusLocked,
		AcceptedBy:    driverID,
		ExpiresAt:     time.Now().Add(time.Minute),
		CreatedAt:     time.Now(),
	})
}

var (
	pickupLoc      = domain.Location{Name: "Pickup", Latitude: 12.9716, Longitude: 77.5946}
	destinationLoc = domain.Location{Name: "Drop", Latitude: 12.9352, Longitude: 77.6245}
	farAwayLoc     = domain.Location{Name: "Elsewhere", Latitude: 13.1, Longitude: 77.9}
)

func (f *rideFixture) createRide(t *testing.T) *domain.Ride {
	t.Helper()
	f.addLockedRequest("key-1", "user-1", "driver-1")
	f.walletRepo.SetBalance("driver-1", 500)

	ride, err := f.svc.CreateRide(context.Background(), service.CreateRideRequest{
		DriverID:      "driver-1",
		UniqueRideKey: "key-1",
		Pickup:        pickupLoc,
		Destination:   destinationLoc,
		DistanceKm:    10,
	})
	if err != nil {
		t.Fatalf("create ride failed: %v", err)
	}
	return ride
}

func TestRide_CreateDebitsPlatformShare(t *testing.T) {
	f := newRideFixture()
	ride := f.createRide(t)

	// 10km on the standard fare: total 179, share 26, earnings 153.
	if ride.TotalFare != 179 || ride.PlatformShare != 26 || ride.DriverEarnings != 153 {
		t.Errorf("unexpected fare breakdown: total %d share %d earnings %d",
			ride.TotalFare, ride.PlatformShare, ride.DriverEarnings)
	}
	if ride.Status != domain.RideStatusBooked {
		t.Errorf("expected Booked, got %s", ride.Status)
	}
	if len(ride.OTP) != 4 {
		t.Errorf("expected a 4-digit otp, got %q", ride.OTP)
	}

	// The share came out of the wallet and the ledger entry points back
	// at the ride.
	if got := f.walletRepo.Balance("driver-1"); got != 474 {
		t.Errorf("expected balance 474, got %d", got)
	}
	entries, _ := f.walletRepo.ListEntries(context.Background(), "driver-1")
	if len(entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(entries))
	}
	if entries[0].Action != domain.ActionPlatformFee || entries[0].ReferenceID != ride.ID {
		t.Errorf("expected platform_fee entry referencing %s, got %+v", ride.ID, entries[0])
	}

	// The request is assigned and both pending counters moved.
	if got := f.requestRepo.GetRequest("key-1").Status; got != domain.RequestStatusAssigned {
		t.Errorf("expected assigned request, got %s", got)
	}
	if got := f.driverRepo.GetDriver("driver-1").PendingRides; got != 1 {
		t.Errorf("expected driver pending 1, got %d", got)
	}
	if got := f.userRepo.GetUser("user-1").PendingRides; got != 1 {
		t.Errorf("expected user pending 1, got %d", got)
	}
	if got := f.notifier.CountByType(service.NotificationRideBooked); got != 1 {
		t.Errorf("expected one booked notification, got %d", got)
	}
}

func TestRide_CreateInsufficientFundsReleasesClaim(t *testing.T) {
	f := newRideFixture()
	f.addLockedRequest("key-1", "user-1", "driver-1")
	f.walletRepo.SetBalance("driver-1", 10)

	_, err := f.svc.CreateRide(context.Background(), service.CreateRideRequest{
		DriverID:      "driver-1",
		UniqueRideKey: "key-1",
		DistanceKm:    10,
	})
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// The claim went back into the pool for other drivers.
	stored := f.requestRepo.GetRequest("key-1")
	if stored.Status != domain.RequestStatusPending {
		t.Errorf("expected released request, got %s", stored.Status)
	}
	if stored.AcceptedBy != "" {
		t.Errorf("expected cleared driver, got %s", stored.AcceptedBy)
	}
	if got := f.walletRepo.Balance("driver-1"); got != 10 {
		t.Errorf("expected untouched balance, got %d", got)
	}
}

func TestRide_CreateInsertFailureReleasesClaim(t *testing.T) {
	f := newRideFixture()
	f.addLockedRequest("key-1", "user-1", "driver-1")
	f.walletRepo.SetBalance("driver-1", 500)
	f.rideRepo.CreateError = errors.New("insert failed")

	_, err := f.svc.CreateRide(context.Background(), service.CreateRideRequest{
		DriverID:      "driver-1",
		UniqueRideKey: "key-1",
		DistanceKm:    10,
	})
	if err == nil {
		t.Fatal("expected create to fail")
	}

	// Any booking failure after the claim puts the request back into
	// the pool, not just an unfunded wallet.
	stored := f.requestRepo.GetRequest("key-1")
	if stored.Status != domain.RequestStatusPending {
		t.Errorf("expected released request, got %s", stored.Status)
	}
	if stored.AcceptedBy != "" {
		t.Errorf("expected cleared driver, got %s", stored.AcceptedBy)
	}
}

func TestRide_CreateRequiresOwnClaim(t *testing.T) {
	f := newRideFixture()
	f.addLockedRequest("key-1", "user-1", "driver-2")

	_, err := f.svc.CreateRide(context.Background(), service.CreateRideRequest{
		DriverID:      "driver-1",
		UniqueRideKey: "key-1",
		DistanceKm:    10,
	})
	if !errors.Is(err, service.ErrLockedByOther) {
		t.Errorf("expected ErrLockedByOther, got %v", err)
	}
}

func TestRide_StartRequiresOtp(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	// Drive the ride to Arrived first.
	if _, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusProcessing,
	}); err != nil {
		t.Fatalf("processing failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusArrived, Location: pickupLoc,
	}); err != nil {
		t.Fatalf("arrived failed: %v", err)
	}

	// Wrong code is rejected.
	wrongOtp := "0000"
	if wrongOtp == ride.OTP {
		wrongOtp = "0001"
	}
	if _, err := f.svc.VerifyStartOtp(ctx, ride.ID, "driver-1", wrongOtp); !errors.Is(err, service.ErrInvalidOtp) {
		t.Errorf("expected ErrInvalidOtp, got %v", err)
	}

	// Another driver cannot start the ride.
	if _, err := f.svc.VerifyStartOtp(ctx, ride.ID, "driver-2", ride.OTP); !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}

	started, err := f.svc.VerifyStartOtp(ctx, ride.ID, "driver-1", ride.OTP)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != domain.RideStatusOngoing {
		t.Errorf("expected Ongoing, got %s", started.Status)
	}

	// Starting again reports the ride is already underway.
	if _, err := f.svc.VerifyStartOtp(ctx, ride.ID, "driver-1", ride.OTP); !errors.Is(err, service.ErrRideAlreadyStarted) {
		t.Errorf("expected ErrRideAlreadyStarted, got %v", err)
	}
}

func TestRide_StatusTransitionsEnforced(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	// Booked cannot jump to Completed or Reached.
	for _, status := range []domain.RideStatus{domain.RideStatusCompleted, domain.RideStatusReached} {
		if _, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
			RideID: ride.ID, DriverID: "driver-1", Status: status, Location: destinationLoc,
		}); !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition for %s from Booked, got %v", status, err)
		}
	}

	// Ongoing is never settable directly.
	if _, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusOngoing,
	}); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for direct Ongoing, got %v", err)
	}
}

func TestRide_ArrivedRequiresProximity(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	if _, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusProcessing,
	}); err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	_, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusArrived, Location: farAwayLoc,
	})
	if !errors.Is(err, service.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange far from pickup, got %v", err)
	}
}

func TestRide_CompletionSettlesAggregates(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	steps := []service.UpdateStatusRequest{
		{RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusProcessing},
		{RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusArrived, Location: pickupLoc},
	}
	for _, step := range steps {
		if _, err := f.svc.UpdateStatus(ctx, step); err != nil {
			t.Fatalf("transition to %s failed: %v", step.Status, err)
		}
	}
	if _, err := f.svc.VerifyStartOtp(ctx, ride.ID, "driver-1", ride.OTP); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusReached, Location: destinationLoc,
	}); err != nil {
		t.Fatalf("reached failed: %v", err)
	}
	completed, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusCompleted,
	})
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if completed.Status != domain.RideStatusCompleted {
		t.Errorf("expected Completed, got %s", completed.Status)
	}

	driver := f.driverRepo.GetDriver("driver-1")
	if driver.TotalRides != 1 || driver.PendingRides != 0 {
		t.Errorf("expected driver totals 1/0, got %d/%d", driver.TotalRides, driver.PendingRides)
	}
	if driver.TotalEarning != ride.TotalFare || driver.TotalShare != ride.PlatformShare {
		t.Errorf("expected earning %d share %d, got %d/%d",
			ride.TotalFare, ride.PlatformShare, driver.TotalEarning, driver.TotalShare)
	}

	user := f.userRepo.GetUser("user-1")
	if user.TotalRides != 1 || user.PendingRides != 0 {
		t.Errorf("expected user totals 1/0, got %d/%d", user.TotalRides, user.PendingRides)
	}
}

func TestRide_CancelBeforeStartRefundsFullShare(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	balanceBefore := f.walletRepo.Balance("driver-1")

	cancelled, err := f.svc.Cancel(ctx, service.CancelRideRequest{
		RideID:      ride.ID,
		CancelledBy: "user-1",
		Reason:      "changed plans",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected Cancelled, got %s", cancelled.Status)
	}
	if cancelled.Cancel == nil || cancelled.Cancel.CancelledBy != "user" {
		t.Errorf("expected user cancel snapshot, got %+v", cancelled.Cancel)
	}
	if cancelled.Cancel.RefundedAmount != ride.PlatformShare {
		t.Errorf("expected full refund %d, got %d", ride.PlatformShare, cancelled.Cancel.RefundedAmount)
	}

	if got := f.walletRepo.Balance("driver-1"); got != balanceBefore+ride.PlatformShare {
		t.Errorf("expected refunded balance %d, got %d", balanceBefore+ride.PlatformShare, got)
	}
	if got := f.driverRepo.GetDriver("driver-1").CancelRides; got != 1 {
		t.Errorf("expected driver cancel count 1, got %d", got)
	}
	if got := f.notifier.CountByType(service.NotificationRideCancelled); got != 1 {
		t.Errorf("expected one cancelled notification, got %d", got)
	}
}

func TestRide_CancelMidwayKeepsTravelledShare(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	// Walk the ride into Ongoing.
	for _, step := range []service.UpdateStatusRequest{
		{RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusProcessing},
		{RideID: ride.ID, DriverID: "driver-1", Status: domain.RideStatusArrived, Location: pickupLoc},
	} {
		if _, err := f.svc.UpdateStatus(ctx, step); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
	}
	if _, err := f.svc.VerifyStartOtp(ctx, ride.ID, "driver-1", ride.OTP); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// 4km travelled on the standard fare: raw 80, tax 4, fee 8, share 12.
	cancelled, err := f.svc.Cancel(ctx, service.CancelRideRequest{
		RideID:            ride.ID,
		CancelledBy:       "user-1",
		Reason:            "emergency",
		TravelledDistance: 4,
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelledMidway {
		t.Errorf("expected Cancelled-Midway, got %s", cancelled.Status)
	}
	if cancelled.Cancel.PlatformShare != 12 {
		t.Errorf("expected travelled share 12, got %d", cancelled.Cancel.PlatformShare)
	}
	if want := ride.PlatformShare - 12; cancelled.Cancel.RefundedAmount != want {
		t.Errorf("expected refund %d, got %d", want, cancelled.Cancel.RefundedAmount)
	}
}

func TestRide_ConcurrentCancelRefundsOnce(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	balanceBefore := f.walletRepo.Balance("driver-1")

	const attempts = 8
	var wg sync.WaitGroup
	outcomes := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Cancel(ctx, service.CancelRideRequest{
				RideID:      ride.ID,
				CancelledBy: "user-1",
			})
			outcomes <- err
		}()
	}
	wg.Wait()
	close(outcomes)

	var successes int
	for err := range outcomes {
		if err == nil {
			successes++
		} else if !errors.Is(err, service.ErrRideNotCancellable) {
			t.Fatalf("unexpected cancel error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful cancel, got %d", successes)
	}

	if got := f.walletRepo.Balance("driver-1"); got != balanceBefore+ride.PlatformShare {
		t.Errorf("expected a single refund, balance %d vs expected %d", got, balanceBefore+ride.PlatformShare)
	}
}

func TestRide_CancelTerminalRideRejected(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	if _, err := f.svc.Cancel(ctx, service.CancelRideRequest{RideID: ride.ID, CancelledBy: "user-1"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err := f.svc.Cancel(ctx, service.CancelRideRequest{RideID: ride.ID, CancelledBy: "user-1"})
	if !errors.Is(err, service.ErrRideNotCancellable) {
		t.Errorf("expected ErrRideNotCancellable, got %v", err)
	}
}

func TestRide_CancelRestrictedToRider(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)
	balanceBefore := f.walletRepo.Balance("driver-1")

	_, err := f.svc.Cancel(ctx, service.CancelRideRequest{RideID: ride.ID, CancelledBy: "driver-1"})
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Fatalf("expected ErrNotRideOwner for the driver, got %v", err)
	}

	// The ride and the wallet are untouched by the rejected attempt.
	stored, err := f.svc.GetRide(ctx, ride.ID, "user-1")
	if err != nil {
		t.Fatalf("get ride failed: %v", err)
	}
	if stored.Status != domain.RideStatusBooked {
		t.Errorf("expected Booked, got %s", stored.Status)
	}
	if got := f.walletRepo.Balance("driver-1"); got != balanceBefore {
		t.Errorf("expected untouched balance %d, got %d", balanceBefore, got)
	}

	cancelled, err := f.svc.Cancel(ctx, service.CancelRideRequest{RideID: ride.ID, CancelledBy: "user-1"})
	if err != nil {
		t.Fatalf("rider cancel failed: %v", err)
	}
	if cancelled.Cancel == nil || cancelled.Cancel.CancelledBy != "user" {
		t.Errorf("expected user cancel snapshot, got %+v", cancelled.Cancel)
	}
}

func TestRide_RatingOncePerSide(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()

	f.rideRepo.AddRide(&domain.Ride{
		ID:       "ride-1",
		UserID:   "user-1",
		DriverID: "driver-1",
		Status:   domain.RideStatusCompleted,
	})

	rated, err := f.svc.Rate(ctx, service.RateRideRequest{RideID: "ride-1", RaterID: "user-1", Rating: 5})
	if err != nil {
		t.Fatalf("user rating failed: %v", err)
	}
	if rated.Rating != 5 {
		t.Errorf("expected combined rating 5, got %f", rated.Rating)
	}

	if _, err := f.svc.Rate(ctx, service.RateRideRequest{RideID: "ride-1", RaterID: "user-1", Rating: 4}); !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got %v", err)
	}

	rated, err = f.svc.Rate(ctx, service.RateRideRequest{RideID: "ride-1", RaterID: "driver-1", Rating: 3})
	if err != nil {
		t.Fatalf("driver rating failed: %v", err)
	}
	if rated.Rating != 4 {
		t.Errorf("expected combined rating 4, got %f", rated.Rating)
	}

	// Both counterpart aggregates moved.
	if got := f.driverRepo.GetDriver("driver-1").Ratings; got != 5 {
		t.Errorf("expected driver average 5, got %f", got)
	}
	if got := f.userRepo.GetUser("user-1").Ratings; got != 3 {
		t.Errorf("expected user average 3, got %f", got)
	}

	// Outsiders cannot rate, and the scale is enforced.
	if _, err := f.svc.Rate(ctx, service.RateRideRequest{RideID: "ride-1", RaterID: "someone", Rating: 5}); !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
	if _, err := f.svc.Rate(ctx, service.RateRideRequest{RideID: "ride-1", RaterID: "driver-1", Rating: 6}); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
}

func TestRide_RatingRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	_, err := f.svc.Rate(ctx, service.RateRideRequest{RideID: ride.ID, RaterID: "user-1", Rating: 5})
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition before completion, got %v", err)
	}
}

func TestRide_DeferredSuspensionAppliedOnce(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()
	ride := f.createRide(t)

	// A suspension queued mid-ride waits for the terminal transition.
	driver := f.driverRepo.GetDriver("driver-1")
	driver.PendingSuspension = true
	f.driverRepo.AddDriver(driver)

	if _, err := f.svc.Cancel(ctx, service.CancelRideRequest{RideID: ride.ID, CancelledBy: "user-1"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	updated := f.driverRepo.GetDriver("driver-1")
	if updated.IsApproved {
		t.Error("expected the suspension to be applied")
	}
	if updated.PendingSuspension {
		t.Error("expected the pending flag to clear")
	}
	if got := f.notifier.CountByType(service.NotificationDriverSuspended); got != 1 {
		t.Errorf("expected one suspension notification, got %d", got)
	}
}

func TestRide_ActiveRideLookups(t *testing.T) {
	ctx := context.Background()
	f := newRideFixture()

	// Nothing in flight returns nil without an error.
	ride, err := f.svc.ActiveRideForUser(ctx, "user-1")
	if err != nil || ride != nil {
		t.Fatalf("expected nil/nil, got %v/%v", ride, err)
	}

	created := f.createRide(t)

	ride, err = f.svc.ActiveRideForUser(ctx, "user-1")
	if err != nil || ride == nil || ride.ID != created.ID {
		t.Fatalf("expected active ride %s for user, got %v/%v", created.ID, ride, err)
	}
	ride, err = f.svc.ActiveRideForDriver(ctx, "driver-1")
	if err != nil || ride == nil || ride.ID != created.ID {
		t.Fatalf("expected active ride %s for driver, got %v/%v", created.ID, ride, err)
	}

	// Only participants may read a ride.
	if _, err := f.svc.GetRide(ctx, created.ID, "someone-else"); !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
}
