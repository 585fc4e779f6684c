package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"starkride/internal/domain"
	"starkride/internal/service"
)

func newBrokerFixture() (*service.RideRequestService, *MockRideRequestRepository, *MockRideRepository) {
	requestRepo := NewMockRideRequestRepository()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	svc := service.NewRideRequestService(requestRepo, rideRepo, driverRepo, time.Minute)
	return svc, requestRepo, rideRepo
}

func TestBroker_CreateRequest(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newBrokerFixture()

	request, err := svc.CreateRequest(ctx, service.CreateRequestRequest{UserID: "user-1"})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if request.Status != domain.RequestStatusPending {
		t.Errorf("expected pending status, got %s", request.Status)
	}
	if request.UniqueRideKey == "" {
		t.Error("expected a generated ride key")
	}
	if !request.ExpiresAt.After(request.CreatedAt) {
		t.Error("expected a future expiry")
	}
}

func TestBroker_OneOpenRequestPerRider(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newBrokerFixture()

	if _, err := svc.CreateRequest(ctx, service.CreateRequestRequest{UserID: "user-1"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.CreateRequest(ctx, service.CreateRequestRequest{UserID: "user-1"})
	if !errors.Is(err, service.ErrActiveRequest) {
		t.Errorf("expected ErrActiveRequest, got %v", err)
	}
}

func TestBroker_CreateBlockedByActiveRide(t *testing.T) {
	ctx := context.Background()
	svc, _, rideRepo := newBrokerFixture()

	rideRepo.AddRide(&domain.Ride{
		ID:       "ride-1",
		UserID:   "user-1",
		DriverID: "driver-9",
		Status:   domain.RideStatusOngoing,
	})

	_, err := svc.CreateRequest(ctx, service.CreateRequestRequest{UserID: "user-1"})
	if !errors.Is(err, service.ErrActiveRequest) {
		t.Errorf("expected ErrActiveRequest while a ride is in flight, got %v", err)
	}
}

func TestBroker_DuplicateRideKey(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newBrokerFixture()

	if _, err := svc.CreateRequest(ctx, service.CreateRequestRequest{UserID: "user-1", UniqueRideKey: "key-1"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.CreateRequest(ctx, service.CreateRequestRequest{UserID: "user-2", UniqueRideKey: "key-1"})
	if !errors.Is(err, service.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestBroker_ConcurrentClaimsOneWinner(t *testing.T) {
	ctx := context.Background()
	svc, requestRepo, _ := newBrokerFixture()

	requestRepo.AddRequest(&domain.RideRequest{
		ID:            "req-1",
		UniqueRideKey: "key-1",
		UserID:        "user-1",
		Status:        domain.RequestStatusPending,
		ExpiresAt:     time.Now().Add(time.Minute),
		CreatedAt:     time.Now(),
	})

	const drivers = 25
	var wg sync.WaitGroup
	winners := make(chan string, drivers)

	for i := 0; i < drivers; i++ {
		driverID := fmt.Sprintf("driver-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			request, err := svc.Claim(ctx, "key-1", driverID)
			if err == nil {
				winners <- request.AcceptedBy
				return
			}
			if !errors.Is(err, service.ErrLockedByOther) && !errors.Is(err, service.ErrAlreadyAssigned) && !errors.Is(err, service.ErrRequestExpired) {
				t.Errorf("driver %s: unexpected claim error: %v", driverID, err)
			}
		}()
	}
	wg.Wait()
	close(winners)

	var winnerIDs []string
	for w := range winners {
		winnerIDs = append(winnerIDs, w)
	}
	if len(winnerIDs) != 1 {
		t.Fatalf("expected exactly one winning claim, got %d", len(winnerIDs))
	}

	stored := requestRepo.GetRequest("key-1")
	if stored.Status != domain.RequestStatusLocked {
		t.Errorf("expected locked status, got %s", stored.Status)
	}
	if stored.AcceptedBy != winnerIDs[0] {
		t.Errorf("stored driver %s does not match winner %s", stored.AcceptedBy, winnerIDs[0])
	}
}

func TestBroker_ClaimExpiredRequest(t *testing.T) {
	ctx := context.Background()
	svc, requestRepo, _ := newBrokerFixture()

	requestRepo.AddRequest(&domain.RideRequest{
		ID:            "req-1",
		UniqueRideKey: "key-1",
		UserID:        "user-1",
		Status:        domain.RequestStatusPending,
		ExpiresAt:     time.Now().Add(-time.Second),
		CreatedAt:     time.Now().Add(-2 * time.Minute),
	})

	_, err := svc.Claim(ctx, "key-1", "driver-1")
	if !errors.Is(err, service.ErrRequestExpired) {
		t.Errorf("expected ErrRequestExpired, got %v", err)
	}
}

func TestBroker_ClaimUnknownKey(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newBrokerFixture()

	_, err := svc.Claim(ctx, "no-such-key", "driver-1")
	if !errors.Is(err, service.ErrRequestExpired) {
		t.Errorf("expected ErrRequestExpired for unknown key, got %v", err)
	}
}

func TestBroker_ClaimAssignedRequest(t *testing.T) {
	ctx := context.Background()
	svc, requestRepo, _ := newBrokerFixture()

	requestRepo.AddRequest(&domain.RideRequest{
		ID:            "req-1",
		UniqueRideKey: "key-1",
		UserID:        "user-1",
		Status:        domain.RequestStatusAssigned,
		AcceptedBy:    "driver-2",
		ExpiresAt:     time.Now().Add(time.Minute),
	})

	_, err := svc.Claim(ctx, "key-1", "driver-1")
	if !errors.Is(err, service.ErrAlreadyAssigned) {
		t.Errorf("expected ErrAlreadyAssigned, got %v", err)
	}
}

func TestBroker_ClaimBlockedByActiveRide(t *testing.T) {
	ctx := context.Background()
	svc, requestRepo, rideRepo := newBrokerFixture()

	requestRepo.AddRequest(&domain.RideRequest{
		ID:            "req-1",
		UniqueRideKey: "key-1",
		UserID:        "user-1",
		Status:        domain.RequestStatusPending,
		ExpiresAt:     time.Now().Add(time.Minute),
	})
	rideRepo.AddRide(&domain.Ride{
		ID:       "ride-1",
		UserID:   "user-2",
		DriverID: "driver-1",
		Status:   domain.RideStatusOngoing,
	})

	_, err := svc.Claim(ctx, "key-1", "driver-1")
	if !errors.Is(err, service.ErrActiveRide) {
		t.Errorf("expected ErrActiveRide, got %v", err)
	}
}

func TestBroker_ReleaseMakesRequestClaimableAgain(t *testing.T) {
	ctx := context.Background()
	svc, requestRepo, _ := newBrokerFixture()

	requestRepo.AddRequest(&domain.RideRequest{
		ID:            "req-1",
		UniqueRideKey: "key-1",
		UserID:        "user-1",
		Status:        domain.RequestStatusPending,
		ExpiresAt:     time.Now().Add(time.Minute),
	})

	if _, err := svc.Claim(ctx, "key-1", "driver-1"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	if err := svc.Release(ctx, "req-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	request, err := svc.Claim(ctx, "key-1", "driver-2")
	if err != nil {
		t.Fatalf("reclaim after release failed: %v", err)
	}
	if request.AcceptedBy != "driver-2" {
		t.Errorf("expected driver-2 to hold the claim, got %s", request.AcceptedBy)
	}

	// Releasing an already-released request is a no-op.
	if err := svc.Release(ctx, "no-such-request"); err != nil {
		t.Errorf("expected nil releasing unknown request, got %v", err)
	}
}

func TestBroker_ExpireLeavesLockedRequestsAlone(t *testing.T) {
	ctx := context.Background()
	svc, requestRepo, _ := newBrokerFixture()

	requestRepo.AddRequest(&domain.RideRequest{
		ID:            "req-1",
		UniqueRideKey: "key-1",
		UserID:        "user-1",
		Status:        domain.RequestStatusLocked,
		AcceptedBy:    "driver-1",
		ExpiresAt:     time.Now().Add(time.Minute),
	})

	if err := svc.Expire(ctx, "key-1", "user-1"); err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	stored := requestRepo.GetRequest("key-1")
	if stored.Status != domain.RequestStatusLocked {
		t.Errorf("expected locked request to survive expire, got %s", stored.Status)
	}
}
