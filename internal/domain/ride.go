package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusBooked          RideStatus = "Booked"
	RideStatusProcessing      RideStatus = "Processing"
	RideStatusArrived         RideStatus = "Arrived"
	RideStatusOngoing         RideStatus = "Ongoing"
	RideStatusReached         RideStatus = "Reached"
	RideStatusCompleted       RideStatus = "Completed"
	RideStatusCancelled       RideStatus = "Cancelled"
	RideStatusCancelledMidway RideStatus = "Cancelled-Midway"
)

// Terminal reports whether a ride in this status can no longer transition.
func (s RideStatus) Terminal() bool {
	switch s {
	case RideStatusCompleted, RideStatusCancelled, RideStatusCancelledMidway:
		return true
	}
	return false
}

// Location is a named coordinate.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// CancelDetails is populated only when a ride is cancelled. It snapshots
// the fare breakdown recomputed at cancel time alongside the refund that
// was returned to the driver's wallet.
type CancelDetails struct {
	CancelledBy       string // always "user"; cancellation is rider-only
	Reason            string
	TotalFare         int64
	DriverEarnings    int64
	PlatformShare     int64
	RefundedAmount    int64
	TravelledDistance float64
	Location          Location
	CancelledAt       time.Time
}

// Ride is one accepted ride. UserID and DriverID never change after
// creation; Status only moves forward along the lifecycle graph, plus the
// cancel edges out of any non-terminal state.
type Ride struct {
	ID             string
	UserID         string
	DriverID       string
	TotalFare      int64
	DriverEarnings int64
	PlatformShare  int64
	Status         RideStatus
	OTP            string // 4-digit ride-start code
	Pickup         Location
	Destination    Location
	DistanceKm     float64

	// Ratings: 0 means not yet rated. Rating is the mean of the sides
	// that have rated so far.
	UserRating   float64
	DriverRating float64
	Rating       float64

	Cancel    *CancelDetails
	CreatedAt time.Time
	UpdatedAt time.Time
}
