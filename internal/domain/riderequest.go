package domain

import "time"

// RideRequestStatus represents the claim state of a ride request.
type RideRequestStatus string

const (
	RequestStatusPending  RideRequestStatus = "pending"
	RequestStatusLocked   RideRequestStatus = "locked"
	RequestStatusAssigned RideRequestStatus = "assigned"
	RequestStatusExpired  RideRequestStatus = "expired"
)

// RideRequest is an ephemeral claim record representing one rider's ride
// intent. The store's conditional update on (status=pending, not expired)
// is the mutual-exclusion primitive that lets exactly one driver win it.
// After ExpiresAt the record is unclaimable regardless of its status field.
type RideRequest struct {
	ID            string
	UniqueRideKey string
	UserID        string
	Status        RideRequestStatus
	AcceptedBy    string // driver id, set only while locked/assigned
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the request's claim window has passed.
func (r *RideRequest) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
