package domain

// User is a rider. The counters mirror the driver aggregates and follow
// the same conditional-update discipline.
type User struct {
	ID   string
	Name string

	Ratings      float64
	TotalRatings int64

	TotalRides   int64
	PendingRides int64
	CancelRides  int64
}
