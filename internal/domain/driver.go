package domain

// DriverStatus represents a driver's availability.
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
)

// VehicleType enumerates supported vehicle classes.
type VehicleType string

const (
	VehicleAuto      VehicleType = "Auto"
	VehicleHatchback VehicleType = "Hatchback"
	VehicleSedan     VehicleType = "Sedan"
	VehicleSuv       VehicleType = "Suv"
)

// Driver carries the subset of driver state the ride and wallet core
// touches. The counters are denormalized aggregates maintained with
// conditional updates alongside ride transitions; the ride history is the
// source of truth.
type Driver struct {
	ID          string
	Name        string
	VehicleType VehicleType
	Status      DriverStatus

	IsApproved        bool
	PendingSuspension bool

	Ratings      float64 // running average
	TotalRatings int64

	TotalEarning int64
	TotalShare   int64
	TotalRides   int64
	PendingRides int64
	CancelRides  int64
}
