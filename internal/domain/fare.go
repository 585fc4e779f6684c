package domain

// DefaultDistrict is the fallback district row used when no exact
// (vehicle type, district) fare config exists.
const DefaultDistrict = "Default"

// Fare is the pricing configuration for one vehicle type in one district.
// Read-only from the core's perspective.
type Fare struct {
	ID              string
	VehicleType     VehicleType
	District        string
	BaseFare        float64
	BaseFareUptoKm  float64
	PerKmRate       float64
	PerMinRate      float64
	MinFare         float64
	SurgeMultiplier float64
}

// FareBreakdown is the settlement result of one fare computation.
// DriverEarnings + PlatformShare == TotalFare always holds.
type FareBreakdown struct {
	TotalFare      int64 // what the rider pays, tax included
	PlatformShare  int64 // platform fee + tax, pre-funded by the driver
	DriverEarnings int64
}
