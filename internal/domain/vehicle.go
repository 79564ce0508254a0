package domain

// VehicleType represents the category of a vehicle.
type VehicleType string

const (
	VehicleTypeSedan     VehicleType = "SEDAN"
	VehicleTypeSUV       VehicleType = "SUV"
	VehicleTypeHatchback VehicleType = "HATCHBACK"
)

// Vehicle represents a cab in the shared pool.
//
// Available is only flipped by the allocator. A vehicle with Available=false
// is bound to exactly one open booking.
type Vehicle struct {
	ID        string
	Number    string
	Type      VehicleType
	RatePerKm float64
	Electric  bool
	Seats     int
	Available bool
	DriverID  string
}
