package domain

// Driver represents a driver assigned to a vehicle.
type Driver struct {
	ID     string
	Name   string
	Phone  string
	Rating float64
}
