package domain

import "time"

// BookingStatus represents the lifecycle status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// IsOpen reports whether the booking still holds its vehicle.
func (s BookingStatus) IsOpen() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Booking binds a rider, a vehicle, a fare and a payment outcome.
// VehicleID, Fare and CarbonSaved never change after creation.
type Booking struct {
	ID             string
	RiderID        string
	VehicleID      string
	Pickup         string
	Drop           string
	Distance       float64
	Fare           float64
	Status         BookingStatus
	EcoRide        bool
	CarbonSaved    float64 // kg CO2
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	PaymentDetails string
	CreatedAt      time.Time
}
