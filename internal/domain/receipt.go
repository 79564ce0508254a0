package domain

import "time"

// Receipt is the printable summary of a booking and its payment.
type Receipt struct {
	BookingID      string
	RiderName      string
	VehicleNumber  string
	VehicleType    VehicleType
	DriverName     string
	Pickup         string
	Drop           string
	Distance       float64
	Fare           float64
	EcoRide        bool
	CarbonSaved    float64
	BookingStatus  BookingStatus
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	PaymentMessage string
	Reference      string // transaction id, auth code or cash receipt number
	BookedAt       time.Time
	IssuedAt       time.Time
}
