package service

import "errors"

var (
	// ErrNoVehicleAvailable is returned when no vehicle can be allocated.
	ErrNoVehicleAvailable = errors.New("no cabs available at the moment")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidPickupLocation is returned when the pickup location is missing.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDropLocation is returned when the drop location is missing.
	ErrInvalidDropLocation = errors.New("invalid drop location")

	// ErrInvalidDistance is returned when distance is missing or not positive.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrInvalidPaymentMethod is returned when payment method is not UPI, CARD or CASH.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrBookingNotOpen is returned when a completed or cancelled booking is transitioned again.
	ErrBookingNotOpen = errors.New("booking is not open")

	// ErrSettlementInProgress is returned when a booking is already being settled.
	ErrSettlementInProgress = errors.New("settlement already in progress")

	// ErrSchedulerClosed is returned when settlement is submitted after shutdown.
	ErrSchedulerClosed = errors.New("settlement scheduler closed")
)
