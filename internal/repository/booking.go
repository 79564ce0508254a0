package repository

import (
	"context"

	"cab/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByRiderID retrieves all bookings of a rider, newest first.
	GetByRiderID(ctx context.Context, riderID string) ([]*domain.Booking, error)

	// GetAll retrieves all bookings, newest first.
	GetAll(ctx context.Context) ([]*domain.Booking, error)

	// UpdateStatus moves a booking from one status to another.
	// Returns false if the booking was not in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error)

	// UpdatePaymentResult writes the settlement outcome onto a booking.
	// Returns ErrAlreadySettled if the payment status is no longer PENDING.
	UpdatePaymentResult(ctx context.Context, id string, status domain.PaymentStatus, details string) error
}
