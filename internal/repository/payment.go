package repository

import (
	"context"

	"cab/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment. A booking has at most one payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByBookingID retrieves the payment of a booking.
	// Returns nil if the booking has not been settled yet.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)
}

// SettlementRecorder persists a settlement outcome atomically.
type SettlementRecorder interface {
	// RecordSettlement creates the payment and writes its status and message
	// onto the booking in one step. Returns ErrAlreadySettled if the booking's
	// payment is no longer PENDING.
	RecordSettlement(ctx context.Context, payment *domain.Payment) error
}
