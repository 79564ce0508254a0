package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"cab/internal/domain"
	"cab/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment.
// The unique index on booking_id turns a second settlement into ErrAlreadySettled.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, payment_type, amount, status, details, message, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	details, err := json.Marshal(payment.Details)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Method,
		payment.Amount,
		payment.Status,
		details,
		payment.Message,
		payment.SettledAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrAlreadySettled
		}
		return err
	}

	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `
		SELECT id, booking_id, payment_type, amount, status, details, message, settled_at
		FROM payments WHERE id = $1
	`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return payment, nil
}

// GetByBookingID retrieves the payment of a booking.
// Returns nil if the booking has not been settled yet.
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	query := `
		SELECT id, booking_id, payment_type, amount, status, details, message, settled_at
		FROM payments WHERE booking_id = $1
	`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return payment, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	var details []byte

	if err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Method,
		&payment.Amount,
		&payment.Status,
		&details,
		&payment.Message,
		&payment.SettledAt,
	); err != nil {
		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &payment.Details); err != nil {
			return nil, err
		}
	}

	return &payment, nil
}
