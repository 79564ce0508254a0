package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cab/internal/domain"
	"cab/internal/repository"
)

const bookingColumns = `id, rider_id, vehicle_id, pickup_location, drop_location, distance, fare, status, eco_ride, carbon_saved, payment_method, payment_status, payment_details, created_at`

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	var paymentDetails sql.NullString
	if booking.PaymentDetails != "" {
		paymentDetails = sql.NullString{String: booking.PaymentDetails, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.RiderID,
		booking.VehicleID,
		booking.Pickup,
		booking.Drop,
		booking.Distance,
		booking.Fare,
		booking.Status,
		booking.EcoRide,
		booking.CarbonSaved,
		booking.PaymentMethod,
		booking.PaymentStatus,
		paymentDetails,
		booking.CreatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return booking, nil
}

// GetByRiderID retrieves all bookings of a rider, newest first.
func (r *BookingRepository) GetByRiderID(ctx context.Context, riderID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE rider_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, riderID)
}

// GetAll retrieves all bookings, newest first.
func (r *BookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	return r.query(ctx, query)
}

// UpdateStatus moves a booking from one status to another.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	query := `UPDATE bookings SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// UpdatePaymentResult writes the settlement outcome onto a booking.
// Only a PENDING payment status can be overwritten.
func (r *BookingRepository) UpdatePaymentResult(ctx context.Context, id string, status domain.PaymentStatus, details string) error {
	query := `
		UPDATE bookings
		SET payment_status = $1, payment_details = $2
		WHERE id = $3 AND payment_status = $4
	`

	result, err := r.q.ExecContext(ctx, query, status, details, id, domain.PaymentStatusPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrAlreadySettled
	}

	return nil
}

func (r *BookingRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var paymentDetails sql.NullString

	if err := row.Scan(
		&booking.ID,
		&booking.RiderID,
		&booking.VehicleID,
		&booking.Pickup,
		&booking.Drop,
		&booking.Distance,
		&booking.Fare,
		&booking.Status,
		&booking.EcoRide,
		&booking.CarbonSaved,
		&booking.PaymentMethod,
		&booking.PaymentStatus,
		&paymentDetails,
		&booking.CreatedAt,
	); err != nil {
		return nil, err
	}

	if paymentDetails.Valid {
		booking.PaymentDetails = paymentDetails.String
	}

	return &booking, nil
}
