package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cab/internal/domain"
	"cab/internal/repository"
)

const vehicleColumns = `id, cab_number, cab_type, rate_per_km, is_electric, seats, is_available, driver_id`

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	var v domain.Vehicle
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Number, &v.Type, &v.RatePerKm, &v.Electric, &v.Seats, &v.Available, &v.DriverID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &v, nil
}

// GetAll retrieves all vehicles ordered by ID.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY id`
	return r.query(ctx, query)
}

// FindAvailable retrieves available vehicles ordered by ID.
func (r *VehicleRepository) FindAvailable(ctx context.Context, electricOnly bool) ([]*domain.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE is_available = TRUE AND (is_electric = TRUE OR NOT $1)
		ORDER BY id
	`
	return r.query(ctx, query, electricOnly)
}

// MarkUnavailable flips availability from true to false.
// The WHERE clause makes this a compare-and-set, so two callers racing for
// the same vehicle cannot both succeed.
func (r *VehicleRepository) MarkUnavailable(ctx context.Context, id string) (bool, error) {
	query := `UPDATE vehicles SET is_available = FALSE WHERE id = $1 AND is_available = TRUE`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// MarkAvailable returns a vehicle to the pool.
func (r *VehicleRepository) MarkAvailable(ctx context.Context, id string) error {
	query := `UPDATE vehicles SET is_available = TRUE WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *VehicleRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Vehicle, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(
			&v.ID, &v.Number, &v.Type, &v.RatePerKm, &v.Electric, &v.Seats, &v.Available, &v.DriverID,
		); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &v)
	}
	return vehicles, rows.Err()
}
