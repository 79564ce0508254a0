package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"cab/internal/domain"
	"cab/internal/repository"
)

// RiderRepository implements repository.RiderRepository using PostgreSQL.
type RiderRepository struct {
	q Querier
}

// NewRiderRepository creates a new RiderRepository.
func NewRiderRepository(db *sql.DB) *RiderRepository {
	return &RiderRepository{q: db}
}

// Create persists a new rider.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `
		INSERT INTO riders (id, name, email, phone, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`
	_, err := r.q.ExecContext(ctx, query, rider.ID, rider.Name, rider.Email, rider.Phone, rider.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

// GetAll retrieves all riders ordered by name.
func (r *RiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	query := `SELECT id, name, email, COALESCE(phone, ''), created_at FROM riders ORDER BY name, id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*domain.Rider
	for rows.Next() {
		var rider domain.Rider
		if err := rows.Scan(&rider.ID, &rider.Name, &rider.Email, &rider.Phone, &rider.CreatedAt); err != nil {
			return nil, err
		}
		riders = append(riders, &rider)
	}

	return riders, rows.Err()
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	query := `SELECT id, name, email, COALESCE(phone, ''), created_at FROM riders WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a rider by email address.
func (r *RiderRepository) GetByEmail(ctx context.Context, email string) (*domain.Rider, error) {
	query := `SELECT id, name, email, COALESCE(phone, ''), created_at FROM riders WHERE email = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, email))
}

func (r *RiderRepository) scanOne(row *sql.Row) (*domain.Rider, error) {
	var rider domain.Rider
	err := row.Scan(&rider.ID, &rider.Name, &rider.Email, &rider.Phone, &rider.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rider, nil
}
