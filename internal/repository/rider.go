package repository

import (
	"context"

	"cab/internal/domain"
)

// RiderRepository defines the persistence operations for riders.
type RiderRepository interface {
	// Create persists a new rider. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, rider *domain.Rider) error

	// GetAll retrieves all riders ordered by name.
	GetAll(ctx context.Context) ([]*domain.Rider, error)

	// GetByID retrieves a rider by ID.
	GetByID(ctx context.Context, id string) (*domain.Rider, error)

	// GetByEmail retrieves a rider by email address.
	GetByEmail(ctx context.Context, email string) (*domain.Rider, error)
}
