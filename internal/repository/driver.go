package repository

import (
	"context"

	"cab/internal/domain"
)

// DriverRepository defines the lookup operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
}
