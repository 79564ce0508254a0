package repository

import (
	"context"

	"cab/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetAll retrieves all vehicles ordered by ID.
	GetAll(ctx context.Context) ([]*domain.Vehicle, error)

	// FindAvailable retrieves available vehicles ordered by ID.
	// When electricOnly is set only electric vehicles are returned.
	FindAvailable(ctx context.Context, electricOnly bool) ([]*domain.Vehicle, error)

	// MarkUnavailable flips availability from true to false.
	// Returns false if the vehicle was already unavailable.
	MarkUnavailable(ctx context.Context, id string) (bool, error)

	// MarkAvailable returns a vehicle to the pool.
	MarkAvailable(ctx context.Context, id string) error
}
