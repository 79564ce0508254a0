package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"cab/internal/domain"
)

type seedVehicle struct {
	number    string
	cabType   domain.VehicleType
	ratePerKm float64
	electric  bool
	seats     int
}

type seedDriver struct {
	name    string
	phone   string
	rating  float64
	vehicle seedVehicle
}

var seedRiders = []domain.Rider{
	{Name: "John Doe", Email: "john@example.com", Phone: "9876543210"},
	{Name: "Jane Smith", Email: "jane@example.com", Phone: "9876543211"},
	{Name: "Mike Johnson", Email: "mike@example.com", Phone: "9876543212"},
}

var seedFleet = []seedDriver{
	{"Rajesh Kumar", "9123456780", 4.8, seedVehicle{"KA-01-AB-1234", domain.VehicleTypeSedan, 12, false, 4}},
	{"Suresh Patel", "9123456781", 4.6, seedVehicle{"KA-01-EV-5678", domain.VehicleTypeSedan, 14, true, 4}},
	{"Amit Singh", "9123456782", 4.9, seedVehicle{"KA-02-CD-9012", domain.VehicleTypeSUV, 18, false, 6}},
	{"Priya Sharma", "9123456783", 4.7, seedVehicle{"KA-03-EV-3456", domain.VehicleTypeHatchback, 10, true, 4}},
}

// Seed inserts demo riders, drivers and vehicles into an empty database.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rider := range seedRiders {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO riders (id, name, email, phone) VALUES ($1, $2, $3, $4) ON CONFLICT (email) DO NOTHING`,
			uuid.New().String(), rider.Name, rider.Email, rider.Phone,
		)
		if err != nil {
			return fmt.Errorf("seed rider %s: %w", rider.Email, err)
		}
	}

	for _, d := range seedFleet {
		driverID := uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO drivers (id, name, phone, rating) VALUES ($1, $2, $3, $4)`,
			driverID, d.name, d.phone, d.rating,
		)
		if err != nil {
			return fmt.Errorf("seed driver %s: %w", d.name, err)
		}

		v := d.vehicle
		_, err = tx.ExecContext(ctx,
			`INSERT INTO vehicles (id, cab_number, cab_type, rate_per_km, is_electric, seats, is_available, driver_id)
			 VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)`,
			uuid.New().String(), v.number, v.cabType, v.ratePerKm, v.electric, v.seats, driverID,
		)
		if err != nil {
			return fmt.Errorf("seed vehicle %s: %w", v.number, err)
		}
	}

	err = tx.Commit()
	return err
}
