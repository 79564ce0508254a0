// Package audit emits one append-only line per committed booking.
package audit

import (
	"context"
	"fmt"
	"time"
)

// Sink receives audit lines. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, line string) error
	Close() error
}

// Entry holds the fields written for a committed booking.
type Entry struct {
	Timestamp   time.Time
	BookingID   string
	RiderName   string
	Pickup      string
	Drop        string
	Distance    float64
	Fare        float64
	VehicleID   string
	EcoRide     bool
	CarbonSaved float64
}

// Line renders the entry as a single audit line without a trailing newline.
func (e Entry) Line() string {
	eco := "NO"
	if e.EcoRide {
		eco = "YES"
	}
	return fmt.Sprintf(
		"[%s] Booking #%s | User: %s | From: %s | To: %s | Distance: %.2f km | Fare: %.2f | Cab: %s | EcoRide: %s | Carbon Saved: %.2f kg",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.BookingID,
		e.RiderName,
		e.Pickup,
		e.Drop,
		e.Distance,
		e.Fare,
		e.VehicleID,
		eco,
		e.CarbonSaved,
	)
}

// NopSink discards every line.
type NopSink struct{}

func (NopSink) Append(context.Context, string) error { return nil }
func (NopSink) Close() error                         { return nil }
