package tests

import (
	"testing"
	"time"

	"cab/internal/domain"
	"cab/internal/service"
)

const testRiderID = "rider-1"

// fixture wires the booking service over in-memory mocks.
type fixture struct {
	riders    *MockRiderRepository
	drivers   *MockDriverRepository
	vehicles  *MockVehicleRepository
	bookings  *MockBookingRepository
	payments  *MockPaymentRepository
	recorder  *MockSettlementRecorder
	lockStore *MockLockStore
	sink      *RecordingAuditSink
	notifier  *MockNotifier

	allocator      *service.VehicleAllocator
	scheduler      *service.SettlementScheduler
	bookingService *service.BookingService
}

// fastSettlement runs settlement without the grace interval.
var fastSettlement = service.SettlementConfig{
	Grace:   -1,
	Timeout: 2 * time.Second,
}

func newFixture(t *testing.T, cfg service.SettlementConfig) *fixture {
	t.Helper()

	f := &fixture{
		riders:    NewMockRiderRepository(),
		drivers:   NewMockDriverRepository(),
		vehicles:  NewMockVehicleRepository(),
		bookings:  NewMockBookingRepository(),
		payments:  NewMockPaymentRepository(),
		lockStore: NewMockLockStore(),
		sink:      NewRecordingAuditSink(),
		notifier:  &MockNotifier{},
	}
	f.recorder = NewMockSettlementRecorder(f.bookings, f.payments)

	f.riders.AddRider(&domain.Rider{ID: testRiderID, Name: "John Doe", Email: "john@example.com"})

	f.allocator = service.NewVehicleAllocator(f.vehicles, f.lockStore)
	f.scheduler = service.NewSettlementScheduler(
		f.bookings, f.recorder, service.NewPaymentStrategies(nil), f.lockStore, f.notifier, nil, cfg,
	)
	f.bookingService = service.NewBookingService(
		f.riders, f.vehicles, f.drivers, f.bookings, f.payments,
		f.allocator, f.scheduler, f.notifier, f.sink,
	)

	t.Cleanup(f.scheduler.Wait)

	return f
}

// addVehicle adds an available vehicle with its driver.
func (f *fixture) addVehicle(id string, rate float64, electric bool) {
	driverID := "driver-" + id
	f.drivers.AddDriver(&domain.Driver{ID: driverID, Name: "Driver " + id, Rating: 4.5})
	f.vehicles.AddVehicle(&domain.Vehicle{
		ID:        id,
		Number:    "KA-01-" + id,
		Type:      domain.VehicleTypeSedan,
		RatePerKm: rate,
		Electric:  electric,
		Seats:     4,
		Available: true,
		DriverID:  driverID,
	})
}

func cardRequest(distance float64, number string) service.CreateBookingRequest {
	return service.CreateBookingRequest{
		RiderID:       testRiderID,
		Pickup:        "MG Road",
		Drop:          "Airport",
		Distance:      distance,
		PaymentMethod: "CARD",
		PaymentDetails: domain.PaymentDetails{
			Card: &domain.CardDetails{Number: number, CardType: "CREDIT", BankName: "HDFC"},
		},
	}
}

func cashRequest(distance, received float64) service.CreateBookingRequest {
	return service.CreateBookingRequest{
		RiderID:       testRiderID,
		Pickup:        "MG Road",
		Drop:          "Airport",
		Distance:      distance,
		PaymentMethod: "CASH",
		PaymentDetails: domain.PaymentDetails{
			Cash: &domain.CashDetails{ReceivedAmount: received},
		},
	}
}

func upiRequest(distance float64, upiID string) service.CreateBookingRequest {
	return service.CreateBookingRequest{
		RiderID:       testRiderID,
		Pickup:        "MG Road",
		Drop:          "Airport",
		Distance:      distance,
		PaymentMethod: "UPI",
		PaymentDetails: domain.PaymentDetails{
			UPI: &domain.UPIDetails{UPIID: upiID, Provider: "PhonePe"},
		},
	}
}

func approxEqual(a, b float64) bool {
	const epsilon = 1e-9
	d := a - b
	return d < epsilon && d > -epsilon
}
