package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cab/internal/app"
	"cab/internal/handler"
	"cab/internal/service"
)

// ──────────────────────────────────────────────
// 5. HTTP SURFACE
// ──────────────────────────────────────────────

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(f *fixture) *gin.Engine {
	return app.NewRouter(app.RouterDeps{
		BookingHandler: handler.NewBookingHandler(f.bookingService, service.NewReceiptService()),
		RiderHandler:   handler.NewRiderHandler(f.riders, f.bookingService),
		VehicleHandler: handler.NewVehicleHandler(f.vehicles),
		PaymentHandler: handler.NewPaymentHandler(f.payments),
	})
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func cardBody(distance float64) handler.CreateBookingRequest {
	return handler.CreateBookingRequest{
		RiderID:       testRiderID,
		Pickup:        "MG Road",
		Drop:          "Airport",
		Distance:      distance,
		PaymentMethod: "CARD",
		Card:          &handler.CardRequest{Number: "1234567890123456", CardType: "CREDIT"},
	}
}

func TestHTTP_Health(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	w := doRequest(t, newTestRouter(f), http.MethodGet, "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHTTP_CreateBooking_Created(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	router := newTestRouter(f)

	w := doRequest(t, router, http.MethodPost, "/v1/bookings", cardBody(10))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[handler.BookingResponse](t, w)
	if resp.Status != "CONFIRMED" || resp.PaymentStatus != "PENDING" {
		t.Errorf("expected CONFIRMED/PENDING, got %s/%s", resp.Status, resp.PaymentStatus)
	}
	if resp.VehicleID != "cab-1" || !approxEqual(resp.Fare, 126) {
		t.Errorf("unexpected booking %+v", resp)
	}

	f.scheduler.Wait()

	w = doRequest(t, router, http.MethodGet, "/v1/bookings/"+resp.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[handler.BookingResponse](t, w)
	if got.PaymentStatus != "SUCCESS" {
		t.Errorf("expected SUCCESS after settlement, got %s", got.PaymentStatus)
	}
	if got.Payment == nil || got.Payment.Details.Card == nil || got.Payment.Details.Card.Last4 != "3456" {
		t.Errorf("expected card payment projection, got %+v", got.Payment)
	}
	if got.RiderName != "John Doe" || got.DriverName != "Driver cab-1" {
		t.Errorf("expected rider and driver names, got %q/%q", got.RiderName, got.DriverName)
	}

	w = doRequest(t, router, http.MethodGet, "/v1/payments/"+got.Payment.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for payment, got %d", w.Code)
	}
}

func TestHTTP_CreateEcoBooking(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.addVehicle("cab-2", 10, true)

	w := doRequest(t, newTestRouter(f), http.MethodPost, "/v1/bookings/eco", cardBody(10))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[handler.BookingResponse](t, w)
	if resp.VehicleID != "cab-2" || !resp.EcoRide {
		t.Errorf("expected eco booking on cab-2, got %+v", resp)
	}
}

func TestHTTP_CreateBooking_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		body     any
		vehicles int
		wantCode int
	}{
		{"malformed body", "not-json", 1, http.StatusBadRequest},
		{"zero distance", cardBody(0), 1, http.StatusBadRequest},
		{"unknown method", func() handler.CreateBookingRequest {
			b := cardBody(10)
			b.PaymentMethod = "BITCOIN"
			return b
		}(), 1, http.StatusBadRequest},
		{"unknown rider", func() handler.CreateBookingRequest {
			b := cardBody(10)
			b.RiderID = "nobody"
			return b
		}(), 1, http.StatusNotFound},
		{"no capacity", cardBody(10), 0, http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, fastSettlement)
			if tc.vehicles > 0 {
				f.addVehicle("cab-1", 12, false)
			}

			w := doRequest(t, newTestRouter(f), http.MethodPost, "/v1/bookings", tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			if resp := decode[handler.ErrorResponse](t, w); resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestHTTP_InternalErrorsAreHidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.bookings.CreateError = ErrMockDBUnavailable

	w := doRequest(t, newTestRouter(f), http.MethodPost, "/v1/bookings", cardBody(10))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "mock") {
		t.Errorf("internal error details leaked: %s", w.Body.String())
	}
}

func TestHTTP_CompleteAndCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	router := newTestRouter(f)

	w := doRequest(t, router, http.MethodPost, "/v1/bookings", cardBody(10))
	created := decode[handler.BookingResponse](t, w)

	w = doRequest(t, router, http.MethodPost, "/v1/bookings/"+created.ID+"/cancel", handler.CancelBookingRequest{Reason: "late"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on cancel, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decode[handler.BookingResponse](t, w); resp.Status != "CANCELLED" {
		t.Errorf("expected CANCELLED, got %s", resp.Status)
	}

	w = doRequest(t, router, http.MethodPost, "/v1/bookings/"+created.ID+"/complete", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 completing a cancelled booking, got %d", w.Code)
	}

	w = doRequest(t, router, http.MethodPost, "/v1/bookings/missing/complete", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHTTP_Receipt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	router := newTestRouter(f)

	created := decode[handler.BookingResponse](t, doRequest(t, router, http.MethodPost, "/v1/bookings", cardBody(10)))
	f.scheduler.Wait()

	w := doRequest(t, router, http.MethodGet, "/v1/bookings/"+created.ID+"/receipt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CAB RECEIPT") || !strings.Contains(w.Body.String(), created.ID) {
		t.Errorf("unexpected receipt:\n%s", w.Body.String())
	}
}

func TestHTTP_ListBookings(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.addVehicle("cab-2", 12, false)
	router := newTestRouter(f)

	for i := 0; i < 2; i++ {
		if w := doRequest(t, router, http.MethodPost, "/v1/bookings", cardBody(5)); w.Code != http.StatusCreated {
			t.Fatalf("create %d: %d", i, w.Code)
		}
	}

	all := decode[[]handler.BookingResponse](t, doRequest(t, router, http.MethodGet, "/v1/bookings", nil))
	if len(all) != 2 {
		t.Errorf("expected 2 bookings, got %d", len(all))
	}

	mine := decode[[]handler.BookingResponse](t, doRequest(t, router, http.MethodGet, "/v1/riders/"+testRiderID+"/bookings", nil))
	if len(mine) != 2 {
		t.Errorf("expected 2 rider bookings, got %d", len(mine))
	}
}

func TestHTTP_Vehicles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.addVehicle("cab-2", 10, true)
	f.addVehicle("cab-3", 10, true)
	router := newTestRouter(f)

	if _, err := f.allocator.Allocate(context.Background(), true); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	testCases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?available=true", 2},
		{"?electric=true", 2},
		{"?available=true&electric=true", 1},
	}

	for _, tc := range testCases {
		w := doRequest(t, router, http.MethodGet, "/v1/vehicles"+tc.query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.query, w.Code)
		}
		if got := decode[[]handler.VehicleResponse](t, w); len(got) != tc.want {
			t.Errorf("%s: expected %d vehicles, got %d", tc.query, tc.want, len(got))
		}
	}

	if w := doRequest(t, router, http.MethodGet, "/v1/vehicles?available=maybe", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid filter, got %d", w.Code)
	}
	if w := doRequest(t, router, http.MethodGet, "/v1/vehicles/cab-9", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown vehicle, got %d", w.Code)
	}
}

func TestHTTP_RegisterRider(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	router := newTestRouter(f)

	w := doRequest(t, router, http.MethodPost, "/v1/riders/register", handler.RegisterRequest{Name: "Asha", Email: "Asha@Example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	rider := decode[handler.RiderResponse](t, w)
	if rider.Email != "asha@example.com" {
		t.Errorf("expected normalized email, got %q", rider.Email)
	}

	w = doRequest(t, router, http.MethodPost, "/v1/riders/register", handler.RegisterRequest{Name: "Asha", Email: "asha@example.com"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", w.Code)
	}

	w = doRequest(t, router, http.MethodPost, "/v1/riders/register", handler.RegisterRequest{Name: "Bad", Email: "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid email, got %d", w.Code)
	}

	w = doRequest(t, router, http.MethodGet, "/v1/riders/"+rider.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 fetching registered rider, got %d", w.Code)
	}

	riders := decode[[]handler.RiderResponse](t, doRequest(t, router, http.MethodGet, "/v1/riders", nil))
	if len(riders) != 2 {
		t.Errorf("expected 2 riders, got %d", len(riders))
	}
}
