package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cab/internal/repository"
	"cab/internal/service"
)

// timeLayout is the timestamp format used in responses.
const timeLayout = time.RFC3339

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server errors are attached to the gin context for APM reporting and their
// details are not exposed to the client.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDropLocation),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrInvalidPaymentMethod):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrBookingNotOpen),
		errors.Is(err, service.ErrSettlementInProgress),
		errors.Is(err, repository.ErrAlreadySettled):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, service.ErrNoVehicleAvailable),
		errors.Is(err, service.ErrSchedulerClosed):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
