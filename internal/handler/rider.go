package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cab/internal/domain"
	"cab/internal/repository"
	"cab/internal/service"
)

// RiderHandler handles HTTP requests for riders.
type RiderHandler struct {
	riderRepo      repository.RiderRepository
	bookingService *service.BookingService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderRepo repository.RiderRepository, bookingService *service.BookingService) *RiderHandler {
	return &RiderHandler{
		riderRepo:      riderRepo,
		bookingService: bookingService,
	}
}

// RegisterRequest is the HTTP request body for rider registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// RiderResponse is the HTTP response for rider data.
type RiderResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func toRiderResponse(r *domain.Rider) RiderResponse {
	return RiderResponse{ID: r.ID, Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// Register handles POST /v1/riders/register
func (h *RiderHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and email are required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid email"})
		return
	}

	// Check if rider already exists
	existing, err := h.riderRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}

	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "Rider already registered",
			"rider":   toRiderResponse(existing),
		})
		return
	}

	rider := &domain.Rider{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: time.Now(),
	}

	if err := h.riderRepo.Create(c.Request.Context(), rider); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "rider already registered"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRiderResponse(rider))
}

// GetAll handles GET /v1/riders
func (h *RiderHandler) GetAll(c *gin.Context) {
	riders, err := h.riderRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RiderResponse, 0, len(riders))
	for _, r := range riders {
		response = append(response, toRiderResponse(r))
	}

	c.JSON(http.StatusOK, response)
}

// GetRider handles GET /v1/riders/:id
func (h *RiderHandler) GetRider(c *gin.Context) {
	rider, err := h.riderRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRiderResponse(rider))
}

// GetBookings handles GET /v1/riders/:id/bookings
func (h *RiderHandler) GetBookings(c *gin.Context) {
	views, err := h.bookingService.ListByRider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponses(views))
}
