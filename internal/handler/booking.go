package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cab/internal/domain"
	"cab/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	receiptService *service.ReceiptService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, receiptService *service.ReceiptService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		receiptService: receiptService,
	}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
// Exactly one of UPI, Card or Cash should match PaymentMethod.
type CreateBookingRequest struct {
	RiderID       string       `json:"rider_id"`
	Pickup        string       `json:"pickup"`
	Drop          string       `json:"drop"`
	Distance      float64      `json:"distance"` // km
	EcoRide       bool         `json:"eco_ride"`
	PaymentMethod string       `json:"payment_method"` // UPI, CARD, CASH
	UPI           *UPIRequest  `json:"upi,omitempty"`
	Card          *CardRequest `json:"card,omitempty"`
	Cash          *CashRequest `json:"cash,omitempty"`
}

// UPIRequest is the UPI payload of a booking request.
type UPIRequest struct {
	UPIID    string `json:"upi_id"`
	Provider string `json:"provider,omitempty"`
}

// CardRequest is the card payload of a booking request.
type CardRequest struct {
	Number     string `json:"number"`
	CardType   string `json:"card_type,omitempty"`
	BankName   string `json:"bank_name,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
}

// CashRequest is the cash payload of a booking request.
type CashRequest struct {
	ReceivedAmount float64 `json:"received_amount"`
	CollectedBy    string  `json:"collected_by,omitempty"`
}

// CancelBookingRequest is the optional HTTP request body for cancelling a booking.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// BookingResponse is the HTTP response for a booking.
type BookingResponse struct {
	ID             string           `json:"id"`
	RiderID        string           `json:"rider_id"`
	RiderName      string           `json:"rider_name,omitempty"`
	VehicleID      string           `json:"vehicle_id"`
	VehicleNumber  string           `json:"vehicle_number,omitempty"`
	VehicleType    string           `json:"vehicle_type,omitempty"`
	DriverName     string           `json:"driver_name,omitempty"`
	Pickup         string           `json:"pickup"`
	Drop           string           `json:"drop"`
	Distance       float64          `json:"distance"`
	Fare           float64          `json:"fare"`
	Status         string           `json:"status"`
	EcoRide        bool             `json:"eco_ride"`
	CarbonSaved    float64          `json:"carbon_saved"`
	PaymentMethod  string           `json:"payment_method"`
	PaymentStatus  string           `json:"payment_status"`
	PaymentDetails string           `json:"payment_details,omitempty"`
	Payment        *PaymentResponse `json:"payment,omitempty"`
	CreatedAt      string           `json:"created_at"`
}

// PaymentResponse is the HTTP response for a settled payment.
type PaymentResponse struct {
	ID        string                `json:"id"`
	Method    string                `json:"method"`
	Amount    float64               `json:"amount"`
	Status    string                `json:"status"`
	Message   string                `json:"message"`
	Details   domain.PaymentDetails `json:"details"`
	SettledAt string                `json:"settled_at"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	h.create(c, false)
}

// CreateEcoBooking handles POST /v1/bookings/eco
func (h *BookingHandler) CreateEcoBooking(c *gin.Context) {
	h.create(c, true)
}

func (h *BookingHandler) create(c *gin.Context, eco bool) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	serviceReq := service.CreateBookingRequest{
		RiderID:        req.RiderID,
		Pickup:         req.Pickup,
		Drop:           req.Drop,
		Distance:       req.Distance,
		EcoRide:        req.EcoRide,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: toPaymentDetails(req),
	}

	var (
		booking *domain.Booking
		err     error
	)
	if eco {
		booking, err = h.bookingService.CreateEcoBooking(c.Request.Context(), serviceReq)
	} else {
		booking, err = h.bookingService.CreateBooking(c.Request.Context(), serviceReq)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(&service.BookingView{Booking: booking}))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	view, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(view))
}

// GetAll handles GET /v1/bookings
func (h *BookingHandler) GetAll(c *gin.Context) {
	views, err := h.bookingService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponses(views))
}

// GetReceipt handles GET /v1/bookings/:id/receipt
func (h *BookingHandler) GetReceipt(c *gin.Context) {
	view, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	receipt, err := h.receiptService.GenerateReceipt(view)
	if err != nil {
		respondError(c, err)
		return
	}

	c.String(http.StatusOK, h.receiptService.FormatReceipt(receipt))
}

// CompleteBooking handles POST /v1/bookings/:id/complete
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	booking, err := h.bookingService.CompleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(&service.BookingView{Booking: booking}))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(&service.BookingView{Booking: booking}))
}

func toPaymentDetails(req CreateBookingRequest) domain.PaymentDetails {
	var details domain.PaymentDetails
	if req.UPI != nil {
		details.UPI = &domain.UPIDetails{
			UPIID:    req.UPI.UPIID,
			Provider: req.UPI.Provider,
		}
	}
	if req.Card != nil {
		details.Card = &domain.CardDetails{
			Number:     req.Card.Number,
			CardType:   req.Card.CardType,
			BankName:   req.Card.BankName,
			HolderName: req.Card.HolderName,
		}
	}
	if req.Cash != nil {
		details.Cash = &domain.CashDetails{
			ReceivedAmount: req.Cash.ReceivedAmount,
			CollectedBy:    req.Cash.CollectedBy,
		}
	}
	return details
}

func toBookingResponse(view *service.BookingView) BookingResponse {
	b := view.Booking
	response := BookingResponse{
		ID:             b.ID,
		RiderID:        b.RiderID,
		VehicleID:      b.VehicleID,
		Pickup:         b.Pickup,
		Drop:           b.Drop,
		Distance:       b.Distance,
		Fare:           b.Fare,
		Status:         string(b.Status),
		EcoRide:        b.EcoRide,
		CarbonSaved:    b.CarbonSaved,
		PaymentMethod:  string(b.PaymentMethod),
		PaymentStatus:  string(b.PaymentStatus),
		PaymentDetails: b.PaymentDetails,
		CreatedAt:      b.CreatedAt.Format(timeLayout),
	}

	if view.Rider != nil {
		response.RiderName = view.Rider.Name
	}
	if view.Vehicle != nil {
		response.VehicleNumber = view.Vehicle.Number
		response.VehicleType = string(view.Vehicle.Type)
	}
	if view.Driver != nil {
		response.DriverName = view.Driver.Name
	}
	if p := view.Payment; p != nil {
		response.Payment = &PaymentResponse{
			ID:        p.ID,
			Method:    string(p.Method),
			Amount:    p.Amount,
			Status:    string(p.Status),
			Message:   p.Message,
			Details:   p.Details,
			SettledAt: p.SettledAt.Format(timeLayout),
		}
	}

	return response
}

func toBookingResponses(views []*service.BookingView) []BookingResponse {
	response := make([]BookingResponse, 0, len(views))
	for _, view := range views {
		response = append(response, toBookingResponse(view))
	}
	return response
}
