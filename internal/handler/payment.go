package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cab/internal/repository"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentRepo repository.PaymentRepository
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentRepo repository.PaymentRepository) *PaymentHandler {
	return &PaymentHandler{paymentRepo: paymentRepo}
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment id"})
		return
	}

	payment, err := h.paymentRepo.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		ID:        payment.ID,
		Method:    string(payment.Method),
		Amount:    payment.Amount,
		Status:    string(payment.Status),
		Message:   payment.Message,
		Details:   payment.Details,
		SettledAt: payment.SettledAt.Format(timeLayout),
	})
}
