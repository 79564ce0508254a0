package service

import (
	"fmt"
	"strings"
	"time"

	"cab/internal/domain"
)

// ReceiptService handles receipt generation.
type ReceiptService struct{}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService() *ReceiptService {
	return &ReceiptService{}
}

// GenerateReceipt builds a receipt from a booking projection.
func (s *ReceiptService) GenerateReceipt(view *BookingView) (*domain.Receipt, error) {
	if view == nil || view.Booking == nil {
		return nil, ErrInvalidBookingID
	}

	booking := view.Booking
	receipt := &domain.Receipt{
		BookingID:      booking.ID,
		Pickup:         booking.Pickup,
		Drop:           booking.Drop,
		Distance:       booking.Distance,
		Fare:           booking.Fare,
		EcoRide:        booking.EcoRide,
		CarbonSaved:    booking.CarbonSaved,
		BookingStatus:  booking.Status,
		PaymentMethod:  booking.PaymentMethod,
		PaymentStatus:  booking.PaymentStatus,
		PaymentMessage: booking.PaymentDetails,
		BookedAt:       booking.CreatedAt,
		IssuedAt:       time.Now(),
	}

	if view.Rider != nil {
		receipt.RiderName = view.Rider.Name
	}
	if view.Vehicle != nil {
		receipt.VehicleNumber = view.Vehicle.Number
		receipt.VehicleType = view.Vehicle.Type
	}
	if view.Driver != nil {
		receipt.DriverName = view.Driver.Name
	}
	if view.Payment != nil {
		receipt.Reference = paymentReference(view.Payment.Details)
	}

	return receipt, nil
}

func paymentReference(details domain.PaymentDetails) string {
	switch {
	case details.UPI != nil:
		return details.UPI.TransactionID
	case details.Card != nil:
		return details.Card.AuthCode
	case details.Cash != nil:
		return details.Cash.ReceiptNumber
	default:
		return ""
	}
}

// FormatReceipt formats the receipt as plain text.
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	var b strings.Builder

	line := "====================================="
	rule := "-------------------------------------"

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "           CAB RECEIPT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Booking ID: %s\n", receipt.BookingID)
	fmt.Fprintf(&b, "Date:       %s\n", receipt.BookedAt.Format("Jan 02, 2006 3:04 PM"))
	fmt.Fprintf(&b, "Rider:      %s\n", receipt.RiderName)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "RIDE DETAILS")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Cab:         %s (%s)\n", receipt.VehicleNumber, receipt.VehicleType)
	if receipt.DriverName != "" {
		fmt.Fprintf(&b, "Driver:      %s\n", receipt.DriverName)
	}
	fmt.Fprintf(&b, "Pickup:      %s\n", receipt.Pickup)
	fmt.Fprintf(&b, "Drop:        %s\n", receipt.Drop)
	fmt.Fprintf(&b, "Distance:    %.2f km\n", receipt.Distance)
	fmt.Fprintf(&b, "Status:      %s\n", receipt.BookingStatus)
	if receipt.EcoRide {
		fmt.Fprintf(&b, "Eco ride:    %.2f kg CO2 saved\n", receipt.CarbonSaved)
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "FARE")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "TOTAL (incl. 5%% tax): %.2f\n", receipt.Fare)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "PAYMENT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Method: %s\n", receipt.PaymentMethod)
	fmt.Fprintf(&b, "Status: %s\n", receipt.PaymentStatus)
	if receipt.Reference != "" {
		fmt.Fprintf(&b, "Ref:    %s\n", receipt.Reference)
	}
	if receipt.PaymentMessage != "" {
		fmt.Fprintf(&b, "Note:   %s\n", receipt.PaymentMessage)
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "     Thank you for riding with us!")
	fmt.Fprintln(&b, line)

	return b.String()
}
