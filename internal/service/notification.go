package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"cab/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingCompleted NotificationType = "BOOKING_COMPLETED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationPaymentSuccess   NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // Rider ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// Notifier delivers rider notifications.
type Notifier interface {
	NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking, vehicle *domain.Vehicle) error
	NotifyBookingCompleted(ctx context.Context, booking *domain.Booking) error
	NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, reason string) error
	NotifyPaymentSuccess(ctx context.Context, payment *domain.Payment, riderID string) error
	NotifyPaymentFailed(ctx context.Context, payment *domain.Payment, riderID string) error
}

// NotificationService delivers notifications through the process log.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyBookingConfirmed tells the rider which cab is on the way.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking, vehicle *domain.Vehicle) error {
	message := fmt.Sprintf("Your %s %s is booked. Fare: %.2f", vehicle.Type, vehicle.Number, booking.Fare)
	if booking.EcoRide {
		message += fmt.Sprintf(". You saved %.2f kg of CO2", booking.CarbonSaved)
	}

	return s.send(ctx, Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: booking.RiderID,
		Title:       "Booking Confirmed",
		Message:     message,
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"vehicle_id": vehicle.ID,
			"fare":       booking.Fare,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingCompleted notifies the rider that the ride has ended.
func (s *NotificationService) NotifyBookingCompleted(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationBookingCompleted,
		RecipientID: booking.RiderID,
		Title:       "Ride Completed",
		Message:     fmt.Sprintf("Your ride to %s has ended. Total fare: %.2f", booking.Drop, booking.Fare),
		Data: map[string]interface{}{
			"booking_id": booking.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingCancelled notifies the rider that the booking was cancelled.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, reason string) error {
	return s.send(ctx, Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: booking.RiderID,
		Title:       "Booking Cancelled",
		Message:     "Your booking has been cancelled",
		Data: map[string]interface{}{
			"booking_id": booking.ID,
			"reason":     reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentSuccess notifies the rider of successful payment.
func (s *NotificationService) NotifyPaymentSuccess(ctx context.Context, payment *domain.Payment, riderID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentSuccess,
		RecipientID: riderID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of %.2f via %s was successful", payment.Amount, payment.Method),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"booking_id": payment.BookingID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed notifies the rider of failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment, riderID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: riderID,
		Title:       "Payment Failed",
		Message:     payment.Message,
		Data: map[string]interface{}{
			"booking_id": payment.BookingID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification. Delivery is a log line; push and SMS
// channels are out of scope.
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}

var _ Notifier = (*NotificationService)(nil)
