package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentMethod represents the payment method for a booking.
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "UPI"
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodCash PaymentMethod = "CASH"
)

// UPIDetails is the payload of a UPI transfer.
type UPIDetails struct {
	UPIID         string `json:"upi_id"`
	Provider      string `json:"provider"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// CardDetails is the payload of a card payment. Only the last four digits
// of the card number are kept after settlement.
type CardDetails struct {
	Number     string `json:"-"`
	Last4      string `json:"last4,omitempty"`
	CardType   string `json:"card_type,omitempty"` // CREDIT, DEBIT
	BankName   string `json:"bank_name,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
	AuthCode   string `json:"auth_code,omitempty"`
}

// CashDetails is the payload of a cash payment.
type CashDetails struct {
	ReceivedAmount float64 `json:"received_amount"`
	ChangeReturned float64 `json:"change_returned"`
	CollectedBy    string  `json:"collected_by,omitempty"`
	ReceiptNumber  string  `json:"receipt_number,omitempty"`
}

// PaymentDetails carries the method specific payload. Exactly one field is
// set, matching the payment method.
type PaymentDetails struct {
	UPI  *UPIDetails  `json:"upi,omitempty"`
	Card *CardDetails `json:"card,omitempty"`
	Cash *CashDetails `json:"cash,omitempty"`
}

// Payment represents the settlement of a booking.
type Payment struct {
	ID        string
	BookingID string
	Method    PaymentMethod
	Amount    float64
	Status    PaymentStatus
	Details   PaymentDetails
	Message   string
	SettledAt time.Time
}
