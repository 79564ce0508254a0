package service

import (
	"fmt"
	"strings"
	"time"

	"cab/internal/domain"
)

// SettlementOutcome is the result of applying a payment strategy.
type SettlementOutcome struct {
	Status  domain.PaymentStatus
	Message string
	Details domain.PaymentDetails
}

// Succeeded reports whether the payment was accepted.
func (o SettlementOutcome) Succeeded() bool {
	return o.Status == domain.PaymentStatusSuccess
}

// PaymentStrategy settles an amount against a method specific payload.
// Strategies are pure apart from reading the clock for synthetic references.
type PaymentStrategy interface {
	Method() domain.PaymentMethod
	Settle(amount float64, details domain.PaymentDetails) SettlementOutcome
}

// ValidatePaymentMethod normalizes a payment method tag and rejects
// anything outside UPI, CARD and CASH.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch m := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(method))); m {
	case domain.PaymentMethodUPI, domain.PaymentMethodCard, domain.PaymentMethodCash:
		return m, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// PaymentStrategies resolves the strategy for each supported method.
type PaymentStrategies struct {
	upi  *UPIStrategy
	card *CardStrategy
	cash *CashStrategy
}

// NewPaymentStrategies creates the strategy set. A nil clock uses time.Now.
func NewPaymentStrategies(clock func() time.Time) *PaymentStrategies {
	if clock == nil {
		clock = time.Now
	}
	return &PaymentStrategies{
		upi:  &UPIStrategy{now: clock},
		card: &CardStrategy{now: clock},
		cash: &CashStrategy{now: clock},
	}
}

// For returns the strategy for a method.
func (p *PaymentStrategies) For(method domain.PaymentMethod) (PaymentStrategy, error) {
	switch method {
	case domain.PaymentMethodUPI:
		return p.upi, nil
	case domain.PaymentMethodCard:
		return p.card, nil
	case domain.PaymentMethodCash:
		return p.cash, nil
	default:
		return nil, ErrInvalidPaymentMethod
	}
}

// reference builds a synthetic transaction reference from the clock.
func reference(prefix string, now func() time.Time) string {
	return fmt.Sprintf("%s%d", prefix, now().UnixMilli())
}

func failed(message string, details domain.PaymentDetails) SettlementOutcome {
	return SettlementOutcome{Status: domain.PaymentStatusFailed, Message: message, Details: details}
}

// UPIStrategy settles UPI transfers.
type UPIStrategy struct {
	now func() time.Time
}

func (s *UPIStrategy) Method() domain.PaymentMethod { return domain.PaymentMethodUPI }

// Settle succeeds when the amount is positive and a UPI ID is present.
// The stored UPI ID is masked.
func (s *UPIStrategy) Settle(amount float64, details domain.PaymentDetails) SettlementOutcome {
	if details.UPI == nil || amount <= 0 || strings.TrimSpace(details.UPI.UPIID) == "" {
		return failed("UPI payment failed: invalid UPI ID or amount", domain.PaymentDetails{})
	}

	provider := details.UPI.Provider
	if provider == "" {
		provider = "UPI"
	}

	upi := &domain.UPIDetails{
		UPIID:         MaskUPIID(details.UPI.UPIID),
		Provider:      provider,
		TransactionID: reference("UPI", s.now),
	}

	return SettlementOutcome{
		Status: domain.PaymentStatusSuccess,
		Message: fmt.Sprintf("UPI payment of %.2f processed via %s. UPI ID: %s, Transaction: %s",
			amount, upi.Provider, upi.UPIID, upi.TransactionID),
		Details: domain.PaymentDetails{UPI: upi},
	}
}

// MaskUPIID keeps the first three characters and the handle domain.
func MaskUPIID(id string) string {
	local, domainPart, found := strings.Cut(id, "@")
	if !found {
		domainPart = "***"
	}
	if len(local) <= 3 {
		return "***@" + domainPart
	}
	return local[:3] + "***@" + domainPart
}

// CardStrategy settles card payments.
type CardStrategy struct {
	now func() time.Time
}

func (s *CardStrategy) Method() domain.PaymentMethod { return domain.PaymentMethodCard }

// Settle succeeds when the card number is exactly 16 ASCII digits and the
// amount is positive. Only the last four digits survive settlement.
func (s *CardStrategy) Settle(amount float64, details domain.PaymentDetails) SettlementOutcome {
	if details.Card == nil || amount <= 0 || !isCardNumber(details.Card.Number) {
		return failed("Card payment failed: invalid card details or amount", domain.PaymentDetails{})
	}

	card := &domain.CardDetails{
		Last4:      details.Card.Number[12:],
		CardType:   details.Card.CardType,
		BankName:   details.Card.BankName,
		HolderName: details.Card.HolderName,
		AuthCode:   reference("AUTH", s.now),
	}

	return SettlementOutcome{
		Status: domain.PaymentStatusSuccess,
		Message: fmt.Sprintf("Card payment of %.2f processed. Card: ****%s, Auth: %s",
			amount, card.Last4, card.AuthCode),
		Details: domain.PaymentDetails{Card: card},
	}
}

func isCardNumber(number string) bool {
	if len(number) != 16 {
		return false
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}
	return true
}

// CashStrategy settles cash payments.
type CashStrategy struct {
	now func() time.Time
}

func (s *CashStrategy) Method() domain.PaymentMethod { return domain.PaymentMethodCash }

// Settle succeeds when the tendered amount covers the fare.
func (s *CashStrategy) Settle(amount float64, details domain.PaymentDetails) SettlementOutcome {
	if details.Cash == nil || amount <= 0 || details.Cash.ReceivedAmount < amount {
		return failed("Cash payment failed: insufficient amount received", domain.PaymentDetails{Cash: details.Cash})
	}

	change := details.Cash.ReceivedAmount - amount
	if change < 0 {
		change = 0
	}

	cash := &domain.CashDetails{
		ReceivedAmount: details.Cash.ReceivedAmount,
		ChangeReturned: change,
		CollectedBy:    details.Cash.CollectedBy,
		ReceiptNumber:  reference("CASH", s.now),
	}

	return SettlementOutcome{
		Status: domain.PaymentStatusSuccess,
		Message: fmt.Sprintf("Cash payment received. Amount: %.2f, Change: %.2f, Receipt: %s",
			cash.ReceivedAmount, cash.ChangeReturned, cash.ReceiptNumber),
		Details: domain.PaymentDetails{Cash: cash},
	}
}
