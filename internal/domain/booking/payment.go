package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tripdesk/backend/internal/domain/shared"
	"github.com/tripdesk/backend/internal/domain/shared/valueobject"
)

// PaymentStatus represents the status of a customer payment
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "Pending"
	PaymentStatusCompleted         PaymentStatus = "Completed"
	PaymentStatusFailed            PaymentStatus = "Failed"
	PaymentStatusRefunded          PaymentStatus = "Refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "Partially Refunded"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CountsAsPaid returns true if the payment contributes to the booking's paid amount
func (s PaymentStatus) CountsAsPaid() bool {
	return s == PaymentStatusCompleted
}

// PaymentMethod describes how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodCard         PaymentMethod = "Card"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMethodOnline       PaymentMethod = "Online"
)

// Payment represents a single customer payment against a booking
type Payment struct {
	shared.BaseAggregateRoot
	BookingRef    string          `json:"booking_ref"` // Reservation number or internal id
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	Method        PaymentMethod   `json:"method"`
	PaymentDate   time.Time       `json:"payment_date"`
	CreatedByID   *uuid.UUID      `json:"created_by_id"`
	CreatedByName string          `json:"created_by_name"`
	Remark        string          `json:"remark"`
}

// NewPayment creates a new payment record.
// This is the write path: invalid input is rejected, not defaulted.
func NewPayment(
	bookingRef string,
	amount valueobject.Money,
	status PaymentStatus,
	method PaymentMethod,
	paymentDate time.Time,
) (*Payment, error) {
	if bookingRef == "" {
		return nil, shared.NewDomainError("INVALID_BOOKING_REF", "Booking reference cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_STATUS", "Payment status is not valid")
	}
	if method == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot be empty")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BookingRef:        bookingRef,
		Amount:            amount.Amount(),
		Status:            status,
		Method:            method,
		PaymentDate:       paymentDate,
	}, nil
}

// SetCreatedBy records the staff member who entered the payment
func (p *Payment) SetCreatedBy(userID uuid.UUID, userName string) {
	p.CreatedByID = &userID
	p.CreatedByName = userName
}

// UpdateDetails edits a payment. Deleting and re-entering is not required for
// corrections; the finance view is recomputed wholesale on the next reload.
func (p *Payment) UpdateDetails(
	amount valueobject.Money,
	status PaymentStatus,
	method PaymentMethod,
	paymentDate time.Time,
) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_STATUS", "Payment status is not valid")
	}
	if method == "" {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot be empty")
	}
	if paymentDate.IsZero() {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}

	p.Amount = amount.Amount()
	p.Status = status
	p.Method = method
	p.PaymentDate = paymentDate
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}
