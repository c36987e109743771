package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tripdesk/backend/internal/domain/shared"
	"github.com/tripdesk/backend/internal/domain/shared/valueobject"
)

// PaymentHint is the payment-status hint carried on a reservation by the
// source system. It is an independent signal from the payment-derived
// status computed at reconciliation time; the two can disagree.
type PaymentHint string

const (
	PaymentHintPaid    PaymentHint = "Paid"
	PaymentHintPartial PaymentHint = "Partial"
	PaymentHintUnpaid  PaymentHint = "Unpaid"
)

// ServiceType categorizes what the customer purchased
type ServiceType string

const (
	ServiceTypeFlight  ServiceType = "Flight"
	ServiceTypeHotel   ServiceType = "Hotel"
	ServiceTypePackage ServiceType = "Package"
	ServiceTypeVisa    ServiceType = "Visa"
	ServiceTypeOther   ServiceType = "Other"
)

// IsValid checks if the service type is one of the known categories
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTypeFlight, ServiceTypeHotel, ServiceTypePackage, ServiceTypeVisa, ServiceTypeOther:
		return true
	}
	return false
}

// Reservation represents a customer's purchased trip or service.
// It is the unit around which payments and invoices are tracked.
type Reservation struct {
	shared.BaseAggregateRoot
	ReservationNumber string          `json:"reservation_number"` // Display id, e.g. BK-2026-00042
	CustomerID        uuid.UUID       `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DepartureDate     time.Time       `json:"departure_date"` // Doubles as the payment due date
	Destination       string          `json:"destination"`
	ServiceType       ServiceType     `json:"service_type"`
	AgentID           *uuid.UUID      `json:"agent_id"`
	AgentName         string          `json:"agent_name"`
	PaymentHint       PaymentHint     `json:"payment_hint"`
	InvoiceIssuedAt   *time.Time      `json:"invoice_issued_at"`
	SupplierPaid      bool            `json:"supplier_paid"`
	Remark            string          `json:"remark"`
}

// NewReservation creates a new reservation.
// A zero total amount is allowed (e.g. complimentary bookings); a negative one is not.
func NewReservation(
	reservationNumber string,
	customerID uuid.UUID,
	customerName string,
	totalAmount valueobject.Money,
	departureDate time.Time,
	destination string,
	serviceType ServiceType,
) (*Reservation, error) {
	if reservationNumber == "" {
		return nil, shared.NewDomainError("INVALID_RESERVATION_NUMBER", "Reservation number cannot be empty")
	}
	if len(reservationNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_RESERVATION_NUMBER", "Reservation number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	if departureDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DEPARTURE_DATE", "Departure date is required")
	}
	if !serviceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SERVICE_TYPE", "Service type is not valid")
	}

	return &Reservation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReservationNumber: reservationNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		TotalAmount:       totalAmount.Amount(),
		DepartureDate:     departureDate,
		Destination:       destination,
		ServiceType:       serviceType,
		PaymentHint:       PaymentHintUnpaid,
	}, nil
}

// SetAgent records the staff member who created the booking
func (r *Reservation) SetAgent(agentID uuid.UUID, agentName string) {
	r.AgentID = &agentID
	r.AgentName = agentName
}

// SetPaymentHint updates the source-system payment-status hint
func (r *Reservation) SetPaymentHint(hint PaymentHint) {
	r.PaymentHint = hint
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// MarkInvoiceIssued records that an invoice has been issued for this booking
func (r *Reservation) MarkInvoiceIssued(at time.Time) error {
	if r.InvoiceIssuedAt != nil {
		return shared.NewDomainError("INVOICE_ALREADY_ISSUED", "Invoice has already been issued for this reservation")
	}
	r.InvoiceIssuedAt = &at
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// SetSupplierPaid toggles whether the supplier's share has been settled.
// The flag is user-asserted, not derived from payments.
func (r *Reservation) SetSupplierPaid(paid bool) {
	if r.SupplierPaid == paid {
		return
	}
	r.SupplierPaid = paid
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// GetTotalAmountMoney returns the total amount as Money
func (r *Reservation) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(r.TotalAmount)
}
