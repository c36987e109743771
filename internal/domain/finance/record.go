package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tripdesk/backend/internal/domain/booking"
)

// PaymentStatus is the payment state derived for a booking from its payments.
// It is computed, never stored; the source system's own hint feeds the invoice
// status instead (the two signals can disagree).
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "Pending"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusFullyPaid     PaymentStatus = "Fully Paid"
	PaymentStatusOverdue       PaymentStatus = "Overdue"
)

// IsValid checks if the status is a valid derived PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartiallyPaid, PaymentStatusFullyPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// InvoiceStatus is the invoice state derived from the reservation's
// source payment-status hint plus the overdue check
type InvoiceStatus string

const (
	InvoiceStatusIssued  InvoiceStatus = "Issued"
	InvoiceStatusSent    InvoiceStatus = "Sent"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

// supplierCostRate is the assumed share of booking revenue owed to the
// third-party service provider.
var supplierCostRate = decimal.NewFromFloat(0.75)

// hundred is reused for percentage math
var hundred = decimal.NewFromInt(100)

// FinanceRecord is the reconciled financial view of one reservation.
// It is recomputed wholesale on every reload; no derived state is persisted.
type FinanceRecord struct {
	ID                uuid.UUID   `json:"id"`
	ReservationNumber string      `json:"reservation_number"`
	CustomerID        uuid.UUID   `json:"customer_id"`
	CustomerName      string      `json:"customer_name"`
	AgentName         string      `json:"agent_name"`
	Destination       string      `json:"destination"`
	ServiceType       booking.ServiceType `json:"service_type"`

	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`

	PaymentStatus PaymentStatus `json:"payment_status"`
	InvoiceStatus InvoiceStatus `json:"invoice_status"`

	SupplierCost decimal.Decimal `json:"supplier_cost"`
	Profit       decimal.Decimal `json:"profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
	SupplierPaid bool            `json:"supplier_paid"`

	DueDate     time.Time  `json:"due_date"`
	LastPayment *time.Time `json:"last_payment,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsReadyForClosure returns true when the customer has fully paid and the
// supplier share has been settled, making the booking eligible for close-out
func (r *FinanceRecord) IsReadyForClosure() bool {
	return r.PaymentStatus == PaymentStatusFullyPaid && r.SupplierPaid
}

// Reconcile combines a reservation with its payments into a FinanceRecord.
//
// The caller supplies "now" so an entire batch is evaluated against a single
// timestamp and the function stays pure; overdue detection depends on it.
// Reconcile never fails: absent optional fields fall back to zero values, and
// a reservation with no matching payments simply reconciles to zero paid.
func Reconcile(reservation *booking.Reservation, payments []booking.Payment, now time.Time) FinanceRecord {
	if reservation == nil {
		return FinanceRecord{
			PaymentStatus: PaymentStatusPending,
			InvoiceStatus: InvoiceStatusIssued,
		}
	}

	record := FinanceRecord{
		ID:                reservation.ID,
		ReservationNumber: reservation.ReservationNumber,
		CustomerID:        reservation.CustomerID,
		CustomerName:      reservation.CustomerName,
		AgentName:         reservation.AgentName,
		Destination:       reservation.Destination,
		ServiceType:       reservation.ServiceType,
		TotalAmount:       reservation.TotalAmount,
		SupplierPaid:      reservation.SupplierPaid,
		DueDate:           reservation.DepartureDate,
		CreatedAt:         reservation.CreatedAt,
	}

	// Sum Completed payments belonging to this booking and track the most
	// recent payment date.
	paid := decimal.Zero
	var lastPayment *time.Time
	for i := range payments {
		p := &payments[i]
		if !belongsTo(p, reservation) {
			continue
		}
		if !p.Status.CountsAsPaid() {
			continue
		}
		paid = paid.Add(p.Amount)
		if lastPayment == nil || p.PaymentDate.After(*lastPayment) {
			d := p.PaymentDate
			lastPayment = &d
		}
	}
	record.PaidAmount = paid
	record.LastPayment = lastPayment

	outstanding := record.TotalAmount.Sub(paid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	record.OutstandingBalance = outstanding

	overdue := outstanding.IsPositive() && record.DueDate.Before(now)
	record.PaymentStatus = derivePaymentStatus(paid, record.TotalAmount, overdue)
	record.InvoiceStatus = deriveInvoiceStatus(reservation.PaymentHint, overdue)

	record.SupplierCost = record.TotalAmount.Mul(supplierCostRate)
	record.Profit = record.TotalAmount.Sub(record.SupplierCost)
	if record.TotalAmount.IsPositive() {
		record.ProfitMargin = record.Profit.Div(record.TotalAmount).Mul(hundred)
	} else {
		record.ProfitMargin = decimal.Zero
	}

	return record
}

// ReconcileAll reconciles a batch of reservations against the full payment
// set, evaluating every record at the same instant. Output order follows
// input order.
func ReconcileAll(reservations []booking.Reservation, payments []booking.Payment, now time.Time) []FinanceRecord {
	byRef := make(map[string][]booking.Payment, len(payments))
	for _, p := range payments {
		byRef[p.BookingRef] = append(byRef[p.BookingRef], p)
	}

	records := make([]FinanceRecord, 0, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		matched := byRef[r.ReservationNumber]
		if byID := byRef[r.ID.String()]; len(byID) > 0 {
			matched = append(matched, byID...)
		}
		records = append(records, Reconcile(r, matched, now))
	}
	return records
}

// belongsTo matches a payment to a reservation by booking reference against
// either the display number or the internal id
func belongsTo(p *booking.Payment, r *booking.Reservation) bool {
	return p.BookingRef == r.ReservationNumber || p.BookingRef == r.ID.String()
}

func derivePaymentStatus(paid, total decimal.Decimal, overdue bool) PaymentStatus {
	if paid.GreaterThanOrEqual(total) {
		return PaymentStatusFullyPaid
	}
	if overdue {
		return PaymentStatusOverdue
	}
	if paid.IsPositive() {
		return PaymentStatusPartiallyPaid
	}
	return PaymentStatusPending
}

func deriveInvoiceStatus(hint booking.PaymentHint, overdue bool) InvoiceStatus {
	switch hint {
	case booking.PaymentHintPaid:
		return InvoiceStatusPaid
	case booking.PaymentHintPartial:
		return InvoiceStatusSent
	}
	if overdue {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusIssued
}
