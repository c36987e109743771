package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tripdesk/backend/internal/domain/booking"
)

// ReservationModel is the persistence model for the Reservation aggregate root
type ReservationModel struct {
	AggregateModel
	ReservationNumber string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	CustomerName      string              `gorm:"type:varchar(200);not null"`
	TotalAmount       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	DepartureDate     time.Time           `gorm:"not null;index"`
	Destination       string              `gorm:"type:varchar(200)"`
	ServiceType       booking.ServiceType `gorm:"type:varchar(20);not null;index"`
	AgentID           *uuid.UUID          `gorm:"type:uuid;index"`
	AgentName         string              `gorm:"type:varchar(200)"`
	PaymentHint       booking.PaymentHint `gorm:"type:varchar(20);not null;default:'Unpaid'"`
	InvoiceIssuedAt   *time.Time
	SupplierPaid      bool   `gorm:"not null;default:false"`
	Remark            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}

// ToDomain converts the persistence model to a domain Reservation
func (m *ReservationModel) ToDomain() *booking.Reservation {
	return &booking.Reservation{
		BaseAggregateRoot: m.toDomainAggregateRoot(),
		ReservationNumber: m.ReservationNumber,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		TotalAmount:       m.TotalAmount,
		DepartureDate:     m.DepartureDate,
		Destination:       m.Destination,
		ServiceType:       m.ServiceType,
		AgentID:           m.AgentID,
		AgentName:         m.AgentName,
		PaymentHint:       m.PaymentHint,
		InvoiceIssuedAt:   m.InvoiceIssuedAt,
		SupplierPaid:      m.SupplierPaid,
		Remark:            m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Reservation
func (m *ReservationModel) FromDomain(r *booking.Reservation) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ReservationNumber = r.ReservationNumber
	m.CustomerID = r.CustomerID
	m.CustomerName = r.CustomerName
	m.TotalAmount = r.TotalAmount
	m.DepartureDate = r.DepartureDate
	m.Destination = r.Destination
	m.ServiceType = r.ServiceType
	m.AgentID = r.AgentID
	m.AgentName = r.AgentName
	m.PaymentHint = r.PaymentHint
	m.InvoiceIssuedAt = r.InvoiceIssuedAt
	m.SupplierPaid = r.SupplierPaid
	m.Remark = r.Remark
}

// ReservationModelFromDomain creates a persistence model from a domain Reservation
func ReservationModelFromDomain(r *booking.Reservation) *ReservationModel {
	m := &ReservationModel{}
	m.FromDomain(r)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root
type PaymentModel struct {
	AggregateModel
	BookingRef    string                `gorm:"type:varchar(50);not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status        booking.PaymentStatus `gorm:"type:varchar(30);not null;index"`
	Method        booking.PaymentMethod `gorm:"type:varchar(30);not null"`
	PaymentDate   time.Time             `gorm:"not null;index"`
	CreatedByID   *uuid.UUID            `gorm:"type:uuid;index"`
	CreatedByName string                `gorm:"type:varchar(200)"`
	Remark        string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *booking.Payment {
	return &booking.Payment{
		BaseAggregateRoot: m.toDomainAggregateRoot(),
		BookingRef:        m.BookingRef,
		Amount:            m.Amount,
		Status:            m.Status,
		Method:            m.Method,
		PaymentDate:       m.PaymentDate,
		CreatedByID:       m.CreatedByID,
		CreatedByName:     m.CreatedByName,
		Remark:            m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *booking.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.BookingRef = p.BookingRef
	m.Amount = p.Amount
	m.Status = p.Status
	m.Method = p.Method
	m.PaymentDate = p.PaymentDate
	m.CreatedByID = p.CreatedByID
	m.CreatedByName = p.CreatedByName
	m.Remark = p.Remark
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *booking.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
