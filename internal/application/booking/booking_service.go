package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tripdesk/backend/internal/domain/booking"
	"github.com/tripdesk/backend/internal/domain/finance"
	"github.com/tripdesk/backend/internal/domain/shared"
	"github.com/tripdesk/backend/internal/domain/shared/valueobject"
)

// BookingService provides application-level reservation and payment queries
type BookingService struct {
	reservationRepo booking.ReservationRepository
	paymentRepo     booking.PaymentRepository
}

// NewBookingService creates a new BookingService
func NewBookingService(
	reservationRepo booking.ReservationRepository,
	paymentRepo booking.PaymentRepository,
) *BookingService {
	return &BookingService{
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
	}
}

// CreateReservationRequest is the payload for registering a booking
type CreateReservationRequest struct {
	ReservationNumber string          `json:"reservation_number" binding:"required"`
	CustomerID        uuid.UUID       `json:"customer_id" binding:"required"`
	CustomerName      string          `json:"customer_name" binding:"required"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DepartureDate     time.Time       `json:"departure_date" binding:"required"`
	Destination       string          `json:"destination"`
	ServiceType       string          `json:"service_type" binding:"required"`
	PaymentHint       string          `json:"payment_hint"`
	Remark            string          `json:"remark"`
}

// ListReservationsFilter defines filtering options for reservation list queries
type ListReservationsFilter struct {
	Search      string     `form:"search"`
	ServiceType string     `form:"service_type"`
	FromDate    *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate      *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// CreateReservation registers a new booking. The reservation number must be
// unique; the agent on record is the acting staff member.
func (s *BookingService) CreateReservation(ctx context.Context, actor finance.Actor, req CreateReservationRequest) (*booking.Reservation, error) {
	if actor.Role == finance.RoleCustomer {
		return nil, shared.ErrForbidden
	}

	existing, err := s.reservationRepo.FindByNumber(ctx, req.ReservationNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("RESERVATION_EXISTS", "A reservation with this number already exists")
	}

	reservation, err := booking.NewReservation(
		req.ReservationNumber,
		req.CustomerID,
		req.CustomerName,
		valueobject.NewMoneyUSD(req.TotalAmount),
		req.DepartureDate,
		req.Destination,
		booking.ServiceType(req.ServiceType),
	)
	if err != nil {
		return nil, err
	}
	if req.PaymentHint != "" {
		reservation.PaymentHint = booking.PaymentHint(req.PaymentHint)
	}
	reservation.Remark = req.Remark
	if actor.UserID != uuid.Nil {
		reservation.SetAgent(actor.UserID, "")
	}

	if err := s.reservationRepo.Save(ctx, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

// GetReservation fetches one reservation by id. Customers may only read
// their own bookings.
func (s *BookingService) GetReservation(ctx context.Context, actor finance.Actor, id uuid.UUID) (*booking.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, shared.NewDomainError("RESERVATION_NOT_FOUND", "Reservation not found")
	}
	if actor.Role == finance.RoleCustomer && reservation.CustomerID != actor.UserID {
		return nil, shared.ErrForbidden
	}
	return reservation, nil
}

// ListReservations lists reservations with filtering and pagination.
// Customer callers are restricted to their own bookings regardless of the
// supplied filter.
func (s *BookingService) ListReservations(ctx context.Context, actor finance.Actor, filter ListReservationsFilter) ([]booking.Reservation, int64, error) {
	domainFilter := booking.ReservationFilter{
		Search:      filter.Search,
		ServiceType: booking.ServiceType(filter.ServiceType),
		FromDate:    filter.FromDate,
		ToDate:      filter.ToDate,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	}
	if actor.Role == finance.RoleCustomer {
		customerID := actor.UserID
		domainFilter.CustomerID = &customerID
	}

	reservations, err := s.reservationRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reservationRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// ListPayments lists the payments recorded against one booking, matched by
// either its display number or its internal id
func (s *BookingService) ListPayments(ctx context.Context, actor finance.Actor, reservationID uuid.UUID) ([]booking.Payment, error) {
	reservation, err := s.GetReservation(ctx, actor, reservationID)
	if err != nil {
		return nil, err
	}
	return s.paymentRepo.FindByBookingRefs(ctx, []string{
		reservation.ReservationNumber,
		reservation.ID.String(),
	})
}
