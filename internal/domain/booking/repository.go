package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReservationFilter defines query options for reservation lookups
type ReservationFilter struct {
	Search      string     // Matches reservation number or customer name
	CustomerID  *uuid.UUID
	AgentID     *uuid.UUID
	ServiceType ServiceType
	FromDate    *time.Time // Inclusive lower bound on created_at
	ToDate      *time.Time // Inclusive upper bound on created_at
	Page        int
	PageSize    int
}

// PaymentFilter defines query options for payment lookups
type PaymentFilter struct {
	BookingRef string
	Status     PaymentStatus
	Page       int
	PageSize   int
}

// ReservationRepository defines persistence operations for reservations.
// Lookups return (nil, nil) when no row matches; errors are reserved for
// infrastructure failures.
type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindByNumber(ctx context.Context, reservationNumber string) (*Reservation, error)
	FindAll(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	Count(ctx context.Context, filter ReservationFilter) (int64, error)
	Save(ctx context.Context, reservation *Reservation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines persistence operations for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	FindByBookingRefs(ctx context.Context, refs []string) ([]Payment, error)
	Save(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
}
