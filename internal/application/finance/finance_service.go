package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tripdesk/backend/internal/domain/booking"
	"github.com/tripdesk/backend/internal/domain/finance"
	"github.com/tripdesk/backend/internal/domain/shared"
	"github.com/tripdesk/backend/internal/domain/shared/valueobject"
	"golang.org/x/sync/errgroup"
)

// MetricsCache caches agency-wide dashboard metrics. Implementations are
// best-effort: a cache failure must never fail the request.
type MetricsCache interface {
	Get(ctx context.Context) (*finance.Metrics, error)
	Set(ctx context.Context, metrics finance.Metrics) error
	Invalidate(ctx context.Context) error
}

// FinanceService provides the reconciled finance view and its mutations
type FinanceService struct {
	reservationRepo booking.ReservationRepository
	paymentRepo     booking.PaymentRepository
	metricsCache    MetricsCache
	now             func() time.Time
}

// FinanceServiceOption is a functional option for configuring FinanceService
type FinanceServiceOption func(*FinanceService)

// WithMetricsCache enables caching of agency-wide metrics
func WithMetricsCache(cache MetricsCache) FinanceServiceOption {
	return func(s *FinanceService) {
		s.metricsCache = cache
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) FinanceServiceOption {
	return func(s *FinanceService) {
		s.now = now
	}
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(
	reservationRepo booking.ReservationRepository,
	paymentRepo booking.PaymentRepository,
	opts ...FinanceServiceOption,
) *FinanceService {
	s := &FinanceService{
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Dashboard =====================

// DashboardFilter carries the user-selected finance-table predicates
type DashboardFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status"`
	Agent    string     `form:"agent"`
	FromDate *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// DashboardResponse is one full dashboard load: the visible page of records
// plus metrics over the entire visible (filtered) set
type DashboardResponse struct {
	Records  []finance.FinanceRecord `json:"records"`
	Metrics  finance.Metrics         `json:"metrics"`
	Total    int64                   `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

// Dashboard runs the full reconciliation pipeline for one page load:
// fetch reservations and payments concurrently, reconcile everything at a
// single instant, apply role and filter restrictions, aggregate metrics over
// the visible set, then paginate the rows. Any fetch failure abandons the
// pass; there is no partial reconciliation.
func (s *FinanceService) Dashboard(ctx context.Context, actor finance.Actor, filter DashboardFilter) (*DashboardResponse, error) {
	reservations, payments, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	records := finance.ReconcileAll(reservations, payments, now)
	visible := finance.Filter(records, toRecordFilter(filter), actor)
	metrics := finance.Aggregate(visible)

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	total := int64(len(visible))

	start := (page - 1) * pageSize
	if start > len(visible) {
		start = len(visible)
	}
	end := start + pageSize
	if end > len(visible) {
		end = len(visible)
	}

	return &DashboardResponse{
		Records:  visible[start:end],
		Metrics:  metrics,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// AgencyMetrics returns unfiltered agency-wide metrics. Results are cached
// for admin and agent callers; customers always get metrics computed over
// their own bookings only and bypass the shared cache.
func (s *FinanceService) AgencyMetrics(ctx context.Context, actor finance.Actor) (*finance.Metrics, error) {
	cacheable := actor.Role != finance.RoleCustomer

	if cacheable && s.metricsCache != nil {
		if cached, err := s.metricsCache.Get(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	reservations, payments, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	records := finance.ReconcileAll(reservations, payments, s.now())
	visible := finance.Filter(records, finance.RecordFilter{}, actor)
	metrics := finance.Aggregate(visible)

	if cacheable && s.metricsCache != nil {
		_ = s.metricsCache.Set(ctx, metrics)
	}
	return &metrics, nil
}

// ExportResult is the filtered record set handed to the export subsystem,
// with the filter values echoed back so the export can label itself
type ExportResult struct {
	Records     []finance.FinanceRecord `json:"records"`
	Search      string                  `json:"search"`
	Status      string                  `json:"status"`
	Agent       string                  `json:"agent"`
	FromDate    *time.Time              `json:"from_date,omitempty"`
	ToDate      *time.Time              `json:"to_date,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// ExportRows returns the currently visible record set without pagination.
// The records are the same reconciled values the dashboard shows; nothing is
// re-derived for export.
func (s *FinanceService) ExportRows(ctx context.Context, actor finance.Actor, filter DashboardFilter) (*ExportResult, error) {
	reservations, payments, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	records := finance.ReconcileAll(reservations, payments, now)
	visible := finance.Filter(records, toRecordFilter(filter), actor)

	return &ExportResult{
		Records:     visible,
		Search:      filter.Search,
		Status:      filter.Status,
		Agent:       filter.Agent,
		FromDate:    filter.FromDate,
		ToDate:      filter.ToDate,
		GeneratedAt: now,
	}, nil
}

// fetchAll loads reservations and payments as two concurrent queries.
// Reconciliation needs the full set regardless of the table page, so no
// repository-level pagination applies here.
func (s *FinanceService) fetchAll(ctx context.Context) ([]booking.Reservation, []booking.Payment, error) {
	var (
		reservations []booking.Reservation
		payments     []booking.Payment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reservations, err = s.reservationRepo.FindAll(gctx, booking.ReservationFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.paymentRepo.FindAll(gctx, booking.PaymentFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return reservations, payments, nil
}

// ===================== Payment mutations =====================

// RecordPaymentRequest is the payload for recording a customer payment
type RecordPaymentRequest struct {
	BookingRef  string          `json:"booking_ref" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Status      string          `json:"status" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
	Remark      string          `json:"remark"`
}

// UpdatePaymentRequest is the payload for editing an existing payment
type UpdatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Status      string          `json:"status" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
	Remark      string          `json:"remark"`
}

// RecordPayment records a new payment against an existing booking.
// The booking ref is resolved against reservation numbers first, then
// internal ids; an unresolvable ref is rejected rather than stored dangling.
func (s *FinanceService) RecordPayment(ctx context.Context, actor finance.Actor, req RecordPaymentRequest) (*booking.Payment, error) {
	if actor.Role == finance.RoleCustomer {
		return nil, shared.ErrForbidden
	}

	if _, err := s.resolveReservation(ctx, req.BookingRef); err != nil {
		return nil, err
	}

	payment, err := booking.NewPayment(
		req.BookingRef,
		valueobject.NewMoneyUSD(req.Amount),
		booking.PaymentStatus(req.Status),
		booking.PaymentMethod(req.Method),
		req.PaymentDate,
	)
	if err != nil {
		return nil, err
	}
	payment.Remark = req.Remark
	if actor.UserID != uuid.Nil {
		payment.SetCreatedBy(actor.UserID, "")
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}
	s.invalidateMetrics(ctx)
	return payment, nil
}

// UpdatePayment edits an existing payment in place
func (s *FinanceService) UpdatePayment(ctx context.Context, actor finance.Actor, id uuid.UUID, req UpdatePaymentRequest) (*booking.Payment, error) {
	if actor.Role == finance.RoleCustomer {
		return nil, shared.ErrForbidden
	}

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}

	if err := payment.UpdateDetails(
		valueobject.NewMoneyUSD(req.Amount),
		booking.PaymentStatus(req.Status),
		booking.PaymentMethod(req.Method),
		req.PaymentDate,
	); err != nil {
		return nil, err
	}
	payment.Remark = req.Remark

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return nil, err
	}
	s.invalidateMetrics(ctx)
	return payment, nil
}

// DeletePayment removes a payment record
func (s *FinanceService) DeletePayment(ctx context.Context, actor finance.Actor, id uuid.UUID) error {
	if actor.Role == finance.RoleCustomer {
		return shared.ErrForbidden
	}

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if payment == nil {
		return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}

	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateMetrics(ctx)
	return nil
}

// ===================== Reservation mutations =====================

// IssueInvoice marks the reservation's invoice as issued
func (s *FinanceService) IssueInvoice(ctx context.Context, actor finance.Actor, reservationID uuid.UUID) (*booking.Reservation, error) {
	if actor.Role == finance.RoleCustomer {
		return nil, shared.ErrForbidden
	}

	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, shared.NewDomainError("RESERVATION_NOT_FOUND", "Reservation not found")
	}

	if err := reservation.MarkInvoiceIssued(s.now()); err != nil {
		return nil, err
	}

	if err := s.reservationRepo.Save(ctx, reservation); err != nil {
		return nil, err
	}
	s.invalidateMetrics(ctx)
	return reservation, nil
}

// SetSupplierPaid toggles whether the supplier share of a booking has been
// settled. The toggle is idempotent so callers may apply it optimistically.
func (s *FinanceService) SetSupplierPaid(ctx context.Context, actor finance.Actor, reservationID uuid.UUID, paid bool) (*booking.Reservation, error) {
	if actor.Role == finance.RoleCustomer {
		return nil, shared.ErrForbidden
	}

	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, shared.NewDomainError("RESERVATION_NOT_FOUND", "Reservation not found")
	}

	reservation.SetSupplierPaid(paid)

	if err := s.reservationRepo.Save(ctx, reservation); err != nil {
		return nil, err
	}
	s.invalidateMetrics(ctx)
	return reservation, nil
}

// ===================== Helpers =====================

func (s *FinanceService) resolveReservation(ctx context.Context, ref string) (*booking.Reservation, error) {
	reservation, err := s.reservationRepo.FindByNumber(ctx, ref)
	if err != nil {
		return nil, err
	}
	if reservation != nil {
		return reservation, nil
	}
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		reservation, err = s.reservationRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if reservation != nil {
			return reservation, nil
		}
	}
	return nil, shared.NewDomainError("RESERVATION_NOT_FOUND", "No reservation matches the booking reference")
}

func (s *FinanceService) invalidateMetrics(ctx context.Context) {
	if s.metricsCache != nil {
		_ = s.metricsCache.Invalidate(ctx)
	}
}

func toRecordFilter(f DashboardFilter) finance.RecordFilter {
	return finance.RecordFilter{
		Search:   f.Search,
		Status:   f.Status,
		Agent:    f.Agent,
		FromDate: f.FromDate,
		ToDate:   f.ToDate,
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}
