package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripdesk/backend/internal/domain/booking"
	"github.com/tripdesk/backend/internal/domain/finance"
	"github.com/tripdesk/backend/internal/domain/shared"
	"github.com/tripdesk/backend/internal/domain/shared/valueobject"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// ===================== In-memory fakes =====================

type fakeReservationRepo struct {
	reservations map[uuid.UUID]*booking.Reservation
	findAllErr   error
	saveErr      error
	saved        int
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[uuid.UUID]*booking.Reservation)}
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	r, ok := f.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservationRepo) FindByNumber(_ context.Context, number string) (*booking.Reservation, error) {
	for _, r := range f.reservations {
		if r.ReservationNumber == number {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationRepo) FindAll(_ context.Context, _ booking.ReservationFilter) ([]booking.Reservation, error) {
	if f.findAllErr != nil {
		return nil, f.findAllErr
	}
	out := make([]booking.Reservation, 0, len(f.reservations))
	for _, r := range f.reservations {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReservationRepo) Count(_ context.Context, _ booking.ReservationFilter) (int64, error) {
	return int64(len(f.reservations)), nil
}

func (f *fakeReservationRepo) Save(_ context.Context, r *booking.Reservation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *r
	f.reservations[r.ID] = &cp
	f.saved++
	return nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.reservations, id)
	return nil
}

type fakePaymentRepo struct {
	payments   map[uuid.UUID]*booking.Payment
	findAllErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*booking.Payment)}
}

func (f *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) FindAll(_ context.Context, _ booking.PaymentFilter) ([]booking.Payment, error) {
	if f.findAllErr != nil {
		return nil, f.findAllErr
	}
	out := make([]booking.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePaymentRepo) FindByBookingRefs(_ context.Context, refs []string) ([]booking.Payment, error) {
	want := make(map[string]bool, len(refs))
	for _, r := range refs {
		want[r] = true
	}
	var out []booking.Payment
	for _, p := range f.payments {
		if want[p.BookingRef] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) Save(_ context.Context, p *booking.Payment) error {
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.payments, id)
	return nil
}

type fakeMetricsCache struct {
	stored      *finance.Metrics
	hits        int
	sets        int
	invalidates int
}

func (f *fakeMetricsCache) Get(_ context.Context) (*finance.Metrics, error) {
	if f.stored != nil {
		f.hits++
	}
	return f.stored, nil
}

func (f *fakeMetricsCache) Set(_ context.Context, m finance.Metrics) error {
	f.stored = &m
	f.sets++
	return nil
}

func (f *fakeMetricsCache) Invalidate(_ context.Context) error {
	f.stored = nil
	f.invalidates++
	return nil
}

// ===================== Fixtures =====================

func seedReservation(t *testing.T, repo *fakeReservationRepo, number, customer string, total float64, departure time.Time) *booking.Reservation {
	t.Helper()
	r, err := booking.NewReservation(
		number,
		uuid.New(),
		customer,
		valueobject.NewMoneyUSDFromFloat(total),
		departure,
		"Dubai",
		booking.ServiceTypePackage,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), r))
	return r
}

func seedPayment(t *testing.T, repo *fakePaymentRepo, ref string, amount float64, status booking.PaymentStatus, date time.Time) *booking.Payment {
	t.Helper()
	p, err := booking.NewPayment(
		ref,
		valueobject.NewMoneyUSDFromFloat(amount),
		status,
		booking.PaymentMethodBankTransfer,
		date,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func newTestService(resRepo *fakeReservationRepo, payRepo *fakePaymentRepo, opts ...FinanceServiceOption) *FinanceService {
	opts = append([]FinanceServiceOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewFinanceService(resRepo, payRepo, opts...)
}

func adminActor() finance.Actor {
	return finance.Actor{UserID: uuid.New(), Role: finance.RoleAdmin}
}

// ===================== Dashboard =====================

func TestDashboard_Reconciles(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	r := seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))
	seedPayment(t, payRepo, "BK-1", 400, booking.PaymentStatusCompleted, testNow.AddDate(0, 0, -1))

	svc := newTestService(resRepo, payRepo)
	resp, err := svc.Dashboard(context.Background(), adminActor(), DashboardFilter{})
	require.NoError(t, err)

	require.Len(t, resp.Records, 1)
	rec := resp.Records[0]
	assert.Equal(t, r.ID, rec.ID)
	assert.Equal(t, "400", rec.PaidAmount.String())
	assert.Equal(t, "600", rec.OutstandingBalance.String())
	assert.Equal(t, finance.PaymentStatusPartiallyPaid, rec.PaymentStatus)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "400", resp.Metrics.TotalReceived.String())
	assert.Equal(t, "600", resp.Metrics.TotalOutstanding.String())
}

func TestDashboard_MetricsFollowVisibleSet(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	mine := seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))
	seedReservation(t, resRepo, "BK-2", "Bob", 5000, testNow.AddDate(0, 1, 0))

	svc := newTestService(resRepo, payRepo)
	actor := finance.Actor{UserID: mine.CustomerID, Role: finance.RoleCustomer}

	resp, err := svc.Dashboard(context.Background(), actor, DashboardFilter{})
	require.NoError(t, err)

	require.Len(t, resp.Records, 1)
	assert.Equal(t, "BK-1", resp.Records[0].ReservationNumber)
	assert.Equal(t, "1000", resp.Metrics.TotalRevenue.String())
}

func TestDashboard_Pagination(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	for i := 0; i < 5; i++ {
		seedReservation(t, resRepo, "BK-"+uuid.NewString()[:8], "Alice", 100, testNow.AddDate(0, 1, 0))
	}

	svc := newTestService(resRepo, payRepo)
	resp, err := svc.Dashboard(context.Background(), adminActor(), DashboardFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(5), resp.Total)
	assert.Len(t, resp.Records, 2)
	assert.Equal(t, 2, resp.Page)

	resp, err = svc.Dashboard(context.Background(), adminActor(), DashboardFilter{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, resp.Records)
	assert.Equal(t, int64(5), resp.Total)
}

func TestDashboard_FetchFailureAbandonsPass(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	payRepo.findAllErr = shared.NewDomainError("DB_DOWN", "connection refused")

	svc := newTestService(resRepo, payRepo)
	_, err := svc.Dashboard(context.Background(), adminActor(), DashboardFilter{})
	require.Error(t, err)
}

// ===================== Metrics cache =====================

func TestAgencyMetrics_CachesForStaff(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))

	cache := &fakeMetricsCache{}
	svc := newTestService(resRepo, payRepo, WithMetricsCache(cache))

	m1, err := svc.AgencyMetrics(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	m2, err := svc.AgencyMetrics(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.True(t, m1.TotalRevenue.Equal(m2.TotalRevenue))
}

func TestAgencyMetrics_CustomerBypassesCache(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	r := seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))
	seedReservation(t, resRepo, "BK-2", "Bob", 9000, testNow.AddDate(0, 1, 0))

	cache := &fakeMetricsCache{}
	svc := newTestService(resRepo, payRepo, WithMetricsCache(cache))

	// Warm the shared cache with agency-wide figures
	_, err := svc.AgencyMetrics(context.Background(), adminActor())
	require.NoError(t, err)

	m, err := svc.AgencyMetrics(context.Background(), finance.Actor{UserID: r.CustomerID, Role: finance.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, "1000", m.TotalRevenue.String())
	assert.Equal(t, 0, cache.hits)
}

// ===================== Payments =====================

func TestRecordPayment(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))

	cache := &fakeMetricsCache{}
	svc := newTestService(resRepo, payRepo, WithMetricsCache(cache))
	actor := adminActor()

	p, err := svc.RecordPayment(context.Background(), actor, RecordPaymentRequest{
		BookingRef:  "BK-1",
		Amount:      decimal.NewFromInt(300),
		Status:      "Completed",
		Method:      "Cash",
		PaymentDate: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, "BK-1", p.BookingRef)
	require.NotNil(t, p.CreatedByID)
	assert.Equal(t, actor.UserID, *p.CreatedByID)
	assert.Equal(t, 1, cache.invalidates)

	stored, err := payRepo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestRecordPayment_ResolvesInternalID(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	r := seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))

	svc := newTestService(resRepo, payRepo)
	_, err := svc.RecordPayment(context.Background(), adminActor(), RecordPaymentRequest{
		BookingRef:  r.ID.String(),
		Amount:      decimal.NewFromInt(300),
		Status:      "Completed",
		Method:      "Cash",
		PaymentDate: testNow,
	})
	require.NoError(t, err)
}

func TestRecordPayment_UnknownBooking(t *testing.T) {
	svc := newTestService(newFakeReservationRepo(), newFakePaymentRepo())

	_, err := svc.RecordPayment(context.Background(), adminActor(), RecordPaymentRequest{
		BookingRef:  "BK-MISSING",
		Amount:      decimal.NewFromInt(300),
		Status:      "Completed",
		Method:      "Cash",
		PaymentDate: testNow,
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "RESERVATION_NOT_FOUND", domainErr.Code)
}

func TestRecordPayment_CustomerForbidden(t *testing.T) {
	svc := newTestService(newFakeReservationRepo(), newFakePaymentRepo())

	_, err := svc.RecordPayment(context.Background(), finance.Actor{UserID: uuid.New(), Role: finance.RoleCustomer}, RecordPaymentRequest{
		BookingRef:  "BK-1",
		Amount:      decimal.NewFromInt(300),
		Status:      "Completed",
		Method:      "Cash",
		PaymentDate: testNow,
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdatePayment(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))
	p := seedPayment(t, payRepo, "BK-1", 300, booking.PaymentStatusPending, testNow)

	svc := newTestService(resRepo, payRepo)
	updated, err := svc.UpdatePayment(context.Background(), adminActor(), p.ID, UpdatePaymentRequest{
		Amount:      decimal.NewFromInt(500),
		Status:      "Completed",
		Method:      "Card",
		PaymentDate: testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, "500", updated.Amount.String())
	assert.Equal(t, booking.PaymentStatusCompleted, updated.Status)

	stored, _ := payRepo.FindByID(context.Background(), p.ID)
	assert.Equal(t, "500", stored.Amount.String())
}

func TestUpdatePayment_NotFound(t *testing.T) {
	svc := newTestService(newFakeReservationRepo(), newFakePaymentRepo())

	_, err := svc.UpdatePayment(context.Background(), adminActor(), uuid.New(), UpdatePaymentRequest{
		Amount:      decimal.NewFromInt(500),
		Status:      "Completed",
		Method:      "Card",
		PaymentDate: testNow,
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PAYMENT_NOT_FOUND", domainErr.Code)
}

func TestDeletePayment(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	p := seedPayment(t, payRepo, "BK-1", 300, booking.PaymentStatusCompleted, testNow)

	svc := newTestService(resRepo, payRepo)
	require.NoError(t, svc.DeletePayment(context.Background(), adminActor(), p.ID))

	stored, err := payRepo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

// ===================== Reservation mutations =====================

func TestIssueInvoice(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	r := seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))

	svc := newTestService(resRepo, payRepo)
	updated, err := svc.IssueInvoice(context.Background(), adminActor(), r.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.InvoiceIssuedAt)
	assert.True(t, updated.InvoiceIssuedAt.Equal(testNow))

	_, err = svc.IssueInvoice(context.Background(), adminActor(), r.ID)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVOICE_ALREADY_ISSUED", domainErr.Code)
}

func TestSetSupplierPaid(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	r := seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))

	svc := newTestService(resRepo, payRepo)
	updated, err := svc.SetSupplierPaid(context.Background(), adminActor(), r.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.SupplierPaid)

	// Idempotent re-apply
	updated, err = svc.SetSupplierPaid(context.Background(), adminActor(), r.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.SupplierPaid)

	resp, err := svc.Dashboard(context.Background(), adminActor(), DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.True(t, resp.Records[0].SupplierPaid)
}

func TestSetSupplierPaid_NotFound(t *testing.T) {
	svc := newTestService(newFakeReservationRepo(), newFakePaymentRepo())

	_, err := svc.SetSupplierPaid(context.Background(), adminActor(), uuid.New(), true)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "RESERVATION_NOT_FOUND", domainErr.Code)
}

// ===================== Export =====================

func TestExportRows_EchoesFilter(t *testing.T) {
	resRepo := newFakeReservationRepo()
	payRepo := newFakePaymentRepo()
	seedReservation(t, resRepo, "BK-1", "Alice", 1000, testNow.AddDate(0, 1, 0))
	seedReservation(t, resRepo, "BK-2", "Bob", 2000, testNow.AddDate(0, 1, 0))

	svc := newTestService(resRepo, payRepo)
	result, err := svc.ExportRows(context.Background(), adminActor(), DashboardFilter{Search: "alice", Status: finance.AllStatuses})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "BK-1", result.Records[0].ReservationNumber)
	assert.Equal(t, "alice", result.Search)
	assert.Equal(t, finance.AllStatuses, result.Status)
	assert.True(t, result.GeneratedAt.Equal(testNow))
}
