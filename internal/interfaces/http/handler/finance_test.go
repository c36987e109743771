package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	financeapp "github.com/tripdesk/backend/internal/application/finance"
	"github.com/tripdesk/backend/internal/domain/booking"
	"github.com/tripdesk/backend/internal/domain/finance"
	"github.com/tripdesk/backend/internal/domain/shared/valueobject"
	"github.com/tripdesk/backend/internal/infrastructure/auth"
	"github.com/tripdesk/backend/internal/interfaces/http/middleware"
)

type stubReservationRepo struct {
	reservations map[uuid.UUID]*booking.Reservation
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{reservations: make(map[uuid.UUID]*booking.Reservation)}
}

func (r *stubReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	if res, ok := r.reservations[id]; ok {
		cp := *res
		return &cp, nil
	}
	return nil, nil
}

func (r *stubReservationRepo) FindByNumber(_ context.Context, number string) (*booking.Reservation, error) {
	for _, res := range r.reservations {
		if res.ReservationNumber == number {
			cp := *res
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubReservationRepo) FindAll(_ context.Context, _ booking.ReservationFilter) ([]booking.Reservation, error) {
	out := make([]booking.Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, *res)
	}
	return out, nil
}

func (r *stubReservationRepo) Count(_ context.Context, _ booking.ReservationFilter) (int64, error) {
	return int64(len(r.reservations)), nil
}

func (r *stubReservationRepo) Save(_ context.Context, res *booking.Reservation) error {
	cp := *res
	r.reservations[res.ID] = &cp
	return nil
}

func (r *stubReservationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.reservations, id)
	return nil
}

type stubPaymentRepo struct {
	payments map[uuid.UUID]*booking.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[uuid.UUID]*booking.Payment)}
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Payment, error) {
	if p, ok := r.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *stubPaymentRepo) FindAll(_ context.Context, _ booking.PaymentFilter) ([]booking.Payment, error) {
	out := make([]booking.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubPaymentRepo) FindByBookingRefs(_ context.Context, refs []string) ([]booking.Payment, error) {
	out := make([]booking.Payment, 0)
	for _, p := range r.payments {
		for _, ref := range refs {
			if p.BookingRef == ref {
				out = append(out, *p)
				break
			}
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) Save(_ context.Context, p *booking.Payment) error {
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *stubPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

// actorMiddleware injects auth claims directly, bypassing token validation
func actorMiddleware(userID uuid.UUID, role finance.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			UserID: userID.String(),
			Role:   string(role),
		})
		c.Next()
	}
}

type financeTestEnv struct {
	router       *gin.Engine
	reservations *stubReservationRepo
	payments     *stubPaymentRepo
}

func newFinanceTestEnv(t *testing.T, userID uuid.UUID, role finance.Role) *financeTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reservations := newStubReservationRepo()
	payments := newStubPaymentRepo()
	service := financeapp.NewFinanceService(reservations, payments,
		financeapp.WithClock(func() time.Time {
			return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		}),
	)

	r := gin.New()
	r.Use(actorMiddleware(userID, role))
	api := r.Group("/api/v1")
	NewFinanceHandler(service).RegisterRoutes(api)

	return &financeTestEnv{router: r, reservations: reservations, payments: payments}
}

func seedReservation(t *testing.T, env *financeTestEnv, number string, customerID uuid.UUID, total float64) *booking.Reservation {
	t.Helper()
	res, err := booking.NewReservation(
		number,
		customerID,
		"Alice Chen",
		valueobject.NewMoneyUSDFromFloat(total),
		time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		"Lisbon",
		booking.ServiceTypePackage,
	)
	require.NoError(t, err)
	require.NoError(t, env.reservations.Save(context.Background(), res))
	return res
}

func TestFinanceHandler_Dashboard(t *testing.T) {
	customerID := uuid.New()
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAdmin)
	seedReservation(t, env, "BK-2026-00001", customerID, 1000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/dashboard", nil)
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Records []finance.FinanceRecord `json:"records"`
			Metrics finance.Metrics         `json:"metrics"`
			Total   int64                   `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Records, 1)
	assert.Equal(t, "BK-2026-00001", body.Data.Records[0].ReservationNumber)
	assert.Equal(t, finance.PaymentStatusPending, body.Data.Records[0].PaymentStatus)
	assert.Equal(t, int64(1), body.Data.Total)
}

func TestFinanceHandler_Dashboard_InvalidDate(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/dashboard?from_date=yesterday", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_BAD_REQUEST")
}

func TestFinanceHandler_RecordPayment(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAgent)
	seedReservation(t, env, "BK-2026-00002", uuid.New(), 500)

	payload := `{
		"booking_ref": "BK-2026-00002",
		"amount": "250",
		"status": "Completed",
		"method": "Card",
		"payment_date": "2026-08-30T00:00:00Z"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/payments", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"booking_ref":"BK-2026-00002"`)
	assert.Len(t, env.payments.payments, 1)
}

func TestFinanceHandler_RecordPayment_UnknownBooking(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAgent)

	payload := `{
		"booking_ref": "BK-MISSING",
		"amount": "250",
		"status": "Completed",
		"method": "Card",
		"payment_date": "2026-08-30T00:00:00Z"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/payments", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestFinanceHandler_RecordPayment_CustomerForbidden(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleCustomer)
	seedReservation(t, env, "BK-2026-00003", uuid.New(), 500)

	payload := `{
		"booking_ref": "BK-2026-00003",
		"amount": "250",
		"status": "Completed",
		"method": "Card",
		"payment_date": "2026-08-30T00:00:00Z"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/payments", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
}

func TestFinanceHandler_SetSupplierPaid(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAdmin)
	res := seedReservation(t, env, "BK-2026-00004", uuid.New(), 800)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut,
		"/api/v1/finance/reservations/"+res.ID.String()+"/supplier-paid",
		strings.NewReader(`{"paid": true}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"supplier_paid":true`)

	stored, err := env.reservations.FindByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.True(t, stored.SupplierPaid)
}

func TestFinanceHandler_SetSupplierPaid_MissingBody(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAdmin)
	res := seedReservation(t, env, "BK-2026-00005", uuid.New(), 800)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut,
		"/api/v1/finance/reservations/"+res.ID.String()+"/supplier-paid",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinanceHandler_IssueInvoice_Twice(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAdmin)
	res := seedReservation(t, env, "BK-2026-00006", uuid.New(), 800)

	url := "/api/v1/finance/reservations/" + res.ID.String() + "/invoice"

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INVALID_STATE")
}

func TestFinanceHandler_DeletePayment_InvalidID(t *testing.T) {
	env := newFinanceTestEnv(t, uuid.New(), finance.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/finance/payments/not-a-uuid", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
