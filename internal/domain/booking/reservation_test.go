package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripdesk/backend/internal/domain/shared"
	"github.com/tripdesk/backend/internal/domain/shared/valueobject"
)

func newTestReservation(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewReservation(
		"BK-2026-00001",
		uuid.New(),
		"Alice Smith",
		valueobject.NewMoneyUSDFromFloat(1500),
		time.Now().AddDate(0, 1, 0),
		"Tokyo",
		ServiceTypePackage,
	)
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	r := newTestReservation(t)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "BK-2026-00001", r.ReservationNumber)
	assert.Equal(t, PaymentHintUnpaid, r.PaymentHint)
	assert.False(t, r.SupplierPaid)
	assert.Nil(t, r.InvoiceIssuedAt)
	assert.Equal(t, 1, r.Version)
}

func TestNewReservation_Validation(t *testing.T) {
	customerID := uuid.New()
	departure := time.Now().AddDate(0, 1, 0)

	tests := []struct {
		name    string
		mutate  func() (*Reservation, error)
		errCode string
	}{
		{
			"empty number",
			func() (*Reservation, error) {
				return NewReservation("", customerID, "Alice", valueobject.NewMoneyUSDFromFloat(100), departure, "Oslo", ServiceTypeHotel)
			},
			"INVALID_RESERVATION_NUMBER",
		},
		{
			"nil customer",
			func() (*Reservation, error) {
				return NewReservation("BK-1", uuid.Nil, "Alice", valueobject.NewMoneyUSDFromFloat(100), departure, "Oslo", ServiceTypeHotel)
			},
			"INVALID_CUSTOMER",
		},
		{
			"empty customer name",
			func() (*Reservation, error) {
				return NewReservation("BK-1", customerID, "", valueobject.NewMoneyUSDFromFloat(100), departure, "Oslo", ServiceTypeHotel)
			},
			"INVALID_CUSTOMER_NAME",
		},
		{
			"negative amount",
			func() (*Reservation, error) {
				return NewReservation("BK-1", customerID, "Alice", valueobject.NewMoneyUSDFromFloat(-1), departure, "Oslo", ServiceTypeHotel)
			},
			"INVALID_AMOUNT",
		},
		{
			"zero departure date",
			func() (*Reservation, error) {
				return NewReservation("BK-1", customerID, "Alice", valueobject.NewMoneyUSDFromFloat(100), time.Time{}, "Oslo", ServiceTypeHotel)
			},
			"INVALID_DEPARTURE_DATE",
		},
		{
			"unknown service type",
			func() (*Reservation, error) {
				return NewReservation("BK-1", customerID, "Alice", valueobject.NewMoneyUSDFromFloat(100), departure, "Oslo", ServiceType("Cruise"))
			},
			"INVALID_SERVICE_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mutate()
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.errCode, domainErr.Code)
		})
	}
}

func TestNewReservation_ZeroTotalAllowed(t *testing.T) {
	r, err := NewReservation(
		"BK-FREE-1",
		uuid.New(),
		"Alice",
		valueobject.ZeroUSD(),
		time.Now().AddDate(0, 1, 0),
		"Oslo",
		ServiceTypeOther,
	)
	require.NoError(t, err)
	assert.True(t, r.TotalAmount.IsZero())
}

func TestReservation_MarkInvoiceIssued(t *testing.T) {
	r := newTestReservation(t)
	issuedAt := time.Now()

	require.NoError(t, r.MarkInvoiceIssued(issuedAt))
	require.NotNil(t, r.InvoiceIssuedAt)
	assert.True(t, r.InvoiceIssuedAt.Equal(issuedAt))
	assert.Equal(t, 2, r.Version)

	err := r.MarkInvoiceIssued(time.Now())
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVOICE_ALREADY_ISSUED", domainErr.Code)
}

func TestReservation_SetSupplierPaid(t *testing.T) {
	r := newTestReservation(t)

	r.SetSupplierPaid(true)
	assert.True(t, r.SupplierPaid)
	assert.Equal(t, 2, r.Version)

	// Toggling to the same value is a no-op
	r.SetSupplierPaid(true)
	assert.Equal(t, 2, r.Version)

	r.SetSupplierPaid(false)
	assert.False(t, r.SupplierPaid)
	assert.Equal(t, 3, r.Version)
}

func TestReservation_SetAgent(t *testing.T) {
	r := newTestReservation(t)
	agentID := uuid.New()

	r.SetAgent(agentID, "Diana")
	require.NotNil(t, r.AgentID)
	assert.Equal(t, agentID, *r.AgentID)
	assert.Equal(t, "Diana", r.AgentName)
}

func TestServiceType_IsValid(t *testing.T) {
	assert.True(t, ServiceTypeFlight.IsValid())
	assert.True(t, ServiceTypePackage.IsValid())
	assert.False(t, ServiceType("Cruise").IsValid())
	assert.False(t, ServiceType("").IsValid())
}
