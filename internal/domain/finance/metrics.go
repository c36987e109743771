package finance

import (
	"github.com/shopspring/decimal"
)

// Metrics are the dashboard aggregates reduced from a set of FinanceRecords.
// Sums are exact decimals; display rounding happens at the presentation layer.
type Metrics struct {
	TotalReceived        decimal.Decimal `json:"total_received"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	SupplierDue          decimal.Decimal `json:"supplier_due"`
	ReadyForClosureCount int64           `json:"ready_for_closure_count"`
	TotalProfit          decimal.Decimal `json:"total_profit"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	AvgProfitMargin      decimal.Decimal `json:"avg_profit_margin"`
}

// Aggregate reduces a collection of FinanceRecords into dashboard metrics.
// SupplierDue covers only bookings whose supplier share is still unsettled;
// the average margin is revenue-weighted, not a mean of per-record margins.
func Aggregate(records []FinanceRecord) Metrics {
	m := Metrics{
		TotalReceived:    decimal.Zero,
		TotalOutstanding: decimal.Zero,
		SupplierDue:      decimal.Zero,
		TotalProfit:      decimal.Zero,
		TotalRevenue:     decimal.Zero,
		AvgProfitMargin:  decimal.Zero,
	}

	for i := range records {
		r := &records[i]
		m.TotalReceived = m.TotalReceived.Add(r.PaidAmount)
		m.TotalOutstanding = m.TotalOutstanding.Add(r.OutstandingBalance)
		m.TotalProfit = m.TotalProfit.Add(r.Profit)
		m.TotalRevenue = m.TotalRevenue.Add(r.TotalAmount)
		if !r.SupplierPaid {
			m.SupplierDue = m.SupplierDue.Add(r.SupplierCost)
		}
		if r.IsReadyForClosure() {
			m.ReadyForClosureCount++
		}
	}

	if m.TotalRevenue.IsPositive() {
		m.AvgProfitMargin = m.TotalProfit.Div(m.TotalRevenue).Mul(hundred)
	}

	return m
}
