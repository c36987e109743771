package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel filter values meaning "no restriction"
const (
	AllStatuses = "All Status"
	AllAgents   = "All Agents"
)

// Role is the acting user's role as carried in their auth claims
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Actor identifies who is asking for the finance view.
// Customers are hard-restricted to their own bookings.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// RecordFilter holds the user-selected predicates for the finance table.
// All predicates are ANDed; zero values and the All* sentinels disable the
// corresponding predicate.
type RecordFilter struct {
	Search   string     // Case-insensitive substring over customer name or reservation number
	Status   string     // Exact PaymentStatus match, or AllStatuses
	Agent    string     // Exact agent display-name match, or AllAgents
	FromDate *time.Time // Inclusive; date filtering applies only when both bounds are set
	ToDate   *time.Time
}

// Filter applies the predicate set over records, preserving input order.
//
// When the actor's role is customer, every other predicate is bypassed and
// only the actor's own records are returned. This is an access restriction,
// not a UI convenience, so it overrides whatever filter state was supplied.
func Filter(records []FinanceRecord, f RecordFilter, actor Actor) []FinanceRecord {
	out := make([]FinanceRecord, 0, len(records))

	if actor.Role == RoleCustomer {
		for i := range records {
			if records[i].CustomerID == actor.UserID {
				out = append(out, records[i])
			}
		}
		return out
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	for i := range records {
		r := &records[i]
		if !matchesSearch(r, search) {
			continue
		}
		if !matchesStatus(r, f.Status) {
			continue
		}
		if !matchesAgent(r, f.Agent) {
			continue
		}
		if !matchesDateRange(r, f.FromDate, f.ToDate) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func matchesSearch(r *FinanceRecord, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.CustomerName), search) ||
		strings.Contains(strings.ToLower(r.ReservationNumber), search)
}

func matchesStatus(r *FinanceRecord, status string) bool {
	if status == "" || status == AllStatuses {
		return true
	}
	return string(r.PaymentStatus) == status
}

func matchesAgent(r *FinanceRecord, agent string) bool {
	if agent == "" || agent == AllAgents {
		return true
	}
	return r.AgentName == agent
}

// matchesDateRange checks record creation time against [from, to] inclusive.
// Filtering engages only when both bounds are supplied.
func matchesDateRange(r *FinanceRecord, from, to *time.Time) bool {
	if from == nil || to == nil {
		return true
	}
	if r.CreatedAt.Before(*from) {
		return false
	}
	return !r.CreatedAt.After(*to)
}
