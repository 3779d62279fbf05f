package analyzer

import (
	"strings"

	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/shopspring/decimal"
)

// DateRange bounds ISO dates inclusively. An empty bound is open.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r *DateRange) contains(date string) bool {
	if r == nil {
		return true
	}
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// DashboardFilters narrow the ledger. Zero values mean "no filter".
type DashboardFilters struct {
	DateRange           *DateRange       `json:"date_range,omitempty"`
	AmountMin           *decimal.Decimal `json:"amount_min,omitempty"`
	AmountMax           *decimal.Decimal `json:"amount_max,omitempty"`
	Direction           common.Direction `json:"direction,omitempty"`
	Category            string           `json:"category,omitempty"`
	Search              string           `json:"search,omitempty"`
	SourceStatement     string           `json:"source_statement,omitempty"`
	OnlyTransfersTo0488 bool             `json:"only_transfers_to_0488"`
	OnlyACHTo0478       bool             `json:"only_ach_to_0478"`
}

// FilterOption changes one field of the current filters and leaves the rest.
type FilterOption func(*DashboardFilters)

// WithDateRange sets the date range; nil clears it.
func WithDateRange(r *DateRange) FilterOption {
	return func(f *DashboardFilters) { f.DateRange = r }
}

// WithAmountMin sets the lower amount bound; nil clears it.
func WithAmountMin(v *decimal.Decimal) FilterOption {
	return func(f *DashboardFilters) { f.AmountMin = v }
}

// WithAmountMax sets the upper amount bound; nil clears it.
func WithAmountMax(v *decimal.Decimal) FilterOption {
	return func(f *DashboardFilters) { f.AmountMax = v }
}

func WithDirection(d common.Direction) FilterOption {
	return func(f *DashboardFilters) { f.Direction = d }
}

func WithCategory(c string) FilterOption {
	return func(f *DashboardFilters) { f.Category = c }
}

func WithSearch(q string) FilterOption {
	return func(f *DashboardFilters) { f.Search = q }
}

func WithSourceStatement(id string) FilterOption {
	return func(f *DashboardFilters) { f.SourceStatement = id }
}

func WithTransfersTo0488(on bool) FilterOption {
	return func(f *DashboardFilters) { f.OnlyTransfersTo0488 = on }
}

func WithACHTo0478(on bool) FilterOption {
	return func(f *DashboardFilters) { f.OnlyACHTo0478 = on }
}

// ReplaceFilters swaps in a whole filter set.
func ReplaceFilters(next DashboardFilters) FilterOption {
	return func(f *DashboardFilters) { *f = next }
}

// SetFilters applies the options to the current filters. Filters are not persisted.
func (s *Store) SetFilters(opts ...FilterOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opt := range opts {
		opt(&s.filters)
	}
}

func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = DashboardFilters{}
}

func (s *Store) Filters() DashboardFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// apply runs the field filters and then the quick filters, each narrowing the result of
// the previous step.
func (f DashboardFilters) apply(txns []common.Transaction, rules []matching.Rule, statementExists func(string) bool) []common.Transaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	useSource := f.SourceStatement != "" && statementExists(f.SourceStatement)

	out := make([]common.Transaction, 0, len(txns))
	for _, t := range txns {
		if !f.DateRange.contains(t.Date) {
			continue
		}
		if f.AmountMin != nil && t.Amount.LessThan(*f.AmountMin) {
			continue
		}
		if f.AmountMax != nil && t.Amount.GreaterThan(*f.AmountMax) {
			continue
		}
		if f.Direction != "" && t.Direction != f.Direction {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if useSource && t.StatementID != f.SourceStatement {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		out = append(out, t)
	}

	if f.OnlyTransfersTo0488 {
		out = matching.TransfersTo0488(out, rules)
	}
	if f.OnlyACHTo0478 {
		out = matching.ACHTo0478(out, rules)
	}
	return out
}

func matchesSearch(t common.Transaction, q string) bool {
	return strings.Contains(strings.ToLower(t.DescriptionRaw), q) ||
		strings.Contains(strings.ToLower(t.DescriptionClean), q) ||
		strings.Contains(strings.ToLower(t.Category), q)
}
