package analyzer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/shopspring/decimal"
)

// topMerchantLimit caps TopMerchants.
const topMerchantLimit = 15

type RuleStats struct {
	Total        decimal.Decimal      `json:"total"`
	Count        int                  `json:"count"`
	Transactions []common.Transaction `json:"transactions"`
}

// DashboardStats ignores every filter except the date range.
type DashboardStats struct {
	TotalIn         decimal.Decimal `json:"total_in"`
	TotalOut        decimal.Decimal `json:"total_out"`
	TransfersTo0488 RuleStats       `json:"transfers_to_0488"`
	ACHTo0478       RuleStats       `json:"ach_to_0478"`
}

type CategorySummary struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

type MerchantSummary struct {
	Merchant string          `json:"merchant"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

type MonthlyTrend struct {
	Month    string          `json:"month"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
}

// projectTransactionsLocked returns the transactions belonging to the active project's
// statements, in insertion order.
func (s *Store) projectTransactionsLocked() []common.Transaction {
	p := s.findProjectLocked(s.activeProjectID)
	if p == nil {
		return []common.Transaction{}
	}
	owned := make(map[string]struct{}, len(p.StatementIDs))
	for _, id := range p.StatementIDs {
		owned[id] = struct{}{}
	}
	out := make([]common.Transaction, 0)
	for _, t := range s.transactions {
		if _, ok := owned[t.StatementID]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) statementExistsLocked(id string) bool {
	return slices.ContainsFunc(s.statements, func(st common.Statement) bool { return st.ID == id })
}

func (s *Store) filteredLocked() []common.Transaction {
	out := s.filters.apply(s.projectTransactionsLocked(), s.rules, s.statementExistsLocked)
	slices.SortStableFunc(out, func(a, b common.Transaction) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

// FilteredTransactions returns the active project's transactions narrowed by the current
// filters, newest first.
func (s *Store) FilteredTransactions() []common.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredLocked()
}

func (s *Store) DashboardStats() DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scoped := DashboardFilters{DateRange: s.filters.DateRange}.apply(
		s.projectTransactionsLocked(), s.rules, s.statementExistsLocked)

	var stats DashboardStats
	for _, t := range scoped {
		if t.Direction == common.In {
			stats.TotalIn = stats.TotalIn.Add(t.Amount)
		} else {
			stats.TotalOut = stats.TotalOut.Add(t.Amount)
		}
	}
	stats.TransfersTo0488 = ruleStats(matching.TransfersTo0488(scoped, s.rules))
	stats.ACHTo0478 = ruleStats(matching.ACHTo0478(scoped, s.rules))
	return stats
}

func ruleStats(txns []common.Transaction) RuleStats {
	rs := RuleStats{Count: len(txns), Transactions: txns}
	for _, t := range txns {
		rs.Total = rs.Total.Add(t.Amount)
	}
	return rs
}

// CategorySummary groups filtered outflows by category, largest total first.
func (s *Store) CategorySummary() []CategorySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var spend decimal.Decimal
	byCategory := map[string]*CategorySummary{}
	for _, t := range s.filteredLocked() {
		if t.Direction != common.Out {
			continue
		}
		spend = spend.Add(t.Amount)
		c, ok := byCategory[t.Category]
		if !ok {
			c = &CategorySummary{Category: t.Category}
			byCategory[t.Category] = c
		}
		c.Total = c.Total.Add(t.Amount)
		c.Count++
	}

	out := make([]CategorySummary, 0, len(byCategory))
	for _, c := range byCategory {
		if spend.IsPositive() {
			c.Percentage = c.Total.Div(spend).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b CategorySummary) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// TopMerchants groups filtered outflows by cleaned description and keeps the 15 largest.
func (s *Store) TopMerchants() []MerchantSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMerchant := map[string]*MerchantSummary{}
	for _, t := range s.filteredLocked() {
		if t.Direction != common.Out {
			continue
		}
		m, ok := byMerchant[t.DescriptionClean]
		if !ok {
			m = &MerchantSummary{Merchant: t.DescriptionClean}
			byMerchant[t.DescriptionClean] = m
		}
		m.Total = m.Total.Add(t.Amount)
		m.Count++
	}

	out := make([]MerchantSummary, 0, len(byMerchant))
	for _, m := range byMerchant {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b MerchantSummary) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Merchant, b.Merchant)
	})
	if len(out) > topMerchantLimit {
		out = out[:topMerchantLimit]
	}
	return out
}

// MonthlyTrends totals filtered transactions per YYYY-MM, oldest month first.
func (s *Store) MonthlyTrends() []MonthlyTrend {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := map[string]*MonthlyTrend{}
	for _, t := range s.filteredLocked() {
		if len(t.Date) < 7 {
			continue
		}
		month := t.Date[:7]
		m, ok := byMonth[month]
		if !ok {
			m = &MonthlyTrend{Month: month}
			byMonth[month] = m
		}
		if t.Direction == common.In {
			m.TotalIn = m.TotalIn.Add(t.Amount)
		} else {
			m.TotalOut = m.TotalOut.Add(t.Amount)
		}
	}

	out := make([]MonthlyTrend, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b MonthlyTrend) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

// MatchingTransactions narrows the filtered set by a single rule.
func (s *Store) MatchingTransactions(ruleID string) ([]common.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := matching.Find(s.rules, ruleID)
	if !ok {
		return nil, ErrRuleNotFound
	}
	return matching.GetMatchingTransactions(s.filteredLocked(), rule), nil
}

// ActiveProjectStatements returns the bank statement records of the active project.
func (s *Store) ActiveProjectStatements() []common.Statement {
	return s.activeRecords(common.DocStatement)
}

// Documents returns the tax form records of the active project.
func (s *Store) Documents() []common.Statement {
	return s.activeRecords(common.DocForm)
}

func (s *Store) activeRecords(kind common.DocType) []common.Statement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Statement, 0)
	p := s.findProjectLocked(s.activeProjectID)
	if p == nil {
		return out
	}
	for _, id := range p.StatementIDs {
		for _, st := range s.statements {
			if st.ID == id && st.DocType() == kind {
				out = append(out, st)
				break
			}
		}
	}
	return out
}
