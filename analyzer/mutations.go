package analyzer

import (
	"context"
	"fmt"
	"slices"

	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
)

// AddRule appends a rule. Patterns are not validated here; see matching.Validate.
func (s *Store) AddRule(ctx context.Context, rule matching.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule)
	return s.saveLocked(ctx)
}

// AddUniqueRule is AddRule that refuses a RuleID already in use.
func (s *Store) AddUniqueRule(ctx context.Context, rule matching.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := matching.Find(s.rules, rule.RuleID); exists {
		return fmt.Errorf("%w: %q", ErrRuleExists, rule.RuleID)
	}
	s.rules = append(s.rules, rule)
	return s.saveLocked(ctx)
}

// UpdateRule replaces the rule with the same RuleID.
func (s *Store) UpdateRule(ctx context.Context, rule matching.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.rules, func(r matching.Rule) bool { return r.RuleID == rule.RuleID })
	if idx < 0 {
		return ErrRuleNotFound
	}
	s.rules[idx] = rule
	return s.saveLocked(ctx)
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.rules, func(r matching.Rule) bool { return r.RuleID == id })
	if idx < 0 {
		return ErrRuleNotFound
	}
	s.rules = slices.Delete(s.rules, idx, idx+1)
	return s.saveLocked(ctx)
}

// UpdateTransactionCategory sets the category of one transaction. The category is free
// text and does not have to be one of the built-in categories.
func (s *Store) UpdateTransactionCategory(ctx context.Context, id, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.transactions, func(t common.Transaction) bool { return t.ID == id })
	if idx < 0 {
		return ErrTransactionNotFound
	}
	s.transactions[idx].Category = category
	return s.saveLocked(ctx)
}

// AddCategoryOverride makes future uploads whose description contains pattern land in
// category. Existing transactions keep their category.
func (s *Store) AddCategoryOverride(ctx context.Context, pattern, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categorizer.AddOverride(pattern, category)
	return s.saveLocked(ctx)
}

// RemoveCategoryOverride reports whether an override was removed.
func (s *Store) RemoveCategoryOverride(ctx context.Context, pattern string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.categorizer.RemoveOverride(pattern) {
		return false, nil
	}
	return true, s.saveLocked(ctx)
}

func (s *Store) CategoryOverrides() []categorizer.Override {
	return s.categorizer.Overrides()
}
