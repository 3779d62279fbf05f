// Package matching evaluates user-editable rules that pick out transactions of interest,
// such as transfers to a particular account.
package matching

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/aqlanhadi/analyzer/extractor/common"
)

type MatchType string

const (
	MatchContains MatchType = "contains"
	MatchRegex    MatchType = "regex"
	MatchMerchant MatchType = "merchant"
)

const (
	RuleCapitalOne0488 = "cap-one-0488"
	RuleACH0478        = "ach-0478"
)

var (
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrUnknownMatchType = errors.New("unknown match type")
)

type Rule struct {
	RuleID        string          `json:"rule_id"`
	Name          string          `json:"name"`
	MatchType     MatchType       `json:"match_type"`
	Patterns      []string        `json:"patterns"`
	ChannelFilter *common.Channel `json:"channel_filter,omitempty"`
	Enabled       bool            `json:"enabled"`
}

// DefaultRules returns fresh copies of the built-in rules.
func DefaultRules() []Rule {
	ach := common.ChannelACH
	return []Rule{
		{
			RuleID:    RuleCapitalOne0488,
			Name:      "Capital One 0488 Transfers",
			MatchType: MatchContains,
			Patterns:  []string{"0488", "CAPITAL ONE", "CAP ONE"},
			Enabled:   true,
		},
		{
			RuleID:        RuleACH0478,
			Name:          "ACH to 0478",
			MatchType:     MatchContains,
			Patterns:      []string{"0478"},
			ChannelFilter: &ach,
			Enabled:       true,
		},
	}
}

var regexCache sync.Map // pattern -> compiledPattern

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

func compile(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexCache.Load(pattern); ok {
		c := v.(compiledPattern)
		return c.re, c.err
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		err = fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	regexCache.Store(pattern, compiledPattern{re: re, err: err})
	return re, err
}

// Evaluate reports whether the rule selects the transaction. A disabled rule or a
// channel mismatch never matches. Patterns that fail to compile are skipped; if no other
// pattern matched, their errors are returned.
func Evaluate(rule Rule, txn common.Transaction) (bool, error) {
	if !rule.Enabled {
		return false, nil
	}
	if rule.ChannelFilter != nil && txn.Channel != *rule.ChannelFilter {
		return false, nil
	}

	switch rule.MatchType {
	case MatchContains:
		raw := strings.ToLower(txn.DescriptionRaw)
		for _, p := range rule.Patterns {
			if strings.Contains(raw, strings.ToLower(p)) {
				return true, nil
			}
		}
		return false, nil

	case MatchMerchant:
		clean := strings.ToLower(txn.DescriptionClean)
		for _, p := range rule.Patterns {
			if strings.Contains(clean, strings.ToLower(p)) {
				return true, nil
			}
		}
		return false, nil

	case MatchRegex:
		var errs []error
		for _, p := range rule.Patterns {
			re, err := compile(p)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if re.MatchString(txn.DescriptionRaw) {
				return true, nil
			}
		}
		return false, errors.Join(errs...)
	}
	return false, fmt.Errorf("%w %q", ErrUnknownMatchType, rule.MatchType)
}

// Matches is Evaluate with errors treated as no match.
func Matches(rule Rule, txn common.Transaction) bool {
	ok, _ := Evaluate(rule, txn)
	return ok
}

// Validate checks that the rule's match type is known and that regex patterns compile.
func Validate(rule Rule) error {
	switch rule.MatchType {
	case MatchContains, MatchMerchant:
		return nil
	case MatchRegex:
		var errs []error
		for _, p := range rule.Patterns {
			if _, err := compile(p); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return fmt.Errorf("%w %q", ErrUnknownMatchType, rule.MatchType)
}

// GetMatchingTransactions returns the transactions the rule selects, each at most once,
// in input order.
func GetMatchingTransactions(txns []common.Transaction, rule Rule) []common.Transaction {
	out := make([]common.Transaction, 0)
	for _, t := range txns {
		if Matches(rule, t) {
			out = append(out, t)
		}
	}
	return out
}

// Find looks a rule up by id.
func Find(rules []Rule, id string) (Rule, bool) {
	for _, r := range rules {
		if r.RuleID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// TransfersTo0488 returns the outflows selected by the cap-one-0488 rule.
func TransfersTo0488(txns []common.Transaction, rules []Rule) []common.Transaction {
	return outflowsMatching(txns, rules, RuleCapitalOne0488)
}

// ACHTo0478 returns the outflows selected by the ach-0478 rule.
func ACHTo0478(txns []common.Transaction, rules []Rule) []common.Transaction {
	return outflowsMatching(txns, rules, RuleACH0478)
}

func outflowsMatching(txns []common.Transaction, rules []Rule, id string) []common.Transaction {
	rule, ok := Find(rules, id)
	if !ok {
		return []common.Transaction{}
	}
	out := make([]common.Transaction, 0)
	for _, t := range GetMatchingTransactions(txns, rule) {
		if t.Direction == common.Out {
			out = append(out, t)
		}
	}
	return out
}
