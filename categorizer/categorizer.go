// Package categorizer assigns spending categories and payment channels to transaction
// descriptions and produces the cleaned, display form of a description.
package categorizer

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Override forces a category for descriptions containing Pattern (case-insensitive).
type Override struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
}

// Categorizer is safe for concurrent use. Overrides are checked before the rule table.
type Categorizer struct {
	rules []Rule

	// keyword index in the automaton -> lowest rule index using that keyword
	owners  []int
	matcher *ahocorasick.Matcher
	matchMu sync.Mutex

	mu        sync.RWMutex
	overrides []Override
}

var _ common.Classifier = (*Categorizer)(nil)

// New builds a categorizer over DefaultRules.
func New() *Categorizer {
	return NewWithRules(DefaultRules)
}

// NewWithRules builds a categorizer over a custom ordered rule table.
func NewWithRules(rules []Rule) *Categorizer {
	c := &Categorizer{rules: rules}

	index := make(map[string]int)
	var patterns [][]byte
	for ri, rule := range rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToUpper(kw)
			if kw == "" {
				continue
			}
			if _, ok := index[kw]; ok {
				continue
			}
			index[kw] = len(patterns)
			patterns = append(patterns, []byte(kw))
			c.owners = append(c.owners, ri)
		}
	}
	if len(patterns) > 0 {
		c.matcher = ahocorasick.NewMatcher(patterns)
	}
	return c
}

var defaultCategorizer = New()

// Default returns a shared categorizer with no overrides.
func Default() *Categorizer {
	return defaultCategorizer
}

// Categorize returns the category for a description: the first override whose pattern is
// contained in it, else the first matching rule, else Uncategorized.
func (c *Categorizer) Categorize(description string) string {
	upper := strings.ToUpper(description)

	c.mu.RLock()
	for _, o := range c.overrides {
		if strings.Contains(upper, strings.ToUpper(o.Pattern)) {
			c.mu.RUnlock()
			return o.Category
		}
	}
	c.mu.RUnlock()

	if c.matcher == nil {
		return Uncategorized
	}

	c.matchMu.Lock()
	hits := c.matcher.Match([]byte(upper))
	c.matchMu.Unlock()

	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(c.owners) {
			continue
		}
		if owner := c.owners[idx]; best == -1 || owner < best {
			best = owner
		}
	}
	if best == -1 {
		return Uncategorized
	}
	return c.rules[best].Category
}

// DetectChannel returns the payment channel implied by the description.
func (c *Categorizer) DetectChannel(description string) common.Channel {
	return DetectChannel(description)
}

// Clean returns the display form of a description.
func (c *Categorizer) Clean(description string) string {
	return CleanDescription(description)
}

// AddOverride sets the category for a pattern. Re-adding a pattern replaces its category
// and keeps its position.
func (c *Categorizer) AddOverride(pattern, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.overrides {
		if c.overrides[i].Pattern == pattern {
			c.overrides[i].Category = category
			return
		}
	}
	c.overrides = append(c.overrides, Override{Pattern: pattern, Category: category})
}

// RemoveOverride deletes a pattern and reports whether it existed.
func (c *Categorizer) RemoveOverride(pattern string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.overrides {
		if c.overrides[i].Pattern == pattern {
			c.overrides = slices.Delete(c.overrides, i, i+1)
			return true
		}
	}
	return false
}

// Overrides returns the overrides in evaluation order.
func (c *Categorizer) Overrides() []Override {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.overrides)
}

// SetOverrides replaces all overrides, e.g. when restoring a snapshot.
func (c *Categorizer) SetOverrides(overrides []Override) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides = slices.Clone(overrides)
}

// AllCategories lists the rule table's categories in table order, then Uncategorized.
func (c *Categorizer) AllCategories() []string {
	seen := make(map[string]struct{}, len(c.rules))
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return append(out, Uncategorized)
}

// Suggest ranks known categories (built-in and override targets) by similarity to input
// and returns at most n of them.
func (c *Categorizer) Suggest(input string, n int) []string {
	if n <= 0 {
		n = 3
	}
	known := c.AllCategories()
	for _, o := range c.Overrides() {
		if !slices.Contains(known, o.Category) {
			known = append(known, o.Category)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(input, known)
	sort.Sort(ranks)
	out := make([]string, 0, n)
	for _, r := range ranks {
		if len(out) == n {
			return out
		}
		out = append(out, r.Target)
	}
	if len(out) > 0 {
		return out
	}

	// Nothing contains the input as a subsequence; fall back to edit distance.
	lower := strings.ToLower(input)
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, k := range known {
		d := fuzzy.LevenshteinDistance(lower, strings.ToLower(k))
		if d <= len(k)/2 {
			candidates = append(candidates, scored{k, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	for _, s := range candidates {
		if len(out) == n {
			break
		}
		out = append(out, s.name)
	}
	return out
}

// Categorize classifies with the default table and no overrides.
func Categorize(description string) string {
	return defaultCategorizer.Categorize(description)
}
