package common

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var amountNoiseRegex = regexp.MustCompile(`[\s$,()+-]`)

// ParseAmount parses an amount token such as "-$1,234.56" or "(24.50)". The amount is
// always returned as a magnitude; negative reports a leading minus or accounting
// parentheses. ok is false when nothing numeric remains.
func ParseAmount(token string) (amount decimal.Decimal, negative bool, ok bool) {
	token = strings.TrimSpace(token)
	negative = strings.HasPrefix(token, "-") ||
		(strings.HasPrefix(token, "(") && strings.HasSuffix(token, ")"))

	clean := amountNoiseRegex.ReplaceAllString(token, "")
	if clean == "" {
		return decimal.Zero, negative, false
	}
	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, negative, false
	}
	return amount.Abs(), negative, true
}

// FixDateYear adjusts the year of a transaction date if it falls in a different year than the statement
func FixDateYear(txDate time.Time, statementDate time.Time) time.Time {
	if txDate.Year() != statementDate.Year() {
		transactionYear := statementDate.Year()
		// e.g. statement ending Jan 2024, transaction on 12/28 -> Dec 2023
		if statementDate.Month() < txDate.Month() {
			transactionYear = statementDate.Year() - 1
		}
		return time.Date(transactionYear, txDate.Month(), txDate.Day(), 0, 0, 0, 0, time.UTC)
	}
	return txDate
}

// DateContext is the reference used to complete dates printed without a year.
type DateContext struct {
	// Anchor is the statement period end, or Dec 31 of the inferred year.
	Anchor time.Time
}

// NewDateContext anchors short dates on the period end when one was found, otherwise on
// the whole fallback year.
func NewDateContext(p Period) DateContext {
	if p.Found {
		if end, err := time.Parse(time.DateOnly, p.End); err == nil {
			return DateContext{Anchor: end}
		}
	}
	return DateContext{Anchor: time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)}
}

// ResolveDate turns "M/D", "M/D/YY", "M/D/YYYY" or the dashed forms into an ISO date.
func (c DateContext) ResolveDate(token string) (string, bool) {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(token), "-", "/"), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return "", false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return "", false
	}

	if len(parts) == 3 && parts[2] != "" {
		year, ok := parseYear(parts[2])
		if !ok {
			return "", false
		}
		return calendarDate(year, month, day)
	}

	// year 0 is a leap year, so 02/29 survives until the real year is known
	date := FixDateYear(time.Date(0, time.Month(month), day, 0, 0, 0, 0, time.UTC), c.Anchor)
	return calendarDate(date.Year(), month, day)
}

func parseYear(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	switch len(s) {
	case 2:
		return 2000 + year, true
	case 4:
		return year, true
	}
	return 0, false
}

func isoDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// calendarDate rejects days the month does not have, such as 02/30 or 02/29 outside a
// leap year.
func calendarDate(year, month, day int) (string, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return isoDate(year, month, day), true
}

// Period is the statement period found in a document's text.
type Period struct {
	Start string
	End   string
	Found bool
	// Year is the year used for short dates when no period was found.
	Year int
}

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec`

var (
	namedPeriodRegex = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2}),?\s*(\d{4})\s*(?:through|thru|to|-)\s*(` + monthNames + `)\.?\s+(\d{1,2}),?\s*(\d{4})`)
	numericPeriodRegex = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{2,4})\s*(?:through|thru|to|-)\s*(\d{1,2})/(\d{1,2})/(\d{2,4})`)
	yearTokenRegex     = regexp.MustCompile(`\b(20[0-9]{2})\b`)
)

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

func monthNumber(name string) int {
	name = strings.ToLower(name)
	if len(name) > 3 {
		name = name[:3]
	}
	return monthIndex[name]
}

// ExtractPeriod finds "Month DD, YYYY through Month DD, YYYY" or "MM/DD/YY - MM/DD/YY".
// When neither is present the first 20xx token, or now's year, is kept for short dates.
func ExtractPeriod(text string, now time.Time) Period {
	if m := namedPeriodRegex.FindStringSubmatch(text); m != nil {
		start, ok1 := namedDate(m[1], m[2], m[3])
		end, ok2 := namedDate(m[4], m[5], m[6])
		if ok1 && ok2 {
			return Period{Start: start, End: end, Found: true, Year: yearOf(end)}
		}
	}
	if m := numericPeriodRegex.FindStringSubmatch(text); m != nil {
		start, ok1 := numericDate(m[1], m[2], m[3])
		end, ok2 := numericDate(m[4], m[5], m[6])
		if ok1 && ok2 {
			return Period{Start: start, End: end, Found: true, Year: yearOf(end)}
		}
	}
	if m := yearTokenRegex.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		return Period{Year: year}
	}
	return Period{Year: now.Year()}
}

func namedDate(month, day, year string) (string, bool) {
	m := monthNumber(month)
	d, err := strconv.Atoi(day)
	if m == 0 || err != nil || d < 1 || d > 31 {
		return "", false
	}
	y, ok := parseYear(year)
	if !ok {
		return "", false
	}
	return calendarDate(y, m, d)
}

func numericDate(month, day, year string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	y, ok := parseYear(year)
	if !ok {
		return "", false
	}
	return calendarDate(y, m, d)
}

func yearOf(iso string) int {
	y, _ := strconv.Atoi(iso[:4])
	return y
}

var accountHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)account\s*(?:number|#|no\.?)?\s*[:.]?\s*(?:\.\.\.|…|[x*]+)?\s*(\d[\d-]*\d)`),
	regexp.MustCompile(`(?i)ending\s*in\s*(\d{4})`),
	regexp.MustCompile(`(?i)(?:\.\.\.|…|x{3,}|\*{3,})(\d{4})`),
}

var nonDigitRegex = regexp.MustCompile(`\D`)

// ExtractAccountHint returns the last four digits of the account number printed on the
// statement, or "" when none of the known layouts is present.
func ExtractAccountHint(text string) string {
	for _, re := range accountHintPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		digits := nonDigitRegex.ReplaceAllString(m[1], "")
		if len(digits) < 4 {
			continue
		}
		return digits[len(digits)-4:]
	}
	return ""
}

// Dedupe drops transactions repeating an earlier (date, raw description, amount,
// direction) within the same parse and reports how many were removed.
func Dedupe(txns []Transaction) ([]Transaction, int) {
	seen := make(map[string]struct{}, len(txns))
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		key := strings.Join([]string{t.Date, t.DescriptionRaw, t.Amount.StringFixed(2), string(t.Direction)}, "|")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out, len(txns) - len(out)
}

// DuplicateWarning formats the warning recorded when Dedupe removed anything.
func DuplicateWarning(n int) string {
	return fmt.Sprintf("Removed %d duplicate transactions", n)
}

// Confidence scales the transaction count into [0, ceiling]: n/full, capped.
func Confidence(n int, full, ceiling float64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(ceiling, float64(n)/full)
}

// Truncate cuts text to at most n runes.
func Truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}

// Lines splits extracted text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// NewTransaction builds an enriched transaction. Classifier must be set.
func (o ParseOptions) NewTransaction(date, raw string, amount decimal.Decimal, dir Direction, accountID string) Transaction {
	return Transaction{
		ID:               o.NextID(),
		AccountID:        accountID,
		StatementID:      o.StatementID,
		Date:             date,
		DescriptionRaw:   raw,
		DescriptionClean: o.Classifier.Clean(raw),
		Amount:           amount,
		Direction:        dir,
		Category:         o.Classifier.Categorize(raw),
		Channel:          o.Classifier.DetectChannel(raw),
		Tags:             []string{},
	}
}
