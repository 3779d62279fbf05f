// Package chase parses JPMorgan Chase statement text.
package chase

import (
	"fmt"
	"strings"

	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/shopspring/decimal"
)

const (
	// transactions at which confidence reaches 1
	fullConfidenceAt = 20
	lookbehindWindow = 200
	minDescription   = 3

	defaultAccountID = "chase"

	warnNoPeriod       = "Could not detect statement period"
	warnNoTransactions = "No transactions could be extracted. The PDF format may not be supported."
)

// Extract parses the text of a Chase statement. It never fails: problems are reported as
// warnings on the result. An invalid pattern override in the config is reported the same
// way and the result is empty.
func Extract(text string, opts common.ParseOptions) common.ParseResult {
	if opts.Classifier == nil {
		opts.Classifier = categorizer.Default()
	}
	result := common.ParseResult{Transactions: []common.Transaction{}, Warnings: []string{}}

	cfg, err := loadConfig()
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid Chase pattern configuration: %v", err))
		return result
	}

	period := common.ExtractPeriod(text, opts.Today())
	if period.Found {
		result.PeriodStart, result.PeriodEnd = period.Start, period.End
	} else {
		result.Warnings = append(result.Warnings, warnNoPeriod)
	}
	result.AccountHint = common.ExtractAccountHint(text)

	accountID := result.AccountHint
	if accountID == "" {
		accountID = defaultAccountID
	}

	p := parser{cfg: cfg, opts: opts, dates: common.NewDateContext(period), accountID: accountID}
	txns := p.scanLines(text)
	if len(txns) == 0 {
		txns = p.scanFullText(text)
	}

	txns, removed := common.Dedupe(txns)
	if removed > 0 {
		result.Warnings = append(result.Warnings, common.DuplicateWarning(removed))
	}
	if len(txns) == 0 {
		result.Warnings = append(result.Warnings, warnNoTransactions)
	}

	result.Transactions = txns
	result.Confidence = common.Confidence(len(txns), fullConfidenceAt, 1)
	return result
}

type parser struct {
	cfg       config
	opts      common.ParseOptions
	dates     common.DateContext
	accountID string
}

// scanLines walks the text line by line. Section headers set the direction of the
// transactions that follow them.
func (p parser) scanLines(text string) []common.Transaction {
	var txns []common.Transaction
	section := common.Out

	for _, line := range common.Lines(text) {
		m := p.cfg.Transaction.FindStringSubmatch(line)
		if m == nil {
			if dir, ok := p.sectionOf(line); ok {
				section = dir
			}
			continue
		}

		desc, token := strings.TrimSpace(m[2]), m[3]
		if b := p.cfg.TrailingAmount.FindStringSubmatch(desc); b != nil {
			// the last column is the running balance
			desc, token = strings.TrimSpace(b[1]), b[2]
		}

		if tx, ok := p.build(m[1], desc, token, section); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

// scanFullText is used when no line matched: each date runs to the next date, and the
// first amount in between belongs to it.
func (p parser) scanFullText(text string) []common.Transaction {
	var txns []common.Transaction
	locs := p.cfg.FallbackDate.FindAllStringSubmatchIndex(text, -1)

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		m := p.cfg.FallbackBody.FindStringSubmatch(text[loc[1]:end])
		if m == nil {
			continue
		}

		dir := common.Out
		window := strings.ToUpper(text[max(0, loc[0]-lookbehindWindow):loc[0]])
		for _, kw := range p.cfg.InContext {
			if strings.Contains(window, kw) {
				dir = common.In
				break
			}
		}

		if tx, ok := p.build(text[loc[2]:loc[3]], strings.TrimSpace(m[1]), m[2], dir); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

func (p parser) sectionOf(line string) (common.Direction, bool) {
	upper := strings.ToUpper(line)
	for _, rule := range p.cfg.Sections {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.direction, true
			}
		}
	}
	return "", false
}

func (p parser) build(dateToken, desc, amountToken string, dir common.Direction) (common.Transaction, bool) {
	upper := strings.ToUpper(desc)
	if strings.Contains(upper, "DATE") && strings.Contains(upper, "DESCRIPTION") {
		return common.Transaction{}, false
	}
	if len(desc) < minDescription {
		return common.Transaction{}, false
	}

	amount, negative, ok := common.ParseAmount(amountToken)
	if !ok || amount.Equal(decimal.Zero) {
		return common.Transaction{}, false
	}
	if negative {
		dir = common.Out
	}

	date, ok := p.dates.ResolveDate(dateToken)
	if !ok {
		return common.Transaction{}, false
	}
	return p.opts.NewTransaction(date, desc, amount, dir, p.accountID), true
}
