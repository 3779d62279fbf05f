// Package generic parses statements from banks without a dedicated parser. It only
// recognises "<date> <description> <amount>" lines and trusts the amount's sign for
// direction.
package generic

import (
	"regexp"
	"strings"

	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/extractor/common"
)

const (
	fullConfidenceAt = 30
	maxConfidence    = 0.7
	defaultAccountID = "unknown"
	minDescription   = 3

	warnGeneric        = "Using generic parser - results may be less accurate"
	warnNoTransactions = "No transactions could be extracted."
)

// Tried in order on every line; the first family that matches wins.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)\s*$`),
	regexp.MustCompile(`(\d{1,2}-\d{1,2}-\d{2,4})\s+(.+?)\s+(\(?-?\$?[\d,]+\.\d{2}\)?)\s*$`),
}

// Extract parses statement text with bank-agnostic line patterns.
func Extract(text string, opts common.ParseOptions) common.ParseResult {
	if opts.Classifier == nil {
		opts.Classifier = categorizer.Default()
	}
	result := common.ParseResult{
		Transactions: []common.Transaction{},
		Warnings:     []string{warnGeneric},
	}

	period := common.ExtractPeriod(text, opts.Today())
	if period.Found {
		result.PeriodStart, result.PeriodEnd = period.Start, period.End
	}
	result.AccountHint = common.ExtractAccountHint(text)
	accountID := result.AccountHint
	if accountID == "" {
		accountID = defaultAccountID
	}
	dates := common.NewDateContext(period)

	for _, line := range common.Lines(text) {
		for _, re := range linePatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if tx, ok := build(opts, dates, accountID, m[1], strings.TrimSpace(m[2]), m[3]); ok {
				result.Transactions = append(result.Transactions, tx)
			}
			break
		}
	}

	if len(result.Transactions) == 0 {
		result.Warnings = append(result.Warnings, warnNoTransactions)
	}
	result.Confidence = common.Confidence(len(result.Transactions), fullConfidenceAt, maxConfidence)
	return result
}

func build(opts common.ParseOptions, dates common.DateContext, accountID, dateToken, desc, amountToken string) (common.Transaction, bool) {
	amount, negative, ok := common.ParseAmount(amountToken)
	if !ok || amount.IsZero() || len(desc) < minDescription {
		return common.Transaction{}, false
	}
	date, ok := dates.ResolveDate(dateToken)
	if !ok {
		return common.Transaction{}, false
	}

	dir := common.In
	if negative {
		dir = common.Out
	}
	return opts.NewTransaction(date, desc, amount, dir, accountID), true
}
