// Package export renders ledger data as CSV or XLSX for download.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/gocarina/gocsv"
)

type transactionRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Cleaned     string `csv:"Cleaned Description"`
	Category    string `csv:"Category"`
	Amount      string `csv:"Amount"`
	Direction   string `csv:"Direction"`
	Channel     string `csv:"Channel"`
	Tags        string `csv:"Tags"`
	Source      string `csv:"Source Statement"`
}

type categoryRow struct {
	Category   string `csv:"Category"`
	Total      string `csv:"Total"`
	Count      string `csv:"Count"`
	Percentage string `csv:"Percentage"`
}

type transferRow struct {
	Label       string `csv:"Label"`
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Channel     string `csv:"Channel"`
}

// SignedAmount formats the amount with two decimals and a leading "-" for outflows.
func SignedAmount(t common.Transaction) string {
	return t.SignedAmount().StringFixed(2)
}

func newTransactionRow(t common.Transaction) transactionRow {
	return transactionRow{
		Date:        t.Date,
		Description: t.DescriptionRaw,
		Cleaned:     t.DescriptionClean,
		Category:    t.Category,
		Amount:      SignedAmount(t),
		Direction:   string(t.Direction),
		Channel:     string(t.Channel),
		Tags:        strings.Join(t.Tags, "; "),
		Source:      t.StatementID,
	}
}

// TransactionsCSV renders the ledger with a header row. Lines are separated by "\n"
// without a trailing newline.
func TransactionsCSV(txns []common.Transaction) (string, error) {
	rows := make([]transactionRow, len(txns))
	for i, t := range txns {
		rows[i] = newTransactionRow(t)
	}
	return marshal(&rows)
}

// CategorySummaryCSV renders category totals; the percentage keeps one decimal.
func CategorySummaryCSV(summaries []analyzer.CategorySummary) (string, error) {
	rows := make([]categoryRow, len(summaries))
	for i, c := range summaries {
		rows[i] = categoryRow{
			Category:   c.Category,
			Total:      c.Total.StringFixed(2),
			Count:      strconv.Itoa(c.Count),
			Percentage: strconv.FormatFloat(c.Percentage, 'f', 1, 64) + "%",
		}
	}
	return marshal(&rows)
}

// TransfersDetailCSV lists matched transfers, each row prefixed with label. Amounts are
// unsigned.
func TransfersDetailCSV(txns []common.Transaction, label string) (string, error) {
	rows := make([]transferRow, len(txns))
	for i, t := range txns {
		rows[i] = transferRow{
			Label:       label,
			Date:        t.Date,
			Description: t.DescriptionRaw,
			Amount:      t.Amount.StringFixed(2),
			Channel:     string(t.Channel),
		}
	}
	return marshal(&rows)
}

func marshal(rows any) (string, error) {
	out, err := gocsv.MarshalString(rows)
	if err != nil {
		return "", fmt.Errorf("marshal csv: %w", err)
	}
	return strings.TrimSuffix(out, "\n"), nil
}

// Filename builds a dated download name such as "transactions-2025-01-15.csv".
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, now.Format(time.DateOnly), strings.TrimPrefix(ext, "."))
}
