package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func txn(date, raw, clean, amount string, dir common.Direction, tags ...string) common.Transaction {
	if tags == nil {
		tags = []string{}
	}
	return common.Transaction{
		ID:               "t-" + date,
		StatementID:      "stmt-1",
		Date:             date,
		DescriptionRaw:   raw,
		DescriptionClean: clean,
		Amount:           decimal.RequireFromString(amount),
		Direction:        dir,
		Category:         "Uncategorized",
		Channel:          common.ChannelCard,
		Tags:             tags,
	}
}

func TestTransactionsCSV(t *testing.T) {
	got, err := TransactionsCSV([]common.Transaction{
		txn("2024-03-15", "UBER TRIP", "Uber Trip", "24.5", common.Out, "work", "travel"),
		txn("2024-03-16", `ACME, "THE" STORE`, "Acme", "100", common.In),
	})
	require.NoError(t, err)

	want := strings.Join([]string{
		"Date,Description,Cleaned Description,Category,Amount,Direction,Channel,Tags,Source Statement",
		"2024-03-15,UBER TRIP,Uber Trip,Uncategorized,-24.50,OUT,CARD,work; travel,stmt-1",
		`2024-03-16,"ACME, ""THE"" STORE",Acme,Uncategorized,100.00,IN,CARD,,stmt-1`,
	}, "\n")
	assert.Equal(t, want, got)
}

// parseTransactionsCSV reads an export back for comparison.
func parseTransactionsCSV(t *testing.T, data string) []transactionRow {
	t.Helper()
	var rows []transactionRow
	require.NoError(t, gocsv.UnmarshalString(data, &rows))
	return rows
}

func TestTransactionsCSV_RoundTrip(t *testing.T) {
	faker := gofakeit.New(7)
	categories := append(categorizer.New().AllCategories(), `Home, "Garden"`)
	var txns []common.Transaction
	for i := 0; i < 50; i++ {
		dir := common.In
		if faker.Bool() {
			dir = common.Out
		}
		raw := fmt.Sprintf("%s, %s \"%s\"", faker.Company(), faker.Word(), faker.Word())
		amount := decimal.NewFromFloat(faker.Price(1, 5000)).Round(2)
		tx := txn(fmt.Sprintf("2024-01-%02d", i%28+1), raw, faker.Company(), amount.String(), dir)
		tx.Category = faker.RandomString(categories)
		txns = append(txns, tx)
	}

	out, err := TransactionsCSV(txns)
	require.NoError(t, err)
	rows := parseTransactionsCSV(t, out)

	require.Len(t, rows, len(txns))
	for i, r := range rows {
		assert.Equal(t, txns[i].Date, r.Date)
		assert.Equal(t, txns[i].DescriptionRaw, r.Description)
		assert.Equal(t, txns[i].DescriptionClean, r.Cleaned)
		assert.Equal(t, string(txns[i].Direction), r.Direction)
		assert.Equal(t, txns[i].Category, r.Category)

		amount, err := decimal.NewFromString(r.Amount)
		require.NoError(t, err)
		assert.True(t, txns[i].SignedAmount().Equal(amount), "row %d: %s", i, r.Amount)
	}
}

func TestCategorySummaryCSV(t *testing.T) {
	got, err := CategorySummaryCSV([]analyzer.CategorySummary{
		{Category: "Wire / ACH Transfer", Total: decimal.RequireFromString("700"), Count: 2, Percentage: 96.6183},
		{Category: "Food, Drink", Total: decimal.RequireFromString("24.5"), Count: 1, Percentage: 3.3817},
	})
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"Category,Total,Count,Percentage",
		"Wire / ACH Transfer,700.00,2,96.6%",
		`"Food, Drink",24.50,1,3.4%`,
	}, "\n"), got)
}

func TestTransfersDetailCSV(t *testing.T) {
	got, err := TransfersDetailCSV([]common.Transaction{
		txn("2024-03-05", "ONLINE TRANSFER TO CAPITAL ONE 0488", "Online Transfer", "500", common.Out),
	}, "Transfers to 0488")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"Label,Date,Description,Amount,Channel",
		"Transfers to 0488,2024-03-05,ONLINE TRANSFER TO CAPITAL ONE 0488,500.00,CARD",
	}, "\n"), got)
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "transactions-2025-01-15.csv", Filename("transactions", "csv", now))
	assert.Equal(t, "categories-2025-01-15.xlsx", Filename("categories", ".xlsx", now))
}

func TestTransactionsXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := TransactionsXLSX(&buf, []common.Transaction{
		txn("2024-03-15", "UBER TRIP", "Uber Trip", "24.5", common.Out, "work"),
		txn("2024-03-16", "PAYROLL", "Payroll", "2500", common.In),
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(transactionsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Source Statement", rows[0][8])
	assert.Equal(t, []string{"2024-03-15", "UBER TRIP", "Uber Trip", "Uncategorized", "-24.5", "OUT", "CARD", "work", "stmt-1"}, rows[1])
	assert.Equal(t, "2500", rows[2][4])
}
