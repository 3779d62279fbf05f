package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		token    string
		want     string
		negative bool
		ok       bool
	}{
		{"123.45", "123.45", false, true},
		{"1,234.56", "1234.56", false, true},
		{"$1,234,567.89", "1234567.89", false, true},
		{"-$24.50", "24.50", true, true},
		{"-24.50", "24.50", true, true},
		{"(99.10)", "99.10", true, true},
		{"0.00", "0.00", false, true},
		{"", "0.00", false, false},
		{"ABC", "0.00", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			amount, negative, ok := ParseAmount(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.negative, negative)
			assert.Equal(t, tt.want, amount.StringFixed(2))
			assert.False(t, amount.IsNegative())
		})
	}
}

func TestFixDateYear_SameYear(t *testing.T) {
	txDate := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)
	stmtDate := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)

	result := FixDateYear(txDate, stmtDate)

	assert.Equal(t, 2024, result.Year())
	assert.Equal(t, time.November, result.Month())
}

func TestFixDateYear_PreviousYear(t *testing.T) {
	// Transaction in December, statement in January
	txDate := time.Date(0, 12, 15, 0, 0, 0, 0, time.UTC)
	stmtDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	result := FixDateYear(txDate, stmtDate)

	assert.Equal(t, 2023, result.Year())
	assert.Equal(t, time.December, result.Month())
	assert.Equal(t, 15, result.Day())
}

func TestFixDateYear_CurrentYear(t *testing.T) {
	txDate := time.Date(0, 10, 20, 0, 0, 0, 0, time.UTC)
	stmtDate := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)

	result := FixDateYear(txDate, stmtDate)

	assert.Equal(t, 2024, result.Year())
	assert.Equal(t, time.October, result.Month())
}

func TestResolveDate(t *testing.T) {
	jan := NewDateContext(Period{Start: "2023-12-15", End: "2024-01-14", Found: true, Year: 2024})
	plain := NewDateContext(Period{Year: 2022})

	tests := []struct {
		name  string
		ctx   DateContext
		token string
		want  string
		ok    bool
	}{
		{"short date in period end year", jan, "01/05", "2024-01-05", true},
		{"short date before new year", jan, "12/28", "2023-12-28", true},
		{"fallback year", plain, "3/15", "2022-03-15", true},
		{"two digit year", plain, "3/15/24", "2024-03-15", true},
		{"four digit year", plain, "03/15/2021", "2021-03-15", true},
		{"dashed", plain, "03-15-2021", "2021-03-15", true},
		{"bad month", plain, "13/01", "", false},
		{"bad day", plain, "01/32", "", false},
		{"day the month lacks", plain, "02/30", "", false},
		{"leap day outside a leap year", plain, "2/29", "", false},
		{"leap day with explicit year", plain, "02/29/2023", "", false},
		{"leap day in a leap year", NewDateContext(Period{End: "2024-03-31", Found: true}), "02/29", "2024-02-29", true},
		{"thirty first of a short month", plain, "04/31/2022", "", false},
		{"garbage", plain, "ab/cd", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ctx.ResolveDate(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPeriod(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want Period
	}{
		{
			name: "named months",
			text: "CHASE\nJanuary 15, 2024 through February 14, 2024\nAccount Number",
			want: Period{Start: "2024-01-15", End: "2024-02-14", Found: true, Year: 2024},
		},
		{
			name: "abbreviated months with thru",
			text: "Statement Period Dec 16, 2023 thru Jan 15, 2024",
			want: Period{Start: "2023-12-16", End: "2024-01-15", Found: true, Year: 2024},
		},
		{
			name: "numeric two digit years",
			text: "Period 03/01/24 - 03/31/24",
			want: Period{Start: "2024-03-01", End: "2024-03-31", Found: true, Year: 2024},
		},
		{
			name: "year token only",
			text: "Statement for 2022 activity",
			want: Period{Year: 2022},
		},
		{
			name: "nothing",
			text: "no dates here",
			want: Period{Year: 2026},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPeriod(tt.text, now))
		})
	}
}

func TestExtractAccountHint(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Account Number: 000000123456789", "6789"},
		{"Primary Account # ...4321", "4321"},
		{"Card ending in 0488", "0488"},
		{"Transfer to xxxx0478 online", "0478"},
		{"Payment to ***5555", "5555"},
		{"nothing useful", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAccountHint(tt.text))
		})
	}
}

func TestDedupe(t *testing.T) {
	tx := func(date, desc, amount string, dir Direction) Transaction {
		return Transaction{Date: date, DescriptionRaw: desc, Amount: decimal.RequireFromString(amount), Direction: dir}
	}
	in := []Transaction{
		tx("2024-03-15", "UBER TRIP", "24.50", Out),
		tx("2024-03-15", "UBER TRIP", "24.5", Out),
		tx("2024-03-15", "UBER TRIP", "24.50", In),
		tx("2024-03-16", "UBER TRIP", "24.50", Out),
	}

	out, removed := Dedupe(in)

	require.Len(t, out, 3)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "Removed 1 duplicate transactions", DuplicateWarning(removed))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0, 20, 1))
	assert.Equal(t, 0.5, Confidence(10, 20, 1))
	assert.Equal(t, 1.0, Confidence(45, 20, 1))
	assert.Equal(t, 0.7, Confidence(29, 30, 0.7))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, Lines("  a \n\n b c\n"))
}
