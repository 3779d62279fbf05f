package categorizer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize_BuiltInRules(t *testing.T) {
	c := New()

	tests := []struct {
		description string
		want        string
	}{
		{"UBER TRIP 123456", "Rideshare / Transport"},
		{"uber eats order", "Rideshare / Transport"}, // UBER rule comes first
		{"SHELL OIL 5744", "Gas / Fuel"},
		{"BP #9923 STATION", "Gas / Fuel"},
		{"TRADER JOE'S #552", "Groceries"},
		{"STARBUCKS STORE 123", "Restaurants / Dining"},
		{"AMZN Mktp US*2K4", "Shopping / Retail"},
		{"GEICO AUTO", "Insurance"},
		{"COMCAST CABLE", "Utilities"},
		{"NETFLIX.COM", "Subscriptions"},
		{"IRS USATAXPYMT", "Government / Tax"},
		{"ZELLE PAYMENT TO JOHN", "P2P Transfers"},
		{"ONLINE TRANSFER TO SAV", "Wire / ACH Transfer"},
		{"CVS/PHARMACY #1234", "Health / Medical"},
		{"COURSERA.ORG", "Education"},
		{"MORTGAGE PMT", "Rent / Housing"},
		{"OVERDRAFT ITEM", "Bank Fees"},
		{"ATM WITHDRAWAL 03/01", "Cash / ATM"},
		{"PAYROLL ACME INC", "Income / Deposit"},
		{"CHECK # 1042", "Check"},
		{"SOMETHING ELSE ENTIRELY", Uncategorized},
		{"", Uncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.description))
		})
	}
}

func TestCategorize_FirstRuleInTableOrderWins(t *testing.T) {
	c := New()
	// PAYPAL (P2P, rule 10) and TRANSFER (rule 11) both hit; PAYPAL's rule is earlier.
	assert.Equal(t, "P2P Transfers", c.Categorize("PAYPAL TRANSFER"))
	// DEPOSIT (rule 17) loses to ATM (rule 16).
	assert.Equal(t, "Cash / ATM", c.Categorize("ATM CASH DEPOSIT"))
}

func TestCategorize_OverridePrecedence(t *testing.T) {
	c := New()
	c.AddOverride("UBER", "Work Travel")

	assert.Equal(t, "Work Travel", c.Categorize("UBER TRIP 123"))
	assert.Equal(t, "Gas / Fuel", c.Categorize("SHELL OIL"))

	require.True(t, c.RemoveOverride("UBER"))
	assert.Equal(t, "Rideshare / Transport", c.Categorize("UBER TRIP 123"))
	assert.False(t, c.RemoveOverride("UBER"))
}

func TestCategorize_OverridesInInsertionOrder(t *testing.T) {
	c := New()
	c.AddOverride("coffee", "Coffee")
	c.AddOverride("STARBUCKS", "Treats")

	assert.Equal(t, "Coffee", c.Categorize("STARBUCKS COFFEE"))

	// replacing keeps the original position
	c.AddOverride("coffee", "Beverages")
	assert.Equal(t, []Override{{"coffee", "Beverages"}, {"STARBUCKS", "Treats"}}, c.Overrides())
	assert.Equal(t, "Beverages", c.Categorize("STARBUCKS COFFEE"))
}

func TestCategorize_Pure(t *testing.T) {
	c := New()
	faker := gofakeit.New(42)

	for i := 0; i < 200; i++ {
		desc := fmt.Sprintf("%s %s %d", faker.Company(), faker.Word(), faker.Number(1, 9999))
		first := c.Categorize(desc)
		assert.Equal(t, first, c.Categorize(desc), desc)
		assert.Contains(t, c.AllCategories(), first)
	}
}

func TestCategorize_ConcurrentUse(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "Subscriptions", c.Categorize("SPOTIFY USA"))
				c.AddOverride(fmt.Sprintf("MERCHANT%d", i), "Custom")
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.Overrides(), 8)
}

func TestAllCategories(t *testing.T) {
	all := New().AllCategories()
	require.Len(t, all, len(DefaultRules)+1)
	assert.Equal(t, "Rideshare / Transport", all[0])
	assert.Equal(t, Uncategorized, all[len(all)-1])
}

func TestSuggest(t *testing.T) {
	c := New()

	assert.Equal(t, []string{"Groceries"}, c.Suggest("grocer", 1))
	assert.Contains(t, c.Suggest("Grocery", 3), "Groceries")

	c.AddOverride("LANDSCAPING", "Garden")
	assert.Contains(t, c.Suggest("gard", 3), "Garden")
}

func TestDetectChannel(t *testing.T) {
	tests := []struct {
		description string
		want        common.Channel
	}{
		{"ORIG CO NAME:CAPITAL ONE ACH PMT", common.ChannelACH},
		{"ELECTRONIC PAYMENT", common.ChannelACH},
		{"ZELLE TO JANE", common.ChannelZelle},
		{"VENMO *PAYMENT", common.ChannelVenmo},
		{"FED WIRE OUT", common.ChannelWire},
		{"CHECKCARD 0312 STARBUCKS", common.ChannelCheck},
		{"ATM WITHDRAWAL", common.ChannelCash},
		{"CARD PURCHASE SHELL", common.ChannelCard},
		{"UBER TRIP 123456", common.ChannelOther},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectChannel(tt.description))
		})
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"UBER TRIP 123456", "Uber Trip 123456"},
		{"PURCHASE AUTHORIZED ON 03/14 STARBUCKS STORE 123 CARD 4521", "Starbucks Store 123"},
		{"RECURRING PAYMENT SPOTIFY", "Payment Spotify"},
		{"POS DEBIT   SHELL   OIL", "Debit Shell Oil"},
		{"DIRECT DEPOSIT PAYROLL", "Direct Deposit Payroll"},
		{"CAPITAL ONE MOBILE PMT ORIG CO NAME:CAPITAL ONE ORIG ID:9279744980", "Capital One Mobile Pmt"},
		{"ORIG CO NAME:IRS", "ORIG CO NAME:IRS"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDescription(tt.raw))
		})
	}
}
