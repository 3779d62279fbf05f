package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// filterFlags mirrors the dashboard filters on the command line.
type filterFlags struct {
	from, to   string
	min, max   string
	direction  string
	category   string
	search     string
	statement  string
	only0488   bool
	onlyACH478 bool
}

func (f *filterFlags) bind(flags *pflag.FlagSet) {
	flags.StringVar(&f.from, "from", "", "earliest date, YYYY-MM-DD")
	flags.StringVar(&f.to, "to", "", "latest date, YYYY-MM-DD")
	flags.StringVar(&f.min, "min", "", "minimum amount")
	flags.StringVar(&f.max, "max", "", "maximum amount")
	flags.StringVar(&f.direction, "direction", "", "IN or OUT")
	flags.StringVar(&f.category, "category", "", "exact category")
	flags.StringVar(&f.search, "search", "", "text in the description or category")
	flags.StringVar(&f.statement, "statement", "", "statement id")
	flags.BoolVar(&f.only0488, "only-0488", false, "only transfers to the 0488 account")
	flags.BoolVar(&f.onlyACH478, "only-0478", false, "only ACH transfers to the 0478 account")
}

func (f *filterFlags) options() ([]analyzer.FilterOption, error) {
	var opts []analyzer.FilterOption
	if f.from != "" || f.to != "" {
		opts = append(opts, analyzer.WithDateRange(&analyzer.DateRange{Start: f.from, End: f.to}))
	}
	for _, b := range []struct {
		raw  string
		with func(*decimal.Decimal) analyzer.FilterOption
	}{{f.min, analyzer.WithAmountMin}, {f.max, analyzer.WithAmountMax}} {
		if b.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(b.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q", b.raw)
		}
		opts = append(opts, b.with(&d))
	}
	switch dir := common.Direction(strings.ToUpper(f.direction)); dir {
	case "":
	case common.In, common.Out:
		opts = append(opts, analyzer.WithDirection(dir))
	default:
		return nil, fmt.Errorf("direction must be IN or OUT, got %q", f.direction)
	}
	opts = append(opts,
		analyzer.WithCategory(f.category),
		analyzer.WithSearch(f.search),
		analyzer.WithSourceStatement(f.statement),
		analyzer.WithTransfersTo0488(f.only0488),
		analyzer.WithACHTo0478(f.onlyACH478),
	)
	return opts, nil
}

// withFilteredStore opens the store and applies the command's filter flags.
func withFilteredStore(cmd *cobra.Command, f *filterFlags, fn func(ctx context.Context, store *analyzer.Store) error) error {
	opts, err := f.options()
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
		store.SetFilters(opts...)
		return fn(ctx, store)
	})
}

var (
	ledgerFilters    filterFlags
	ledgerRule       string
	dashboardFilters filterFlags
	summaryFilters   filterFlags
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List the active project's transactions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &ledgerFilters, func(ctx context.Context, store *analyzer.Store) error {
			txns := store.FilteredTransactions()
			if ledgerRule != "" {
				var err error
				if txns, err = store.MatchingTransactions(ledgerRule); err != nil {
					return err
				}
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), txns)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "ID", "DATE", "DESCRIPTION", "CATEGORY", "CHANNEL", "AMOUNT")
			for _, t := range txns {
				row(w, t.ID, t.Date, t.DescriptionClean, t.Category, t.Channel, formatMoney(t.SignedAmount()))
			}
			return w.Flush()
		})
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show totals and the tracked transfers",
	Long: `Shows money in and out plus the transfers to the 0488 and 0478 accounts. Only the
date range applies here; the other filters narrow the ledger, not the dashboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &dashboardFilters, func(ctx context.Context, store *analyzer.Store) error {
			stats := store.DashboardStats()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "Money in", formatMoney(stats.TotalIn))
			row(w, "Money out", formatMoney(stats.TotalOut))
			row(w, "Net", formatMoney(stats.TotalIn.Sub(stats.TotalOut)))
			row(w, "Transfers to 0488", formatMoney(stats.TransfersTo0488.Total), fmt.Sprintf("%d transactions", stats.TransfersTo0488.Count))
			row(w, "ACH to 0478", formatMoney(stats.ACHTo0478.Total), fmt.Sprintf("%d transactions", stats.ACHTo0478.Count))
			return w.Flush()
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Spending by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &summaryFilters, func(ctx context.Context, store *analyzer.Store) error {
			summary := store.CategorySummary()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "CATEGORY", "TOTAL", "COUNT", "SHARE")
			for _, c := range summary {
				row(w, c.Category, formatMoney(c.Total), c.Count, fmt.Sprintf("%.1f%%", c.Percentage))
			}
			return w.Flush()
		})
	},
}

var merchantsCmd = &cobra.Command{
	Use:   "merchants",
	Short: "Top merchants by spend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &summaryFilters, func(ctx context.Context, store *analyzer.Store) error {
			merchants := store.TopMerchants()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), merchants)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "MERCHANT", "TOTAL", "COUNT")
			for _, m := range merchants {
				row(w, m.Merchant, formatMoney(m.Total), m.Count)
			}
			return w.Flush()
		})
	},
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Money in and out per month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &summaryFilters, func(ctx context.Context, store *analyzer.Store) error {
			trends := store.MonthlyTrends()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), trends)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "MONTH", "IN", "OUT")
			for _, m := range trends {
				row(w, m.Month, formatMoney(m.TotalIn), formatMoney(m.TotalOut))
			}
			return w.Flush()
		})
	},
}

var statementsCmd = &cobra.Command{
	Use:   "statements",
	Short: "List the active project's statements and tax forms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			stmts := append(store.ActiveProjectStatements(), store.Documents()...)
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), stmts)
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "ID", "FILE", "BANK", "TYPE", "PERIOD", "TRANSACTIONS", "CONFIDENCE")
			for _, st := range stmts {
				period := ""
				if d, ok := st.Details(); ok && d.PeriodStart != "" {
					period = d.PeriodStart + " - " + d.PeriodEnd
				} else if f, ok := st.Form(); ok {
					period = f.FormType + " " + f.FormYear
				}
				row(w, st.ID, st.Filename, st.Bank, st.DocType(), period, st.TransactionCount(),
					fmt.Sprintf("%.0f%%", st.Confidence*100))
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd, dashboardCmd, categoriesCmd, merchantsCmd, trendsCmd, statementsCmd)

	ledgerFilters.bind(ledgerCmd.Flags())
	ledgerCmd.Flags().StringVar(&ledgerRule, "rule", "", "only transactions matched by this rule id")

	dashboardCmd.Flags().StringVar(&dashboardFilters.from, "from", "", "earliest date, YYYY-MM-DD")
	dashboardCmd.Flags().StringVar(&dashboardFilters.to, "to", "", "latest date, YYYY-MM-DD")

	for _, c := range []*cobra.Command{categoriesCmd, merchantsCmd, trendsCmd} {
		summaryFilters.bind(c.Flags())
	}
}
