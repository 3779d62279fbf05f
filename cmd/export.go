package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/export"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/spf13/cobra"
)

var (
	exportFilters filterFlags
	exportFormat  string
	exportOut     string
	exportRule    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to CSV or XLSX",
}

var exportTransactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Export the filtered ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &exportFilters, func(ctx context.Context, store *analyzer.Store) error {
			txns := store.FilteredTransactions()
			switch exportFormat {
			case "csv":
				body, err := export.TransactionsCSV(txns)
				if err != nil {
					return err
				}
				return writeExport(cmd, "transactions", "csv", []byte(body))
			case "xlsx":
				var buf bytes.Buffer
				if err := export.TransactionsXLSX(&buf, txns); err != nil {
					return err
				}
				return writeExport(cmd, "transactions", "xlsx", buf.Bytes())
			}
			return fmt.Errorf("unsupported format %q, use csv or xlsx", exportFormat)
		})
	},
}

var exportCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Export spending by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &exportFilters, func(ctx context.Context, store *analyzer.Store) error {
			body, err := export.CategorySummaryCSV(store.CategorySummary())
			if err != nil {
				return err
			}
			return writeExport(cmd, "categories", "csv", []byte(body))
		})
	},
}

var exportTransfersCmd = &cobra.Command{
	Use:   "transfers",
	Short: "Export the tracked transfers for the selected date range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFilteredStore(cmd, &exportFilters, func(ctx context.Context, store *analyzer.Store) error {
			stats := store.DashboardStats()

			var (
				txns  []common.Transaction
				label string
			)
			switch exportRule {
			case matching.RuleCapitalOne0488:
				txns, label = stats.TransfersTo0488.Transactions, "Transfers to 0488"
			case matching.RuleACH0478:
				txns, label = stats.ACHTo0478.Transactions, "ACH to 0478"
			default:
				return fmt.Errorf("no transfer export for rule %q", exportRule)
			}

			body, err := export.TransfersDetailCSV(txns, label)
			if err != nil {
				return err
			}
			return writeExport(cmd, "transfers", "csv", []byte(body))
		})
	},
}

// writeExport writes to --out, "-" for stdout, or a dated file in the working directory.
func writeExport(cmd *cobra.Command, prefix, ext string, body []byte) error {
	if exportOut == "-" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}
	path := exportOut
	if path == "" {
		path = export.Filename(prefix, ext, time.Now())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, bytes.NewReader(body)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("bytes", len(body)).Msg("export written")
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportTransactionsCmd, exportCategoriesCmd, exportTransfersCmd)

	exportFilters.bind(exportCmd.PersistentFlags())
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", `output file, "-" for stdout (default: <kind>-YYYY-MM-DD.<ext>)`)
	exportTransactionsCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv or xlsx")
	exportTransfersCmd.Flags().StringVar(&exportRule, "rule", matching.RuleCapitalOne0488, "rule id of the transfers to export")
}
