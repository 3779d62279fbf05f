package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process FILE|DIR...",
	Short: "Add statements to the active project",
	Long: `Processes the given PDFs, or every PDF inside the given directories, and adds the
statements and their transactions to the active project. A "Default Project" is created
when there is none.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectPDFs(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no PDF files found")
		}

		files := make([]analyzer.File, len(paths))
		for i, p := range paths {
			files[i] = analyzer.PathFile(p)
		}

		return withStore(cmd, func(ctx context.Context, store *analyzer.Store) error {
			res, err := store.ProcessFiles(ctx, files, func(p analyzer.Progress) {
				log.Info().Msgf("[%d/%d] %s", p.Current, p.Total, p.Filename)
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}

			w := newTable(cmd.OutOrStdout())
			row(w, "FILE", "BANK", "TYPE", "TRANSACTIONS", "CONFIDENCE", "WARNINGS")
			for _, st := range res.Statements {
				row(w, st.Filename, st.Bank, st.DocType(), st.TransactionCount(),
					fmt.Sprintf("%.0f%%", st.Confidence*100), strings.Join(st.Warnings, "; "))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d transactions from %d files (%d failed)\n",
				res.Transactions, len(res.Statements), res.Failed)
			return nil
		})
	},
}

// collectPDFs expands directories (non-recursively) to the PDFs they contain.
func collectPDFs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	return paths, nil
}

func init() {
	rootCmd.AddCommand(processCmd)
}
