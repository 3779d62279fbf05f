package cmd

import (
	"github.com/aqlanhadi/analyzer/categorizer"
	"github.com/aqlanhadi/analyzer/extractor"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	extractTextOnly        bool
	extractStatementOnly   bool
	extractTransactionOnly bool
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Parse a statement without storing it",
	Long: `Extracts a single PDF and prints the statement and its transactions as JSON.
Nothing is added to the ledger.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ex := newExtractor()
	path := args[0]

	if extractTextOnly {
		doc, err := extractor.ReadText(cmd.Context(), path, ex)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]string{"filename": doc.Filename, "text": doc.Text})
	}

	doc, err := extractor.ProcessFile(cmd.Context(), path, ex, common.ParseOptions{
		StatementID: uuid.NewString(),
		Classifier:  categorizer.Default(),
	})
	if err != nil {
		return err
	}
	log.Debug().
		Str("bank", string(doc.Statement.Bank)).
		Int("transactions", len(doc.Transactions)).
		Msg("extracted")
	return printJSON(cmd.OutOrStdout(), extractor.CreateFinalOutput(doc, extractTransactionOnly, extractStatementOnly))
}

func init() {
	rootCmd.AddCommand(extractCmd)
	for _, c := range []*cobra.Command{rootCmd, extractCmd} {
		flags := c.Flags()
		flags.BoolVarP(&extractTextOnly, "text-only", "t", false, "print only the extracted text")
		flags.BoolVarP(&extractStatementOnly, "statement-only", "s", false, "print only the statement record")
		flags.BoolVarP(&extractTransactionOnly, "transaction-only", "x", false, "print only the transactions")
	}
}
