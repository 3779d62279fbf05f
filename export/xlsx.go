package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/xuri/excelize/v2"
)

const transactionsSheet = "Transactions"

var xlsxHeader = []any{
	"Date", "Description", "Cleaned Description", "Category", "Amount",
	"Direction", "Channel", "Tags", "Source Statement",
}

// TransactionsXLSX writes the ledger as a workbook with a single sheet. Amounts are
// numeric cells, negative for outflows.
func TransactionsXLSX(w io.Writer, txns []common.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(transactionsSheet, "A1", &xlsxHeader); err != nil {
		return err
	}

	for i, t := range txns {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.Date,
			t.DescriptionRaw,
			t.DescriptionClean,
			t.Category,
			t.SignedAmount().InexactFloat64(),
			string(t.Direction),
			string(t.Channel),
			strings.Join(t.Tags, "; "),
			t.StatementID,
		}
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	if len(txns) > 0 {
		end := fmt.Sprintf("E%d", len(txns)+1)
		if err := f.SetCellStyle(transactionsSheet, "E2", end, style); err != nil {
			return err
		}
	}
	if err := f.SetPanes(transactionsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
