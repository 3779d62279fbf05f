// Package extractor turns the text of one uploaded document into a Statement record and
// its transactions.
package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aqlanhadi/analyzer/extractor/chase"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/extractor/form"
	"github.com/aqlanhadi/analyzer/extractor/generic"
)

// formConfidence is assigned to every recognised tax form.
const formConfidence = 0.5

// TextExtractor reads plain text out of a document.
type TextExtractor interface {
	ExtractText(ctx context.Context, name string, r io.ReaderAt, size int64) (string, error)
}

// Document is one processed file.
type Document struct {
	Statement    common.Statement     `json:"statement"`
	Transactions []common.Transaction `json:"transactions"`
}

// Process classifies the text and runs the matching parser. opts.StatementID becomes the
// id of the returned statement.
func Process(text, filename string, opts common.ParseOptions) Document {
	stmt := common.Statement{
		ID:       opts.StatementID,
		Bank:     DetectBank(text, filename),
		Filename: filename,
		ParsedAt: opts.Today(),
		Warnings: []string{},
	}
	rawText := common.Truncate(text, common.RawTextLimit)

	if DetectDocumentType(text, filename) == common.DocForm {
		info := form.Detect(text)
		stmt.Confidence = formConfidence
		stmt.Body = common.FormDoc{
			FormType: info.Type,
			FormYear: info.Year,
			Fields:   info.Fields,
			RawText:  rawText,
		}
		return Document{Statement: stmt, Transactions: []common.Transaction{}}
	}

	var result common.ParseResult
	if stmt.Bank == common.BankChase {
		result = chase.Extract(text, opts)
	} else {
		result = generic.Extract(text, opts)
	}

	totalIn, totalOut := result.Totals()
	stmt.Confidence = result.Confidence
	stmt.Warnings = result.Warnings
	stmt.Body = common.StatementDoc{
		AccountHint:      result.AccountHint,
		PeriodStart:      result.PeriodStart,
		PeriodEnd:        result.PeriodEnd,
		TransactionCount: len(result.Transactions),
		TotalIn:          totalIn,
		TotalOut:         totalOut,
		RawText:          rawText,
	}
	return Document{Statement: stmt, Transactions: result.Transactions}
}

// Failed builds the placeholder statement recorded for a file that could not be read.
func Failed(filename string, err error, opts common.ParseOptions) common.Statement {
	return common.Statement{
		ID:         opts.StatementID,
		Bank:       common.BankOther,
		Filename:   filename,
		ParsedAt:   opts.Today(),
		Confidence: 0,
		Warnings:   []string{fmt.Sprintf("Failed to parse: %v", err)},
		Body:       common.StatementDoc{},
	}
}

// RawText is the plain text of one file.
type RawText struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// ReadText extracts the text of a file on disk.
func ReadText(ctx context.Context, path string, ex TextExtractor) (RawText, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawText{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return RawText{}, err
	}
	name := filepath.Base(path)
	text, err := ex.ExtractText(ctx, name, f, info.Size())
	if err != nil {
		return RawText{}, err
	}
	return RawText{Filename: name, Text: text}, nil
}

// ProcessFile reads and processes a single file from disk without storing anything.
func ProcessFile(ctx context.Context, path string, ex TextExtractor, opts common.ParseOptions) (Document, error) {
	raw, err := ReadText(ctx, path, ex)
	if err != nil {
		return Document{}, err
	}
	return Process(raw.Text, raw.Filename, opts), nil
}

// CreateFinalOutput shapes a processed document for JSON output: only the transactions,
// only the statement, or both.
func CreateFinalOutput(doc Document, transactionOnly, statementOnly bool) interface{} {
	if transactionOnly {
		return doc.Transactions
	}
	if statementOnly {
		return doc.Statement
	}
	return doc
}
