package extractor

import (
	"regexp"
	"strings"

	"github.com/aqlanhadi/analyzer/extractor/common"
)

type formMarker struct {
	text     *regexp.Regexp
	filename []string
}

// Tax form markers, checked before any statement heuristics.
var formMarkers = []formMarker{
	{regexp.MustCompile(`\b1095-[ABC]\b`), []string{"1095"}},
	{regexp.MustCompile(`\bW-?2\b`), []string{"W2", "W-2"}},
	// "1099" followed by a decimal point or digit is an amount, not a form number
	{regexp.MustCompile(`\b1099(?:-[A-Z]+)?\b(?:[^.\d]|$)`), []string{"1099"}},
}

// DetectDocumentType reports whether the text belongs to a tax form or a bank statement.
// Anything that is not recognisably a form is treated as a statement.
func DetectDocumentType(text, filename string) common.DocType {
	upper := strings.ToUpper(text)
	fnUpper := strings.ToUpper(filename)

	for _, m := range formMarkers {
		if m.text.MatchString(upper) || containsAny(fnUpper, m.filename) {
			return common.DocForm
		}
	}
	return common.DocStatement
}

type bankSignature struct {
	bank     common.Bank
	text     []string
	filename []string
}

var bankSignatures = []bankSignature{
	{common.BankChase, []string{"JPMORGAN CHASE", "CHASE BANK", "J.P. MORGAN"}, []string{"CHASE"}},
	{common.BankCapitalOne, []string{"CAPITAL ONE"}, []string{"CAPITAL ONE", "CAPITALONE"}},
}

// DetectBank identifies the issuing bank from the statement text or file name.
func DetectBank(text, filename string) common.Bank {
	upper := strings.ToUpper(text)
	fnUpper := strings.ToUpper(filename)

	for _, sig := range bankSignatures {
		if containsAny(upper, sig.text) || containsAny(fnUpper, sig.filename) {
			return sig.bank
		}
	}
	return common.BankOther
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
