package common

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PageBreak separates the text of consecutive pages.
const PageBreak = "\n\n--- PAGE BREAK ---\n\n"

// RawTextLimit caps the extracted text kept on a statement record.
const RawTextLimit = 5000

type Direction string

const (
	In  Direction = "IN"
	Out Direction = "OUT"
)

type Channel string

const (
	ChannelACH   Channel = "ACH"
	ChannelCard  Channel = "CARD"
	ChannelWire  Channel = "WIRE"
	ChannelZelle Channel = "ZELLE"
	ChannelVenmo Channel = "VENMO"
	ChannelCheck Channel = "CHECK"
	ChannelCash  Channel = "CASH"
	ChannelOther Channel = "OTHER"
)

// Channels lists every channel in display order.
var Channels = []Channel{
	ChannelACH, ChannelCard, ChannelWire, ChannelZelle,
	ChannelVenmo, ChannelCheck, ChannelCash, ChannelOther,
}

type Bank string

const (
	BankChase      Bank = "Chase"
	BankCapitalOne Bank = "CapitalOne"
	BankOther      Bank = "Other"
)

type DocType string

const (
	DocStatement DocType = "statement"
	DocForm      DocType = "form"
)

type Transaction struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	StatementID      string          `json:"statement_id"`
	Date             string          `json:"date"`
	DescriptionRaw   string          `json:"description_raw"`
	DescriptionClean string          `json:"description_clean"`
	Amount           decimal.Decimal `json:"amount"`
	Direction        Direction       `json:"direction"`
	Category         string          `json:"category"`
	Channel          Channel         `json:"channel"`
	Tags             []string        `json:"tags"`
}

// SignedAmount returns the amount negated for outflows.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == Out {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Body is the variant part of a Statement record: either a StatementDoc or a FormDoc.
type Body interface {
	DocType() DocType
}

// StatementDoc holds what was parsed from a bank statement.
type StatementDoc struct {
	AccountHint      string          `json:"account_hint"`
	PeriodStart      string          `json:"period_start"`
	PeriodEnd        string          `json:"period_end"`
	TransactionCount int             `json:"transaction_count"`
	TotalIn          decimal.Decimal `json:"total_in"`
	TotalOut         decimal.Decimal `json:"total_out"`
	RawText          string          `json:"raw_text,omitempty"`
}

func (StatementDoc) DocType() DocType { return DocStatement }

// FormDoc holds what was recognised on a tax form.
type FormDoc struct {
	FormType string            `json:"form_type"`
	FormYear string            `json:"form_year"`
	Fields   map[string]string `json:"fields"`
	RawText  string            `json:"raw_text,omitempty"`
}

func (FormDoc) DocType() DocType { return DocForm }

// Statement is one ingested document. Counts and totals are snapshots taken at parse time.
type Statement struct {
	ID         string    `json:"id"`
	Bank       Bank      `json:"bank"`
	Filename   string    `json:"filename"`
	ParsedAt   time.Time `json:"parsed_at"`
	Confidence float64   `json:"confidence"`
	Warnings   []string  `json:"warnings"`
	Body       Body      `json:"-"`
}

func (s Statement) DocType() DocType {
	if s.Body == nil {
		return DocStatement
	}
	return s.Body.DocType()
}

// Details returns the statement variant, or false for forms.
func (s Statement) Details() (StatementDoc, bool) {
	switch b := s.Body.(type) {
	case StatementDoc:
		return b, true
	case *StatementDoc:
		return *b, true
	}
	return StatementDoc{}, false
}

// Form returns the form variant, or false for statements.
func (s Statement) Form() (FormDoc, bool) {
	switch b := s.Body.(type) {
	case FormDoc:
		return b, true
	case *FormDoc:
		return *b, true
	}
	return FormDoc{}, false
}

func (s Statement) TransactionCount() int {
	if d, ok := s.Details(); ok {
		return d.TransactionCount
	}
	return 0
}

type statementJSON struct {
	ID         string        `json:"id"`
	DocType    DocType       `json:"doc_type"`
	Bank       Bank          `json:"bank"`
	Filename   string        `json:"filename"`
	ParsedAt   time.Time     `json:"parsed_at"`
	Confidence float64       `json:"confidence"`
	Warnings   []string      `json:"warnings"`
	Statement  *StatementDoc `json:"statement,omitempty"`
	Form       *FormDoc      `json:"form,omitempty"`
}

func (s Statement) MarshalJSON() ([]byte, error) {
	out := statementJSON{
		ID:         s.ID,
		DocType:    s.DocType(),
		Bank:       s.Bank,
		Filename:   s.Filename,
		ParsedAt:   s.ParsedAt,
		Confidence: s.Confidence,
		Warnings:   s.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if d, ok := s.Details(); ok {
		out.Statement = &d
	} else if f, ok := s.Form(); ok {
		out.Form = &f
	}
	return json.Marshal(out)
}

func (s *Statement) UnmarshalJSON(data []byte) error {
	var in statementJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Statement{
		ID:         in.ID,
		Bank:       in.Bank,
		Filename:   in.Filename,
		ParsedAt:   in.ParsedAt,
		Confidence: in.Confidence,
		Warnings:   in.Warnings,
	}
	switch in.DocType {
	case DocForm:
		if in.Form == nil {
			return fmt.Errorf("statement %s: doc_type form without form body", in.ID)
		}
		s.Body = *in.Form
	case DocStatement, "":
		if in.Statement != nil {
			s.Body = *in.Statement
		} else {
			s.Body = StatementDoc{}
		}
	default:
		return fmt.Errorf("statement %s: unknown doc_type %q", in.ID, in.DocType)
	}
	return nil
}

// ParseResult is what a statement parser returns for one document's text.
type ParseResult struct {
	Transactions []Transaction `json:"transactions"`
	PeriodStart  string        `json:"period_start"`
	PeriodEnd    string        `json:"period_end"`
	AccountHint  string        `json:"account_hint"`
	Confidence   float64       `json:"confidence"`
	Warnings     []string      `json:"warnings"`
}

// Totals sums the inflows and outflows of the parsed transactions.
func (r ParseResult) Totals() (in, out decimal.Decimal) {
	for _, t := range r.Transactions {
		if t.Direction == In {
			in = in.Add(t.Amount)
		} else {
			out = out.Add(t.Amount)
		}
	}
	return in, out
}

// Classifier enriches a transaction description. The categorizer package provides the
// implementation used by the store.
type Classifier interface {
	Categorize(description string) string
	DetectChannel(description string) Channel
	Clean(description string) string
}

// ParseOptions carries what a parser needs besides the text itself.
type ParseOptions struct {
	StatementID string
	Classifier  Classifier
	Now         func() time.Time
	NewID       func() string
}

// Today returns the parse clock, defaulting to the wall clock.
func (o ParseOptions) Today() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// NextID returns a fresh transaction identifier.
func (o ParseOptions) NextID() string {
	if o.NewID == nil {
		return uuid.NewString()
	}
	return o.NewID()
}

// DocumentReadError reports a file whose text could not be extracted.
type DocumentReadError struct {
	Filename string
	Err      error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Filename, e.Err)
}

func (e *DocumentReadError) Unwrap() error { return e.Err }
