// Package pdftext turns PDF bytes into plain text, trying several PDF libraries in turn.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

var (
	ErrNotPDF = errors.New("not a PDF document")
	ErrNoText = errors.New("no extractable text")
)

// Backend reads the text of each page.
type Backend interface {
	Name() string
	Pages(r io.ReaderAt, size int64) ([]string, error)
}

type Extractor struct {
	backends []Backend
	log      zerolog.Logger
}

type Option func(*Extractor)

func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) { e.log = log }
}

// WithBackends replaces the default backend chain.
func WithBackends(b ...Backend) Option {
	return func(e *Extractor) { e.backends = b }
}

// WithUnidoc appends the unipdf backend when a license key is configured.
func WithUnidoc(licenseKey string) Option {
	return func(e *Extractor) {
		if licenseKey == "" {
			return
		}
		b, err := NewUnidocBackend(licenseKey)
		if err != nil {
			e.log.Warn().Err(err).Msg("unidoc backend disabled")
			return
		}
		e.backends = append(e.backends, b)
	}
}

// New returns an extractor that tries dslipak/pdf, then ledongthuc/pdf.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		backends: []Backend{dslipakBackend{}, ledongthucBackend{}},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText returns the document text, pages separated by common.PageBreak. Any
// failure is reported as a *common.DocumentReadError.
func (e *Extractor) ExtractText(ctx context.Context, name string, r io.ReaderAt, size int64) (string, error) {
	fail := func(err error) (string, error) {
		return "", &common.DocumentReadError{Filename: name, Err: err}
	}

	mtype, err := mimetype.DetectReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return fail(err)
	}
	if !mtype.Is("application/pdf") {
		return fail(fmt.Errorf("%w: detected %s", ErrNotPDF, mtype.String()))
	}

	var errs []error
	for _, b := range e.backends {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		pages, err := b.Pages(r, size)
		if err != nil {
			e.log.Debug().Str("file", name).Str("backend", b.Name()).Err(err).Msg("backend failed")
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		if strings.TrimSpace(strings.Join(pages, "")) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), ErrNoText))
			continue
		}
		e.log.Debug().Str("file", name).Str("backend", b.Name()).Int("pages", len(pages)).Msg("text extracted")
		return common.JoinPages(pages), nil
	}
	if len(errs) == 0 {
		return fail(ErrNoText)
	}
	return fail(errors.Join(errs...))
}

// ExtractBytes is ExtractText over an in-memory document.
func (e *Extractor) ExtractBytes(ctx context.Context, name string, data []byte) (string, error) {
	return e.ExtractText(ctx, name, bytes.NewReader(data), int64(len(data)))
}

type dslipakBackend struct{}

func (dslipakBackend) Name() string { return "dslipak" }

func (dslipakBackend) Pages(r io.ReaderAt, size int64) ([]string, error) {
	return common.ReadPDFPages(r, size)
}
