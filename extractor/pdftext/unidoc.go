package pdftext

import (
	"fmt"
	"io"

	"github.com/unidoc/unipdf/v3/common/license"
	unidoc "github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

type unidocBackend struct{}

// NewUnidocBackend registers the metered license key with unipdf. The key is process
// wide.
func NewUnidocBackend(licenseKey string) (Backend, error) {
	if err := license.SetMeteredKey(licenseKey); err != nil {
		return nil, fmt.Errorf("unidoc license: %w", err)
	}
	return unidocBackend{}, nil
}

func (unidocBackend) Name() string { return "unidoc" }

func (unidocBackend) Pages(r io.ReaderAt, size int64) ([]string, error) {
	reader, err := model.NewPdfReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		ex, err := unidoc.New(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
