package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/dslipak/pdf"
)

// ReadPDFPages extracts the text of every page, one string per page. Text items on the
// same row are joined by a space and rows by a newline.
func ReadPDFPages(rAt io.ReaderAt, size int64) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(rAt, size)
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	pages = make([]string, 0, numPages)

	for no := 1; no <= numPages; no++ {
		page := r.Page(no)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", no, err)
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var builder strings.Builder
			builder.Grow(len(row.Content) * 20)

			for i, text := range row.Content {
				builder.WriteString(text.S)
				if i < len(row.Content)-1 {
					builder.WriteByte(' ')
				}
			}

			if builder.Len() > 0 {
				lines = append(lines, builder.String())
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}

	return pages, nil
}

// JoinPages concatenates page texts with the page break marker.
func JoinPages(pages []string) string {
	return strings.Join(pages, PageBreak)
}
