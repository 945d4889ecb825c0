package extractor

import (
	"context"
	"strings"
)

// Source yields the linear text of a document, one string per page in
// document order, with line breaks preserved.
type Source interface {
	Pages(ctx context.Context) ([]string, error)
	// Name identifies the document in logs and output file names.
	Name() string
}

// PDFSource reads page text from a PDF file on disk.
type PDFSource struct {
	Path string
}

func (s *PDFSource) Pages(ctx context.Context) ([]string, error) {
	return ExtractText(ctx, s.Path)
}

func (s *PDFSource) Name() string {
	return s.Path
}

// PageBreak separates pages in text that was extracted elsewhere, for
// example by pdf.js in the browser.
const PageBreak = "\n---PAGE_BREAK---\n"

// TextSource serves text that has already been extracted.
type TextSource struct {
	Label string
	Text  string
}

func (s *TextSource) Pages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var pages []string
	for _, page := range strings.Split(s.Text, PageBreak) {
		page = strings.TrimSpace(page)
		if page != "" {
			pages = append(pages, page)
		}
	}
	if len(pages) == 0 {
		return nil, docError(s.Label, "The submitted text is empty", ErrNoPages)
	}
	return pages, nil
}

func (s *TextSource) Name() string {
	return s.Label
}
