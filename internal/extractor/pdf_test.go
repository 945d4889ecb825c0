package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_DocumentErrors(t *testing.T) {
	dir := t.TempDir()

	notPDF := filepath.Join(dir, "statement.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("hello"), 0o644))

	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a pdf at all"), 0o644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing file", filepath.Join(dir, "missing.pdf"), ErrNotFound},
		{"wrong extension", notPDF, ErrNotPDF},
		{"directory", dir, ErrNotPDF},
		{"not a pdf inside", garbage, ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := ExtractText(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, pages)

			var docErr *DocumentError
			require.True(t, errors.As(err, &docErr), "want *DocumentError, got %T", err)
			assert.NotEmpty(t, docErr.Message)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDocumentError(t *testing.T) {
	err := docError("a.pdf", "The PDF has no pages", ErrNoPages)
	assert.Equal(t, "The PDF has no pages: document has no pages", err.Error())
	assert.ErrorIs(t, err, ErrNoPages)

	bare := &DocumentError{Message: "broken"}
	assert.Equal(t, "broken", bare.Error())
}

func TestIsReadableText(t *testing.T) {
	statement := "DEMONSTRATIVO DE DISTRIBUIÇÃO\nMy Song Title T1234567890\nABRAMUS SP OTHER RIGHTS 2023/01 - 2023/02 150,00"

	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{"statement text", []string{statement}, true},
		{"too short", []string{"TOTAL: 1,00"}, false},
		{"no statement words", []string{strings.Repeat("lorem ipsum dolor sit amet ", 5)}, false},
		{"binary garbage", []string{strings.Repeat("一丁丂", 40) + " total"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isReadableText(tt.pages))
		})
	}
}

func TestTextQuality(t *testing.T) {
	assert.Equal(t, 1.0, textQuality([]string{"Rendimento: R$ 1.234,56 (período)"}))
	assert.Equal(t, 0.0, textQuality(nil))
	assert.Less(t, textQuality([]string{"一丁ab"}), 0.6)
}

func TestPdfinfoPages(t *testing.T) {
	out := "Title:          Statement\nPages:          3\nEncrypted:      no\n"
	assert.Equal(t, 3, pdfinfoPages(out, 1))
	assert.Equal(t, 1, pdfinfoPages("Pages: zero", 1))
	assert.Equal(t, 1, pdfinfoPages("", 1))
}

func TestExtractText_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("%PDF-1.4 broken"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractText(ctx, garbage)
	assert.ErrorIs(t, err, context.Canceled)
}

var statementPages = []string{
	"DEMONSTRATIVO DE DISTRIBUIÇÃO INTERNACIONAL\n" +
		"My Song Title T1234567890\n" +
		"ABRAMUS SP OTHER RIGHTS 2023/01 - 2023/02 150,00\n" +
		"SACEM FR RADIO BROADCAST 2022/07 - 2022/12 1.234,56",
	"Another Work T0987654321\n" +
		"GEMA DE LIVE PERFORMANCE 2022/01-2022/06 10,00\n" +
		"TOTAL: 1.394,56",
}

func TestExtractText_StatementPDF(t *testing.T) {
	pages, err := ExtractText(context.Background(), filepath.Join("testdata", "statement.pdf"))
	require.NoError(t, err)
	assert.Equal(t, statementPages, pages)
}

func TestPDFSource_Pages(t *testing.T) {
	src := &PDFSource{Path: filepath.Join("testdata", "statement.pdf")}

	pages, err := src.Pages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, statementPages, pages)
}

func TestLibraryMethods_RowStructure(t *testing.T) {
	f, r, err := pdf.Open(filepath.Join("testdata", "statement.pdf"))
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()
	byContent := extractByContent(ctx, r, r.NumPage())
	assert.Equal(t, statementPages, byContent)

	// GetTextByRow only follows Tm, so Td-positioned rows collapse into one.
	byRow := extractByRow(ctx, r, r.NumPage())
	assert.Equal(t, 0, rowScore(byRow))
	assert.Equal(t, 5, rowScore(byContent))
}

func TestExtractWithLibrary_KeepsEveryReadableCandidate(t *testing.T) {
	candidates, err := extractWithLibrary(context.Background(), filepath.Join("testdata", "statement.pdf"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(candidates), 2)

	best, score := bestCandidate(candidates)
	assert.Equal(t, statementPages, best)
	assert.Equal(t, 5, score)
}

func TestRowScore(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected int
	}{
		{"one row per line", []string{"My Song T1234567890\nABRAMUS SP X 2023/01 - 2023/02 1,00"}, 2},
		{"flattened page", []string{"My Song T1234567890 ABRAMUS SP X 2023/01 - 2023/02 1,00"}, 0},
		{"merged words", []string{"MySongT1234567890\nABRAMUSSPX2023/01-2023/021,00"}, 0},
		{"non-breaking spaces", []string{"ABRAMUS\u00a0SP\u00a0X\u00a02023/01\u00a0-\u00a02023/02\u00a01,00"}, 1},
		{"no anchors", []string{"TOTAL: 1,00"}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rowScore(tt.pages))
		})
	}
}

func TestBestCandidate(t *testing.T) {
	flat := []string{"A T1234567890 B T0987654321"}
	rows := []string{"A T1234567890\nB T0987654321"}
	alsoRows := []string{"A  T1234567890\nB  T0987654321"}

	best, score := bestCandidate([][]string{flat, rows, alsoRows})
	assert.Equal(t, rows, best, "earliest of the best-scoring candidates")
	assert.Equal(t, 2, score)

	best, score = bestCandidate(nil)
	assert.Nil(t, best)
	assert.Equal(t, -1, score)
}

func TestExtractWithPdfcpu_ToUnicode(t *testing.T) {
	c, err := readPDFContext(filepath.Join("testdata", "tounicode.pdf"))
	require.NoError(t, err)

	fonts := pageToUnicode(c, 1)
	require.Contains(t, fonts, "F2")
	assert.Equal(t, "Ç", fonts["F2"].codes["80"])

	pages, err := extractWithPdfcpu(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"DISTRIBUIÇÃO\nMy Song Title T1234567890"}, pages)
}
