package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads a PDF file and returns the text content of each page.
// Statements come from different generators, so every readable rendition
// is collected: the ledongthuc/pdf methods, then pdfcpu content streams,
// then the external pdftotext command (poppler-utils) when nothing else
// yields statement rows. The rendition with the most statement rows wins;
// earlier methods win ties.
//
// Every failure is returned as a *DocumentError.
func ExtractText(ctx context.Context, filePath string) ([]string, error) {
	if err := checkFile(filePath); err != nil {
		return nil, err
	}

	// pdfcpu validates the structure and gives a reliable page count. A file it
	// cannot read may still be readable by the other extractors.
	pdfCtx, cpuErr := readPDFContext(filePath)
	if cpuErr == nil && pdfCtx.PageCount == 0 {
		return nil, docError(filePath, "The PDF has no pages", ErrNoPages)
	}

	candidates, libErr := extractWithLibrary(ctx, filePath)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if pdfCtx != nil {
		cpuPages, err := extractWithPdfcpu(ctx, pdfCtx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil && isReadableText(cpuPages) {
			candidates = append(candidates, cpuPages)
		}
	}

	if pages, score := bestCandidate(candidates); pages != nil && score > 0 {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(ctx, filePath)
	if popplerErr == nil && isReadableText(popplerPages) {
		candidates = append(candidates, popplerPages)
	}
	if pages, _ := bestCandidate(candidates); pages != nil {
		return pages, nil
	}

	// Never hand garbage text to the parser.
	cause := libErr
	if cause == nil {
		cause = ErrUnreadable
	} else {
		cause = fmt.Errorf("%w: %v", ErrUnreadable, cause)
	}
	return nil, docError(filePath,
		"No readable text could be extracted from the PDF. The file may be scanned, damaged, or not a royalty statement",
		cause)
}

// rowAnchor matches a work identifier or a period range starting a token.
// Text extracted with merged words or flattened rows loses that boundary.
var rowAnchor = regexp.MustCompile(`(?:^|[\s\p{Zs}])(?:T\d{10}|\d{4}/\d{2}[\s\p{Zs}]*-[\s\p{Zs}]*\d{4}/\d{2})`)

// rowScore counts the lines that carry exactly one anchor, i.e. lines that
// look like a single title or data row.
func rowScore(pages []string) int {
	score := 0
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if len(rowAnchor.FindAllStringIndex(line, 2)) == 1 {
				score++
			}
		}
	}
	return score
}

// bestCandidate returns the candidate with the highest rowScore. Returns nil
// when there are no candidates.
func bestCandidate(candidates [][]string) ([]string, int) {
	var best []string
	bestScore := -1
	for _, pages := range candidates {
		if score := rowScore(pages); score > bestScore {
			best, bestScore = pages, score
		}
	}
	return best, bestScore
}

func checkFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return docError(filePath, fmt.Sprintf("Input file not found: %s", filePath), ErrNotFound)
		}
		return docError(filePath, "The input file could not be opened", err)
	}
	if info.IsDir() {
		return docError(filePath, fmt.Sprintf("%s is a directory", filePath), ErrNotPDF)
	}
	if ext := strings.ToLower(filepath.Ext(filePath)); ext != ".pdf" {
		return docError(filePath, fmt.Sprintf("Expected a .pdf file, got %q", ext), ErrNotPDF)
	}
	return nil
}

// textQuality returns the ratio of plain Latin characters (ASCII letters and
// digits, the accented letters used in Portuguese, common punctuation and
// whitespace) to total characters. Returns 0.0-1.0.
// unicode.IsLetter() is too broad: garbage from identity-encoded fonts is
// full of letters from other scripts.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if isPlainLatin(r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func isPlainLatin(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	case strings.ContainsRune(".,-/:;()'\"$%&@#!?+=*ºª", r):
		return true
	case strings.ContainsRune("áàâãéêíóôõúüçÁÀÂÃÉÊÍÓÔÕÚÜÇ", r):
		return true
	}
	return false
}

// statementWords appear in virtually every royalty statement.
// If the extracted text contains none of these, it's likely garbage.
var statementWords = []string{
	"abramus", "ecad", "total", "direito", "distribui", "demonstrativo",
	"sociedade", "rubrica", "periodo", "período", "rendimento", "autoral",
	"royalt", "society", "territory", "period", "amount", "cpf",
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText checks that pages contain enough text, that it's actually
// readable (not binary garbage), AND that it contains recognizable words.
// Requires >50 chars, >60% plain Latin characters, and at least one statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsStatementWords(pages)
}

// extractWithPdftotext uses the external pdftotext command from poppler-utils
// as a fallback for PDFs that the Go libraries cannot handle.
func extractWithPdftotext(ctx context.Context, filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := 1
	if out, err := exec.CommandContext(ctx, "pdfinfo", filePath).Output(); err == nil {
		numPages = pdfinfoPages(string(out), numPages)
	}

	// Extract each page separately to preserve page boundaries
	var pages []string
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageStr := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", pageStr, "-l", pageStr, filePath, "-").Output()
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(out))
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// pdfinfoPages reads the "Pages:" field of pdfinfo output.
func pdfinfoPages(out string, fallback int) int {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Pages:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return fallback
}

// Tried in order; each readable result becomes a candidate.
var libraryMethods = []func(ctx context.Context, r *pdf.Reader, numPages int) []string{
	extractByRow,
	extractByContent,
	extractByPagePlainText,
	extractByReaderPlainText,
}

// extractWithLibrary runs every ledongthuc/pdf method and returns the
// readable results in method order.
func extractWithLibrary(ctx context.Context, filePath string) (candidates [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, ErrNoPages
	}

	for _, m := range libraryMethods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pages := m(ctx, r, numPages); isReadableText(pages) {
			candidates = append(candidates, pages)
		}
	}
	return candidates, nil
}

// extractByRow uses GetTextByRow, best for well-structured PDFs.
func extractByRow(ctx context.Context, r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages && ctx.Err() == nil; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups glyphs by Y coordinate to reconstruct rows, then
// orders each row by X. Space glyphs are kept; a space is also inserted where
// the gap after the previous glyph exceeds a quarter of the font size.
func extractByContent(ctx context.Context, r *pdf.Reader, numPages int) []string {
	type glyph struct {
		x, w, size float64
		s          string
	}

	var pages []string
	for i := 1; i <= numPages && ctx.Err() == nil; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rowMap := make(map[int][]glyph)
		for _, t := range content.Text {
			if t.S == "" || t.S == "\n" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], glyph{x: t.X, w: t.W, size: t.FontSize, s: t.S})
		}

		// PDF Y grows upwards, so the first row has the largest Y.
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			glyphs := rowMap[y]
			sort.SliceStable(glyphs, func(a, b int) bool {
				return glyphs[a].x < glyphs[b].x
			})

			var sb strings.Builder
			spaced := true
			for j, g := range glyphs {
				blank := strings.TrimSpace(g.s) == ""
				if j > 0 && !spaced && !blank {
					prev := glyphs[j-1]
					if g.x-(prev.x+prev.w) > max(0.25*g.size, 0.5) {
						sb.WriteByte(' ')
					}
				}
				if blank {
					sb.WriteByte(' ')
					spaced = true
					continue
				}
				sb.WriteString(g.s)
				spaced = false
			}
			line := strings.TrimSpace(sb.String())
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByPagePlainText uses Page.GetPlainText with the page's font map.
func extractByPagePlainText(ctx context.Context, r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages && ctx.Err() == nil; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// extractByReaderPlainText extracts the whole document as a single page.
func extractByReaderPlainText(_ context.Context, r *pdf.Reader, _ int) []string {
	reader, err := r.GetPlainText()
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	return []string{text}
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
