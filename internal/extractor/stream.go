package extractor

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// readPDFContext parses and validates a PDF with pdfcpu.
func readPDFContext(filePath string) (*model.Context, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	c, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return c, nil
}

// extractWithPdfcpu decodes each page's content stream with pdfcpu and
// rebuilds its text lines from the text-showing operators. Strings shown in
// a font with a /ToUnicode CMap are mapped through it.
func extractWithPdfcpu(ctx context.Context, c *model.Context) ([]string, error) {
	pages := make([]string, 0, c.PageCount)
	found := false
	for pageNr := 1; pageNr <= c.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := pdfcpu.ExtractPageContent(c, pageNr)
		if err != nil || r == nil {
			pages = append(pages, "")
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		text := textFromContentStream(data, pageToUnicode(c, pageNr))
		if text != "" {
			found = true
		}
		pages = append(pages, text)
	}
	if !found {
		return nil, fmt.Errorf("no text operators in %d page(s)", c.PageCount)
	}
	return pages, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokArray
	tokOperator
	tokOther
)

type token struct {
	kind  tokenKind
	text  string
	raw   []byte // string operand bytes before decoding
	num   float64
	items []token
}

// contentLexer splits a decoded content stream into operands and operators.
type contentLexer struct {
	data []byte
	pos  int
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func (l *contentLexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isPDFSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *contentLexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) && !isPDFSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func (l *contentLexer) next() (token, bool) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{}, false
	}

	c := l.data[l.pos]
	switch {
	case c == '(':
		raw := l.literal()
		return token{kind: tokString, text: decodePDFBytes(raw), raw: raw}, true
	case c == '<' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '<':
		l.pos += 2
		return token{kind: tokOther, text: "<<"}, true
	case c == '<':
		raw := l.hexString()
		return token{kind: tokString, text: decodePDFBytes(raw), raw: raw}, true
	case c == '>' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '>':
		l.pos += 2
		return token{kind: tokOther, text: ">>"}, true
	case c == '[':
		l.pos++
		return l.array(), true
	case c == '/':
		l.pos++
		return token{kind: tokOther, text: "/" + l.regular()}, true
	case isDelimiter(c):
		l.pos++
		return token{kind: tokOther, text: string(c)}, true
	}

	word := l.regular()
	if word == "" {
		l.pos++
		return token{kind: tokOther}, true
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, num: n, text: word}, true
	}
	if word == "ID" {
		l.skipInlineImage()
	}
	return token{kind: tokOperator, text: word}, true
}

func (l *contentLexer) array() token {
	arr := token{kind: tokArray}
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return arr
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return arr
		}
		t, ok := l.next()
		if !ok {
			return arr
		}
		arr.items = append(arr.items, t)
	}
}

// literal reads a (...) string, honouring nesting and escapes.
func (l *contentLexer) literal() []byte {
	l.pos++ // (
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			if l.pos >= len(l.data) {
				return out
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for j := 0; j < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; j++ {
						val = val*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

func (l *contentLexer) hexString() []byte {
	l.pos++ // <
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; !isPDFSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw, err := hex.DecodeString(string(digits))
	if err != nil {
		return nil
	}
	return raw
}

// skipInlineImage jumps past the binary data of a BI ... ID ... EI image.
func (l *contentLexer) skipInlineImage() {
	for l.pos+2 < len(l.data) {
		if isPDFSpace(l.data[l.pos]) && l.data[l.pos+1] == 'E' && l.data[l.pos+2] == 'I' &&
			(l.pos+3 >= len(l.data) || isPDFSpace(l.data[l.pos+3])) {
			l.pos += 3
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

// decodePDFBytes turns string operand bytes into text. UTF-16BE is used when
// the string carries a byte order mark or looks like two-byte ASCII;
// everything else is read as Latin-1, which matches WinAnsi for the letters
// used in Portuguese.
func decodePDFBytes(b []byte) string {
	if len(b) >= 2 && len(b)%2 == 0 && (b[0] == 0xFE && b[1] == 0xFF || looksUTF16(b)) {
		if b[0] == 0xFE && b[1] == 0xFF {
			b = b[2:]
		}
		units := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return cleanText(string(utf16.Decode(units)))
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return cleanText(string(runes))
}

func looksUTF16(b []byte) bool {
	for i := 0; i < len(b); i += 2 {
		if b[i] != 0 {
			return false
		}
	}
	return true
}

func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
}

// textState follows the text position just closely enough to tell a new
// line from a move along the same line.
type textState struct {
	lines   []string
	cur     strings.Builder
	lineY   float64
	y       float64
	lastY   float64
	leading float64
	space   bool
	breakNx bool
	fonts   map[string]*toUnicodeMap
	font    *toUnicodeMap // CMap of the current font, if any
}

// decode prefers the current font's CMap over the generic byte decoding.
func (s *textState) decode(t token) string {
	if s.font != nil {
		if text := cleanText(s.font.decode(t.raw)); text != "" {
			return text
		}
	}
	return t.text
}

func (s *textState) flush() {
	if line := strings.TrimSpace(s.cur.String()); line != "" {
		s.lines = append(s.lines, line)
	}
	s.cur.Reset()
}

func (s *textState) show(text string) {
	if text == "" {
		return
	}
	if s.cur.Len() > 0 {
		if s.breakNx || math.Abs(s.y-s.lastY) > 1 {
			s.flush()
		} else if s.space && !strings.HasSuffix(s.cur.String(), " ") && !strings.HasPrefix(text, " ") {
			s.cur.WriteByte(' ')
		}
	}
	if strings.HasSuffix(s.cur.String(), " ") {
		text = strings.TrimLeft(text, " ")
	}
	s.cur.WriteString(text)
	s.lastY = s.y
	s.space = false
	s.breakNx = false
}

func (s *textState) nextLine() {
	s.lineY -= s.leading
	s.y = s.lineY
	s.breakNx = true
}

// textFromContentStream rebuilds text lines from Tj, TJ, ' and " operators,
// starting a new line whenever the vertical position changes. fonts maps
// font resource names to their ToUnicode CMaps and may be nil.
func textFromContentStream(data []byte, fonts map[string]*toUnicodeMap) string {
	lx := &contentLexer{data: data}
	st := &textState{fonts: fonts}
	var operands []token

	nums := func(n int) ([]float64, bool) {
		if len(operands) < n {
			return nil, false
		}
		out := make([]float64, n)
		for i, t := range operands[len(operands)-n:] {
			if t.kind != tokNumber {
				return nil, false
			}
			out[i] = t.num
		}
		return out, true
	}
	lastString := func() string {
		for i := len(operands) - 1; i >= 0; i-- {
			if operands[i].kind == tokString {
				return st.decode(operands[i])
			}
		}
		return ""
	}

	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "BT":
			st.lineY, st.y = 0, 0
		case "Td", "TD":
			if v, ok := nums(2); ok {
				st.lineY += v[1]
				st.y = st.lineY
				if v[0] != 0 {
					st.space = true
				}
				if tok.text == "TD" {
					st.leading = -v[1]
				}
			}
		case "Tf":
			st.font = nil
			if len(operands) >= 2 && strings.HasPrefix(operands[len(operands)-2].text, "/") {
				st.font = st.fonts[strings.TrimPrefix(operands[len(operands)-2].text, "/")]
			}
		case "TL":
			if v, ok := nums(1); ok {
				st.leading = v[0]
			}
		case "Tm":
			if v, ok := nums(6); ok {
				st.lineY = v[5]
				st.y = v[5]
				st.space = true
			}
		case "T*":
			st.nextLine()
		case "Tj":
			st.show(lastString())
		case "'", "\"":
			st.nextLine()
			st.show(lastString())
		case "TJ":
			if len(operands) > 0 && operands[len(operands)-1].kind == tokArray {
				for _, item := range operands[len(operands)-1].items {
					switch item.kind {
					case tokString:
						st.show(st.decode(item))
					case tokNumber:
						// Large negative adjustments are word gaps.
						if item.num < -200 {
							st.space = true
						}
					}
				}
			}
		}
		operands = operands[:0]
	}
	st.flush()

	return strings.Join(st.lines, "\n")
}
