package extractor

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// toUnicodeMap maps a font's character codes to Unicode text. Subset and
// Identity-H fonts show glyph codes, so their string operands are
// meaningless without the font's /ToUnicode CMap.
type toUnicodeMap struct {
	codes map[string]string // upper-case hex code -> text
	// codeLen is the code width in bytes. Codes in one font share a width
	// in practice; 1 is used when the CMap declares nothing wider.
	codeLen int
}

var (
	bfCharBlockRe  = regexp.MustCompile(`(?s)beginbfchar\s*(.*?)\s*endbfchar`)
	bfRangeBlockRe = regexp.MustCompile(`(?s)beginbfrange\s*(.*?)\s*endbfrange`)
	hexTokenRe     = regexp.MustCompile(`<([0-9A-Fa-f]*)>`)
)

// parseToUnicode reads the bfchar and bfrange sections of a ToUnicode CMap.
func parseToUnicode(content []byte) *toUnicodeMap {
	m := &toUnicodeMap{codes: make(map[string]string), codeLen: 1}
	text := string(content)

	// <src> <dst> pairs
	for _, block := range bfCharBlockRe.FindAllStringSubmatch(text, -1) {
		tokens := hexTokenRe.FindAllStringSubmatch(block[1], -1)
		for i := 0; i+1 < len(tokens); i += 2 {
			m.set(tokens[i][1], utf16Hex(tokens[i+1][1]))
		}
	}

	// <start> <end> <dst> or <start> <end> [<dst1> <dst2> ...]
	for _, block := range bfRangeBlockRe.FindAllStringSubmatch(text, -1) {
		for _, line := range strings.Split(block[1], "\n") {
			if open := strings.Index(line, "["); open >= 0 {
				bounds := hexTokenRe.FindAllStringSubmatch(line[:open], -1)
				if len(bounds) < 2 {
					continue
				}
				start, width := hexValue(bounds[0][1]), len(bounds[0][1])
				for i, dst := range hexTokenRe.FindAllStringSubmatch(line[open:], -1) {
					m.set(codeHex(start+i, width), utf16Hex(dst[1]))
				}
				continue
			}

			tokens := hexTokenRe.FindAllStringSubmatch(line, -1)
			if len(tokens) < 3 {
				continue
			}
			start, end := hexValue(tokens[0][1]), hexValue(tokens[1][1])
			dst := tokens[2][1]
			if start < 0 || end < start || hexValue(dst) < 0 || end-start > 0xFFFF {
				continue
			}
			// Only the last UTF-16 unit of dst is incremented across the range.
			base := dst[:len(dst)-min(len(dst), 4)]
			last := hexValue(dst[len(base):])
			for code := start; code <= end; code++ {
				m.set(codeHex(code, len(tokens[0][1])), utf16Hex(base+codeHex(last+code-start, 4)))
			}
		}
	}
	return m
}

func (m *toUnicodeMap) set(src, text string) {
	if src == "" || text == "" {
		return
	}
	src = strings.ToUpper(src)
	m.codes[src] = text
	if n := (len(src) + 1) / 2; n > m.codeLen {
		m.codeLen = n
	}
}

func (m *toUnicodeMap) len() int {
	return len(m.codes)
}

// decode maps raw string operand bytes through the CMap. Unmapped codes are
// dropped, except printable ASCII in single-byte fonts.
func (m *toUnicodeMap) decode(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); {
		n := min(m.codeLen, len(raw)-i)
		if text, ok := m.codes[strings.ToUpper(hex.EncodeToString(raw[i:i+n]))]; ok {
			sb.WriteString(text)
			i += n
			continue
		}
		// Mixed-width CMaps: retry the single byte.
		if n > 1 {
			if text, ok := m.codes[strings.ToUpper(hex.EncodeToString(raw[i:i+1]))]; ok {
				sb.WriteString(text)
				i++
				continue
			}
		}
		if m.codeLen == 1 && raw[i] >= 0x20 && raw[i] < 0x7F {
			sb.WriteByte(raw[i])
		}
		i += n
	}
	return sb.String()
}

// pageToUnicode resolves the ToUnicode CMap of each font in a page's
// resources, keyed by the font's resource name (without the slash).
func pageToUnicode(c *model.Context, pageNr int) map[string]*toUnicodeMap {
	_, _, attrs, err := c.PageDict(pageNr, false)
	if err != nil || attrs == nil || attrs.Resources == nil {
		return nil
	}
	obj, found := attrs.Resources.Find("Font")
	if !found {
		return nil
	}
	fonts, err := c.DereferenceDict(obj)
	if err != nil || fonts == nil {
		return nil
	}

	maps := make(map[string]*toUnicodeMap)
	for name, ref := range fonts {
		fontDict, err := c.DereferenceDict(ref)
		if err != nil || fontDict == nil {
			continue
		}
		tu, found := fontDict.Find("ToUnicode")
		if !found {
			continue
		}
		sd, _, err := c.DereferenceStreamDict(tu)
		if err != nil || sd == nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			continue
		}
		if m := parseToUnicode(sd.Content); m.len() > 0 {
			maps[name] = m
		}
	}
	return maps
}

// hexValue parses up to 8 hex digits; -1 on anything else.
func hexValue(h string) int {
	if h == "" || len(h) > 8 {
		return -1
	}
	val := 0
	for _, c := range strings.ToUpper(h) {
		val <<= 4
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'A' && c <= 'F':
			val += int(c-'A') + 10
		default:
			return -1
		}
	}
	return val
}

// codeHex formats val as upper-case hex zero-padded to width digits.
func codeHex(val, width int) string {
	h := strings.ToUpper(strings.TrimLeft(hex.EncodeToString([]byte{byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)}), "0"))
	for len(h) < width {
		h = "0" + h
	}
	return h
}

// utf16Hex decodes a UTF-16BE hex string, surrogate pairs included.
func utf16Hex(h string) string {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	data, err := hex.DecodeString(h)
	if err != nil || len(data) == 0 {
		return ""
	}
	if len(data) == 1 {
		return string(rune(data[0]))
	}
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
	}
	return string(utf16.Decode(units))
}
