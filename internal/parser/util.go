package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

var (
	// Work identifier at the start of a token: T followed by ten digits.
	workIDPattern = regexp.MustCompile(`^T\d{10}`)
	// Work identifier anywhere in a line.
	workIDAnywhere = regexp.MustCompile(`T\d{10}`)
	// Accrual period, e.g. "2023/01 - 2023/02" or "2023/01-2023/02".
	// Spaces around the hyphen may be any Unicode space, NBSP included.
	periodPattern = regexp.MustCompile(`\d{4}/\d{2}[\s\p{Zs}]*-[\s\p{Zs}]*\d{4}/\d{2}`)
)

// boilerplateMarkers appear on header, footer and total lines that never
// carry royalty data. Matching is case-sensitive.
var boilerplateMarkers = []string{
	"DISTRIBUIÇÃO DE DIREITOS",
	"DATA :",
	"TOTAL:",
	"DEMONSTRATIVO",
	"CPF:",
	"ABRAMUS:",
	"ECAD:",
}

var boilerplateMatcher = ahocorasick.NewStringMatcher(boilerplateMarkers)

// isBoilerplate reports whether the line contains any boilerplate marker.
func isBoilerplate(line string) bool {
	return boilerplateMatcher.Contains([]byte(line))
}

// minDataTokens is the smallest token count a data line can have:
// society, territory, rubric, period start, period end, amount.
const minDataTokens = 6

// parseAmount converts a statement amount like "150,00" or "1.234,56" to a decimal.
// When a comma is present the last comma is the decimal separator and every
// '.' or ',' before it is a thousands separator.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, ","); i >= 0 {
		whole := strings.NewReplacer(".", "", ",", "").Replace(s[:i])
		s = whole + "." + s[i+1:]
	}
	return decimal.NewFromString(s)
}

// rubricBetween returns the raw text between the territory column and the
// start of the period.
//
// It assumes society and territory are each followed by exactly one space,
// so the rubric starts len(society)+len(territory)+2 characters into the raw
// line. Leading whitespace or repeated separators shift the window. Offsets
// are counted in characters, and periodStart is a byte offset into line.
// A window that starts at or after the period yields "".
func rubricBetween(line, society, territory string, periodStart int) string {
	start := utf8.RuneCountInString(society) + utf8.RuneCountInString(territory) + 2
	end := utf8.RuneCountInString(line[:periodStart])
	if start >= end {
		return ""
	}
	runes := []rune(line)
	return strings.TrimSpace(string(runes[start:end]))
}
