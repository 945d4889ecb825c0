package parser

import (
	"strings"

	"github.com/insightdelivered/royalty-statement-converter/internal/models"
)

// State is the context carried from one line to the next: the work that
// subsequent data lines belong to. The zero value means no title seen yet.
type State struct {
	Title  string
	WorkID string
}

// HasTitle reports whether data lines can be attributed to a work.
func (s State) HasTitle() bool {
	return s.Title != ""
}

// LineKind classifies the outcome of a single line.
type LineKind string

const (
	LineRecord  LineKind = "record"
	LineTitle   LineKind = "title"
	LineSkipped LineKind = "skipped"
)

// LineResult is what ClassifyLine made of one line. Record is set only for
// LineRecord and Skip only for LineSkipped.
type LineResult struct {
	Kind   LineKind
	Record *models.RoyaltyRecord
	Skip   models.SkipReason
}

func skipped(reason models.SkipReason) LineResult {
	return LineResult{Kind: LineSkipped, Skip: reason}
}

// ClassifyLine applies the line rules to one line of statement text and
// returns the state for the next line together with the line's result.
func ClassifyLine(state State, line string) (State, LineResult) {
	if isBoilerplate(line) {
		return state, skipped(models.SkipBoilerplate)
	}

	if workIDAnywhere.MatchString(line) {
		return classifyTitle(state, line)
	}

	return state, classifyData(state, line)
}

// classifyTitle handles a line carrying a work identifier. The title is every
// token before the identifier token, joined by single spaces.
func classifyTitle(state State, line string) (State, LineResult) {
	parts := strings.Fields(line)
	for i, part := range parts {
		id := workIDPattern.FindString(part)
		if id == "" {
			continue
		}
		next := State{
			Title:  strings.Join(parts[:i], " "),
			WorkID: id,
		}
		return next, LineResult{Kind: LineTitle}
	}
	// Identifier buried inside a token, e.g. "XT1234567890".
	return state, skipped(models.SkipMalformedIdentifier)
}

// classifyData extracts a record from a data line, anchored on the trailing
// amount and the period pattern.
func classifyData(state State, line string) LineResult {
	parts := strings.Fields(line)
	if len(parts) < minDataTokens {
		return skipped(models.SkipTooFewTokens)
	}
	if !state.HasTitle() {
		return skipped(models.SkipNoTitle)
	}

	amount, err := parseAmount(parts[len(parts)-1])
	if err != nil {
		return skipped(models.SkipBadAmount)
	}

	loc := periodPattern.FindStringIndex(line)
	if loc == nil {
		return skipped(models.SkipNoPeriod)
	}

	society := parts[0]
	territory := parts[1]

	return LineResult{
		Kind: LineRecord,
		Record: &models.RoyaltyRecord{
			Title:     state.Title,
			WorkID:    state.WorkID,
			Society:   society,
			Territory: territory,
			Rubric:    rubricBetween(line, society, territory, loc[0]),
			RightType: models.RightTypeAutoral,
			Period:    line[loc[0]:loc[1]],
			Amount:    amount,
		},
	}
}
