package models

import "github.com/shopspring/decimal"

// RightTypeAutoral is the right type carried by every record of an
// international distribution statement.
const RightTypeAutoral = "AUTORAL"

// RoyaltyRecord represents a single royalty payment line attributed to a work.
type RoyaltyRecord struct {
	Title     string          `json:"title"`
	WorkID    string          `json:"workId"`
	Society   string          `json:"society"`
	Territory string          `json:"territory"`
	Rubric    string          `json:"rubric"`
	RightType string          `json:"rightType"`
	Period    string          `json:"period"`
	Amount    decimal.Decimal `json:"amount"`
}

// StatementFormat represents supported royalty statement layouts.
type StatementFormat string

const (
	FormatAbramus StatementFormat = "abramus"
)

// SkipReason explains why a line did not produce a record.
type SkipReason string

const (
	SkipBoilerplate         SkipReason = "boilerplate"
	SkipTooFewTokens        SkipReason = "too_few_tokens"
	SkipNoTitle             SkipReason = "no_title"
	SkipBadAmount           SkipReason = "bad_amount"
	SkipNoPeriod            SkipReason = "no_period"
	SkipMalformedIdentifier SkipReason = "malformed_identifier"
)

// DebugLine captures what the parser did with each input line.
type DebugLine struct {
	Page    int        `json:"page"`
	LineNum int        `json:"lineNum"`
	Text    string     `json:"text"`
	Result  string     `json:"result"` // "record", "title", "skipped"
	Reason  SkipReason `json:"reason,omitempty"`
}

// StatementInfo holds everything extracted from one statement.
type StatementInfo struct {
	Format     StatementFormat
	PageCount  int
	LineCount  int
	Records    []RoyaltyRecord
	DebugLines []DebugLine
	SkipCounts map[SkipReason]int
}
