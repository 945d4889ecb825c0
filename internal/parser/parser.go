package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/royalty-statement-converter/internal/models"
)

// Parser defines the interface for royalty statement parsers.
type Parser interface {
	// Parse takes raw text from PDF pages and returns structured statement data.
	Parse(pages []string) (*models.StatementInfo, error)
	// FormatName returns the human-readable statement format name.
	FormatName() string
}

// DefaultFormat is used when no statement format is requested.
const DefaultFormat = models.FormatAbramus

// New returns the appropriate parser for the given statement format.
// An empty format selects DefaultFormat.
func New(format models.StatementFormat) (Parser, error) {
	if format == "" {
		format = DefaultFormat
	}
	switch format {
	case models.FormatAbramus:
		return &AbramusParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported statement format: %q", format)
	}
}

// Formats lists the statement formats New accepts.
func Formats() []models.StatementFormat {
	return []models.StatementFormat{models.FormatAbramus}
}

// ParseFormat maps a user supplied name onto a statement format.
func ParseFormat(name string) (models.StatementFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultFormat, nil
	case "abramus", "abramus-int", "abramus-international":
		return models.FormatAbramus, nil
	default:
		return "", fmt.Errorf("unknown statement format %q. Supported: %s", name, FormatList())
	}
}

// FormatList is the comma separated list of Formats, for help and error text.
func FormatList() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
