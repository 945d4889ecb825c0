package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1234.56", "R$1.234,56"},
		{"150", "R$150,00"},
		{"0", "R$0,00"},
		{"0.005", "R$0,01"},
		{"1234567.891", "R$1.234.567,89"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBRL(decimal.RequireFromString(tt.input)))
		})
	}
}
