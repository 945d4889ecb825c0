package writer

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter_WriteDetail(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	require.NoError(t, w.WriteDetail(&buf, testSummary()))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Título", "ISRC/ISWC", "Sociedade", "Território", "Rubrica", "Direito", "Período", "Rendimento"}, rows[0])
	assert.Equal(t, []string{"My Song Title", "T1234567890", "ABRAMUS", "SP", "OTHER RIGHTS", "AUTORAL", "2023/01 - 2023/02", "150.00"}, rows[1])
	assert.Equal(t, "RADIO, TV", rows[2][4], "commas inside fields must be quoted")
	assert.Equal(t, "1234.50", rows[2][7])
}

func TestCSVWriter_WriteSummaries(t *testing.T) {
	w := &CSVWriter{}

	var works bytes.Buffer
	require.NoError(t, w.WriteByWork(&works, testSummary()))
	rows := readCSV(t, works.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Título", "ISRC/ISWC", "Rendimento"}, rows[0])
	assert.Equal(t, []string{"My Song Title", "T1234567890", "1384.50"}, rows[1])
	assert.Equal(t, []string{"Another Work", "T0987654321", "10.00"}, rows[2])

	var societies bytes.Buffer
	require.NoError(t, w.WriteBySociety(&societies, testSummary()))
	rows = readCSV(t, societies.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Sociedade", "Território", "Rendimento"}, rows[0])
	assert.Equal(t, []string{"SACEM", "FR", "1234.50"}, rows[1])
	assert.Equal(t, []string{"ABRAMUS", "SP", "160.00"}, rows[2])
}

func TestCSVWriter_WriteToFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "statement")
	paths := PathsFor(base)

	w := &CSVWriter{}
	require.NoError(t, w.WriteToFiles(paths, testSummary()))

	for _, p := range []string{paths.Detail, paths.ByWork, paths.BySociety} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}
	assert.Equal(t, base+"_musicas.csv", paths.ByWork)
}

func TestCSVWriter_WriteToFilesBadDir(t *testing.T) {
	w := &CSVWriter{}
	err := w.WriteToFiles(PathsFor(filepath.Join(t.TempDir(), "missing", "x")), testSummary())
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25.99", "25.99"},
		{"1234.5", "1234.50"},
		{"0", "0.00"},
		{"2500", "2500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatAmount(decimal.RequireFromString(tt.input)))
		})
	}
}
