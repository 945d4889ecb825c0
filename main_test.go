package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/royalty-statement-converter/internal/convert"
	"github.com/insightdelivered/royalty-statement-converter/internal/extractor"
	"github.com/insightdelivered/royalty-statement-converter/internal/metrics"
)

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input, output, want string
	}{
		{"statement.pdf", "", "statement"},
		{"/data/2024/march.PDF", "", "/data/2024/march"},
		{"statement.pdf", "out/result.xlsx", "out/result"},
		{"statement.pdf", "result", "result"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputBase(tt.input, tt.output))
	}
}

func TestRunConvertRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name   string
		opts   convertOptions
		inputs []string
	}{
		{"output format", convertOptions{format: "pdf"}, []string{"a.pdf"}},
		{"output with many inputs", convertOptions{format: "xlsx", output: "x.xlsx"}, []string{"a.pdf", "b.pdf"}},
		{"statement", convertOptions{format: "csv", statement: "socan"}, []string{"a.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runConvert(context.Background(), io.Discard, &tt.opts, tt.inputs)
			assert.Error(t, err)
		})
	}
}

func TestRunConvertReportsFailedFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	err := runConvert(context.Background(), &out, &convertOptions{format: "xlsx", jobs: 1}, []string{"missing.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1")
	assert.Contains(t, out.String(), "Input file not found")
}

func convertText(t *testing.T, text string) *convert.Result {
	t.Helper()
	conv := convert.New(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.New(prometheus.NewRegistry()))
	res, err := conv.Convert(context.Background(), &extractor.TextSource{Label: "test", Text: text}, "")
	require.NoError(t, err)
	return res
}

const statementText = "My Song Title T1234567890\n" +
	"ABRAMUS SP OTHER RIGHTS 2023/01 - 2023/02 150,00\n" +
	"SACEM FR RADIO BROADCAST 2022/07 - 2022/12 1.234,56"

func TestWriteResultXLSX(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "statement.pdf")

	var out bytes.Buffer
	require.NoError(t, writeResult(&out, input, "", outputXLSX, convertText(t, statementText)))

	assert.FileExists(t, filepath.Join(dir, "statement.xlsx"))
	assert.Contains(t, out.String(), "Found 2 royalty record(s)")
	assert.Contains(t, out.String(), "Total: R$1.384,56")
}

func TestWriteResultCSV(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "march.csv")

	var out bytes.Buffer
	require.NoError(t, writeResult(&out, "statement.pdf", output, outputCSV, convertText(t, statementText)))

	for _, name := range []string{"march.csv", "march_musicas.csv", "march_sociedades.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestWriteResultEmptyIsWarning(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "other.pdf")

	var out bytes.Buffer
	require.NoError(t, writeResult(&out, input, "", outputXLSX, convertText(t, "nothing to see here\nreally nothing")))

	assert.Contains(t, out.String(), "Warning: No royalty records found")
	_, err := os.Stat(filepath.Join(dir, "other.xlsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "royalty-statement-converter v"+version+"\n", out.String())
}

func TestRootCommandRequiresInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}

func TestStatementFlagListsFormats(t *testing.T) {
	flag := newRootCmd().Flags().Lookup("statement")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "abramus")
}

func TestRunConvertStatementPDF(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("internal", "extractor", "testdata", "statement.pdf"))
	require.NoError(t, err)

	dir := t.TempDir()
	input := filepath.Join(dir, "statement.pdf")
	require.NoError(t, os.WriteFile(input, data, 0o644))
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	require.NoError(t, runConvert(context.Background(), &out, &convertOptions{format: "xlsx", jobs: 1}, []string{input}))

	assert.Contains(t, out.String(), "Extracted text from 2 page(s)")
	assert.Contains(t, out.String(), "Found 3 royalty record(s)")
	assert.Contains(t, out.String(), "Total: R$1.394,56")
	assert.FileExists(t, filepath.Join(dir, "statement.xlsx"))
}
