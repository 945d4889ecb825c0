package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/royalty-statement-converter/internal/config"
	"github.com/insightdelivered/royalty-statement-converter/internal/convert"
	"github.com/insightdelivered/royalty-statement-converter/internal/metrics"
	"github.com/insightdelivered/royalty-statement-converter/internal/parser"
	"github.com/insightdelivered/royalty-statement-converter/internal/report"
	"github.com/insightdelivered/royalty-statement-converter/internal/writer"
)

var version = "2.0.0"

// Output formats accepted by --format.
const (
	outputXLSX = "xlsx"
	outputCSV  = "csv"
)

type convertOptions struct {
	format    string
	output    string
	statement string
	jobs      int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &convertOptions{}

	rootCmd := &cobra.Command{
		Use:   "royalty-statement-converter [flags] <statement.pdf> [statement2.pdf ...]",
		Short: "Convert ABRAMUS royalty statement PDFs to Excel or CSV",
		Long: `Royalty Statement PDF Converter
by Insight Delivered

Reads ABRAMUS international distribution statements and writes every
royalty line together with totals per work and per society/territory.`,
		Example: `  # Workbook next to the statement
  royalty-statement-converter statement.pdf

  # CSV tables with a custom base name
  royalty-statement-converter --format=csv --output=march.csv statement.pdf

  # Several statements, two at a time
  royalty-statement-converter --jobs=2 jan.pdf feb.pdf mar.pdf`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.format, "format", outputXLSX, "Output format: xlsx or csv")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file path (single input only; defaults to the input name)")
	flags.StringVar(&opts.statement, "statement", string(parser.DefaultFormat), "Statement layout: "+parser.FormatList())
	flags.IntVar(&opts.jobs, "jobs", 0, "Statements converted concurrently (defaults to CONVERT_JOBS)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "royalty-statement-converter v%s\n", version)
		},
	}
}

func runConvert(ctx context.Context, out io.Writer, opts *convertOptions, inputs []string) error {
	outputFormat := strings.ToLower(opts.format)
	if outputFormat != outputXLSX && outputFormat != outputCSV {
		return fmt.Errorf("unknown output format %q. Supported: xlsx, csv", opts.format)
	}
	if opts.output != "" && len(inputs) > 1 {
		return errors.New("--output can only be used with a single input file")
	}
	statement, err := parser.ParseFormat(opts.statement)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	jobs := opts.jobs
	if jobs <= 0 {
		jobs = cfg.Convert.Jobs
	}

	conv := convert.New(logger, metrics.New(prometheus.NewRegistry()))
	results, err := conv.ConvertFiles(ctx, inputs, statement, jobs)
	if err != nil {
		return err
	}

	failed := 0
	for _, fr := range results {
		fmt.Fprintf(out, "Processing: %s\n", fr.Path)
		if fr.Err != nil {
			fmt.Fprintf(out, "  Error: %v\n", fr.Err)
			failed++
			continue
		}
		if err := writeResult(out, fr.Path, opts.output, outputFormat, fr.Result); err != nil {
			fmt.Fprintf(out, "  Error: %v\n", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d statement(s) failed", failed, len(inputs))
	}
	return nil
}

func writeResult(out io.Writer, inputPath, outputPath, outputFormat string, res *convert.Result) error {
	s := res.Summary
	fmt.Fprintf(out, "  Extracted text from %d page(s)\n", res.Info.PageCount)
	fmt.Fprintf(out, "  Found %d royalty record(s)\n", s.Count)

	if res.Empty() {
		fmt.Fprintln(out, "  Warning: No royalty records found. The PDF layout may not match an ABRAMUS statement.")
		return nil
	}

	switch outputFormat {
	case outputCSV:
		paths := writer.PathsFor(outputBase(inputPath, outputPath))
		if err := (&writer.CSVWriter{}).WriteToFiles(paths, s); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
		fmt.Fprintf(out, "  Output: %s, %s, %s\n", paths.Detail, paths.ByWork, paths.BySociety)
	default:
		path := outputBase(inputPath, outputPath) + ".xlsx"
		if err := (&writer.ExcelWriter{}).WriteToFile(path, s); err != nil {
			return fmt.Errorf("workbook write failed: %w", err)
		}
		fmt.Fprintf(out, "  Output: %s\n", path)
	}

	fmt.Fprintf(out, "  Works: %d, societies: %d\n", len(s.ByWork), len(s.BySociety))
	fmt.Fprintf(out, "  Total: %s\n", report.FormatBRL(s.Total))
	return nil
}

// outputBase returns the output path without its extension: the explicit
// --output value when given, the input path otherwise.
func outputBase(inputPath, outputPath string) string {
	p := outputPath
	if p == "" {
		p = inputPath
	}
	return strings.TrimSuffix(p, filepath.Ext(p))
}
