package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/royalty-statement-converter/internal/extractor"
	"github.com/insightdelivered/royalty-statement-converter/internal/metrics"
	"github.com/insightdelivered/royalty-statement-converter/internal/models"
	"github.com/insightdelivered/royalty-statement-converter/internal/parser"
	"github.com/insightdelivered/royalty-statement-converter/internal/report"
)

// Result is one converted statement.
type Result struct {
	Source  string
	Pages   []string
	Info    *models.StatementInfo
	Summary *report.Summary
}

// Empty reports a readable document that yielded no records.
func (r *Result) Empty() bool {
	return r.Summary.Count == 0
}

// FileResult pairs an input path with its conversion outcome.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// Converter runs statements through extraction, parsing and aggregation.
type Converter struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(logger *slog.Logger, m *metrics.Metrics) *Converter {
	return &Converter{logger: logger, metrics: m}
}

// Convert reads src and parses it as format. Document-level failures are
// returned as errors; a readable document without records is a successful,
// empty Result.
func (c *Converter) Convert(ctx context.Context, src extractor.Source, format models.StatementFormat) (*Result, error) {
	start := time.Now()
	log := c.logger.With("source", src.Name())

	p, err := parser.New(format)
	if err != nil {
		return nil, err
	}

	pages, err := src.Pages(ctx)
	if err != nil {
		c.metrics.ObserveDocument(metrics.OutcomeFailed, start)
		var docErr *extractor.DocumentError
		if errors.As(err, &docErr) {
			log.Warn("document rejected", "error", err)
		} else {
			log.Error("text extraction failed", "error", err)
		}
		return nil, err
	}
	log.Debug("text extracted", "pages", len(pages))

	info, err := p.Parse(pages)
	if err != nil {
		c.metrics.ObserveDocument(metrics.OutcomeFailed, start)
		return nil, fmt.Errorf("parse %s: %w", src.Name(), err)
	}

	for reason, n := range info.SkipCounts {
		c.metrics.AddSkipped(string(reason), n)
	}
	c.metrics.AddRecords(len(info.Records))

	summary := report.Summarize(info.Records)
	res := &Result{Source: src.Name(), Pages: pages, Info: info, Summary: summary}

	outcome := metrics.OutcomeOK
	if res.Empty() {
		outcome = metrics.OutcomeEmpty
		log.Warn("no royalty records found", "lines", info.LineCount, "skipped", info.SkipCounts)
	}
	c.metrics.ObserveDocument(outcome, start)

	log.Info("statement converted",
		"format", p.FormatName(),
		"pages", info.PageCount,
		"records", summary.Count,
		"total", summary.Total.StringFixed(2),
		"duration", time.Since(start))
	return res, nil
}

// ConvertFiles converts PDF files with at most limit running at once. Each
// file gets its own parser state. Results are returned in input order; a
// failing file does not stop the others. The returned error is only set when
// ctx ends first.
func (c *Converter) ConvertFiles(ctx context.Context, paths []string, format models.StatementFormat, limit int) ([]FileResult, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.Convert(gctx, &extractor.PDFSource{Path: path}, format)
			results[i] = FileResult{Path: path, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
