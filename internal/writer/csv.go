package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/royalty-statement-converter/internal/report"
)

type detailRow struct {
	Title     string `csv:"Título"`
	WorkID    string `csv:"ISRC/ISWC"`
	Society   string `csv:"Sociedade"`
	Territory string `csv:"Território"`
	Rubric    string `csv:"Rubrica"`
	RightType string `csv:"Direito"`
	Period    string `csv:"Período"`
	Amount    string `csv:"Rendimento"`
}

type workRow struct {
	Title  string `csv:"Título"`
	WorkID string `csv:"ISRC/ISWC"`
	Amount string `csv:"Rendimento"`
}

type societyRow struct {
	Society   string `csv:"Sociedade"`
	Territory string `csv:"Território"`
	Amount    string `csv:"Rendimento"`
}

// CSVWriter writes a statement summary as three CSV tables.
type CSVWriter struct{}

// CSVPaths names the three files written by WriteToFiles.
type CSVPaths struct {
	Detail    string
	ByWork    string
	BySociety string
}

// PathsFor derives the three output paths from a base path without extension.
func PathsFor(base string) CSVPaths {
	return CSVPaths{
		Detail:    base + ".csv",
		ByWork:    base + "_musicas.csv",
		BySociety: base + "_sociedades.csv",
	}
}

// WriteToFiles writes the detail, per-work and per-society tables.
func (w *CSVWriter) WriteToFiles(paths CSVPaths, s *report.Summary) error {
	if err := writeFile(paths.Detail, func(out io.Writer) error { return w.WriteDetail(out, s) }); err != nil {
		return err
	}
	if err := writeFile(paths.ByWork, func(out io.Writer) error { return w.WriteByWork(out, s) }); err != nil {
		return err
	}
	return writeFile(paths.BySociety, func(out io.Writer) error { return w.WriteBySociety(out, s) })
}

// WriteDetail writes every record, one row each, in statement order.
func (w *CSVWriter) WriteDetail(out io.Writer, s *report.Summary) error {
	rows := make([]detailRow, 0, len(s.Detail))
	for _, r := range s.Detail {
		rows = append(rows, detailRow{
			Title:     r.Title,
			WorkID:    r.WorkID,
			Society:   r.Society,
			Territory: r.Territory,
			Rubric:    r.Rubric,
			RightType: r.RightType,
			Period:    r.Period,
			Amount:    formatAmount(r.Amount),
		})
	}
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("failed to write detail CSV: %w", err)
	}
	return nil
}

// WriteByWork writes totals per (title, work id).
func (w *CSVWriter) WriteByWork(out io.Writer, s *report.Summary) error {
	rows := make([]workRow, 0, len(s.ByWork))
	for _, t := range s.ByWork {
		rows = append(rows, workRow{Title: t.Title, WorkID: t.WorkID, Amount: formatAmount(t.Amount)})
	}
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("failed to write per-work CSV: %w", err)
	}
	return nil
}

// WriteBySociety writes totals per (society, territory).
func (w *CSVWriter) WriteBySociety(out io.Writer, s *report.Summary) error {
	rows := make([]societyRow, 0, len(s.BySociety))
	for _, t := range s.BySociety {
		rows = append(rows, societyRow{Society: t.Society, Territory: t.Territory, Amount: formatAmount(t.Amount)})
	}
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("failed to write per-society CSV: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %q: %w", path, cerr)
		}
	}()
	return write(f)
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
