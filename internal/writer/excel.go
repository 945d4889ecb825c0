package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/royalty-statement-converter/internal/report"
)

// Sheet names of the generated workbook.
const (
	SheetDetail    = "Detalhamento Completo"
	SheetByWork    = "Resumo por Música"
	SheetBySociety = "Resumo por Sociedade"
)

// MoneyFormat is the number format applied to amount columns.
const MoneyFormat = `"R$" #,##0.00`

var (
	detailHeader    = []interface{}{"Título", "ISRC/ISWC", "Sociedade", "Território", "Rubrica", "Direito", "Período", "Rendimento"}
	byWorkHeader    = []interface{}{"Título", "ISRC/ISWC", "Rendimento"}
	bySocietyHeader = []interface{}{"Sociedade", "Território", "Rendimento"}
)

type columnWidth struct {
	from, to string
	width    float64
}

// ExcelWriter renders a statement summary as an XLSX workbook with one
// sheet per view.
type ExcelWriter struct{}

// WriteToFile writes the workbook to path.
func (w *ExcelWriter) WriteToFile(path string, s *report.Summary) error {
	f, err := w.build(s)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return nil
}

// Write writes the workbook to out.
func (w *ExcelWriter) Write(out io.Writer, s *report.Summary) error {
	f, err := w.build(s)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Bytes returns the workbook as an in-memory XLSX file.
func (w *ExcelWriter) Bytes(s *report.Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *ExcelWriter) build(s *report.Summary) (*excelize.File, error) {
	f := excelize.NewFile()

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	// The default sheet becomes the detail sheet so it opens first.
	if err := f.SetSheetName(f.GetSheetName(0), SheetDetail); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	for _, name := range []string{SheetByWork, SheetBySociety} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}

	detail := make([][]interface{}, 0, len(s.Detail))
	for _, r := range s.Detail {
		detail = append(detail, []interface{}{
			r.Title, r.WorkID, r.Society, r.Territory, r.Rubric, r.RightType, r.Period, r.Amount.InexactFloat64(),
		})
	}
	byWork := make([][]interface{}, 0, len(s.ByWork))
	for _, t := range s.ByWork {
		byWork = append(byWork, []interface{}{t.Title, t.WorkID, t.Amount.InexactFloat64()})
	}
	bySociety := make([][]interface{}, 0, len(s.BySociety))
	for _, t := range s.BySociety {
		bySociety = append(bySociety, []interface{}{t.Society, t.Territory, t.Amount.InexactFloat64()})
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
		widths []columnWidth
		money  string
	}{
		{SheetDetail, detailHeader, detail, []columnWidth{{"A", "A", 40}, {"B", "B", 15}, {"C", "G", 20}, {"H", "H", 15}}, "H"},
		{SheetByWork, byWorkHeader, byWork, []columnWidth{{"A", "A", 40}, {"B", "B", 15}, {"C", "C", 15}}, "C"},
		{SheetBySociety, bySocietyHeader, bySociety, []columnWidth{{"A", "B", 25}, {"C", "C", 15}}, "C"},
	}

	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.header, sh.rows, styles); err != nil {
			f.Close()
			return nil, err
		}
		for _, cw := range sh.widths {
			if err := f.SetColWidth(sh.name, cw.from, cw.to, cw.width); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to size columns on %q: %w", sh.name, err)
			}
		}
		if len(sh.rows) > 0 {
			first := sh.money + "2"
			last := fmt.Sprintf("%s%d", sh.money, len(sh.rows)+1)
			if err := f.SetCellStyle(sh.name, first, last, styles.money); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to format amounts on %q: %w", sh.name, err)
			}
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

type sheetStyles struct {
	header int
	money  int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("failed to create header style: %w", err)
	}

	moneyFmt := MoneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("failed to create money style: %w", err)
	}

	return sheetStyles{header: header, money: money}, nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, styles sheetStyles) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header on %q: %w", sheet, err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, styles.header); err != nil {
		return fmt.Errorf("failed to style header on %q: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d on %q: %w", i+2, sheet, err)
		}
	}
	return nil
}
