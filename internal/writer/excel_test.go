package writer

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/royalty-statement-converter/internal/report"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExcelWriter_Sheets(t *testing.T) {
	w := &ExcelWriter{}
	data, err := w.Bytes(testSummary())
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{SheetDetail, SheetByWork, SheetBySociety}, f.GetSheetList())

	detail, err := f.GetRows(SheetDetail)
	require.NoError(t, err)
	require.Len(t, detail, 4)
	assert.Equal(t, "Título", detail[0][0])
	assert.Equal(t, "Rendimento", detail[0][7])
	assert.Equal(t, "My Song Title", detail[1][0])
	assert.Equal(t, "AUTORAL", detail[1][5])

	byWork, err := f.GetRows(SheetByWork)
	require.NoError(t, err)
	require.Len(t, byWork, 3)
	assert.Equal(t, "My Song Title", byWork[1][0])
	assert.Equal(t, "Another Work", byWork[2][0])

	bySociety, err := f.GetRows(SheetBySociety)
	require.NoError(t, err)
	require.Len(t, bySociety, 3)
	assert.Equal(t, "SACEM", bySociety[1][0])
}

func TestExcelWriter_AmountsAreNumeric(t *testing.T) {
	w := &ExcelWriter{}
	data, err := w.Bytes(testSummary())
	require.NoError(t, err)

	f := openWorkbook(t, data)
	cellType, err := f.GetCellType(SheetByWork, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType)
	assert.NotEqual(t, excelize.CellTypeInlineString, cellType)

	raw, err := f.GetCellValue(SheetByWork, "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1384.5", raw)

	styleID, err := f.GetCellStyle(SheetByWork, "C2")
	require.NoError(t, err)
	assert.NotZero(t, styleID, "amount cells carry the money style")
}

func TestExcelWriter_ColumnWidths(t *testing.T) {
	w := &ExcelWriter{}
	data, err := w.Bytes(testSummary())
	require.NoError(t, err)

	f := openWorkbook(t, data)
	width, err := f.GetColWidth(SheetDetail, "A")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)

	width, err = f.GetColWidth(SheetBySociety, "B")
	require.NoError(t, err)
	assert.Equal(t, 25.0, width)
}

func TestExcelWriter_EmptySummary(t *testing.T) {
	w := &ExcelWriter{}
	data, err := w.Bytes(report.Summarize(nil))
	require.NoError(t, err)

	f := openWorkbook(t, data)
	rows, err := f.GetRows(SheetDetail)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestExcelWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	w := &ExcelWriter{}
	require.NoError(t, w.WriteToFile(path, testSummary()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}
