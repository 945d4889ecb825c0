package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/royalty-statement-converter/internal/convert"
	"github.com/insightdelivered/royalty-statement-converter/internal/extractor"
	"github.com/insightdelivered/royalty-statement-converter/internal/models"
	"github.com/insightdelivered/royalty-statement-converter/internal/parser"
	"github.com/insightdelivered/royalty-statement-converter/internal/report"
	"github.com/insightdelivered/royalty-statement-converter/internal/writer"
)

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool               `json:"success"`
	Error        string             `json:"error,omitempty"`
	Warning      string             `json:"warning,omitempty"`
	Format       string             `json:"format,omitempty"`
	Records      []RecordJSON       `json:"records"`
	ByWork       []WorkTotalJSON    `json:"byWork"`
	BySociety    []SocietyTotalJSON `json:"bySociety"`
	Count        int                `json:"count"`
	Total        string             `json:"total"`
	TotalDisplay string             `json:"totalDisplay"`
	FileName     string             `json:"fileName,omitempty"`
	XLSX         string             `json:"xlsx,omitempty"`
	RawText      string             `json:"rawText,omitempty"`
	Version      string             `json:"version,omitempty"`
	DebugLines   []models.DebugLine `json:"debugLines,omitempty"`
}

// RecordJSON is a royalty record on the wire. Amounts here and in the
// totals are fixed two-decimal strings, the same text the CSV export writes.
type RecordJSON struct {
	Title     string `json:"title"`
	WorkID    string `json:"workId"`
	Society   string `json:"society"`
	Territory string `json:"territory"`
	Rubric    string `json:"rubric"`
	RightType string `json:"rightType"`
	Period    string `json:"period"`
	Amount    string `json:"amount"`
}

type WorkTotalJSON struct {
	Title  string `json:"title"`
	WorkID string `json:"workId"`
	Amount string `json:"amount"`
}

type SocietyTotalJSON struct {
	Society   string `json:"society"`
	Territory string `json:"territory"`
	Amount    string `json:"amount"`
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newConvertResponse(s *report.Summary) ConvertResponse {
	resp := ConvertResponse{
		Success:      true,
		Records:      make([]RecordJSON, 0, len(s.Detail)),
		ByWork:       make([]WorkTotalJSON, 0, len(s.ByWork)),
		BySociety:    make([]SocietyTotalJSON, 0, len(s.BySociety)),
		Count:        s.Count,
		Total:        formatAmount(s.Total),
		TotalDisplay: report.FormatBRL(s.Total),
	}
	for _, r := range s.Detail {
		resp.Records = append(resp.Records, RecordJSON{
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
	for _, w := range s.ByWork {
		resp.ByWork = append(resp.ByWork, WorkTotalJSON{Title: w.Title, WorkID: w.WorkID, Amount: formatAmount(w.Amount)})
	}
	for _, so := range s.BySociety {
		resp.BySociety = append(resp.BySociety, SocietyTotalJSON{Society: so.Society, Territory: so.Territory, Amount: formatAmount(so.Amount)})
	}
	return resp
}

const noRecordsWarning = "No royalty records found. The document was read but no line matched the statement layout."

// Handler holds the HTTP handlers for the API.
type Handler struct {
	converter *convert.Converter
	logger    *slog.Logger
	version   string
}

func NewHandler(converter *convert.Converter, logger *slog.Logger, version string) *Handler {
	return &Handler{converter: converter, logger: logger, version: version}
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.version,
		"engine":  "fiber",
	})
}

// HandleConvert converts an uploaded statement and returns the records,
// both summaries and the workbook as base64.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	res, name, err := h.convertRequest(c)
	if err != nil {
		return err
	}

	resp := newConvertResponse(res.Summary)
	resp.Format = string(res.Info.Format)
	resp.Version = h.version
	// Always include raw extracted text (helps debug parser issues)
	resp.RawText = strings.Join(res.Pages, "\n--- PAGE BREAK ---\n")
	resp.DebugLines = res.Info.DebugLines

	if res.Empty() {
		resp.Warning = noRecordsWarning
		return c.JSON(resp)
	}

	data, err := (&writer.ExcelWriter{}).Bytes(res.Summary)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Workbook generation failed: %v", err))
	}
	resp.FileName = name + ".xlsx"
	resp.XLSX = base64.StdEncoding.EncodeToString(data)

	return c.JSON(resp)
}

// HandleConvertXLSX converts an uploaded statement and returns the workbook
// as a download.
func (h *Handler) HandleConvertXLSX(c *fiber.Ctx) error {
	res, name, err := h.convertRequest(c)
	if err != nil {
		return err
	}

	data, err := (&writer.ExcelWriter{}).Bytes(res.Summary)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Workbook generation failed: %v", err))
	}

	c.Attachment(name + ".xlsx")
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("X-Record-Count", strconv.Itoa(res.Summary.Count))
	if res.Empty() {
		c.Set("X-Warning", noRecordsWarning)
	}
	return c.Send(data)
}

// convertRequest reads the statement from the form and converts it. The
// returned name is the upload's base name, used for the workbook file name.
func (h *Handler) convertRequest(c *fiber.Ctx) (*convert.Result, string, error) {
	format, err := parser.ParseFormat(c.FormValue("statement"))
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	src, name, cleanup, err := h.sourceFromRequest(c)
	if err != nil {
		return nil, "", err
	}
	defer cleanup()

	res, err := h.converter.Convert(c.UserContext(), src, format)
	if err != nil {
		var docErr *extractor.DocumentError
		switch {
		case errors.As(err, &docErr):
			return nil, "", fiber.NewError(fiber.StatusUnprocessableEntity, docErr.Message)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, "", fiber.NewError(fiber.StatusServiceUnavailable, "Conversion was cancelled")
		default:
			return nil, "", fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Conversion failed: %v", err))
		}
	}
	return res, name, nil
}

// sourceFromRequest prefers text extracted in the browser (pdf.js) and falls
// back to server-side extraction of the uploaded file.
func (h *Handler) sourceFromRequest(c *fiber.Ctx) (extractor.Source, string, func(), error) {
	noop := func() {}
	name := "extrato"

	file, fileErr := c.FormFile("file")
	if fileErr == nil {
		if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
			return nil, "", noop, fiber.NewError(fiber.StatusBadRequest, "Only PDF files are supported.")
		}
		base := filepath.Base(file.Filename)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		return &extractor.TextSource{Label: name, Text: text}, name, noop, nil
	}

	if fileErr != nil {
		return nil, "", noop, fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file' or 'extractedText'.")
	}

	tmpPath := filepath.Join(os.TempDir(), "statement-"+uuid.NewString()+".pdf")
	if err := c.SaveFile(file, tmpPath); err != nil {
		return nil, "", noop, fiber.NewError(fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}
	cleanup := func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("temp file not removed", "path", tmpPath, "error", err)
		}
	}
	return &extractor.PDFSource{Path: tmpPath}, name, cleanup, nil
}
