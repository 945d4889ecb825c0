package writer

import (
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/royalty-statement-converter/internal/models"
	"github.com/insightdelivered/royalty-statement-converter/internal/report"
)

func testSummary() *report.Summary {
	return report.Summarize([]models.RoyaltyRecord{
		{Title: "My Song Title", WorkID: "T1234567890", Society: "ABRAMUS", Territory: "SP", Rubric: "OTHER RIGHTS", RightType: models.RightTypeAutoral, Period: "2023/01 - 2023/02", Amount: decimal.RequireFromString("150.00")},
		{Title: "My Song Title", WorkID: "T1234567890", Society: "SACEM", Territory: "FR", Rubric: "RADIO, TV", RightType: models.RightTypeAutoral, Period: "2022/07 - 2022/12", Amount: decimal.RequireFromString("1234.5")},
		{Title: "Another Work", WorkID: "T0987654321", Society: "ABRAMUS", Territory: "SP", Rubric: "LIVE", RightType: models.RightTypeAutoral, Period: "2023/01 - 2023/02", Amount: decimal.RequireFromString("10")},
	})
}
