package parser

import (
	"strings"

	"github.com/insightdelivered/royalty-statement-converter/internal/models"
)

// AbramusParser handles ABRAMUS international distribution statements.
//
// The statement has no fixed columns. A work is introduced by a title line
// ending in its identifier, followed by one payment line per society,
// territory and rubric:
//
//	My Song Title T1234567890
//	ABRAMUS SP OTHER RIGHTS 2023/01 - 2023/02 150,00
//	GEMA DE RADIO 2022/07 - 2022/12 12,34
//
// Payment lines are recovered from two anchors only, the period pattern and
// the trailing amount. Anything that does not fit is dropped line by line.
type AbramusParser struct{}

func (p *AbramusParser) FormatName() string {
	return "ABRAMUS International"
}

// Parse never fails on malformed lines; they are counted in SkipCounts
// and reported in DebugLines.
func (p *AbramusParser) Parse(pages []string) (*models.StatementInfo, error) {
	info := &models.StatementInfo{
		Format:     models.FormatAbramus,
		PageCount:  len(pages),
		Records:    []models.RoyaltyRecord{},
		SkipCounts: make(map[models.SkipReason]int),
	}

	var state State
	for pageIdx, page := range pages {
		lines := strings.Split(page, "\n")
		for lineIdx, line := range lines {
			info.LineCount++

			var res LineResult
			state, res = ClassifyLine(state, line)

			debug := models.DebugLine{
				Page:    pageIdx + 1,
				LineNum: lineIdx + 1,
				Text:    line,
				Result:  string(res.Kind),
			}

			switch res.Kind {
			case LineRecord:
				info.Records = append(info.Records, *res.Record)
			case LineSkipped:
				debug.Reason = res.Skip
				info.SkipCounts[res.Skip]++
			}
			info.DebugLines = append(info.DebugLines, debug)
		}
	}

	return info, nil
}
