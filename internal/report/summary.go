// Package report aggregates royalty records into the tabular views a
// rights-holder reviews: full detail, totals per work and totals per
// society and territory.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/royalty-statement-converter/internal/models"
)

// WorkTotal is the summed amount for one (title, work id) pair.
type WorkTotal struct {
	Title  string          `json:"title"`
	WorkID string          `json:"workId"`
	Amount decimal.Decimal `json:"amount"`
}

// SocietyTotal is the summed amount for one (society, territory) pair.
type SocietyTotal struct {
	Society   string          `json:"society"`
	Territory string          `json:"territory"`
	Amount    decimal.Decimal `json:"amount"`
}

// Summary holds the three views of a statement.
type Summary struct {
	Detail    []models.RoyaltyRecord
	ByWork    []WorkTotal
	BySociety []SocietyTotal
	Total     decimal.Decimal
	Count     int
}

type workKey struct{ title, workID string }

type societyKey struct{ society, territory string }

// Summarize groups records by work and by society/territory. Each group is
// sorted by amount, largest first; equal amounts fall back to key order so
// the output does not depend on map iteration. Works sharing a title but not
// an identifier are kept apart.
func Summarize(records []models.RoyaltyRecord) *Summary {
	works := make(map[workKey]decimal.Decimal)
	societies := make(map[societyKey]decimal.Decimal)
	total := decimal.Zero

	for _, r := range records {
		wk := workKey{r.Title, r.WorkID}
		works[wk] = works[wk].Add(r.Amount)

		sk := societyKey{r.Society, r.Territory}
		societies[sk] = societies[sk].Add(r.Amount)

		total = total.Add(r.Amount)
	}

	byWork := make([]WorkTotal, 0, len(works))
	for k, amt := range works {
		byWork = append(byWork, WorkTotal{Title: k.title, WorkID: k.workID, Amount: amt})
	}
	sort.Slice(byWork, func(i, j int) bool {
		a, b := byWork[i], byWork[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.WorkID < b.WorkID
	})

	bySociety := make([]SocietyTotal, 0, len(societies))
	for k, amt := range societies {
		bySociety = append(bySociety, SocietyTotal{Society: k.society, Territory: k.territory, Amount: amt})
	}
	sort.Slice(bySociety, func(i, j int) bool {
		a, b := bySociety[i], bySociety[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if a.Society != b.Society {
			return a.Society < b.Society
		}
		return a.Territory < b.Territory
	})

	detail := records
	if detail == nil {
		detail = []models.RoyaltyRecord{}
	}

	return &Summary{
		Detail:    detail,
		ByWork:    byWork,
		BySociety: bySociety,
		Total:     total,
		Count:     len(records),
	}
}
