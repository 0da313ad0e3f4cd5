// Package aggregate reduces a merged usage-record stream into the three
// report views. All reductions are commutative over record order.
package aggregate

import (
	"fmt"

	"github.com/teamflex/teamcredits/internal/analytics"
)

// UnknownModel buckets records whose model field is absent.
const UnknownModel = "unknown"

// Credits arrive from the API in hundredths.
const hundredths = 100.0

// Daily maps date (YYYY-MM-DD) to total flex credits.
type Daily map[string]float64

// DailyModel maps date to model identifier to total flex credits. Keys are
// raw model identifiers, not display names.
type DailyModel map[string]map[string]float64

// MonthlyTotals accumulates one month's credits. TotalCreditsUsed is always
// exactly TotalFlexCredits + TotalPromptCredits.
type MonthlyTotals struct {
	TotalFlexCredits   float64
	TotalPromptCredits float64
	TotalCreditsUsed   float64
	DataPoints         int
}

// Monthly maps month (YYYY-MM) to its totals.
type Monthly map[string]MonthlyTotals

// ByDate totals flex credits per date. Records without a date are skipped.
func ByDate(records []analytics.UsageRecord) (Daily, error) {
	daily := make(Daily)
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		flex, err := analytics.CoerceCredit(r.FlexCreditsUsed)
		if err != nil {
			return nil, fmt.Errorf("record %s: flex credits: %w", r.Date, err)
		}
		daily[r.Date] += flex / hundredths
	}
	return daily, nil
}

// ByDateAndModel totals flex credits per date per model. A missing model
// buckets under UnknownModel; the "<nil>" sentinel is kept raw since it is a
// distinct identifier the display layer knows about.
func ByDateAndModel(records []analytics.UsageRecord) (DailyModel, error) {
	dailyModel := make(DailyModel)
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		model := r.Model
		if model == "" {
			model = UnknownModel
		}
		flex, err := analytics.CoerceCredit(r.FlexCreditsUsed)
		if err != nil {
			return nil, fmt.Errorf("record %s/%s: flex credits: %w", r.Date, model, err)
		}
		if dailyModel[r.Date] == nil {
			dailyModel[r.Date] = make(map[string]float64)
		}
		dailyModel[r.Date][model] += flex / hundredths
	}
	return dailyModel, nil
}

// ByMonth totals flex and prompt credits per month (the first seven
// characters of the date) and counts contributing records.
func ByMonth(records []analytics.UsageRecord) (Monthly, error) {
	monthly := make(Monthly)
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		month := r.Date
		if len(month) > 7 {
			month = month[:7]
		}

		flex, err := analytics.CoerceCredit(r.FlexCreditsUsed)
		if err != nil {
			return nil, fmt.Errorf("record %s: flex credits: %w", r.Date, err)
		}
		prompt, err := analytics.CoerceCredit(r.PromptsUsed)
		if err != nil {
			return nil, fmt.Errorf("record %s: prompt credits: %w", r.Date, err)
		}
		flex /= hundredths
		prompt /= hundredths

		totals := monthly[month]
		totals.TotalFlexCredits += flex
		totals.TotalPromptCredits += prompt
		totals.TotalCreditsUsed += flex + prompt
		totals.DataPoints++
		monthly[month] = totals
	}
	return monthly, nil
}
