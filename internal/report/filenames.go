package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/teamflex/teamcredits/internal/dates"
)

// Filenames embed the reporting period and the generation date. The
// generation-date suffix keeps one day's run from overwriting a prior day's
// for the same period.

// DailyFilename names the by-date report.
func DailyFilename(r dates.Range, now time.Time) string {
	return fmt.Sprintf("team_daily_flex_credits_%s_%s.csv", periodToken(r), now.Format(dates.ISO))
}

// ModelFilename names the by-date-and-model report.
func ModelFilename(r dates.Range, now time.Time) string {
	monthName := strings.ToLower(dates.MonthName(r.Start))
	return fmt.Sprintf("flex_credits_by_model_%s_%d_%s.csv", monthName, dates.Year(r.Start), now.Format(dates.ISO))
}

// MonthlyFilename names the monthly report.
func MonthlyFilename(r dates.Range, now time.Time) string {
	return fmt.Sprintf("team_monthly_credits_%s_%s.csv", periodToken(r), now.Format(dates.ISO))
}

// periodToken renders "2025-06-01".."2025-10-31" as "202506_to_202510".
func periodToken(r dates.Range) string {
	startMonth := r.Start
	if len(startMonth) > 7 {
		startMonth = startMonth[:7]
	}
	endMonth := r.End
	if len(endMonth) > 7 {
		endMonth = endMonth[:7]
	}
	token := startMonth + "_to_" + endMonth
	return strings.ReplaceAll(token, "-", "")
}
