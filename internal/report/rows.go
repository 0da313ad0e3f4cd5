// Package report turns accumulators into deterministically ordered rows and
// renders them as CSV files and console summaries.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/teamflex/teamcredits/internal/aggregate"
)

const displayDateLayout = "January 02, 2006"
const displayMonthLayout = "January 2006"

// DailyRow is one by-date report row.
type DailyRow struct {
	Date          string
	DateFormatted string
	FlexCredits   float64
}

// ModelRow is one by-date-and-model report row.
type ModelRow struct {
	Date          string
	DateFormatted string
	Model         string
	ModelName     string
	FlexCredits   float64
}

// MonthRow is one monthly report row.
type MonthRow struct {
	Month          string
	MonthFormatted string
	Totals         aggregate.MonthlyTotals
}

// DailyRows orders a daily accumulator by ascending date.
func DailyRows(daily aggregate.Daily) []DailyRow {
	dateKeys := lo.Keys(daily)
	sort.Strings(dateKeys)

	rows := make([]DailyRow, 0, len(dateKeys))
	for _, date := range dateKeys {
		rows = append(rows, DailyRow{
			Date:          date,
			DateFormatted: formatDisplayDate(date),
			FlexCredits:   daily[date],
		})
	}
	return rows
}

// ModelRows flattens a date×model accumulator, ordered by ascending date and
// within each date by descending flex credits.
func ModelRows(dailyModel aggregate.DailyModel) []ModelRow {
	var rows []ModelRow
	for date, models := range dailyModel {
		for model, flex := range models {
			rows = append(rows, ModelRow{
				Date:          date,
				DateFormatted: formatDisplayDate(date),
				Model:         model,
				ModelName:     FriendlyModelName(model),
				FlexCredits:   flex,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		if rows[i].FlexCredits != rows[j].FlexCredits {
			return rows[i].FlexCredits > rows[j].FlexCredits
		}
		return rows[i].Model < rows[j].Model
	})
	return rows
}

// MonthRows orders a monthly accumulator by ascending month.
func MonthRows(monthly aggregate.Monthly) []MonthRow {
	monthKeys := lo.Keys(monthly)
	sort.Strings(monthKeys)

	rows := make([]MonthRow, 0, len(monthKeys))
	for _, month := range monthKeys {
		rows = append(rows, MonthRow{
			Month:          month,
			MonthFormatted: formatDisplayMonth(month),
			Totals:         monthly[month],
		})
	}
	return rows
}

// WriteDailyCSV writes the by-date report.
func WriteDailyCSV(w io.Writer, rows []DailyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"event_date", "date_formatted", "flex_credits"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{row.Date, row.DateFormatted, fmt.Sprintf("%.2f", row.FlexCredits)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteModelCSV writes the by-date-and-model report.
func WriteModelCSV(w io.Writer, rows []ModelRow) error {
	cw := csv.NewWriter(w)
	header := []string{"event_date", "date_formatted", "model_internal", "model_name", "flex_credits"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Date,
			row.DateFormatted,
			row.Model,
			row.ModelName,
			fmt.Sprintf("%.2f", row.FlexCredits),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthlyCSV writes the monthly report.
func WriteMonthlyCSV(w io.Writer, rows []MonthRow) error {
	cw := csv.NewWriter(w)
	header := []string{
		"month", "month_formatted", "total_flex_credits",
		"total_prompt_credits", "total_credits_used", "data_points",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Month,
			row.MonthFormatted,
			fmt.Sprintf("%.2f", row.Totals.TotalFlexCredits),
			fmt.Sprintf("%.2f", row.Totals.TotalPromptCredits),
			fmt.Sprintf("%.2f", row.Totals.TotalCreditsUsed),
			fmt.Sprintf("%d", row.Totals.DataPoints),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDisplayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format(displayDateLayout)
}

func formatDisplayMonth(month string) string {
	t, err := time.Parse("2006-01-02", month+"-01")
	if err != nil {
		return month
	}
	return t.Format(displayMonthLayout)
}
