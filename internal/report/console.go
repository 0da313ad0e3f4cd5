package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/teamflex/teamcredits/internal/dates"
)

const summaryWidth = 100

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	totalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sparkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// RenderDailySummary renders the by-date console report.
func RenderDailySummary(rows []DailyRow, period dates.Range) string {
	var b strings.Builder

	writeTitle(&b, fmt.Sprintf("DAILY FLEX CREDITS - %s to %s", period.Start, period.End))

	for _, row := range rows {
		fmt.Fprintf(&b, "  %-30s %18s\n", row.DateFormatted, formatCredits(row.FlexCredits))
	}

	total := lo.SumBy(rows, func(r DailyRow) float64 { return r.FlexCredits })
	b.WriteString(rule())
	fmt.Fprintf(&b, "  %s %18s\n", sectionStyle.Render(fmt.Sprintf("%-30s", "TOTAL")), totalStyle.Render(formatCredits(total)))

	writeDailyFooter(&b, dailyValues(rows), total)
	return b.String()
}

// RenderModelSummary renders the by-date-and-model console report: a
// per-date breakdown, totals by model with a percentage split, and run
// statistics.
func RenderModelSummary(rows []ModelRow, period dates.Range) string {
	var b strings.Builder

	monthName := dates.MonthName(period.Start)
	writeTitle(&b, fmt.Sprintf("FLEX CREDITS BY MODEL - %s %d", strings.ToUpper(monthName), dates.Year(period.Start)))
	fmt.Fprintf(&b, "%s\n", dimStyle.Render("Date range: "+period.Start+" to "+period.End))

	modelTotals := make(map[string]float64)
	var grandTotal float64
	dayTotals := make(map[string]float64)

	currentDate := ""
	var dateTotal float64
	flushDate := func() {
		if currentDate == "" {
			return
		}
		fmt.Fprintf(&b, "  %-60s %15s\n", sectionStyle.Render("DAILY TOTAL"), formatCredits(dateTotal))
		dayTotals[currentDate] = dateTotal
		grandTotal += dateTotal
		dateTotal = 0
	}

	for _, row := range rows {
		if row.Date != currentDate {
			flushDate()
			currentDate = row.Date
			fmt.Fprintf(&b, "\n%s\n%s\n", sectionStyle.Render(row.Date+" - "+row.DateFormatted), rule())
		}
		if row.FlexCredits > 0 {
			fmt.Fprintf(&b, "  %-60s %15s\n", row.ModelName, formatCredits(row.FlexCredits))
			modelTotals[row.Model] += row.FlexCredits
			dateTotal += row.FlexCredits
		}
	}
	flushDate()

	b.WriteString("\n")
	writeTitle(&b, "TOTALS BY MODEL")

	type modelTotal struct {
		model string
		total float64
	}
	sorted := lo.Map(lo.Keys(modelTotals), func(m string, _ int) modelTotal {
		return modelTotal{model: m, total: modelTotals[m]}
	})
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].total > sorted[j].total })

	for _, mt := range sorted {
		pct := 0.0
		if grandTotal > 0 {
			pct = mt.total / grandTotal * 100
		}
		fmt.Fprintf(&b, "  %-60s %15s  (%5.1f%%)\n", FriendlyModelName(mt.model), formatCredits(mt.total), pct)
	}
	b.WriteString(rule())
	fmt.Fprintf(&b, "  %s %15s  (100.0%%)\n", sectionStyle.Render(fmt.Sprintf("%-60s", "GRAND TOTAL")), totalStyle.Render(formatCredits(grandTotal)))

	daysWithData := lo.CountBy(lo.Values(dayTotals), func(v float64) bool { return v > 0 })
	b.WriteString("\n" + sectionStyle.Render("Statistics") + "\n")
	fmt.Fprintf(&b, "  Days with data:     %d\n", len(dayTotals))
	fmt.Fprintf(&b, "  Days with credits:  %d\n", daysWithData)
	fmt.Fprintf(&b, "  Models used:        %d\n", len(modelTotals))
	fmt.Fprintf(&b, "  Total flex credits: %s\n", formatCredits(grandTotal))
	if len(dayTotals) > 0 {
		fmt.Fprintf(&b, "  Avg credits/day:    %s\n", formatCredits(grandTotal/float64(len(dayTotals))))
	}

	days := lo.Keys(dayTotals)
	sort.Strings(days)
	values := lo.Map(days, func(d string, _ int) float64 { return dayTotals[d] })
	writeSparkline(&b, values)

	return b.String()
}

// RenderMonthlySummary renders the monthly credits table.
func RenderMonthlySummary(rows []MonthRow, period dates.Range) string {
	var b strings.Builder

	writeTitle(&b, "TEAM MONTHLY CREDITS SUMMARY")
	fmt.Fprintf(&b, "%s\n\n", dimStyle.Render("Period: "+period.Start+" to "+period.End))

	header := fmt.Sprintf("%-20s %18s %18s %18s %12s", "Month", "Flex Credits", "Prompt Credits", "Total Credits", "Data Points")
	b.WriteString(sectionStyle.Render(header) + "\n")
	b.WriteString(rule())

	var flexSum, promptSum, totalSum float64
	var pointSum int
	for _, row := range rows {
		fmt.Fprintf(&b, "%-20s %18s %18s %18s %12d\n",
			row.MonthFormatted,
			formatCredits(row.Totals.TotalFlexCredits),
			formatCredits(row.Totals.TotalPromptCredits),
			formatCredits(row.Totals.TotalCreditsUsed),
			row.Totals.DataPoints,
		)
		flexSum += row.Totals.TotalFlexCredits
		promptSum += row.Totals.TotalPromptCredits
		totalSum += row.Totals.TotalCreditsUsed
		pointSum += row.Totals.DataPoints
	}

	b.WriteString(rule())
	totalLine := fmt.Sprintf("%-20s %18s %18s %18s %12d",
		"TOTAL", formatCredits(flexSum), formatCredits(promptSum), formatCredits(totalSum), pointSum)
	b.WriteString(totalStyle.Render(totalLine) + "\n")

	b.WriteString("\n" + sectionStyle.Render("Statistics") + "\n")
	fmt.Fprintf(&b, "  Months with data:     %d\n", len(rows))
	fmt.Fprintf(&b, "  Total flex credits:   %s\n", formatCredits(flexSum))
	fmt.Fprintf(&b, "  Total prompt credits: %s\n", formatCredits(promptSum))
	fmt.Fprintf(&b, "  Total credits used:   %s\n", formatCredits(totalSum))
	if len(rows) > 0 {
		fmt.Fprintf(&b, "  Avg credits/month:    %s\n", formatCredits(totalSum/float64(len(rows))))
	}

	return b.String()
}

func writeTitle(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(rule())
}

func rule() string {
	return dimStyle.Render(strings.Repeat("─", summaryWidth)) + "\n"
}

func dailyValues(rows []DailyRow) []float64 {
	return lo.Map(rows, func(r DailyRow, _ int) float64 { return r.FlexCredits })
}

func writeDailyFooter(b *strings.Builder, values []float64, total float64) {
	if len(values) > 0 {
		fmt.Fprintf(b, "\n  Days with data: %d | Avg credits/day: %s\n", len(values), formatCredits(total/float64(len(values))))
	}
	writeSparkline(b, values)
}

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderSparkline draws values as unicode block bars, downsampling to width
// when needed.
func renderSparkline(values []float64, width int) string {
	if len(values) == 0 || width < 1 {
		return ""
	}

	if len(values) > width {
		step := float64(len(values)) / float64(width)
		sampled := make([]float64, width)
		for i := 0; i < width; i++ {
			idx := int(float64(i) * step)
			if idx >= len(values) {
				idx = len(values) - 1
			}
			sampled[i] = values[idx]
		}
		values = sampled
	}

	maxV := values[0]
	for _, v := range values {
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= 0 {
		return strings.Repeat(string(sparkBlocks[0]), len(values))
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / maxV * float64(len(sparkBlocks)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func writeSparkline(b *strings.Builder, values []float64) {
	if len(values) < 2 {
		return
	}
	fmt.Fprintf(b, "\n  %s\n", sparkStyle.Render(renderSparkline(values, summaryWidth-4)))
}

// formatCredits renders a credit total with thousands separators and two
// decimals, e.g. 1234567.8 -> "1,234,567.80".
func formatCredits(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
