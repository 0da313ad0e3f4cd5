// Package wizard is the interactive front end: a small bubbletea flow that
// collects an analysis kind, a reporting period, and a worker count, then
// hands the selection back to the caller to run in-process.
package wizard

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teamflex/teamcredits/internal/dates"
	"github.com/teamflex/teamcredits/internal/fetch"
)

// Kind is the analysis the user picked.
type Kind int

const (
	KindDaily Kind = iota
	KindByModel
	KindMonthly
	KindBoth
)

func (k Kind) String() string {
	switch k {
	case KindDaily:
		return "daily flex credit totals"
	case KindByModel:
		return "breakdown by model"
	case KindMonthly:
		return "monthly summary"
	case KindBoth:
		return "daily totals + model breakdown"
	default:
		return "unknown"
	}
}

// Selection is the completed wizard output. Confirmed is false when the user
// backed out at any point.
type Selection struct {
	Kind    Kind
	Period  dates.Range
	Workers int
	// MappingFile is the chosen email/API-key mapping file. Empty means use
	// the newest cached one, generating it when none exists.
	MappingFile string
	Confirmed   bool
}

type step int

const (
	stepKind step = iota
	stepRangeMode
	stepYear
	stepStartMonth
	stepEndMonth
	stepDates
	stepWorkers
	stepMapping
	stepConfirm
	stepDone
)

const (
	rangeModeMonth = iota
	rangeModeCustom
)

var (
	wizTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	wizCursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	wizSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	wizHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	wizErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var kindChoices = []struct {
	label string
	kind  Kind
}{
	{"Daily flex credit totals", KindDaily},
	{"Breakdown by language model", KindByModel},
	{"Monthly summary (month span)", KindMonthly},
	{"Both (daily totals + model breakdown)", KindBoth},
}

var workerChoices = []int{50, 30, fetch.DefaultWorkers, 10}

// Model is the bubbletea model for the wizard.
type Model struct {
	step      step
	cursor    int
	rangeMode int

	kind       Kind
	year       int
	startMonth int
	endMonth   int

	yearInput  textinput.Model
	startInput textinput.Model
	endInput   textinput.Model
	dateField  int // 0 = start, 1 = end

	workers int
	period  dates.Range

	mappingFiles []string
	mappingFile  string

	errMsg    string
	confirmed bool
	now       time.Time
}

// New builds the wizard model. now seeds the default year; mappingFiles is
// the cached mapping set to offer, and the step is skipped when it is empty.
func New(now time.Time, mappingFiles []string) Model {
	yearInput := textinput.New()
	yearInput.Placeholder = strconv.Itoa(now.Year())
	yearInput.CharLimit = 4
	yearInput.Width = 6

	startInput := textinput.New()
	startInput.Placeholder = "YYYY-MM-DD"
	startInput.CharLimit = 10
	startInput.Width = 12

	endInput := textinput.New()
	endInput.Placeholder = "YYYY-MM-DD"
	endInput.CharLimit = 10
	endInput.Width = 12

	return Model{
		yearInput:    yearInput,
		startInput:   startInput,
		endInput:     endInput,
		workers:      fetch.DefaultWorkers,
		mappingFiles: mappingFiles,
		now:          now,
	}
}

// Selection returns the collected answers after the program exits.
func (m Model) Selection() Selection {
	return Selection{
		Kind:        m.kind,
		Period:      m.period,
		Workers:     m.workers,
		MappingFile: m.mappingFile,
		Confirmed:   m.confirmed,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.confirmed = false
		m.step = stepDone
		return m, tea.Quit
	}

	switch m.step {
	case stepKind, stepRangeMode, stepStartMonth, stepEndMonth, stepWorkers, stepMapping:
		return m.updateList(keyMsg)
	case stepYear, stepDates:
		return m.updateInput(keyMsg)
	case stepConfirm:
		return m.updateConfirm(keyMsg)
	}
	return m, nil
}

func (m Model) updateList(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	size := m.listSize()

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < size-1 {
			m.cursor++
		}
	case "enter":
		return m.advanceList()
	case "q":
		m.confirmed = false
		m.step = stepDone
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) listSize() int {
	switch m.step {
	case stepKind:
		return len(kindChoices)
	case stepRangeMode:
		return 2
	case stepStartMonth:
		return 12
	case stepEndMonth:
		return 12 - m.startMonth + 1
	case stepWorkers:
		return len(workerChoices)
	case stepMapping:
		return len(m.mappingFiles) + 1
	}
	return 0
}

func (m Model) advanceList() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepKind:
		m.kind = kindChoices[m.cursor].kind
		if m.kind == KindMonthly {
			// Monthly always spans whole months.
			m.rangeMode = rangeModeMonth
			m.step = stepYear
			m.yearInput.Focus()
		} else {
			m.step = stepRangeMode
		}
	case stepRangeMode:
		m.rangeMode = m.cursor
		if m.rangeMode == rangeModeMonth {
			m.step = stepYear
			m.yearInput.Focus()
		} else {
			m.step = stepDates
			m.dateField = 0
			m.startInput.Focus()
		}
	case stepStartMonth:
		m.startMonth = m.cursor + 1
		if m.kind == KindMonthly {
			m.step = stepEndMonth
		} else {
			m.endMonth = m.startMonth
			return m.finishMonths()
		}
	case stepEndMonth:
		m.endMonth = m.startMonth + m.cursor
		return m.finishMonths()
	case stepWorkers:
		m.workers = workerChoices[m.cursor]
		if len(m.mappingFiles) == 0 {
			m.step = stepConfirm
		} else {
			m.step = stepMapping
		}
	case stepMapping:
		if m.cursor == 0 {
			m.mappingFile = ""
		} else {
			m.mappingFile = m.mappingFiles[m.cursor-1]
		}
		m.step = stepConfirm
	}
	m.cursor = 0
	m.errMsg = ""
	return m, nil
}

func (m Model) finishMonths() (tea.Model, tea.Cmd) {
	r, err := dates.SpanRange(m.year, m.startMonth, m.endMonth)
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	m.period = r
	m.step = stepWorkers
	m.cursor = 0
	m.errMsg = ""
	return m, nil
}

func (m Model) updateInput(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keyMsg.String() == "enter" {
		return m.advanceInput()
	}

	var cmd tea.Cmd
	switch m.step {
	case stepYear:
		m.yearInput, cmd = m.yearInput.Update(keyMsg)
	case stepDates:
		if m.dateField == 0 {
			m.startInput, cmd = m.startInput.Update(keyMsg)
		} else {
			m.endInput, cmd = m.endInput.Update(keyMsg)
		}
	}
	return m, cmd
}

func (m Model) advanceInput() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepYear:
		raw := m.yearInput.Value()
		if raw == "" {
			raw = strconv.Itoa(m.now.Year())
		}
		year, err := strconv.Atoi(raw)
		if err != nil || year < 2020 || year > 2030 {
			m.errMsg = "year must be between 2020 and 2030"
			return m, nil
		}
		m.year = year
		m.yearInput.Blur()
		m.step = stepStartMonth
		m.cursor = 0
		m.errMsg = ""
	case stepDates:
		if m.dateField == 0 {
			start, err := dates.Parse(m.startInput.Value())
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.period.Start = start
			m.startInput.Blur()
			m.dateField = 1
			m.endInput.Focus()
			m.errMsg = ""
			return m, nil
		}
		end, err := dates.Parse(m.endInput.Value())
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		if end < m.period.Start {
			m.errMsg = "end date must not be before start date"
			return m, nil
		}
		m.period.End = end
		m.endInput.Blur()
		m.step = stepWorkers
		m.cursor = 0
		m.errMsg = ""
	}
	return m, nil
}

func (m Model) updateConfirm(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "y", "Y", "enter":
		m.confirmed = true
		m.step = stepDone
		return m, tea.Quit
	case "n", "N", "q":
		m.confirmed = false
		m.step = stepDone
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.step == stepDone {
		return ""
	}

	var body string
	switch m.step {
	case stepKind:
		labels := make([]string, len(kindChoices))
		for i, c := range kindChoices {
			labels[i] = c.label
		}
		body = m.renderList("Which analysis do you want to run?", labels)
	case stepRangeMode:
		body = m.renderList("How do you want to pick the period?", []string{
			"A specific month",
			"A custom date range",
		})
	case stepYear:
		body = wizTitleStyle.Render("Which year?") + "\n\n" + m.yearInput.View() + "\n"
	case stepStartMonth:
		body = m.renderList(m.monthPrompt(), monthLabels(1))
	case stepEndMonth:
		body = m.renderList("Last month of the span?", monthLabels(m.startMonth))
	case stepDates:
		prompt := "Start date"
		input := m.startInput.View()
		if m.dateField == 1 {
			prompt = "End date"
			input = m.endInput.View()
		}
		body = wizTitleStyle.Render(prompt+" (YYYY-MM-DD)") + "\n\n" + input + "\n"
	case stepWorkers:
		labels := make([]string, len(workerChoices))
		for i, w := range workerChoices {
			labels[i] = fmt.Sprintf("%d workers", w)
		}
		labels[0] += " (fastest)"
		body = m.renderList("How many parallel workers?", labels)
	case stepMapping:
		labels := make([]string, 0, len(m.mappingFiles)+1)
		labels = append(labels, "Newest mapping file (auto)")
		for _, path := range m.mappingFiles {
			labels = append(labels, filepath.Base(path))
		}
		body = m.renderList("Which email/API-key mapping?", labels)
	case stepConfirm:
		mappingLabel := "newest (auto)"
		if m.mappingFile != "" {
			mappingLabel = filepath.Base(m.mappingFile)
		}
		body = wizTitleStyle.Render("Run this analysis?") + "\n\n" +
			fmt.Sprintf("  Analysis: %s\n  Period:   %s to %s\n  Workers:  %d\n  Mapping:  %s\n\n",
				m.kind, m.period.Start, m.period.End, m.workers, mappingLabel) +
			wizHelpStyle.Render("y to run, n to cancel")
	}

	if m.errMsg != "" {
		body += "\n" + wizErrorStyle.Render(m.errMsg)
	}
	return body + "\n" + wizHelpStyle.Render("↑/↓ move · enter select · esc quit") + "\n"
}

func (m Model) monthPrompt() string {
	if m.kind == KindMonthly {
		return "First month of the span?"
	}
	return "Which month?"
}

func (m Model) renderList(title string, items []string) string {
	s := wizTitleStyle.Render(title) + "\n\n"
	for i, item := range items {
		if i == m.cursor {
			s += wizCursorStyle.Render("› ") + wizSelectedStyle.Render(item) + "\n"
		} else {
			s += "  " + item + "\n"
		}
	}
	return s
}

func monthLabels(from int) []string {
	var labels []string
	for month := from; month <= 12; month++ {
		labels = append(labels, time.Month(month).String())
	}
	return labels
}

// Run drives the wizard to completion on the terminal.
func Run(now time.Time, mappingFiles []string) (Selection, error) {
	program := tea.NewProgram(New(now, mappingFiles))
	final, err := program.Run()
	if err != nil {
		return Selection{}, fmt.Errorf("running wizard: %w", err)
	}
	model, ok := final.(Model)
	if !ok {
		return Selection{}, fmt.Errorf("unexpected wizard model type %T", final)
	}
	return model.Selection(), nil
}
