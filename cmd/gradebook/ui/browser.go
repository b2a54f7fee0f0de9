package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gradebook/internal/grade"
	"gradebook/internal/report"
	"gradebook/internal/schema"
)

// BrowserModel is a read-only roster browser with a live text filter.
type BrowserModel struct {
	table    table.Model
	filter   textinput.Model
	focused  bool
	rows     []report.Row
	filtered []report.Row
	source   string
	styles   Styles
}

var browserColumns = []table.Column{
	{Title: "ID", Width: 10},
	{Title: "Last", Width: 14},
	{Title: "First", Width: 12},
	{Title: "Section", Width: 10},
	{Title: "Quiz avg", Width: 8},
	{Title: "Midterm", Width: 7},
	{Title: "Final", Width: 7},
	{Title: "Attend", Width: 7},
	{Title: "Grade", Width: 7},
	{Title: "Letter", Width: 6},
}

// NewBrowserModel creates a browser over rows. source is shown in the header.
func NewBrowserModel(rows []report.Row, source string) BrowserModel {
	t := table.New(
		table.WithColumns(browserColumns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	fi := textinput.New()
	fi.Placeholder = "Filter by id, name, section or letter..."
	fi.CharLimit = 50
	fi.Width = 40

	m := BrowserModel{
		table:  t,
		filter: fi,
		rows:   rows,
		source: source,
		styles: DefaultStyles(),
	}
	m.applyFilter()
	return m
}

// Init initializes the model.
func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !m.focused {
				return m, tea.Quit
			}
		case "/":
			if !m.focused {
				m.focused = true
				m.filter.Focus()
				return m, nil
			}
		case "esc":
			if m.focused {
				m.focused = false
				m.filter.Blur()
				m.filter.SetValue("")
				m.applyFilter()
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			if m.focused {
				m.focused = false
				m.filter.Blur()
				return m, nil
			}
		}
	}

	if m.focused {
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *BrowserModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))

	m.filtered = make([]report.Row, 0, len(m.rows))
	for _, r := range m.rows {
		if q == "" || matches(r, q) {
			m.filtered = append(m.filtered, r)
		}
	}

	out := make([]table.Row, len(m.filtered))
	for i, r := range m.filtered {
		out[i] = BrowserRow(r)
	}
	m.table.SetRows(out)
}

func matches(r report.Row, q string) bool {
	for _, s := range []string{r.Record.ID, r.Record.LastName, r.Record.FirstName, r.Record.Section, r.Grade.Letter} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// BrowserRow renders one row as table cells.
func BrowserRow(r report.Row) table.Row {
	quiz := ""
	if r.Grade.QuizCount > 0 {
		quiz = fmt.Sprintf("%.2f", r.Grade.QuizAverage)
	}
	return table.Row{
		r.Record.ID,
		r.Record.Value(schema.FieldLastName),
		r.Record.Value(schema.FieldFirstName),
		r.Record.Value(schema.FieldSection),
		quiz,
		r.Record.Midterm.String(),
		r.Record.Final.String(),
		r.Record.Attendance.String(),
		grade.FormatComposite(r.Grade.Composite),
		r.Grade.Letter,
	}
}

// Visible returns the rows that pass the current filter.
func (m BrowserModel) Visible() []report.Row {
	return m.filtered
}

// View renders the model.
func (m BrowserModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render("Roster"))
	sb.WriteString(" ")
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("%s · %d of %d students", m.source, len(m.filtered), len(m.rows))))
	sb.WriteString("\n")

	if m.focused || m.filter.Value() != "" {
		sb.WriteString(m.filter.View())
		sb.WriteString("\n")
	}

	sb.WriteString(m.table.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("↑/↓ move · / filter · esc clear · q quit"))
	sb.WriteString("\n")
	return sb.String()
}
