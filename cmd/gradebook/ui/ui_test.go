package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradebook/internal/grade"
	"gradebook/internal/report"
	"gradebook/internal/schema"
)

func sampleRows() []report.Row {
	recs := []schema.Record{
		{ID: "S1", LastName: "Lovelace", FirstName: "Ada", Section: "A", Final: schema.Present(95), Midterm: schema.Present(90)},
		{ID: "S2", LastName: "Turing", FirstName: "Alan", Section: "B", Final: schema.Present(40)},
		{ID: "S3"},
	}
	return report.Enrich(recs, grade.Default())
}

func TestTable(t *testing.T) {
	table := NewTable("Roster", "ID", "Grade").AlignRight(1)
	table.AddRow("S1", "81.00")
	table.AddRow("S2")

	view := table.View(DefaultStyles())
	assert.Contains(t, view, "Roster")
	assert.Contains(t, view, "S1")
	assert.Contains(t, view, "81.00")
	assert.Equal(t, 2, table.Len())
	assert.Len(t, table.Rows[1], 2)
}

func TestTable_Empty(t *testing.T) {
	view := NewTable("Nothing", "ID").View(DefaultStyles())
	assert.Contains(t, view, "Nothing")
	assert.Contains(t, view, "(no rows)")
}

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)

	t.Setenv("COLORFGBG", "0;15")
	t.Setenv("GRADEBOOK_DARK_MODE", "")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("GRADEBOOK_DARK_MODE", "1")
	assert.True(t, DetectTheme().IsDark)
}

func TestStyles_Letter(t *testing.T) {
	s := DefaultStyles()
	for _, l := range grade.Letters() {
		assert.Contains(t, s.Letter(l), l)
	}
	assert.Contains(t, s.Letter(grade.NotAvailable), "N/A")
}

func TestBrowserRow(t *testing.T) {
	rows := sampleRows()

	got := BrowserRow(rows[0])
	require.Len(t, got, len(browserColumns))
	assert.Equal(t, "S1", got[0])
	assert.Equal(t, "", got[4])
	assert.Equal(t, "90", got[5])
	assert.Equal(t, "55.50", got[8])
	assert.Equal(t, "F", got[9])

	blank := BrowserRow(rows[2])
	assert.Equal(t, "none", blank[1])
	assert.Equal(t, "", blank[8])
	assert.Equal(t, "N/A", blank[9])
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m BrowserModel, msg tea.Msg) (BrowserModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(BrowserModel)
	require.True(t, ok)
	return bm, cmd
}

func TestBrowser_Filter(t *testing.T) {
	m := NewBrowserModel(sampleRows(), "roster.csv")
	assert.Len(t, m.Visible(), 3)
	assert.Contains(t, m.View(), "3 of 3 students")

	m, _ = update(t, m, key("/"))
	for _, r := range "turing" {
		m, _ = update(t, m, key(string(r)))
	}
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "S2", m.Visible()[0].Record.ID)
	assert.Contains(t, m.View(), "1 of 3 students")

	// q while typing is text, not quit
	m, _ = update(t, m, key("q"))
	assert.True(t, m.focused)
	assert.Empty(t, m.Visible())

	m, _ = update(t, m, key("esc"))
	assert.Len(t, m.Visible(), 3)
}

func TestBrowser_Quit(t *testing.T) {
	m := NewBrowserModel(sampleRows(), "roster.csv")

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = update(t, m, key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderMarkdown(t *testing.T) {
	md := report.Markdown(sampleRows())
	out, err := DefaultStyles().RenderMarkdown(md, "ascii", 100)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "S1"), out)
}
