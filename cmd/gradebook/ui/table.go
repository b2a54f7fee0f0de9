package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders static rows as aligned columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string

	// Right aligns the given column indexes (numbers).
	Right map[int]bool
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Right:   make(map[int]bool),
	}
}

// AlignRight marks columns to be right aligned.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.Right[c] = true
	}
	return t
}

// AddRow adds a row. Short rows are padded with blanks, extra cells dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// View renders the table. An empty table renders its title and a
// "no rows" line.
func (t *Table) View(styles Styles) string {
	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		sb.WriteString(styles.Muted.Render("(no rows)"))
		sb.WriteString("\n")
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cell := func(style lipgloss.Style, i int, text string) string {
		st := style.Padding(0, 1).Width(widths[i] + 2)
		if t.Right[i] {
			st = st.Align(lipgloss.Right)
		}
		return st.Render(text)
	}
	sep := styles.Divider.Render("│")

	for i, h := range t.Headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(cell(styles.Bold, i, h))
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w + 2
	}
	sb.WriteString(styles.RenderDivider(total))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i, c := range row {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(cell(styles.Body, i, c))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
