package report

import (
	"fmt"
	"strings"

	"gradebook/internal/grade"
	"gradebook/internal/schema"
)

// Markdown renders the summary report as a markdown document.
func Markdown(rows []Row) string {
	var sb strings.Builder

	sb.WriteString("# Summary Report\n\n")
	sb.WriteString("| Student ID | Last Name | First Name | Section | Final Grade | Letter |\n")
	sb.WriteString("|---|---|---|---|---:|:---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			mdEscape(r.Record.ID),
			mdEscape(r.Record.Value(schema.FieldLastName)),
			mdEscape(r.Record.Value(schema.FieldFirstName)),
			mdEscape(r.Record.Value(schema.FieldSection)),
			grade.FormatComposite(r.Grade.Composite),
			r.Grade.Letter)
	}

	sb.WriteString("\n## Statistics\n\n")
	s, ok := Summarize(rows)
	if !ok {
		sb.WriteString("No valid numeric grade data available for statistics.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "- Students with a grade: **%d** of %d\n", s.Count, s.Total)
	fmt.Fprintf(&sb, "- Average: **%.2f**\n", s.Mean)
	fmt.Fprintf(&sb, "- Median: **%.2f**\n", s.Median)
	fmt.Fprintf(&sb, "- Highest: **%.2f**\n", s.Max)
	fmt.Fprintf(&sb, "- Lowest: **%.2f**\n", s.Min)

	sb.WriteString("\n## Distribution\n\n")
	for _, lc := range Distribution(rows) {
		fmt.Fprintf(&sb, "- %s: %d\n", lc.Letter, lc.Count)
	}
	return sb.String()
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
