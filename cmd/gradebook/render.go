package main

import (
	"fmt"
	"io"
	"strconv"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/grade"
	"gradebook/internal/ingest"
	"gradebook/internal/report"
	"gradebook/internal/schema"
)

func renderRecords(w io.Writer, s ui.Styles, title string, recs []schema.Record) {
	t := ui.NewTable(title, schema.Header()...).AlignRight(4, 5, 6, 7, 8, 9, 10, 11)
	for _, r := range recs {
		t.AddRow(r.Values()...)
	}
	fmt.Fprint(w, t.View(s))
}

func renderRejected(w io.Writer, s ui.Styles, rejected []ingest.Rejected) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintln(w, s.Warning.Render(fmt.Sprintf("%d row(s) skipped:", len(rejected))))
	for _, r := range rejected {
		fmt.Fprintf(w, "  line %d: %s\n", r.Line, r.Reason)
	}
}

func renderRecord(w io.Writer, s ui.Styles, r schema.Record, g grade.Result) {
	t := ui.NewTable("Student "+r.ID, "field", "value")
	for _, f := range schema.Fields() {
		t.AddRow(f.Name, r.Value(f.Name))
	}
	quiz := "none"
	if g.QuizCount > 0 {
		quiz = fmt.Sprintf("%.2f (%d of %d)", g.QuizAverage, g.QuizCount, schema.QuizCount)
	}
	t.AddRow("quiz_average", quiz)
	t.AddRow(report.ColumnFinalGrade, orNone(grade.FormatComposite(g.Composite)))
	t.AddRow(report.ColumnLetter, g.Letter)
	fmt.Fprint(w, t.View(s))
}

func renderColumn(w io.Writer, s ui.Styles, ids, values []string, column string) {
	t := ui.NewTable("Column "+column, schema.FieldStudentID, column)
	for i := range values {
		t.AddRow(ids[i], values[i])
	}
	fmt.Fprint(w, t.View(s))
}

func orNone(v string) string {
	if v == "" {
		return schema.SentinelNone
	}
	return v
}

func gradeRow(t *ui.Table, s ui.Styles, r report.Row) {
	t.AddRow(
		r.Record.ID,
		r.Record.Value(schema.FieldLastName),
		r.Record.Value(schema.FieldFirstName),
		r.Record.Value(schema.FieldSection),
		orNone(grade.FormatComposite(r.Grade.Composite)),
		s.Letter(r.Grade.Letter),
	)
}

func gradeTable(title string) *ui.Table {
	return ui.NewTable(title, schema.FieldStudentID, schema.FieldLastName, schema.FieldFirstName,
		schema.FieldSection, report.ColumnFinalGrade, report.ColumnLetter).AlignRight(4)
}

func renderSummary(w io.Writer, s ui.Styles, rows []report.Row) {
	t := gradeTable("Summary Report")
	for _, r := range rows {
		gradeRow(t, s, r)
	}
	fmt.Fprint(w, t.View(s))
	renderStatistics(w, s, rows)
}

func renderStatistics(w io.Writer, s ui.Styles, rows []report.Row) {
	sum, ok := report.Summarize(rows)
	if !ok {
		fmt.Fprintln(w, s.Muted.Render("No valid numeric grade data available for statistics."))
		return
	}
	fmt.Fprintln(w, s.Title.Render("Statistics"))
	fmt.Fprintf(w, "  Students graded: %d of %d\n", sum.Count, sum.Total)
	fmt.Fprintf(w, "  Average: %.2f\n", sum.Mean)
	fmt.Fprintf(w, "  Median:  %.2f\n", sum.Median)
	fmt.Fprintf(w, "  Highest: %.2f\n", sum.Max)
	fmt.Fprintf(w, "  Lowest:  %.2f\n", sum.Min)
}

func renderDistribution(w io.Writer, s ui.Styles, rows []report.Row) {
	t := ui.NewTable("Grade Distribution", report.ColumnLetter, "count", "share").AlignRight(1, 2)
	total := len(rows)
	for _, lc := range report.Distribution(rows) {
		share := "0.0%"
		if total > 0 {
			share = fmt.Sprintf("%.1f%%", 100*float64(lc.Count)/float64(total))
		}
		t.AddRow(s.Letter(lc.Letter), strconv.Itoa(lc.Count), share)
	}
	fmt.Fprint(w, t.View(s))
}

func renderPercentiles(w io.Writer, s ui.Styles, rows []report.Row, pct float64) {
	top, bottom := report.Percentiles(rows, pct)
	if len(top) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No graded students."))
		return
	}
	label := strconv.FormatFloat(pct, 'f', -1, 64)

	t := gradeTable(fmt.Sprintf("Top %s%%", label))
	for _, r := range top {
		gradeRow(t, s, r)
	}
	fmt.Fprint(w, t.View(s))

	t = gradeTable(fmt.Sprintf("Bottom %s%%", label))
	for _, r := range bottom {
		gradeRow(t, s, r)
	}
	fmt.Fprint(w, t.View(s))
}

func renderOutliers(w io.Writer, s ui.Styles, rows []report.Row, k float64) {
	rep := report.Outliers(rows, k)
	if rep.StdDev == 0 {
		fmt.Fprintln(w, s.Muted.Render("Not enough spread in grades to detect outliers."))
		return
	}
	fmt.Fprintf(w, "Mean %.2f, SD %.2f, normal band %.2f to %.2f\n", rep.Mean, rep.StdDev, rep.Lower, rep.Upper)

	t := gradeTable("Below band")
	for _, r := range rep.Low {
		gradeRow(t, s, r)
	}
	fmt.Fprint(w, t.View(s))

	t = gradeTable("Above band")
	for _, r := range rep.High {
		gradeRow(t, s, r)
	}
	fmt.Fprint(w, t.View(s))
}

func renderImprovement(w io.Writer, s ui.Styles, rows []report.Row) {
	t := ui.NewTable("Improvement (final - midterm)", schema.FieldStudentID, schema.FieldLastName,
		schema.FieldMidterm, schema.FieldFinal, "change").AlignRight(2, 3, 4)
	for _, c := range report.Improvement(rows) {
		delta := strconv.FormatFloat(c.Delta, 'f', 2, 64)
		switch {
		case c.Delta > 0:
			delta = s.Success.Render("+" + delta)
		case c.Delta < 0:
			delta = s.Error.Render(delta)
		}
		t.AddRow(c.Row.Record.ID, c.Row.Record.Value(schema.FieldLastName),
			c.Row.Record.Midterm.String(), c.Row.Record.Final.String(), delta)
	}
	fmt.Fprint(w, t.View(s))
}

func renderAtRisk(w io.Writer, s ui.Styles, atRisk []report.Row, threshold float64) {
	t := gradeTable(fmt.Sprintf("At risk (below %s)", strconv.FormatFloat(threshold, 'f', -1, 64)))
	for _, r := range atRisk {
		gradeRow(t, s, r)
	}
	fmt.Fprint(w, t.View(s))
}

func renderSection(w io.Writer, s ui.Styles, name string, data [][]string) {
	if len(data) == 0 {
		fmt.Fprintln(w, s.Muted.Render("Section file is empty."))
		return
	}
	t := ui.NewTable("Section "+report.SanitizeSection(name), data[0]...)
	for _, row := range data[1:] {
		t.AddRow(row...)
	}
	fmt.Fprint(w, t.View(s))
}
