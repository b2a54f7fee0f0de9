package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/grade"
	"gradebook/internal/history"
	"gradebook/internal/report"
)

// WorkbookFile is the XLSX export written next to the CSV reports.
const WorkbookFile = "gradebook.xlsx"

var (
	prettyOutput  bool
	percentile    float64
	outlierSD     float64
	riskThreshold float64
	exportXLSX    bool
)

// reportCmd groups the analytics commands
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analytics and exports over computed grades",
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the summary report and write summary.csv",
	Args:  cobra.NoArgs,
	RunE:  runReportSummary,
}

var reportDistributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Count students per letter grade",
	Args:  cobra.NoArgs,
	RunE:  runReportDistribution,
}

var reportPercentilesCmd = &cobra.Command{
	Use:   "percentiles",
	Short: "Show the top and bottom students by composite score",
	Args:  cobra.NoArgs,
	RunE:  runReportPercentiles,
}

var reportOutliersCmd = &cobra.Command{
	Use:   "outliers",
	Short: "Show composites outside mean ± k standard deviations",
	Args:  cobra.NoArgs,
	RunE:  runReportOutliers,
}

var reportImprovementCmd = &cobra.Command{
	Use:   "improvement",
	Short: "Show final minus midterm per student",
	Args:  cobra.NoArgs,
	RunE:  runReportImprovement,
}

var reportAtRiskCmd = &cobra.Command{
	Use:   "at-risk",
	Short: "List students below the passing grade and write at_risk_students.csv",
	Args:  cobra.NoArgs,
	RunE:  runReportAtRisk,
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write summary.csv and one section_<name>.csv per section",
	Args:  cobra.NoArgs,
	RunE:  runReportExport,
}

var reportSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record the current grades in the history database",
	Args:  cobra.NoArgs,
	RunE:  runReportSnapshot,
}

var reportHistoryCmd = &cobra.Command{
	Use:   "history [student-id]",
	Short: "List snapshots, or one student's grades across snapshots",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportHistory,
}

var sectionCmd = &cobra.Command{
	Use:   "section [name]",
	Short: "Display an exported section file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSection,
}

func init() {
	reportSummaryCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "Render the summary as formatted markdown")
	reportPercentilesCmd.Flags().Float64Var(&percentile, "pct", 0, "Share of students per side, in percent (default: reports.percentile)")
	reportOutliersCmd.Flags().Float64Var(&outlierSD, "k", 0, "Band width in standard deviations (default: reports.outlier_sd)")
	reportAtRiskCmd.Flags().Float64Var(&riskThreshold, "threshold", 0, "Passing grade (default: reports.passing_grade)")
	reportExportCmd.Flags().BoolVar(&exportXLSX, "xlsx", false, "Also write "+WorkbookFile+" with one sheet per section")

	reportCmd.AddCommand(reportSummaryCmd)
	reportCmd.AddCommand(reportDistributionCmd)
	reportCmd.AddCommand(reportPercentilesCmd)
	reportCmd.AddCommand(reportOutliersCmd)
	reportCmd.AddCommand(reportImprovementCmd)
	reportCmd.AddCommand(reportAtRiskCmd)
	reportCmd.AddCommand(reportExportCmd)
	reportCmd.AddCommand(reportSnapshotCmd)
	reportCmd.AddCommand(reportHistoryCmd)
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadRows opens the app and grades the roster.
func loadRows() (*app, []report.Row, error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}
	rows, err := a.rows()
	if err != nil {
		return nil, nil, err
	}
	return a, rows, nil
}

func (a *app) writeSummary(w io.Writer, rows []report.Row) error {
	path, err := a.exporter.WriteSummary(rows)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, a.styles.Muted.Render("Wrote "+path))
	return nil
}

func (a *app) writeAtRisk(w io.Writer, rows []report.Row, threshold float64) error {
	path, atRisk, err := a.exporter.WriteAtRisk(rows, threshold)
	if err != nil {
		return err
	}
	if len(atRisk) == 0 {
		fmt.Fprintln(w, a.styles.Success.Render("No students are at risk."))
		return nil
	}
	renderAtRisk(w, a.styles, atRisk, threshold)
	fmt.Fprintln(w, a.styles.Muted.Render("Wrote "+path))
	return nil
}

// exportAll writes the summary and every section file, plus the workbook
// when xlsx is set.
func (a *app) exportAll(w io.Writer, rows []report.Row, xlsx bool) error {
	if err := a.writeSummary(w, rows); err != nil {
		return err
	}
	paths, err := a.exporter.WriteSections(rows)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(w, a.styles.Muted.Render("Wrote "+p))
	}
	if xlsx {
		path := filepath.Join(a.cfg.Reports.OutDir, WorkbookFile)
		if err := report.WriteWorkbook(rows, path); err != nil {
			return err
		}
		fmt.Fprintln(w, a.styles.Muted.Render("Wrote "+path))
	}
	return nil
}

func (a *app) showSection(w io.Writer, name string) error {
	data, err := a.exporter.ReadSection(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no export for section %q; run 'gradebook report export' first", report.SanitizeSection(name))
		}
		return err
	}
	renderSection(w, a.styles, name, data)
	return nil
}

func (a *app) snapshot(ctx context.Context, w io.Writer, rows []report.Row) error {
	db, err := history.Open(a.cfg.History.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := db.Record(ctx, a.store.Path(), rows)
	if err != nil {
		return err
	}
	logger.Info("Recorded snapshot", zap.String("id", snap.ID), zap.Int("students", snap.Students))
	fmt.Fprintf(w, "%s %s (%d students, %d graded)\n", a.styles.Success.Render("Snapshot"), snap.ID, snap.Students, snap.Graded)
	return nil
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if prettyOutput {
		rendered, err := a.styles.RenderMarkdown(report.Markdown(rows), "", 100)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
	} else {
		renderSummary(out, a.styles, rows)
	}
	return a.writeSummary(out, rows)
}

func runReportDistribution(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	renderDistribution(cmd.OutOrStdout(), a.styles, rows)
	return nil
}

func runReportPercentiles(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	renderPercentiles(cmd.OutOrStdout(), a.styles, rows, orDefault(percentile, a.cfg.Reports.Percentile))
	return nil
}

func runReportOutliers(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	renderOutliers(cmd.OutOrStdout(), a.styles, rows, orDefault(outlierSD, a.cfg.Reports.OutlierSD))
	return nil
}

func runReportImprovement(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	renderImprovement(cmd.OutOrStdout(), a.styles, rows)
	return nil
}

func runReportAtRisk(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	return a.writeAtRisk(cmd.OutOrStdout(), rows, orDefault(riskThreshold, a.cfg.Reports.PassingGrade))
}

func runReportExport(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	return a.exportAll(cmd.OutOrStdout(), rows, exportXLSX)
}

func runReportSnapshot(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}
	return a.snapshot(commandContext(cmd), cmd.OutOrStdout(), rows)
}

func runReportHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	db, err := history.Open(a.cfg.History.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		snaps, err := db.Snapshots(ctx)
		if err != nil {
			return err
		}
		t := ui.NewTable("Snapshots", "id", "taken_at", "students", "graded", "mean").AlignRight(2, 3, 4)
		for _, s := range snaps {
			t.AddRow(s.ID, s.TakenAt.Local().Format("2006-01-02 15:04:05"),
				strconv.Itoa(s.Students), strconv.Itoa(s.Graded), orNone(grade.FormatComposite(s.Mean)))
		}
		fmt.Fprint(out, t.View(a.styles))
		return nil
	}

	entries, err := db.StudentHistory(ctx, args[0])
	if err != nil {
		return err
	}
	t := ui.NewTable("History for "+args[0], "snapshot", "taken_at", "section", "final_grade", "letter").AlignRight(3)
	for _, e := range entries {
		t.AddRow(e.SnapshotID, e.TakenAt.Local().Format("2006-01-02 15:04:05"),
			orNone(e.Section), orNone(grade.FormatComposite(e.Composite)), a.styles.Letter(e.Letter))
	}
	fmt.Fprint(out, t.View(a.styles))
	return nil
}

func runSection(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	return a.showSection(cmd.OutOrStdout(), args[0])
}
