package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gradebook/internal/ingest"
	"gradebook/internal/logging"
	"gradebook/internal/schema"
	"gradebook/internal/store"
)

// Command is a main menu choice.
type Command int

const (
	CmdAdd Command = iota + 1
	CmdList
	CmdDelete
	CmdColumn
	CmdRow
	CmdSort
	CmdAnalytics
	CmdSection
	CmdExit
)

var commandLabels = map[Command]string{
	CmdAdd:       "Add a student",
	CmdList:      "List all students",
	CmdDelete:    "Delete a student",
	CmdColumn:    "Show a column",
	CmdRow:       "Show a student",
	CmdSort:      "Sort the roster",
	CmdAnalytics: "Analytics and reports",
	CmdSection:   "Display a section file",
	CmdExit:      "Exit",
}

func (c Command) String() string {
	if l, ok := commandLabels[c]; ok {
		return l
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// ParseCommand maps menu input ("1".."9") to a Command.
func ParseCommand(s string) (Command, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return Command(s[0] - '0'), true
}

// Analysis is an analytics submenu choice.
type Analysis rune

const (
	AnalysisSummary      Analysis = 'a'
	AnalysisAtRisk       Analysis = 'b'
	AnalysisExport       Analysis = 'c'
	AnalysisDistribution Analysis = 'd'
	AnalysisPercentiles  Analysis = 'e'
	AnalysisOutliers     Analysis = 'f'
	AnalysisImprovement  Analysis = 'g'
	AnalysisBack         Analysis = 'h'
)

var analyses = []struct {
	key   Analysis
	label string
}{
	{AnalysisSummary, "Summary report"},
	{AnalysisAtRisk, "At-risk students"},
	{AnalysisExport, "Export section files"},
	{AnalysisDistribution, "Grade distribution"},
	{AnalysisPercentiles, "Top and bottom percentiles"},
	{AnalysisOutliers, "Outliers"},
	{AnalysisImprovement, "Midterm to final improvement"},
	{AnalysisBack, "Back"},
}

// ParseAnalysis maps submenu input ("a".."h", any case) to an Analysis.
func ParseAnalysis(s string) (Analysis, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 1 || s[0] < 'a' || s[0] > 'h' {
		return 0, false
	}
	return Analysis(s[0]), true
}

// Shell is the interactive menu. It reads one answer per line and stops at
// Exit or end of input.
type Shell struct {
	app *app
	in  *bufio.Scanner
	out io.Writer
}

// NewShell creates a shell over the given streams.
func NewShell(a *app, in io.Reader, out io.Writer) *Shell {
	return &Shell{app: a, in: bufio.NewScanner(in), out: out}
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	return NewShell(a, cmd.InOrStdin(), cmd.OutOrStdout()).Run(commandContext(cmd))
}

// errEOF ends the session when input runs out mid-prompt.
var errEOF = errors.New("end of input")

func (sh *Shell) prompt(label string) (string, error) {
	fmt.Fprint(sh.out, sh.app.styles.Prompt.Render(label+": "))
	if !sh.in.Scan() {
		if err := sh.in.Err(); err != nil {
			return "", err
		}
		return "", errEOF
	}
	return strings.TrimSpace(sh.in.Text()), nil
}

func (sh *Shell) printMenu() {
	s := sh.app.styles
	fmt.Fprintln(sh.out)
	fmt.Fprintln(sh.out, s.Title.Render("Student Records")+" "+s.Muted.Render(sh.app.store.Path()))
	for c := CmdAdd; c <= CmdExit; c++ {
		fmt.Fprintf(sh.out, "  %s %s\n", s.Key.Render(fmt.Sprintf("%d.", c)), c)
	}
}

// Run loops over the main menu until Exit, end of input or ctx is done.
// Errors from a single command are printed and the loop continues.
func (sh *Shell) Run(ctx context.Context) error {
	logging.Shell("session started for %s", sh.app.store.Path())
	for {
		if ctx.Err() != nil {
			return nil
		}
		sh.printMenu()
		choice, err := sh.prompt("Choose an option")
		if err != nil {
			return sh.finish(err)
		}
		cmd, ok := ParseCommand(choice)
		if !ok {
			fmt.Fprintln(sh.out, sh.app.styles.Error.Render("Invalid option, choose 1-9."))
			continue
		}
		if cmd == CmdExit {
			fmt.Fprintln(sh.out, "Goodbye.")
			return nil
		}

		logging.Shell("command %d (%s)", cmd, cmd)
		if err := sh.Dispatch(cmd); err != nil {
			if errors.Is(err, errEOF) {
				return nil
			}
			fmt.Fprintln(sh.out, sh.app.styles.Error.Render(err.Error()))
		}
	}
}

func (sh *Shell) finish(err error) error {
	if errors.Is(err, errEOF) {
		return nil
	}
	return err
}

// Dispatch runs one main menu command.
func (sh *Shell) Dispatch(cmd Command) error {
	switch cmd {
	case CmdAdd:
		return sh.add()
	case CmdList:
		return sh.list()
	case CmdDelete:
		return sh.delete()
	case CmdColumn:
		return sh.column()
	case CmdRow:
		return sh.row()
	case CmdSort:
		return sh.sort()
	case CmdAnalytics:
		return sh.analytics()
	case CmdSection:
		return sh.section()
	case CmdExit:
		return nil
	}
	return fmt.Errorf("unknown command %d", cmd)
}

// add prompts for every field, re-asking a field until it validates.
func (sh *Shell) add() error {
	res, err := sh.app.store.Load()
	if err != nil && !isMissing(err) {
		return err
	}
	v := ingest.NewValidator(store.TakenIDs(res)...)

	raw := make([]string, schema.NumFields)
	for _, f := range schema.Fields() {
		for {
			answer, err := sh.prompt(fieldPrompt(f))
			if err != nil {
				return err
			}
			if f.Kind == schema.KindIdentifier {
				_, err = v.CheckIdentifier(answer)
			} else {
				_, err = ingest.ValidateField(f, answer)
			}
			if err == nil {
				raw[f.Index] = answer
				break
			}
			fmt.Fprintln(sh.out, sh.app.styles.Error.Render(err.Error()))
		}
	}

	recs, err := sh.app.store.AddRow(raw)
	if err != nil {
		return describeAddError(err)
	}
	fmt.Fprintln(sh.out, sh.app.styles.Success.Render("Added "+recs[0].ID))
	return nil
}

func fieldPrompt(f schema.Field) string {
	switch f.Kind {
	case schema.KindScore:
		return f.Name + " (0-100, blank for none)"
	case schema.KindName, schema.KindSection:
		return f.Name + " (blank for none)"
	}
	return f.Name
}

func isMissing(err error) bool {
	var me *ingest.MalformedFileError
	return errors.As(err, &me)
}

func (sh *Shell) list() error {
	res, err := sh.app.store.Load()
	if err != nil {
		if isMissing(err) {
			fmt.Fprintln(sh.out, sh.app.styles.Warning.Render(err.Error()))
			return nil
		}
		return err
	}
	renderRecords(sh.out, sh.app.styles, fmt.Sprintf("All students (%d)", len(res.Valid)), res.Valid)
	renderRejected(sh.out, sh.app.styles, res.Rejected)
	return nil
}

func (sh *Shell) delete() error {
	id, err := sh.prompt("Student id to delete")
	if err != nil {
		return err
	}
	if err := sh.app.store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(sh.out, sh.app.styles.Warning.Render(fmt.Sprintf("Student %s not found.", id)))
			return nil
		}
		return err
	}
	fmt.Fprintln(sh.out, sh.app.styles.Success.Render("Deleted "+id))
	return nil
}

func (sh *Shell) column() error {
	fmt.Fprintln(sh.out, sh.app.styles.Muted.Render("Columns: "+strings.Join(schema.Header(), ", ")))
	name, err := sh.prompt("Column")
	if err != nil {
		return err
	}
	values, err := sh.app.store.Column(name)
	if err != nil {
		return err
	}
	recs, err := sh.app.store.Records()
	if err != nil {
		return err
	}
	f, _ := schema.Lookup(name)
	renderColumn(sh.out, sh.app.styles, idsOf(recs), values, f.Name)
	return nil
}

func (sh *Shell) row() error {
	id, err := sh.prompt("Student id")
	if err != nil {
		return err
	}
	rec, err := sh.app.store.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(sh.out, sh.app.styles.Warning.Render(fmt.Sprintf("Student %s not found.", id)))
			return nil
		}
		return err
	}
	renderRecord(sh.out, sh.app.styles, rec, sh.app.engine.Compute(rec))
	return nil
}

func (sh *Shell) sort() error {
	fmt.Fprintln(sh.out, sh.app.styles.Muted.Render("Columns: "+strings.Join(schema.Header(), ", ")))
	name, err := sh.prompt("Sort by column")
	if err != nil {
		return err
	}
	if _, ok := schema.Lookup(name); !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownColumn, name)
	}
	dir, err := sh.prompt("Order (asc/desc)")
	if err != nil {
		return err
	}
	desc := strings.HasPrefix(strings.ToLower(dir), "d")

	sorted, err := sh.app.store.Sort(name, desc)
	if err != nil {
		return err
	}
	f, _ := schema.Lookup(name)
	renderRecords(sh.out, sh.app.styles, "Sorted by "+f.Name, sorted)
	return nil
}

func (sh *Shell) section() error {
	name, err := sh.prompt("Section")
	if err != nil {
		return err
	}
	return sh.app.showSection(sh.out, name)
}

// analytics runs the submenu until Back or end of input.
func (sh *Shell) analytics() error {
	s := sh.app.styles
	for {
		fmt.Fprintln(sh.out)
		fmt.Fprintln(sh.out, s.Title.Render("Analytics"))
		for _, a := range analyses {
			fmt.Fprintf(sh.out, "  %s %s\n", s.Key.Render(string(a.key)+"."), a.label)
		}
		choice, err := sh.prompt("Choose an option")
		if err != nil {
			return err
		}
		a, ok := ParseAnalysis(choice)
		if !ok {
			fmt.Fprintln(sh.out, s.Error.Render("Invalid option, choose a-h."))
			continue
		}
		if a == AnalysisBack {
			return nil
		}
		if err := sh.analyze(a); err != nil {
			fmt.Fprintln(sh.out, s.Error.Render(err.Error()))
		}
	}
}

func (sh *Shell) analyze(a Analysis) error {
	rows, err := sh.app.rows()
	if err != nil {
		return err
	}
	cfg := sh.app.cfg.Reports

	switch a {
	case AnalysisSummary:
		renderSummary(sh.out, sh.app.styles, rows)
		return sh.app.writeSummary(sh.out, rows)
	case AnalysisAtRisk:
		return sh.app.writeAtRisk(sh.out, rows, cfg.PassingGrade)
	case AnalysisExport:
		return sh.app.exportAll(sh.out, rows, false)
	case AnalysisDistribution:
		renderDistribution(sh.out, sh.app.styles, rows)
	case AnalysisPercentiles:
		renderPercentiles(sh.out, sh.app.styles, rows, cfg.Percentile)
	case AnalysisOutliers:
		renderOutliers(sh.out, sh.app.styles, rows, cfg.OutlierSD)
	case AnalysisImprovement:
		renderImprovement(sh.out, sh.app.styles, rows)
	}
	return nil
}
