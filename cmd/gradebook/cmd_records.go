package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gradebook/internal/ingest"
	"gradebook/internal/schema"
	"gradebook/internal/store"
)

var (
	// add flags, one per roster column
	addValues = make(map[string]*string, schema.NumFields)

	sortDescending bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add one student to the roster",
	Long: `Validates and appends one student. Every column has a flag named after it;
omitted values are stored as "none".

Example:
  gradebook add --student_id S7 --last_name Hopper --first_name Grace \
    --section A --quiz1 90 --midterm 88 --final 93 --attendance_percent 100`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every valid record and report skipped rows",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [student-id]",
	Short: "Delete a student by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var columnCmd = &cobra.Command{
	Use:   "column [name]",
	Short: "Show one column for every student",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumn,
}

var showCmd = &cobra.Command{
	Use:   "show [student-id]",
	Short: "Show one student with their computed grade",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var sortCmd = &cobra.Command{
	Use:   "sort [column]",
	Short: "Sort the roster by a column and rewrite the file",
	Long: `Sorts valid records by the given column and rewrites the roster in that
order. Missing scores sort first in both directions. Rows that fail
validation are dropped by the rewrite.`,
	Args: cobra.ExactArgs(1),
	RunE: runSort,
}

func init() {
	for _, f := range schema.Fields() {
		addValues[f.Name] = addCmd.Flags().String(f.Name, "", fmt.Sprintf("%s (%s)", f.Name, f.Kind))
	}
	addCmd.MarkFlagRequired(schema.FieldStudentID)

	sortCmd.Flags().BoolVar(&sortDescending, "desc", false, "Sort descending")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	raw := make([]string, schema.NumFields)
	for _, f := range schema.Fields() {
		if v := addValues[f.Name]; v != nil {
			raw[f.Index] = *v
		}
	}

	recs, err := a.store.AddRow(raw)
	if err != nil {
		return describeAddError(err)
	}
	logger.Info("Added student", zap.String("id", recs[0].ID), zap.String("file", a.store.Path()))
	fmt.Fprintln(cmd.OutOrStdout(), a.styles.Success.Render("Added "+recs[0].ID))
	return nil
}

func describeAddError(err error) error {
	var dup *ingest.DuplicateIdentifierError
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &dup):
		return fmt.Errorf("student %s already exists", dup.ID)
	case errors.As(err, &verr):
		return fmt.Errorf("invalid %s", verr)
	}
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	res, err := a.store.Load()
	if err != nil {
		var me *ingest.MalformedFileError
		if errors.As(err, &me) {
			fmt.Fprintln(out, a.styles.Warning.Render(me.Error()))
			return nil
		}
		return err
	}
	renderRecords(out, a.styles, fmt.Sprintf("Roster %s (%d)", a.store.Path(), len(res.Valid)), res.Valid)
	renderRejected(out, a.styles, res.Rejected)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.store.Delete(args[0]); err != nil {
		return err
	}
	logger.Info("Deleted student", zap.String("id", args[0]))
	fmt.Fprintln(cmd.OutOrStdout(), a.styles.Success.Render("Deleted "+args[0]))
	return nil
}

func runColumn(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	values, err := a.store.Column(args[0])
	if err != nil {
		if errors.Is(err, store.ErrUnknownColumn) {
			return fmt.Errorf("%w (columns: %v)", err, schema.Header())
		}
		return err
	}
	recs, err := a.store.Records()
	if err != nil {
		return err
	}
	f, _ := schema.Lookup(args[0])
	renderColumn(cmd.OutOrStdout(), a.styles, idsOf(recs), values, f.Name)
	return nil
}

func idsOf(recs []schema.Record) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	rec, err := a.store.Get(args[0])
	if err != nil {
		return err
	}
	renderRecord(cmd.OutOrStdout(), a.styles, rec, a.engine.Compute(rec))
	return nil
}

func runSort(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	sorted, err := a.store.Sort(args[0], sortDescending)
	if err != nil {
		if errors.Is(err, store.ErrUnknownColumn) {
			return fmt.Errorf("%w (columns: %v)", err, schema.Header())
		}
		return err
	}
	f, _ := schema.Lookup(args[0])
	dir := "ascending"
	if sortDescending {
		dir = "descending"
	}
	renderRecords(cmd.OutOrStdout(), a.styles, fmt.Sprintf("Sorted by %s (%s)", f.Name, dir), sorted)
	return nil
}
