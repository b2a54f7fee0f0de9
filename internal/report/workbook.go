package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gradebook/internal/logging"
)

// maxSheetName is Excel's sheet name length limit.
const maxSheetName = 31

// sheetName makes a group name acceptable as an Excel sheet title.
func sheetName(group string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, group)
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}

// WriteWorkbook writes one sheet per section to an .xlsx file at path.
// Scores are stored as numbers; missing values are left blank.
func WriteWorkbook(rows []Row, path string) error {
	groups := GroupBySection(rows)

	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	if len(groups) == 0 {
		if err := f.SetSheetRow(defaultSheet, "A1", &[]interface{}{"no students"}); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return saveWorkbook(f, path)
	}

	used := make(map[string]bool)
	for i, grp := range groups {
		name := sheetName(grp.Name)
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf("~%d", n)
			base := []rune(sheetName(grp.Name))
			if len(base)+len(suffix) > maxSheetName {
				base = base[:maxSheetName-len(suffix)]
			}
			name = string(base) + suffix
		}
		used[strings.ToLower(name)] = true

		index, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}

		header := make([]interface{}, 0, len(SectionHeader()))
		for _, h := range SectionHeader() {
			header = append(header, h)
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}

		for j, r := range grp.Rows {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			values := workbookRow(r)
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("failed to write sheet %s: %w", name, err)
			}
		}
	}

	if !used[strings.ToLower(defaultSheet)] {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}
	if err := saveWorkbook(f, path); err != nil {
		return err
	}
	logging.Report("wrote workbook %s with %d sheets", path, len(groups))
	return nil
}

func workbookRow(r Row) []interface{} {
	rec := r.Record
	out := []interface{}{rec.ID, rec.LastName, rec.FirstName, rec.Section}
	scores := append(rec.Quizzes[:], rec.Midterm, rec.Final, rec.Attendance)
	for _, s := range scores {
		if s.Valid {
			out = append(out, s.Value)
		} else {
			out = append(out, nil)
		}
	}
	if r.Grade.Composite.Valid {
		out = append(out, r.Grade.Composite.Value)
	} else {
		out = append(out, nil)
	}
	return append(out, r.Grade.Letter)
}

func saveWorkbook(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
