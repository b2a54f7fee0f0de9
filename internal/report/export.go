package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"gradebook/internal/grade"
	"gradebook/internal/ingest"
	"gradebook/internal/logging"
	"gradebook/internal/schema"
)

// Export file names inside the output directory.
const (
	SummaryFile = "summary.csv"
	AtRiskFile  = "at_risk_students.csv"
)

// Extra columns appended to graded exports.
const (
	ColumnFinalGrade = "final_grade"
	ColumnLetter     = "letter"
)

// maxConcurrentWrites bounds per-section file writers.
const maxConcurrentWrites = 4

// Exporter writes report files under a directory.
type Exporter struct {
	OutDir string
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{OutDir: dir}
}

// SectionHeader is the column list of a per-section export.
func SectionHeader() []string {
	return append(schema.Header(), ColumnFinalGrade, ColumnLetter)
}

// SectionRow renders a row for a per-section export.
func SectionRow(r Row) []string {
	return append(ingest.EncodeRow(r.Record), grade.FormatComposite(r.Grade.Composite), r.Grade.Letter)
}

// WriteSections writes one section_<name>.csv per group and returns the
// paths in group order.
func (e *Exporter) WriteSections(rows []Row) ([]string, error) {
	groups := GroupBySection(rows)
	if len(groups) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(e.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	paths := make([]string, len(groups))
	var g errgroup.Group
	g.SetLimit(maxConcurrentWrites)
	for i, grp := range groups {
		i, grp := i, grp
		paths[i] = filepath.Join(e.OutDir, "section_"+grp.Name+".csv")
		g.Go(func() error {
			records := make([][]string, len(grp.Rows))
			for j, r := range grp.Rows {
				records[j] = SectionRow(r)
			}
			if err := writeCSV(paths[i], SectionHeader(), records); err != nil {
				return err
			}
			logging.Report("exported section %s: %d students", grp.Name, len(grp.Rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// WriteSummary writes the one-line-per-student summary file.
func (e *Exporter) WriteSummary(rows []Row) (string, error) {
	header := []string{schema.FieldStudentID, schema.FieldLastName, schema.FieldFirstName, schema.FieldSection, ColumnFinalGrade, ColumnLetter}
	records := make([][]string, len(rows))
	for i, r := range rows {
		enc := ingest.EncodeRow(r.Record)
		records[i] = []string{enc[0], enc[1], enc[2], enc[3], grade.FormatComposite(r.Grade.Composite), r.Grade.Letter}
	}

	path := filepath.Join(e.OutDir, SummaryFile)
	if err := e.write(path, header, records); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAtRisk writes the students below threshold. When nobody is at risk
// the file from an earlier run is removed and the returned path is empty.
func (e *Exporter) WriteAtRisk(rows []Row, threshold float64) (string, []Row, error) {
	path := filepath.Join(e.OutDir, AtRiskFile)
	risky := AtRisk(rows, threshold)
	if len(risky) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", nil, fmt.Errorf("remove stale %s: %w", path, err)
		}
		return "", nil, nil
	}

	header := []string{schema.FieldStudentID, schema.FieldLastName, schema.FieldFirstName, schema.FieldSection, ColumnFinalGrade}
	records := make([][]string, len(risky))
	for i, r := range risky {
		enc := ingest.EncodeRow(r.Record)
		records[i] = []string{enc[0], enc[1], enc[2], enc[3], grade.FormatComposite(r.Grade.Composite)}
	}

	if err := e.write(path, header, records); err != nil {
		return "", nil, err
	}
	logging.Report("exported %d at-risk students below %s", len(risky), strconv.FormatFloat(threshold, 'f', -1, 64))
	return path, risky, nil
}

// ReadSection loads a previously exported section file. The first row is
// the header. A section that was never exported yields an error matching
// os.ErrNotExist.
func (e *Exporter) ReadSection(section string) ([][]string, error) {
	path := filepath.Join(e.OutDir, SectionFileName(section))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no export for section %q (not exported yet): %w", section, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

func (e *Exporter) write(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(e.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return writeCSV(path, header, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
