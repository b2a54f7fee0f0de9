package report

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gradebook/internal/grade"
	"gradebook/internal/schema"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteSections_EveryRecordOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	e := NewExporter(dir)
	rows := fixture()

	paths, err := e.WriteSections(rows)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Equal(t, filepath.Join(dir, "section_A.csv"), paths[0])
	assert.Equal(t, filepath.Join(dir, "section_UNSPECIFIED.csv"), paths[2])

	total := 0
	for _, p := range paths {
		data := readCSV(t, p)
		require.NotEmpty(t, data)
		assert.Equal(t, SectionHeader(), data[0])
		total += len(data) - 1
	}
	assert.Equal(t, len(rows), total)

	a := readCSV(t, paths[0])
	assert.Equal(t, []string{"s1", "Ls1", "F", "A", "80", "80", "80", "80", "80", "80", "80", "80", "80.00", "B"}, a[1])

	unspecified := readCSV(t, paths[2])
	assert.Equal(t, "", unspecified[1][12])
	assert.Equal(t, "N/A", unspecified[1][13])
}

func TestWriteSections_Empty(t *testing.T) {
	paths, err := NewExporter(t.TempDir()).WriteSections(nil)
	assert.NoError(t, err)
	assert.Empty(t, paths)
}

func TestWriteSummary(t *testing.T) {
	e := NewExporter(t.TempDir())
	path, err := e.WriteSummary(fixture())
	require.NoError(t, err)

	data := readCSV(t, path)
	require.Len(t, data, 6)
	assert.Equal(t, []string{"student_id", "last_name", "first_name", "section", "final_grade", "letter"}, data[0])
	assert.Equal(t, []string{"s4", "none", "none", "none", "", "N/A"}, data[4])
}

func TestWriteAtRisk(t *testing.T) {
	e := NewExporter(t.TempDir())

	path, risky, err := e.WriteAtRisk(fixture(), 75)
	require.NoError(t, err)
	require.Len(t, risky, 2)

	data := readCSV(t, path)
	assert.Equal(t, [][]string{
		{"student_id", "last_name", "first_name", "section", "final_grade"},
		{"s3", "Ls3", "F", "B", "70.00"},
		{"s5", "Ls5", "F", "pi", "55.00"},
	}, data)

	stale := path
	path, risky, err = e.WriteAtRisk(fixture(), 50)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, risky)
	assert.NoFileExists(t, stale, "an at-risk list from an earlier run must not survive")

	_, _, err = e.WriteAtRisk(fixture(), 50)
	assert.NoError(t, err)
}

func TestReadSection(t *testing.T) {
	e := NewExporter(t.TempDir())
	_, err := e.WriteSections(fixture())
	require.NoError(t, err)

	rows, err := e.ReadSection("A")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = e.ReadSection("Z")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	rows := append(fixture(), Enrich([]schema.Record{student("s6", "a/b:c", 65)}, grade.Default())...)
	require.NoError(t, WriteWorkbook(rows, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"A", "B", "UNSPECIFIED", "pi", "a_b_c"}, f.GetSheetList())

	got, err := f.GetRows("A")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, SectionHeader(), got[0])
	assert.Equal(t, "s2", got[2][0])
	assert.Equal(t, "90", got[2][12])
	assert.Equal(t, "A", got[2][13])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b", sheetName("a[b"))
	assert.Len(t, []rune(sheetName("abcdefghijklmnopqrstuvwxyz0123456789")), 31)
}
