package ingest

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradebook/internal/schema"
)

const sampleRoster = `student_id,last_name,first_name,section,quiz1,quiz2,quiz3,quiz4,quiz5,midterm,final,attendance_percent
S1,Reyes,Ana,A,80,90,70,60,100,85,75,90
S2,Santos,Ben,B,none,,50,50,50,60,60,70
S3,Cruz,Carl,A,120,90,70,60,100,85,75,90
S1,Dup,Dan,A,1,2,3,4,5,6,7,8
S4,L0pez,Eve,A,1,2,3,4,5,6,7,8
S5,Short,Row
,NoID,Fay,A,1,2,3,4,5,6,7,8
S6,Lim,Gus,,0,0,0,0,0,0,0,0
`

func TestIngest_PartitionsWithoutAborting(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleRoster))
	require.NoError(t, err)

	res := Ingest(rows, NewValidator())

	assert.Equal(t, []string{"S1", "S2", "S6"}, res.IDs())
	require.Len(t, res.Rejected, 5)

	byLine := map[int]Rejected{}
	for _, r := range res.Rejected {
		byLine[r.Line] = r
	}

	assert.Equal(t, "quiz1", byLine[4].Field)
	assert.Contains(t, byLine[4].Reason, "quiz1")
	assert.Equal(t, "student_id", byLine[5].Field, "second S1 is a duplicate")
	assert.Equal(t, "last_name", byLine[6].Field)
	assert.Equal(t, "row", byLine[7].Field)
	assert.Equal(t, "student_id", byLine[8].Field)

	// Rejected rows are kept verbatim.
	assert.Equal(t, []string{"S5", "Short", "Row"}, byLine[7].Raw)
}

func TestIngest_KnownIdentifiersAreRespected(t *testing.T) {
	rows := Rows([][]string{
		{"S9", "A", "B", "C", "1", "2", "3", "4", "5", "6", "7", "8"},
		{"S10", "A", "B", "C", "1", "2", "3", "4", "5", "6", "7", "8"},
	})
	res := Ingest(rows, NewValidator("S9"))

	assert.Equal(t, []string{"S10"}, res.IDs())
	require.Len(t, res.Rejected, 1)
	var de *DuplicateIdentifierError
	assert.ErrorAs(t, res.Rejected[0].Err, &de)
}

func TestIngest_HeaderIsOptional(t *testing.T) {
	rows := Rows([][]string{
		{"S1", "A", "B", "C", "1", "2", "3", "4", "5", "6", "7", "8"},
	})
	res := Ingest(rows, NewValidator())
	assert.Len(t, res.Valid, 1)
	assert.Empty(t, res.Rejected)
}

func TestReadCSV_StripsBOM(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("\ufeff" + strings.Join(schema.Header(), ",") + "\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, schema.IsHeader(rows[0].Fields))
}

func TestReadCSV_BrokenQuoteStaysOnItsLine(t *testing.T) {
	bad := `S1,"Reyes,Ana,A,80,90,70,60,100,85,75,90`
	input := strings.Join(schema.Header(), ",") + "\n" +
		bad + "\n" +
		"S2,Santos,Ben,B,50,50,50,50,50,60,60,70\n" +
		"S3,Cruz,Carl,A,90,90,90,90,90,90,90,90\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	res := Ingest(rows, NewValidator())
	assert.Equal(t, []string{"S2", "S3"}, res.IDs())
	require.Len(t, res.Rejected, 1)

	rej := res.Rejected[0]
	assert.Equal(t, 2, rej.Line)
	assert.Equal(t, "row", rej.Field)
	assert.Equal(t, bad, strings.Join(rej.Raw, ","))
	assert.ErrorIs(t, rej.Err, csv.ErrQuote)

	var perr *csv.ParseError
	require.ErrorAs(t, rej.Err, &perr)
	assert.Equal(t, 2, perr.StartLine)
}

func TestReadCSV_BareQuoteIsQuarantined(t *testing.T) {
	input := "S1,Re\"yes,Ana,A,1,2,3,4,5,6,7,8\nS2,Cruz,Ben,A,1,2,3,4,5,6,7,8\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.ErrorIs(t, rows[0].Err, csv.ErrBareQuote)
	assert.Equal(t, []string{"S1", `Re"yes`, "Ana", "A", "1", "2", "3", "4", "5", "6", "7", "8"}, rows[0].Fields)
	assert.NoError(t, rows[1].Err)
	assert.Equal(t, 2, rows[1].Line)
}

func TestReadCSV_QuotedFieldAcrossLines(t *testing.T) {
	input := "S1,\"O'Neil\nJr\",Hal,A,1,2,3,4,5,6,7,8\n" +
		"\n" +
		"S2,Cruz,Ben,A,1,2,3,4,5,6,7,8\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, "O'Neil\nJr", rows[0].Fields[1])
	assert.Len(t, rows[0].Fields, schema.NumFields)
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "S2", rows[1].Fields[0])
}

func TestReadCSV_KeepsCellsAsRead(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(" S9 , Lee,Ann,A,1,2,3,4,5,6,7,bad\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, " S9 ", rows[0].Fields[0])
	assert.Equal(t, " Lee", rows[0].Fields[1])

	res := Ingest(rows, NewValidator())
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, " Lee", res.Rejected[0].Raw[1])
}

func TestLoadFile_Missing(t *testing.T) {
	res, err := LoadFile(filepath.Join(t.TempDir(), "absent.csv"), NewValidator())

	var me *MalformedFileError
	require.ErrorAs(t, err, &me)
	assert.True(t, os.IsNotExist(me.Err))
	assert.Empty(t, res.Valid)
	assert.Empty(t, res.Rejected)
}

func TestRoundTrip(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleRoster))
	require.NoError(t, err)
	first := Ingest(rows, NewValidator())
	require.NotEmpty(t, first.Valid)

	extra := schema.Record{ID: "S7", LastName: "O'Neil, Jr", FirstName: "Hal", Section: "pi"}
	extra.Quizzes[4] = schema.Present(33.333)
	extra.Attendance = schema.Present(0)
	records := append(first.Valid, extra)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(schema.Header()))
	for _, r := range records {
		require.NoError(t, w.Write(EncodeRow(r)))
	}
	w.Flush()
	require.NoError(t, w.Error())

	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	second, err := LoadFile(path, NewValidator())
	require.NoError(t, err)
	assert.Empty(t, second.Rejected)
	if diff := cmp.Diff(records, second.Valid); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
