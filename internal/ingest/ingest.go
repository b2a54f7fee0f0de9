// Package ingest turns untrusted roster rows into validated records.
//
// Bulk ingestion never aborts on a bad row: each row is classified on its
// own and either kept or quarantined with a reason, so a partially corrupt
// file still loads everything that is valid.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gradebook/internal/logging"
	"gradebook/internal/schema"
)

// Row is one raw line of input. Err is set when the line is not valid CSV;
// Fields then holds the line split on commas.
type Row struct {
	Line   int
	Fields []string
	Err    error
}

// Rejected is a row that failed validation. Raw is the row as read.
type Rejected struct {
	Line   int
	Raw    []string
	Field  string
	Reason string
	Err    error
}

// Result partitions an ingested batch.
type Result struct {
	Valid    []schema.Record
	Rejected []Rejected
}

// IDs returns the identifiers of the valid records in order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Valid))
	for i, rec := range r.Valid {
		ids[i] = rec.ID
	}
	return ids
}

// Rows wraps plain string rows, numbering them from 1.
func Rows(raw [][]string) []Row {
	out := make([]Row, len(raw))
	for i, fields := range raw {
		out[i] = Row{Line: i + 1, Fields: fields}
	}
	return out
}

// Ingest validates rows against v. A leading header row is skipped. Ids of
// accepted rows are added to v, so a later duplicate in the same batch is
// rejected.
func Ingest(rows []Row, v *Validator) Result {
	var res Result
	log := logging.Get(logging.CategoryIngest)

	for i, row := range rows {
		if i == 0 && row.Err == nil && schema.IsHeader(row.Fields) {
			continue
		}

		if row.Err != nil {
			res.Rejected = append(res.Rejected, Rejected{
				Line:   row.Line,
				Raw:    row.Fields,
				Field:  "row",
				Reason: row.Err.Error(),
				Err:    row.Err,
			})
			log.Warn("line %d: unparseable: %v", row.Line, row.Err)
			continue
		}

		rec, err := v.ValidateRow(row.Fields)
		if err != nil {
			rej := Rejected{Line: row.Line, Raw: row.Fields, Reason: err.Error(), Err: err}
			var ve *ValidationError
			var de *DuplicateIdentifierError
			switch {
			case errors.As(err, &ve):
				rej.Field = ve.Field
			case errors.As(err, &de):
				rej.Field = schema.FieldStudentID
			}
			res.Rejected = append(res.Rejected, rej)
			log.Warn("line %d: rejected: %s", row.Line, rej.Reason)
			continue
		}

		v.Accept(rec.ID)
		res.Valid = append(res.Valid, rec)
	}

	log.Info("ingested %d rows: %d valid, %d rejected", len(rows), len(res.Valid), len(res.Rejected))
	return res
}

// maxContinuation bounds how many physical lines one quoted field may span.
const maxContinuation = 8

var errTrailingData = errors.New("unexpected data after record")

// ReadCSV splits r into raw rows, one physical line at a time. Cells are kept
// exactly as read. Rows with the wrong number of fields are returned as-is for
// the validator to reject. A line with broken quoting is returned with Err set
// and its text split on commas, and reading resumes on the next line. A quoted
// field may continue onto following lines only when the joined text parses as
// one complete row. Only I/O failures abort.
func ReadCSV(r io.Reader) ([]Row, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		lines[0] = strings.TrimPrefix(lines[0], "\ufeff")
	}

	var rows []Row
	for i := 0; i < len(lines); {
		fields, span, err := parseRecord(lines[i:])
		switch {
		case err != nil:
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				perr.StartLine += i
				perr.Line += i
			}
			raw := strings.TrimRight(lines[i], "\r\n")
			rows = append(rows, Row{Line: i + 1, Fields: strings.Split(raw, ","), Err: err})
			i++
		case fields == nil:
			i++
		default:
			rows = append(rows, Row{Line: i + 1, Fields: fields})
			i += span
		}
	}
	return rows, nil
}

func readLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// parseRecord parses the row starting at lines[0] and reports how many lines
// it used. A nil row with a nil error is a blank line.
func parseRecord(lines []string) ([]string, int, error) {
	fields, err := parseLine(lines[0])
	if err == nil || !errors.Is(err, csv.ErrQuote) {
		return fields, 1, err
	}

	for span := 2; span <= min(len(lines), maxContinuation); span++ {
		joined, jerr := parseLine(strings.Join(lines[:span], ""))
		if jerr == nil {
			if len(joined) == schema.NumFields {
				return joined, span, nil
			}
			break
		}
		if !errors.Is(jerr, csv.ErrQuote) {
			break
		}
	}
	return nil, 1, err
}

func parseLine(text string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	fields, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := cr.Read(); err != io.EOF {
		return nil, errTrailingData
	}
	return fields, nil
}

// LoadFile reads and ingests the roster at path. When the file is missing or
// unreadable the result is empty and the error is a *MalformedFileError; the
// caller decides whether that matters.
func LoadFile(path string, v *Validator) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		logging.Ingest("load %s: %v", path, err)
		return Result{}, &MalformedFileError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		logging.Ingest("load %s: %v", path, err)
		return Result{}, &MalformedFileError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}
	logging.IngestDebug("read %d rows from %s", len(rows), path)
	return Ingest(rows, v), nil
}
