// Package store persists the student roster as a CSV file with a fixed header.
//
// Every write is a whole-file operation except Add, which appends. Rewrites
// go to a temporary file in the same directory that is then renamed over the
// roster, so a reader sees either the old or the new file.
package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gradebook/internal/ingest"
	"gradebook/internal/logging"
	"gradebook/internal/schema"
)

// Store is a handle on one roster file. Mutations are serialized.
type Store struct {
	path   string
	mu     sync.RWMutex
	rename func(oldpath, newpath string) error
}

// Open returns a store for path. The file need not exist yet.
func Open(path string) *Store {
	return &Store{path: path, rename: os.Rename}
}

// Path returns the roster file location.
func (s *Store) Path() string { return s.path }

// Load reads the roster and partitions it into valid and rejected rows.
// A missing or unreadable file yields an empty result and a
// *ingest.MalformedFileError.
func (s *Store) Load() (ingest.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

func (s *Store) load() (ingest.Result, error) {
	return ingest.LoadFile(s.path, ingest.NewValidator())
}

// Records returns only the valid records. A missing file is not an error.
func (s *Store) Records() ([]schema.Record, error) {
	res, err := s.Load()
	if err != nil && !isNotExist(err) {
		return nil, err
	}
	return res.Valid, nil
}

func isNotExist(err error) bool {
	var me *ingest.MalformedFileError
	return errors.As(err, &me) && os.IsNotExist(me.Err)
}

// TakenIDs collects every id in res, including ids of rejected rows, so a
// new record can never shadow an existing line.
func TakenIDs(res ingest.Result) []string {
	ids := res.IDs()
	for _, r := range res.Rejected {
		if len(r.Raw) == 0 {
			continue
		}
		if id := strings.TrimSpace(r.Raw[0]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// AddRow validates raw rows and appends them. Either every row is appended
// or none is: the first invalid row aborts the call and leaves the file
// untouched.
func (s *Store) AddRow(rows ...[]string) ([]schema.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.load()
	if err != nil && !isNotExist(err) {
		return nil, err
	}

	v := ingest.NewValidator(TakenIDs(res)...)
	recs := make([]schema.Record, 0, len(rows))
	for _, raw := range rows {
		rec, err := v.ValidateRow(raw)
		if err != nil {
			return nil, err
		}
		v.Accept(rec.ID)
		recs = append(recs, rec)
	}

	if err := s.appendRecords(recs); err != nil {
		return nil, err
	}
	logging.Store("appended %d records to %s", len(recs), s.path)
	return recs, nil
}

// Add re-validates records built in code and appends them.
func (s *Store) Add(recs ...schema.Record) error {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = ingest.EncodeRow(r)
	}
	_, err := s.AddRow(rows...)
	return err
}

func (s *Store) appendRecords(recs []schema.Record) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	info, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)
	if fresh {
		if err := w.Write(schema.Header()); err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
	} else if statErr == nil {
		nl, err := endsWithNewline(s.path)
		if err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
		if !nl {
			buf.WriteByte('\n')
		}
	}

	for _, r := range recs {
		if err := w.Write(ingest.EncodeRow(r)); err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return &WriteError{Path: s.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}

func endsWithNewline(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := f.Seek(-1, io.SeekEnd); err != nil {
		return false, err
	}
	b := make([]byte, 1)
	if _, err := f.Read(b); err != nil {
		return false, err
	}
	return b[0] == '\n', nil
}

// Overwrite replaces the roster with recs and a fresh header. The records
// are written as given; the caller is responsible for their validity.
func (s *Store) Overwrite(recs []schema.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overwrite(recs)
}

func (s *Store) overwrite(recs []schema.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: s.path, Err: err}
	}

	if err := tmp.Chmod(0644); err != nil {
		return cleanup(err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(schema.Header()); err != nil {
		return cleanup(err)
	}
	for _, r := range recs {
		if err := w.Write(ingest.EncodeRow(r)); err != nil {
			return cleanup(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: s.path, Err: err}
	}
	if err := s.rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: s.path, Err: err}
	}

	logging.Store("rewrote %s with %d records", s.path, len(recs))
	return nil
}

// Delete removes the record with id and rewrites the file from the valid
// records that remain. Rows that failed validation are not carried over.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.load()
	if err != nil {
		if isNotExist(err) {
			return &NotFoundError{ID: id}
		}
		return err
	}

	kept := make([]schema.Record, 0, len(res.Valid))
	for _, r := range res.Valid {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(res.Valid) {
		return &NotFoundError{ID: id}
	}
	if err := s.overwrite(kept); err != nil {
		return err
	}
	logging.Store("deleted %s", id)
	return nil
}

// Get returns the record with id.
func (s *Store) Get(id string) (schema.Record, error) {
	recs, err := s.Records()
	if err != nil {
		return schema.Record{}, err
	}
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return schema.Record{}, &NotFoundError{ID: id}
}

// Column projects one column of every valid record, rendered for display.
func (s *Store) Column(name string) ([]string, error) {
	f, ok := schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	recs, err := s.Records()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Value(f.Name)
	}
	return out, nil
}

// Sort orders the valid records by column and rewrites the file in that
// order. The sorted records are returned.
func (s *Store) Sort(column string, descending bool) ([]schema.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.load()
	if err != nil && !isNotExist(err) {
		return nil, err
	}
	sorted, err := SortRecords(res.Valid, column, descending)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return sorted, nil
	}
	if err := s.overwrite(sorted); err != nil {
		return nil, err
	}
	return sorted, nil
}
