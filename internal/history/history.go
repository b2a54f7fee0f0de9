// Package history keeps snapshots of computed grades in SQLite so results
// can be compared across runs. Snapshots are derived data; the roster file
// stays the source of truth.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gradebook/internal/logging"
	"gradebook/internal/report"
	"gradebook/internal/schema"
)

// Store is a snapshot database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	now    func() time.Time
}

// Snapshot describes one recorded run.
type Snapshot struct {
	ID       string
	TakenAt  time.Time
	Source   string
	Students int
	Graded   int
	Mean     schema.Score
}

// Entry is one student's grade within a snapshot.
type Entry struct {
	SnapshotID string
	TakenAt    time.Time
	StudentID  string
	Section    string
	Composite  schema.Score
	Letter     string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		taken_at INTEGER NOT NULL,
		source TEXT NOT NULL,
		student_count INTEGER NOT NULL,
		graded_count INTEGER NOT NULL,
		mean REAL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON snapshots(taken_at);

	CREATE TABLE IF NOT EXISTS snapshot_grades (
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		student_id TEXT NOT NULL,
		section TEXT NOT NULL,
		composite REAL,
		letter TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, student_id)
	);
	CREATE INDEX IF NOT EXISTS idx_grades_student ON snapshot_grades(student_id);
	`
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create history tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func nullable(sc schema.Score) sql.NullFloat64 {
	return sql.NullFloat64{Float64: sc.Value, Valid: sc.Valid}
}

func score(n sql.NullFloat64) schema.Score {
	return schema.Score{Value: n.Float64, Valid: n.Valid}
}

// Record stores the grades in rows as a new snapshot.
func (s *Store) Record(ctx context.Context, source string, rows []report.Row) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:       uuid.NewString(),
		TakenAt:  s.now().UTC(),
		Source:   source,
		Students: len(rows),
	}
	if sum, ok := report.Summarize(rows); ok {
		snap.Graded = sum.Count
		snap.Mean = schema.Present(sum.Mean)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, taken_at, source, student_count, graded_count, mean) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.TakenAt.UnixNano(), snap.Source, snap.Students, snap.Graded, nullable(snap.Mean))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_grades (snapshot_id, student_id, section, composite, letter) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to prepare grade insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, snap.ID, r.Record.ID, r.Record.Section, nullable(r.Grade.Composite), r.Grade.Letter); err != nil {
			return Snapshot{}, fmt.Errorf("failed to insert grade for %s: %w", r.Record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logging.History("recorded snapshot %s: %d students from %s", snap.ID, snap.Students, source)
	return snap, nil
}

// Snapshots lists every snapshot, oldest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, taken_at, source, student_count, graded_count, mean FROM snapshots ORDER BY taken_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var taken int64
		var mean sql.NullFloat64
		if err := rows.Scan(&snap.ID, &taken, &snap.Source, &snap.Students, &snap.Graded, &mean); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.TakenAt = time.Unix(0, taken).UTC()
		snap.Mean = score(mean)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// StudentHistory returns a student's grade in every snapshot that
// included them, oldest first.
func (s *Store) StudentHistory(ctx context.Context, studentID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT g.snapshot_id, s.taken_at, g.student_id, g.section, g.composite, g.letter
		FROM snapshot_grades g
		JOIN snapshots s ON s.id = g.snapshot_id
		WHERE g.student_id = ?
		ORDER BY s.taken_at, s.rowid`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var taken int64
		var composite sql.NullFloat64
		if err := rows.Scan(&e.SnapshotID, &taken, &e.StudentID, &e.Section, &composite, &e.Letter); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.TakenAt = time.Unix(0, taken).UTC()
		e.Composite = score(composite)
		out = append(out, e)
	}
	return out, rows.Err()
}
