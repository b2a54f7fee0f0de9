package schema

import (
	"fmt"
	"strconv"
)

// Score is an optional numeric value. The zero Score is missing, which keeps
// "not recorded" distinct from a recorded zero.
type Score struct {
	Value float64
	Valid bool
}

// Present returns a recorded score.
func Present(v float64) Score { return Score{Value: v, Valid: true} }

// Missing returns an absent score.
func Missing() Score { return Score{} }

// Or returns the value, or def when the score is missing.
func (s Score) Or(def float64) float64 {
	if !s.Valid {
		return def
	}
	return s.Value
}

// String formats the score for display; missing scores print as "none".
func (s Score) String() string {
	if !s.Valid {
		return SentinelNone
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// Record is one student's row. Blank text fields are held as "".
type Record struct {
	ID         string
	LastName   string
	FirstName  string
	Section    string
	Quizzes    [QuizCount]Score
	Midterm    Score
	Final      Score
	Attendance Score
}

// Score returns the value of a score column.
func (r *Record) Score(name string) (Score, bool) {
	f, ok := Lookup(name)
	if !ok || f.Kind != KindScore {
		return Score{}, false
	}
	return *r.scoreAt(f.Index), true
}

// SetScore assigns a score column.
func (r *Record) SetScore(name string, s Score) error {
	f, ok := Lookup(name)
	if !ok || f.Kind != KindScore {
		return fmt.Errorf("%q is not a score field", name)
	}
	*r.scoreAt(f.Index) = s
	return nil
}

func (r *Record) scoreAt(index int) *Score {
	switch {
	case index >= 4 && index < 4+QuizCount:
		return &r.Quizzes[index-4]
	case index == 9:
		return &r.Midterm
	case index == 10:
		return &r.Final
	default:
		return &r.Attendance
	}
}

// Text returns a text column, or "" for unknown and score columns.
func (r *Record) Text(name string) string {
	switch name {
	case FieldStudentID:
		return r.ID
	case FieldLastName:
		return r.LastName
	case FieldFirstName:
		return r.FirstName
	case FieldSection:
		return r.Section
	}
	return ""
}

// SetText assigns a text column.
func (r *Record) SetText(name, v string) error {
	switch name {
	case FieldStudentID:
		r.ID = v
	case FieldLastName:
		r.LastName = v
	case FieldFirstName:
		r.FirstName = v
	case FieldSection:
		r.Section = v
	default:
		return fmt.Errorf("%q is not a text field", name)
	}
	return nil
}

// Value renders any column for display. Blank text and missing scores
// render as "none".
func (r *Record) Value(name string) string {
	if s, ok := r.Score(name); ok {
		return s.String()
	}
	if v := r.Text(name); v != "" {
		return v
	}
	return SentinelNone
}

// Values renders the whole record in header order.
func (r *Record) Values() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = r.Value(f.Name)
	}
	return out
}
