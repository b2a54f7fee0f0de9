// Package schema defines the canonical student record layout: the ordered
// field list, each field's kind, and the typed Record the rest of gradebook
// works with.
package schema

import "strings"

// Kind classifies a field by how its values are validated and stored.
type Kind int

const (
	KindIdentifier Kind = iota // non-empty unique key
	KindName                   // free text without digits
	KindSection                // free text
	KindScore                  // optional number in [0,100]
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindName:
		return "name"
	case KindSection:
		return "section"
	case KindScore:
		return "score"
	default:
		return "unknown"
	}
}

// Field describes one column of the roster file.
type Field struct {
	Name  string
	Kind  Kind
	Index int
}

// Canonical field names.
const (
	FieldStudentID  = "student_id"
	FieldLastName   = "last_name"
	FieldFirstName  = "first_name"
	FieldSection    = "section"
	FieldQuiz1      = "quiz1"
	FieldQuiz2      = "quiz2"
	FieldQuiz3      = "quiz3"
	FieldQuiz4      = "quiz4"
	FieldQuiz5      = "quiz5"
	FieldMidterm    = "midterm"
	FieldFinal      = "final"
	FieldAttendance = "attendance_percent"
)

// QuizCount is the number of quiz columns.
const QuizCount = 5

// SentinelNone is the serialized marker for an absent value.
const SentinelNone = "none"

var fields = []Field{
	{Name: FieldStudentID, Kind: KindIdentifier, Index: 0},
	{Name: FieldLastName, Kind: KindName, Index: 1},
	{Name: FieldFirstName, Kind: KindName, Index: 2},
	{Name: FieldSection, Kind: KindSection, Index: 3},
	{Name: FieldQuiz1, Kind: KindScore, Index: 4},
	{Name: FieldQuiz2, Kind: KindScore, Index: 5},
	{Name: FieldQuiz3, Kind: KindScore, Index: 6},
	{Name: FieldQuiz4, Kind: KindScore, Index: 7},
	{Name: FieldQuiz5, Kind: KindScore, Index: 8},
	{Name: FieldMidterm, Kind: KindScore, Index: 9},
	{Name: FieldFinal, Kind: KindScore, Index: 10},
	{Name: FieldAttendance, Kind: KindScore, Index: 11},
}

// NumFields is the number of columns in a roster row.
var NumFields = len(fields)

// Fields returns the ordered field list. The slice is a copy.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Header returns the column names in file order.
func Header() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// Lookup finds a field by name. Matching ignores case and surrounding space.
func Lookup(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IndexOf returns the column index of name, or -1.
func IndexOf(name string) int {
	if f, ok := Lookup(name); ok {
		return f.Index
	}
	return -1
}

// IsIdentifierField reports whether name is the key column.
func IsIdentifierField(name string) bool {
	f, ok := Lookup(name)
	return ok && f.Kind == KindIdentifier
}

// IsNumericField reports whether name is a score column.
func IsNumericField(name string) bool {
	f, ok := Lookup(name)
	return ok && f.Kind == KindScore
}

// IsNameField reports whether name is one of the person-name columns.
func IsNameField(name string) bool {
	f, ok := Lookup(name)
	return ok && f.Kind == KindName
}

// IsHeader reports whether row matches the canonical header.
func IsHeader(row []string) bool {
	if len(row) != len(fields) {
		return false
	}
	for i, f := range fields {
		if strings.ToLower(strings.TrimSpace(row[i])) != f.Name {
			return false
		}
	}
	return true
}
