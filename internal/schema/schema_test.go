package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderOrder(t *testing.T) {
	assert.Equal(t, []string{
		"student_id", "last_name", "first_name", "section",
		"quiz1", "quiz2", "quiz3", "quiz4", "quiz5",
		"midterm", "final", "attendance_percent",
	}, Header())
	assert.Equal(t, 12, NumFields)
}

func TestFieldPredicates(t *testing.T) {
	tests := []struct {
		name       string
		identifier bool
		numeric    bool
		person     bool
	}{
		{"student_id", true, false, false},
		{"last_name", false, false, true},
		{"FIRST_NAME", false, false, true},
		{"section", false, false, false},
		{"quiz3", false, true, false},
		{" midterm ", false, true, false},
		{"attendance_percent", false, true, false},
		{"gpa", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.identifier, IsIdentifierField(tt.name))
			assert.Equal(t, tt.numeric, IsNumericField(tt.name))
			assert.Equal(t, tt.person, IsNameField(tt.name))
		})
	}
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 0, IndexOf("student_id"))
	assert.Equal(t, 9, IndexOf("midterm"))
	assert.Equal(t, -1, IndexOf("nope"))
}

func TestIsHeader(t *testing.T) {
	assert.True(t, IsHeader(Header()))
	row := Header()
	row[3] = " Section "
	assert.True(t, IsHeader(row))
	assert.False(t, IsHeader(row[:11]))
	assert.False(t, IsHeader([]string{"S1", "a", "b", "c", "1", "2", "3", "4", "5", "6", "7", "8"}))
}

func TestFieldsReturnsCopy(t *testing.T) {
	f := Fields()
	f[0].Name = "mutated"
	assert.Equal(t, "student_id", Fields()[0].Name)
}

func TestRecordScoreAccess(t *testing.T) {
	var r Record
	require.NoError(t, r.SetScore("quiz2", Present(0)))
	require.NoError(t, r.SetScore("final", Present(88.5)))
	require.Error(t, r.SetScore("section", Present(1)))

	s, ok := r.Score("quiz2")
	require.True(t, ok)
	assert.True(t, s.Valid)
	assert.Equal(t, 0.0, s.Value)

	s, ok = r.Score("quiz1")
	require.True(t, ok)
	assert.False(t, s.Valid, "unset score must be missing, not zero")

	assert.Equal(t, "88.5", r.Value("final"))
	assert.Equal(t, "none", r.Value("midterm"))
	assert.Equal(t, "none", r.Value("last_name"))
}

func TestRecordValues(t *testing.T) {
	r := Record{ID: "S1", LastName: "Cruz", Section: "A"}
	r.Quizzes[0] = Present(80)
	r.Attendance = Present(95.25)

	assert.Equal(t, []string{
		"S1", "Cruz", "none", "A",
		"80", "none", "none", "none", "none",
		"none", "none", "95.25",
	}, r.Values())
}

func TestScoreOr(t *testing.T) {
	assert.Equal(t, 0.0, Missing().Or(0))
	assert.Equal(t, 42.0, Present(42).Or(0))
}
