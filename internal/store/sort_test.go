package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradebook/internal/schema"
)

func scored(id, last string, final *float64) schema.Record {
	r := schema.Record{ID: id, LastName: last}
	if final != nil {
		r.Final = schema.Present(*final)
	}
	return r
}

func fp(v float64) *float64 { return &v }

func TestSortRecords_NumericMissingLeads(t *testing.T) {
	recs := []schema.Record{
		scored("a", "", fp(70)),
		scored("b", "", nil),
		scored("c", "", fp(90)),
		scored("d", "", fp(70)),
		scored("e", "", nil),
	}

	asc, err := SortRecords(recs, "final", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "e", "a", "d", "c"}, ids(asc))

	desc, err := SortRecords(recs, "final", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "e", "c", "a", "d"}, ids(desc), "ties keep input order")

	assert.Equal(t, "a", recs[0].ID, "input is not modified")
}

func TestSortRecords_TextCaseInsensitive(t *testing.T) {
	recs := []schema.Record{
		scored("1", "delta", nil),
		scored("2", "", nil),
		scored("3", "Alpha", nil),
		scored("4", "charlie", nil),
		scored("5", "alpha", nil),
	}

	asc, err := SortRecords(recs, "last_name", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "5", "4", "1"}, ids(asc))

	desc, err := SortRecords(recs, "last_name", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "3", "5", "2"}, ids(desc))
}

func TestSortRecords_UnknownColumn(t *testing.T) {
	_, err := SortRecords(nil, "gpa", false)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}
