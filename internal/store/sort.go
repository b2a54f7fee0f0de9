package store

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gradebook/internal/schema"
)

// SortRecords returns a stably sorted copy of recs.
//
// Missing scores sort as -Inf ascending and +Inf descending, so they lead
// in both directions. Text columns compare case-insensitively with blanks
// as the empty string.
func SortRecords(recs []schema.Record, column string, descending bool) ([]schema.Record, error) {
	f, ok := schema.Lookup(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	out := make([]schema.Record, len(recs))
	copy(out, recs)

	if f.Kind == schema.KindScore {
		missing := math.Inf(-1)
		if descending {
			missing = math.Inf(1)
		}
		key := func(r *schema.Record) float64 {
			s, _ := r.Score(f.Name)
			return s.Or(missing)
		}
		sort.SliceStable(out, func(i, j int) bool {
			if descending {
				return key(&out[i]) > key(&out[j])
			}
			return key(&out[i]) < key(&out[j])
		})
		return out, nil
	}

	key := func(r *schema.Record) string {
		return strings.ToLower(r.Text(f.Name))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return key(&out[i]) > key(&out[j])
		}
		return key(&out[i]) < key(&out[j])
	})
	return out, nil
}
