// Package report derives read-only analytics from graded records: summary
// statistics, letter distribution, percentiles, outliers, improvement,
// at-risk lists, and per-section partitions. Nothing here writes back to
// the roster.
package report

import (
	"math"
	"sort"

	"gradebook/internal/grade"
	"gradebook/internal/schema"
)

// Row is a record together with its computed grade.
type Row struct {
	Record schema.Record
	Grade  grade.Result
}

// Enrich grades every record.
func Enrich(recs []schema.Record, e *grade.Engine) []Row {
	rows := make([]Row, len(recs))
	for i, r := range recs {
		rows[i] = Row{Record: r, Grade: e.Compute(r)}
	}
	return rows
}

// Graded returns the rows that have a composite score.
func Graded(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Grade.Composite.Valid {
			out = append(out, r)
		}
	}
	return out
}

// Summary holds statistics over composite scores. Students without a
// composite are not counted.
type Summary struct {
	Total  int // all rows
	Count  int // rows with a composite
	Mean   float64
	Median float64
	Max    float64
	Min    float64
}

// Summarize computes statistics over rows. ok is false when no row has a
// composite, in which case only Total is set.
func Summarize(rows []Row) (s Summary, ok bool) {
	s.Total = len(rows)
	scores := composites(rows)
	if len(scores) == 0 {
		return s, false
	}

	sort.Float64s(scores)
	s.Count = len(scores)
	s.Mean = mean(scores)
	s.Min = scores[0]
	s.Max = scores[len(scores)-1]
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		s.Median = scores[mid]
	} else {
		s.Median = (scores[mid-1] + scores[mid]) / 2
	}
	return s, true
}

func composites(rows []Row) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Grade.Composite.Valid {
			out = append(out, r.Grade.Composite.Value)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// LetterCount is one bucket of a grade distribution.
type LetterCount struct {
	Letter string
	Count  int
}

// Distribution counts rows per letter, in A..F, N/A order. Every letter is
// present even when its count is zero.
func Distribution(rows []Row) []LetterCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Grade.Letter]++
	}
	out := make([]LetterCount, 0, len(grade.Letters()))
	for _, l := range grade.Letters() {
		out = append(out, LetterCount{Letter: l, Count: counts[l]})
	}
	return out
}

// Percentiles returns the top and bottom pct percent of graded rows. Each
// side holds at least one row when any row is graded. Top is ordered best
// first, bottom worst first.
func Percentiles(rows []Row, pct float64) (top, bottom []Row) {
	graded := Graded(rows)
	if len(graded) == 0 {
		return nil, nil
	}

	n := int(math.Ceil(float64(len(graded)) * pct / 100))
	if n < 1 {
		n = 1
	}
	if n > len(graded) {
		n = len(graded)
	}

	byScore := make([]Row, len(graded))
	copy(byScore, graded)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].Grade.Composite.Value > byScore[j].Grade.Composite.Value
	})

	top = append(top, byScore[:n]...)
	for i := len(byScore) - 1; i >= len(byScore)-n; i-- {
		bottom = append(bottom, byScore[i])
	}
	return top, bottom
}

// OutlierReport lists graded rows outside mean ± k standard deviations.
type OutlierReport struct {
	Mean   float64
	StdDev float64 // population
	Lower  float64
	Upper  float64
	Low    []Row
	High   []Row
}

// Outliers flags composites outside mean ± k·SD. With fewer than two graded
// rows there is no spread and nothing is flagged.
func Outliers(rows []Row, k float64) OutlierReport {
	var rep OutlierReport
	graded := Graded(rows)
	if len(graded) < 2 {
		return rep
	}

	scores := composites(graded)
	rep.Mean = mean(scores)
	var ss float64
	for _, x := range scores {
		ss += (x - rep.Mean) * (x - rep.Mean)
	}
	rep.StdDev = math.Sqrt(ss / float64(len(scores)))
	rep.Lower = rep.Mean - k*rep.StdDev
	rep.Upper = rep.Mean + k*rep.StdDev

	for _, r := range graded {
		switch v := r.Grade.Composite.Value; {
		case v < rep.Lower:
			rep.Low = append(rep.Low, r)
		case v > rep.Upper:
			rep.High = append(rep.High, r)
		}
	}
	return rep
}

// Change is the difference between a student's final and midterm.
type Change struct {
	Row   Row
	Delta float64
}

// Improvement returns final minus midterm for every student with both
// scores, largest gain first.
func Improvement(rows []Row) []Change {
	var out []Change
	for _, r := range rows {
		m, f := r.Record.Midterm, r.Record.Final
		if !m.Valid || !f.Valid {
			continue
		}
		out = append(out, Change{Row: r, Delta: grade.RoundHalfEven(f.Value-m.Value, 2)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Delta > out[j].Delta })
	return out
}

// AtRisk returns graded rows whose composite is below threshold. Rows
// without a composite are skipped.
func AtRisk(rows []Row, threshold float64) []Row {
	var out []Row
	for _, r := range rows {
		if r.Grade.Composite.Valid && r.Grade.Composite.Value < threshold {
			out = append(out, r)
		}
	}
	return out
}
