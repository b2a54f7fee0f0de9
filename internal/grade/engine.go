// Package grade computes weighted composite scores and letter grades.
package grade

import (
	"strconv"

	"gradebook/internal/logging"
	"gradebook/internal/schema"
)

// Letter grades. NotAvailable is used when no composite can be computed.
const (
	LetterA      = "A"
	LetterB      = "B"
	LetterC      = "C"
	LetterD      = "D"
	LetterF      = "F"
	NotAvailable = "N/A"
)

// Letters lists every grade in report order.
func Letters() []string {
	return []string{LetterA, LetterB, LetterC, LetterD, LetterF, NotAvailable}
}

// Weights are the component multipliers of the composite score.
type Weights struct {
	Quiz       float64
	Midterm    float64
	Final      float64
	Attendance float64
}

// DefaultWeights returns 30/30/30/10.
func DefaultWeights() Weights {
	return Weights{Quiz: 0.3, Midterm: 0.3, Final: 0.3, Attendance: 0.1}
}

// Cutoffs are the inclusive lower bounds of each passing letter.
type Cutoffs struct {
	A float64
	B float64
	C float64
	D float64
}

// DefaultCutoffs returns 90/80/70/60.
func DefaultCutoffs() Cutoffs {
	return Cutoffs{A: 90, B: 80, C: 70, D: 60}
}

// Result is derived from a record on demand and never stored.
type Result struct {
	QuizAverage float64
	QuizCount   int
	Composite   schema.Score
	Letter      string
}

// Engine maps records to grade results. It holds no mutable state.
type Engine struct {
	weights Weights
	cutoffs Cutoffs
}

// NewEngine creates an engine with the given weights and cutoffs.
func NewEngine(w Weights, c Cutoffs) *Engine {
	return &Engine{weights: w, cutoffs: c}
}

// Default returns an engine with the standard weights and cutoffs.
func Default() *Engine {
	return NewEngine(DefaultWeights(), DefaultCutoffs())
}

// Weights returns the engine's weights.
func (e *Engine) Weights() Weights { return e.weights }

// Compute grades r.
//
// Missing midterm, final and attendance count as 0, and no quizzes at all
// gives a quiz average of 0. The composite is absent only when the quiz
// average is 0 and midterm, final and attendance are all missing in the
// record itself; a student whose scores are all recorded as 0 gets 0.00.
func (e *Engine) Compute(r schema.Record) Result {
	var sum float64
	var n int
	for _, q := range r.Quizzes {
		if q.Valid {
			sum += q.Value
			n++
		}
	}

	res := Result{QuizCount: n}
	if n > 0 {
		res.QuizAverage = sum / float64(n)
	}

	if res.QuizAverage == 0 && !r.Midterm.Valid && !r.Final.Valid && !r.Attendance.Valid {
		res.Letter = NotAvailable
		logging.GradeDebug("%s: no numeric data", r.ID)
		return res
	}

	// Each product is rounded on its own so no platform fuses multiply-add.
	weighted := float64(res.QuizAverage*e.weights.Quiz) +
		float64(r.Midterm.Or(0)*e.weights.Midterm) +
		float64(r.Final.Or(0)*e.weights.Final) +
		float64(r.Attendance.Or(0)*e.weights.Attendance)

	res.Composite = schema.Present(RoundHalfEven(weighted, 2))
	res.Letter = e.Letter(res.Composite)
	logging.GradeDebug("%s: quiz_avg=%.4f composite=%s letter=%s", r.ID, res.QuizAverage, FormatComposite(res.Composite), res.Letter)
	return res
}

// Letter buckets a composite score.
func (e *Engine) Letter(s schema.Score) string {
	if !s.Valid {
		return NotAvailable
	}
	switch v := s.Value; {
	case v >= e.cutoffs.A:
		return LetterA
	case v >= e.cutoffs.B:
		return LetterB
	case v >= e.cutoffs.C:
		return LetterC
	case v >= e.cutoffs.D:
		return LetterD
	default:
		return LetterF
	}
}

// Letter buckets s with the default cutoffs.
func Letter(s schema.Score) string {
	return Default().Letter(s)
}

// RoundHalfEven rounds x to the given number of decimal places using the
// exact binary value of x, with exact ties going to the even digit.
// strconv's fixed-precision formatting implements exactly that rule.
func RoundHalfEven(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// FormatComposite renders a composite with two decimals, or "" when absent.
func FormatComposite(s schema.Score) string {
	if !s.Valid {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}
