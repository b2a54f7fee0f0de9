package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradebook/internal/schema"
)

func record(quizzes []float64, midterm, final, attendance *float64) schema.Record {
	r := schema.Record{ID: "T"}
	for i, q := range quizzes {
		r.Quizzes[i] = schema.Present(q)
	}
	if midterm != nil {
		r.Midterm = schema.Present(*midterm)
	}
	if final != nil {
		r.Final = schema.Present(*final)
	}
	if attendance != nil {
		r.Attendance = schema.Present(*attendance)
	}
	return r
}

func f(v float64) *float64 { return &v }

func TestCompute_ReferenceExample(t *testing.T) {
	res := Default().Compute(record([]float64{80, 90, 70, 60, 100}, f(85), f(75), f(90)))

	assert.Equal(t, 80.0, res.QuizAverage)
	assert.Equal(t, 5, res.QuizCount)
	require.True(t, res.Composite.Valid)
	assert.Equal(t, 81.0, res.Composite.Value)
	assert.Equal(t, "B", res.Letter)
	assert.Equal(t, "81.00", FormatComposite(res.Composite))
}

func TestCompute_AtRiskExample(t *testing.T) {
	res := Default().Compute(record([]float64{50, 50, 50, 50, 50}, f(60), f(60), f(70)))

	require.True(t, res.Composite.Valid)
	assert.Equal(t, 58.0, res.Composite.Value)
	assert.Equal(t, "F", res.Letter)
	assert.Less(t, res.Composite.Value, 75.0)
}

func TestCompute_AllMissing(t *testing.T) {
	res := Default().Compute(schema.Record{ID: "empty"})

	assert.False(t, res.Composite.Valid)
	assert.Equal(t, NotAvailable, res.Letter)
	assert.Equal(t, "", FormatComposite(res.Composite))
}

func TestCompute_AllZeroIsNotMissing(t *testing.T) {
	res := Default().Compute(record([]float64{0, 0, 0, 0, 0}, f(0), f(0), f(0)))

	require.True(t, res.Composite.Valid)
	assert.Equal(t, 0.0, res.Composite.Value)
	assert.Equal(t, "F", res.Letter)
	assert.Equal(t, "0.00", FormatComposite(res.Composite))
}

func TestCompute_MissingComponentsCountAsZero(t *testing.T) {
	// Only the final is recorded: 0*.3 + 0*.3 + 90*.3 + 0*.1
	res := Default().Compute(record(nil, nil, f(90), nil))
	require.True(t, res.Composite.Valid)
	assert.Equal(t, 27.0, res.Composite.Value)
	assert.Equal(t, 0, res.QuizCount)

	// Partial quizzes average only the recorded ones.
	res = Default().Compute(record([]float64{100, 50}, nil, nil, nil))
	assert.Equal(t, 75.0, res.QuizAverage)
	assert.Equal(t, 22.5, res.Composite.Value)
}

func TestCompute_ZeroQuizzesWithNothingElseIsMissing(t *testing.T) {
	// The short-circuit looks at the quiz average, so recorded zero quizzes
	// with no other data still yield no composite.
	res := Default().Compute(record([]float64{0, 0}, nil, nil, nil))
	assert.False(t, res.Composite.Valid)
	assert.Equal(t, NotAvailable, res.Letter)
}

func TestCompute_Deterministic(t *testing.T) {
	r := record([]float64{91.3, 77.7, 68.9}, f(88.8), f(79.1), f(95))
	e := Default()
	first := e.Compute(r)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Compute(r))
	}
}

func TestLetterBoundaries(t *testing.T) {
	tests := []struct {
		score schema.Score
		want  string
	}{
		{schema.Missing(), "N/A"},
		{schema.Present(95), "A"},
		{schema.Present(90), "A"},
		{schema.Present(89.99), "B"},
		{schema.Present(80), "B"},
		{schema.Present(79.99), "C"},
		{schema.Present(70), "C"},
		{schema.Present(69.99), "D"},
		{schema.Present(60), "D"},
		{schema.Present(59.99), "F"},
		{schema.Present(0), "F"},
	}
	for _, tt := range tests {
		t.Run(tt.score.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Letter(tt.score))
		})
	}
}

func TestCustomWeightsAndCutoffs(t *testing.T) {
	e := NewEngine(Weights{Quiz: 0.5, Final: 0.5}, Cutoffs{A: 95, B: 85, C: 75, D: 65})
	res := e.Compute(record([]float64{90}, nil, f(90), nil))
	assert.Equal(t, 90.0, res.Composite.Value)
	assert.Equal(t, "B", res.Letter)
}

func TestCompute_MatchesSeparatelyRoundedProducts(t *testing.T) {
	tests := []struct {
		quizzes                    []float64
		midterm, final, attendance float64
	}{
		{[]float64{83.35, 83.35, 83.35, 83.35, 83.35}, 0, 0, 0},
		{[]float64{33.333, 66.667, 12.345, 99.99, 0.01}, 41.15, 77.05, 88.85},
		{[]float64{70.1, 70.2, 70.3}, 65.55, 72.45, 95.5},
	}
	w := DefaultWeights()
	for _, tt := range tests {
		res := Default().Compute(record(tt.quizzes, f(tt.midterm), f(tt.final), f(tt.attendance)))

		var sum float64
		for _, q := range tt.quizzes {
			sum += q
		}
		avg := sum / float64(len(tt.quizzes))
		want := float64(avg*w.Quiz) + float64(tt.midterm*w.Midterm) +
			float64(tt.final*w.Final) + float64(tt.attendance*w.Attendance)

		require.True(t, res.Composite.Valid)
		assert.Equal(t, RoundHalfEven(want, 2), res.Composite.Value, "quizzes %v", tt.quizzes)
	}
}

func TestRoundHalfEven(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.12},  // exact tie, rounds to even
		{0.375, 0.38},  // exact tie, rounds to even
		{2.675, 2.67},  // binary value sits below the tie
		{81.0, 81.0},
		{58.00000000000001, 58.0},
		{-1.005, -1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundHalfEven(tt.in, 2), "RoundHalfEven(%v)", tt.in)
	}
}
