package config

import "gradebook/internal/grade"

// GradingConfig configures the composite score.
type GradingConfig struct {
	Weights WeightsConfig `yaml:"weights"`
	Cutoffs CutoffsConfig `yaml:"cutoffs"`
}

// WeightsConfig holds the component weights. They must sum to 1.
type WeightsConfig struct {
	Quiz       float64 `yaml:"quiz"`
	Midterm    float64 `yaml:"midterm"`
	Final      float64 `yaml:"final"`
	Attendance float64 `yaml:"attendance"`
}

// CutoffsConfig holds the inclusive lower bound of each passing letter.
type CutoffsConfig struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
	D float64 `yaml:"d"`
}

// DefaultGradingConfig mirrors grade.DefaultWeights and grade.DefaultCutoffs.
func DefaultGradingConfig() GradingConfig {
	w := grade.DefaultWeights()
	k := grade.DefaultCutoffs()
	return GradingConfig{
		Weights: WeightsConfig{Quiz: w.Quiz, Midterm: w.Midterm, Final: w.Final, Attendance: w.Attendance},
		Cutoffs: CutoffsConfig{A: k.A, B: k.B, C: k.C, D: k.D},
	}
}

// Engine builds a grade engine from the configuration.
func (g GradingConfig) Engine() *grade.Engine {
	return grade.NewEngine(
		grade.Weights{Quiz: g.Weights.Quiz, Midterm: g.Weights.Midterm, Final: g.Weights.Final, Attendance: g.Weights.Attendance},
		grade.Cutoffs{A: g.Cutoffs.A, B: g.Cutoffs.B, C: g.Cutoffs.C, D: g.Cutoffs.D},
	)
}
