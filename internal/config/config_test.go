package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GRADEBOOK_FILE", "GRADEBOOK_REPORTS_DIR", "GRADEBOOK_PASSING_GRADE", "GRADEBOOK_HISTORY_DB", "GRADEBOOK_DEBUG"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "studentRecord.csv", cfg.Data.File)
	assert.Equal(t, 75.0, cfg.Reports.PassingGrade)
	assert.Equal(t, 0.3, cfg.Grading.Weights.Quiz)
	assert.Equal(t, 90.0, cfg.Grading.Cutoffs.A)
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := DefaultPath(t.TempDir())

	cfg := DefaultConfig()
	cfg.Data.File = "roster.csv"
	cfg.Reports.PassingGrade = 70
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "roster.csv", loaded.Data.File)
	assert.Equal(t, 70.0, loaded.Reports.PassingGrade)
	assert.Equal(t, cfg.Grading, loaded.Grading)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(DefaultPath(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_BadYAML(t *testing.T) {
	path := DefaultPath(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("data: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRADEBOOK_FILE", "/srv/roster.csv")
	t.Setenv("GRADEBOOK_PASSING_GRADE", "65.5")
	t.Setenv("GRADEBOOK_DEBUG", "true")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "/srv/roster.csv", cfg.Data.File)
	assert.Equal(t, 65.5, cfg.Reports.PassingGrade)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestConfig_EnvOverrides_IgnoresGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRADEBOOK_PASSING_GRADE", "lots")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, 75.0, cfg.Reports.PassingGrade)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that exists, even if empty.
	os.Unsetenv("GRADEBOOK_REPORTS_DIR")

	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".env"), []byte("GRADEBOOK_REPORTS_DIR=out\n"), 0644))

	cfg, err := Load(DefaultPath(ws))
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Reports.OutDir)
}

func TestConfig_Resolve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reports.OutDir = "/abs/reports"
	cfg.Resolve("/ws")

	assert.Equal(t, filepath.Join("/ws", "studentRecord.csv"), cfg.Data.File)
	assert.Equal(t, "/abs/reports", cfg.Reports.OutDir)
	assert.Equal(t, filepath.Join("/ws", ".gradebook", "history.db"), cfg.History.DatabasePath)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights do not sum to one", func(c *Config) { c.Grading.Weights.Quiz = 0.5 }},
		{"negative weight", func(c *Config) { c.Grading.Weights.Quiz = -0.1; c.Grading.Weights.Midterm = 0.7 }},
		{"cutoffs out of order", func(c *Config) { c.Grading.Cutoffs.B = 95 }},
		{"passing grade too high", func(c *Config) { c.Reports.PassingGrade = 120 }},
		{"no roster file", func(c *Config) { c.Data.File = "" }},
		{"zero outlier band", func(c *Config) { c.Reports.OutlierSD = 0 }},
		{"percentile too wide", func(c *Config) { c.Reports.Percentile = 60 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	c := LoggingConfig{}
	assert.False(t, c.IsCategoryEnabled("store"))

	c.DebugMode = true
	assert.True(t, c.IsCategoryEnabled("store"))

	c.Categories = map[string]bool{"store": false}
	assert.False(t, c.IsCategoryEnabled("store"))
	assert.True(t, c.IsCategoryEnabled("ingest"))
}

func TestGradingConfig_Engine(t *testing.T) {
	e := DefaultConfig().Grading.Engine()
	assert.Equal(t, 0.1, e.Weights().Attendance)
}
