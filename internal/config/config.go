package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all gradebook configuration.
type Config struct {
	// Roster file
	Data DataConfig `yaml:"data"`

	// Analytics and exports
	Reports ReportsConfig `yaml:"reports"`

	// Composite score weights and letter cutoffs
	Grading GradingConfig `yaml:"grading"`

	// Snapshot database
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the roster file.
type DataConfig struct {
	File string `yaml:"file"`
}

// ReportsConfig configures analytics output.
type ReportsConfig struct {
	OutDir       string  `yaml:"out_dir"`
	PassingGrade float64 `yaml:"passing_grade"`
	OutlierSD    float64 `yaml:"outlier_sd"` // band width in standard deviations
	Percentile   float64 `yaml:"percentile"` // top/bottom share, in percent
}

// HistoryConfig configures the snapshot store.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			File: "studentRecord.csv",
		},
		Reports: ReportsConfig{
			OutDir:       "reports",
			PassingGrade: 75,
			OutlierSD:    1.5,
			Percentile:   10,
		},
		Grading: DefaultGradingConfig(),
		History: HistoryConfig{
			DatabasePath: filepath.Join(".gradebook", "history.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config file location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".gradebook", "config.yaml")
}

// Load loads configuration from a YAML file. A .env file next to the
// .gradebook directory is loaded into the environment first; variables that
// are already set win.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	envFile := filepath.Join(filepath.Dir(filepath.Dir(path)), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults if config file doesn't exist
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GRADEBOOK_FILE"); v != "" {
		c.Data.File = v
	}
	if v := os.Getenv("GRADEBOOK_REPORTS_DIR"); v != "" {
		c.Reports.OutDir = v
	}
	if v := os.Getenv("GRADEBOOK_PASSING_GRADE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Reports.PassingGrade = f
		}
	}
	if v := os.Getenv("GRADEBOOK_HISTORY_DB"); v != "" {
		c.History.DatabasePath = v
	}
	if v := os.Getenv("GRADEBOOK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}

// Resolve makes relative paths absolute against the workspace.
func (c *Config) Resolve(workspace string) {
	c.Data.File = resolve(workspace, c.Data.File)
	c.Reports.OutDir = resolve(workspace, c.Reports.OutDir)
	c.History.DatabasePath = resolve(workspace, c.History.DatabasePath)
}

func resolve(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) || workspace == "" {
		return p
	}
	return filepath.Join(workspace, p)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.File == "" {
		return fmt.Errorf("data.file must be set")
	}
	if c.Reports.PassingGrade < 0 || c.Reports.PassingGrade > 100 {
		return fmt.Errorf("reports.passing_grade must be within 0-100, got %v", c.Reports.PassingGrade)
	}
	if c.Reports.OutlierSD <= 0 {
		return fmt.Errorf("reports.outlier_sd must be positive, got %v", c.Reports.OutlierSD)
	}
	if c.Reports.Percentile <= 0 || c.Reports.Percentile > 50 {
		return fmt.Errorf("reports.percentile must be within (0, 50], got %v", c.Reports.Percentile)
	}

	w := c.Grading.Weights
	for name, v := range map[string]float64{"quiz": w.Quiz, "midterm": w.Midterm, "final": w.Final, "attendance": w.Attendance} {
		if v < 0 {
			return fmt.Errorf("grading.weights.%s must not be negative", name)
		}
	}
	if sum := w.Quiz + w.Midterm + w.Final + w.Attendance; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("grading.weights must sum to 1, got %v", sum)
	}

	k := c.Grading.Cutoffs
	if !(k.A > k.B && k.B > k.C && k.C > k.D && k.D >= 0) {
		return fmt.Errorf("grading.cutoffs must be strictly descending: A=%v B=%v C=%v D=%v", k.A, k.B, k.C, k.D)
	}
	return nil
}
