package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"gradebook/cmd/gradebook/ui"
	"gradebook/internal/config"
	"gradebook/internal/grade"
	"gradebook/internal/logging"
	"gradebook/internal/report"
	"gradebook/internal/store"
)

// app bundles what every command needs: resolved config, the roster store
// and the grading engine.
type app struct {
	workspace  string
	configPath string
	cfg        *config.Config
	store      *store.Store
	engine     *grade.Engine
	exporter   *report.Exporter
	styles     ui.Styles
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

func resolveConfigPath(ws string) string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath(ws)
}

// newApp loads configuration and opens the roster. Flags win over config.
func newApp() (*app, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}

	path := resolveConfigPath(ws)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if rosterFile != "" {
		cfg.Data.File = rosterFile
	}
	cfg.Resolve(ws)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := logging.Initialize(ws, cfg.Logging.ToLogging()); err != nil {
		return nil, err
	}
	logging.Boot("workspace=%s roster=%s", ws, cfg.Data.File)
	if logger != nil {
		logger.Debug("Resolved configuration",
			zap.String("workspace", ws),
			zap.String("roster", cfg.Data.File),
			zap.String("reports", cfg.Reports.OutDir))
	}

	return &app{
		workspace:  ws,
		configPath: path,
		cfg:        cfg,
		store:      store.Open(cfg.Data.File),
		engine:     cfg.Grading.Engine(),
		exporter:   report.NewExporter(cfg.Reports.OutDir),
		styles:     ui.DefaultStyles(),
	}, nil
}

// rows loads the roster and grades it. Rows that fail validation are left
// out; callers that report them use store.Load directly.
func (a *app) rows() ([]report.Row, error) {
	recs, err := a.store.Records()
	if err != nil {
		return nil, err
	}
	return report.Enrich(recs, a.engine), nil
}
