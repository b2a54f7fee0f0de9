package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gradebook/internal/logging"
	"gradebook/internal/report"
)

var watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a summary line every time the roster file changes",
	Long: `Watches the roster file and re-grades it after every change, printing the
number of valid and skipped rows and the class average. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, a.styles.Muted.Render("Watching "+a.store.Path()+" (Ctrl+C to stop)"))
	printStatus(out, a)
	return watchRoster(ctx, a.store.Path(), watchDebounce, func() { printStatus(out, a) })
}

// printStatus writes one line describing the roster's current state.
func printStatus(w io.Writer, a *app) {
	res, err := a.store.Load()
	if err != nil {
		fmt.Fprintf(w, "%s %s\n", time.Now().Format("15:04:05"), a.styles.Warning.Render(err.Error()))
		return
	}
	rows := report.Enrich(res.Valid, a.engine)
	fmt.Fprintf(w, "%s %s\n", time.Now().Format("15:04:05"), statusLine(rows, len(res.Rejected), a.cfg.Reports.PassingGrade))
}

func statusLine(rows []report.Row, rejected int, passing float64) string {
	line := fmt.Sprintf("%d valid, %d skipped", len(rows), rejected)
	sum, ok := report.Summarize(rows)
	if !ok {
		return line + ", no grades"
	}
	return fmt.Sprintf("%s, average %.2f, %d at risk", line, sum.Mean, len(report.AtRisk(rows, passing)))
}

// watchRoster calls onChange after the file at path settles following a
// write, create, rename or remove. The directory is watched rather than the
// file so rewrites that rename a temp file over the roster are seen. It
// returns when ctx is done.
func watchRoster(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op == fsnotify.Chmod {
				continue
			}
			logging.StoreDebug("watch: %s %s", event.Op, event.Name)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Warn("Watcher error", zap.Error(err))
			}

		case <-timer.C:
			onChange()
		}
	}
}
