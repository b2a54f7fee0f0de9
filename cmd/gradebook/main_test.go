package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gradebook/internal/logging"
	"gradebook/internal/schema"
)

const sampleRoster = `student_id,last_name,first_name,section,quiz1,quiz2,quiz3,quiz4,quiz5,midterm,final,attendance_percent
S1,Lovelace,Ada,A,80,90,70,60,100,85,75,90
S2,Turing,Alan,B,50,50,50,50,50,60,60,70
S3,Hopper,Grace,A,none,none,none,none,none,none,none,none
S4,Bad1,Row,A,1,1,1,1,1,1,1,1
S5,Curie,Marie,B 2,95,95,95,95,95,95,95,100
`

// setupWorkspace points the global flags at a fresh workspace holding
// roster (skipped when empty).
func setupWorkspace(t *testing.T, roster string) string {
	t.Helper()

	for _, k := range []string{"GRADEBOOK_FILE", "GRADEBOOK_REPORTS_DIR", "GRADEBOOK_PASSING_GRADE", "GRADEBOOK_HISTORY_DB", "GRADEBOOK_DEBUG"} {
		t.Setenv(k, "")
	}

	logger = zap.NewNop()
	ws := t.TempDir()
	workspace = ws
	rosterFile = ""
	configPath = ""
	t.Cleanup(func() {
		workspace = ""
		rosterFile = ""
		configPath = ""
		logging.CloseAll()
	})

	if roster != "" {
		require.NoError(t, os.WriteFile(filepath.Join(ws, "studentRecord.csv"), []byte(roster), 0644))
	}
	return ws
}

func run(fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := fn(cmd, args)
	return buf.String(), err
}

func setAddValues(t *testing.T, values map[string]string) {
	t.Helper()
	for _, f := range schema.Fields() {
		*addValues[f.Name] = values[f.Name]
	}
	t.Cleanup(func() {
		for _, f := range schema.Fields() {
			*addValues[f.Name] = ""
		}
	})
}

func TestRootCommandTree(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"add", "list", "delete", "column", "show", "sort", "report", "section", "browse", "watch", "config"} {
		require.True(t, names[want], "missing command %s", want)
	}

	sub := make(map[string]bool)
	for _, c := range reportCmd.Commands() {
		sub[c.Name()] = true
	}
	for _, want := range []string{"summary", "distribution", "percentiles", "outliers", "improvement", "at-risk", "export", "snapshot", "history"} {
		require.True(t, sub[want], "missing report command %s", want)
	}
}
