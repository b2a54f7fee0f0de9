package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"gradebook/cmd/gradebook/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the graded roster in a scrollable table",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, rows, err := loadRows()
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		ui.NewBrowserModel(rows, a.store.Path()),
		tea.WithAltScreen(),
		tea.WithContext(commandContext(cmd)),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
