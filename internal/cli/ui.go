package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vkmindia80/critpath/internal/tui"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive dashboard",
	Long:  "Opens an interactive dashboard showing the timeline, conflicts, and project health.",
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}

	cfg := loadConfig()
	model := tui.New(s, sched(), projectFlag, cfg.Capacity())
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err = p.Run()
	s.Close()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
