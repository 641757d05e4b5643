package cli

import (
	"github.com/spf13/cobra"
)

var projectFlag string

var rootCmd = &cobra.Command{
	Use:   "critpath",
	Short: "Dependency-aware project scheduling",
	Long: "critpath — a CLI scheduling engine for task graphs.\n" +
		"Model tasks and dependencies, compute the critical path, and let the\n" +
		"auto-scheduler repair conflicts.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "P", "default", "Project ID to operate on")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(depCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(rescheduleCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
