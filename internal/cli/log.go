package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the project's event log",
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	events, err := s.GetEvents(projectFlag)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Printf("No events for project %s\n", projectFlag)
		return nil
	}

	fmt.Printf("Events for project %s:\n\n", projectFlag)
	for _, e := range events {
		fmt.Printf("  %s  %-20s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, truncate(e.Payload, 80))
	}
	return nil
}
