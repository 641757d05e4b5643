package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show project health statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := loadSnapshot(s)
	if err != nil {
		return err
	}

	out, err := sched().Recompute(snap)
	if err != nil {
		return err
	}

	st := out.Stats
	fmt.Printf("Project %s\n", projectFlag)
	fmt.Printf("  Tasks:           %d (%d complete)\n", st.TotalTasks, st.CompletedTasks)
	fmt.Printf("  Completion:      %.1f%%\n", st.CompletionRate)
	fmt.Printf("  Overdue:         %d\n", st.OverdueCount)
	fmt.Printf("  Critical issues: %d\n", st.CriticalConflicts)
	fmt.Printf("  Health score:    %s%.0f/100%s\n", healthColor(st.TimelineHealthScore), st.TimelineHealthScore, colorReset)
	return nil
}

func healthColor(score float64) string {
	switch {
	case score >= 80:
		return colorGreen
	case score >= 50:
		return colorYellow
	default:
		return colorRed
	}
}
