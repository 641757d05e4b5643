package cli

import (
	"fmt"

	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/spf13/cobra"
)

var rescheduleDryRun bool

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Auto-resolve conflicts by moving tasks",
	Long: "Recomputes the schedule and attempts to repair conflicts: pinned tasks with\n" +
		"violated constraints are handed back to the scheduler, and over-allocated\n" +
		"resources are leveled by delaying low-priority tasks with slack. Critical\n" +
		"tasks are never delayed.",
	RunE: runReschedule,
}

func init() {
	rescheduleCmd.Flags().BoolVarP(&rescheduleDryRun, "dry-run", "n", false, "Show moves without saving")
}

func runReschedule(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := loadSnapshot(s)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	res, out, err := engine.New(engine.WithWeights(cfg.HealthWeights)).Reschedule(snap)
	if err != nil {
		return err
	}

	if len(res.UpdatedTasks) == 0 {
		fmt.Println("Nothing to move: schedule is already consistent.")
	}
	for _, m := range res.UpdatedTasks {
		fmt.Printf("Moved %-12s %s -> %s\n", m.TaskID, formatDate(m.OldStart), formatDate(m.NewStart))
	}
	if res.ConflictsResolved > 0 {
		fmt.Printf("%sResolved %d conflict(s)%s\n", colorGreen, res.ConflictsResolved, colorReset)
	}
	for _, c := range res.UnresolvedConflicts {
		fmt.Printf("%sunresolved%s %s: %s\n", colorRed, colorReset, c.Kind, c.Message)
	}

	if rescheduleDryRun {
		fmt.Println("Dry run: nothing saved.")
		return nil
	}

	if err := s.ApplyReschedule(projectFlag, res); err != nil {
		return err
	}
	for _, ev := range engine.CommitEvents(projectFlag, res) {
		logEvent(s, ev)
	}

	fmt.Printf("Saved. Health score: %.0f\n", out.Stats.TimelineHealthScore)
	return nil
}
