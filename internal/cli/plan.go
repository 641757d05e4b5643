package cli

import (
	"errors"
	"fmt"

	"github.com/vkmindia80/critpath/internal/conflict"
	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/vkmindia80/critpath/internal/graph"
	"github.com/vkmindia80/critpath/internal/store"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the schedule and critical path",
	Long:  "Runs validation, cycle detection, the forward and backward passes, and conflict detection, then stores the result.",
	RunE:  runPlan,
}

// coordinator serializes recomputes per project. A CLI run is
// single-shot, but the TUI shares this path and refreshes on a timer.
var coordinator *engine.Coordinator

// sched returns the shared coordinator, built once with the configured
// health weights.
func sched() *engine.Coordinator {
	if coordinator == nil {
		cfg := loadConfig()
		coordinator = engine.NewCoordinator(engine.New(engine.WithWeights(cfg.HealthWeights)))
	}
	return coordinator
}

// loadSnapshot assembles the scheduling input for the active project.
func loadSnapshot(s *store.Store) (*engine.Snapshot, error) {
	cfg := loadConfig()
	snap, err := s.Snapshot(projectFlag, cfg.Capacity())
	if err != nil {
		return nil, err
	}
	if len(snap.Tasks) == 0 {
		return nil, fmt.Errorf("project %q has no tasks", projectFlag)
	}
	return snap, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
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
		var cerr *graph.CycleError
		if errors.As(err, &cerr) {
			c := conflict.FromCycle(cerr.Cycle)
			if serr := s.ReplaceConflicts(projectFlag, []conflict.Conflict{c}); serr != nil {
				return serr
			}
			fmt.Printf("%sCannot schedule: dependency cycle%s\n", colorRed+colorBold, colorReset)
			fmt.Printf("  %s\n", c.Message)
			return err
		}
		return err
	}

	if err := s.SaveSchedule(projectFlag, out.Timing); err != nil {
		return err
	}
	if err := s.ReplaceConflicts(projectFlag, out.Conflicts); err != nil {
		return err
	}

	printSchedule(out)
	return nil
}

func printSchedule(out *engine.Output) {
	fmt.Printf("%-12s %-16s %-16s %7s  %s\n", "TASK", "START", "FINISH", "SLACK", "")
	for _, row := range out.Timing {
		mark := ""
		if row.IsCritical {
			mark = colorRed + "critical" + colorReset
		}
		fmt.Printf("%-12s %-16s %-16s %6.1fd  %s\n",
			row.TaskID,
			cpm.FromMinutes(row.EarliestStart).Format("2006-01-02 15:04"),
			cpm.FromMinutes(row.EarliestFinish).Format("2006-01-02 15:04"),
			float64(row.Slack)/(24*60),
			mark,
		)
	}

	if len(out.CriticalPath) > 0 {
		fmt.Printf("\n%sCritical path:%s %s\n", colorBold, colorReset, joinArrow(out.CriticalPath))
	}
	for _, w := range out.Warnings {
		fmt.Printf("%swarning:%s %s\n", colorYellow, colorReset, w.Msg)
	}
	if n := len(out.Conflicts); n > 0 {
		fmt.Printf("%s%d conflict(s) detected%s. Run: critpath conflicts\n", colorRed, n, colorReset)
	}
}

func joinArrow(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " -> "
		}
		out += id
	}
	return out
}
