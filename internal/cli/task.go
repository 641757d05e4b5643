package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/vkmindia80/critpath/internal/graph"
	"github.com/spf13/cobra"
)

var (
	taskDuration  float64
	taskStart     string
	taskFinish    string
	taskPriority  string
	taskAssignees []string
	taskLevel     int
	taskSummary   bool
	taskMilestone bool
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create or manage tasks",
	Long:  "Create a new task or manage existing ones in the project graph.",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [id] [name]",
	Short: "Add a task to the project",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in outline order",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskPinCmd = &cobra.Command{
	Use:   "pin [id] [start] [finish]",
	Short: "Pin a task to fixed dates",
	Long:  "Pins a task's dates. The auto-scheduler will not move a pinned task without reporting a conflict.",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runTaskPin,
}

var taskUnpinCmd = &cobra.Command{
	Use:   "unpin [id]",
	Short: "Return a task to automatic scheduling",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUnpin,
}

var taskProgressCmd = &cobra.Command{
	Use:   "progress [id] [percent]",
	Short: "Record completion progress on a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskProgress,
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign [id] [resource...]",
	Short: "Assign resources to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskAssign,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Remove a task and its dependencies",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

func init() {
	taskAddCmd.Flags().Float64VarP(&taskDuration, "duration", "d", 0, "Duration in the project unit")
	taskAddCmd.Flags().StringVar(&taskStart, "start", "", "Pinned start date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringVar(&taskFinish, "finish", "", "Pinned finish date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", "medium", "Priority: high, medium, low")
	taskAddCmd.Flags().StringSliceVarP(&taskAssignees, "assign", "a", nil, "Resource IDs to assign")
	taskAddCmd.Flags().IntVar(&taskLevel, "level", 0, "Outline level")
	taskAddCmd.Flags().BoolVar(&taskSummary, "summary", false, "Mark as a summary task")
	taskAddCmd.Flags().BoolVar(&taskMilestone, "milestone", false, "Mark as a milestone (zero duration)")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskPinCmd)
	taskCmd.AddCommand(taskUnpinCmd)
	taskCmd.AddCommand(taskProgressCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskRmCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := parseDate(taskStart)
	if err != nil {
		return err
	}
	finish, err := parseDate(taskFinish)
	if err != nil {
		return err
	}

	t := &graph.Task{
		ID:            args[0],
		ProjectID:     projectFlag,
		Name:          strings.Join(args[1:], " "),
		Duration:      taskDuration,
		StartDate:     start,
		FinishDate:    finish,
		OutlineLevel:  taskLevel,
		IsSummary:     taskSummary,
		IsMilestone:   taskMilestone,
		Priority:      taskPriority,
		AssigneeIDs:   taskAssignees,
		AutoScheduled: start.IsZero() && finish.IsZero(),
	}

	seq, err := s.NextSeq(projectFlag)
	if err != nil {
		return err
	}
	if err := s.UpsertTask(t, seq); err != nil {
		return err
	}
	logEvent(s, engine.TaskEvent(engine.EventTaskCreated, projectFlag, t))

	pinned := ""
	if t.Pinned() {
		pinned = " (pinned)"
	}
	fmt.Printf("Added task %s: %s [%s]%s\n", t.ID, t.Name, t.Priority, pinned)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	tasks, err := s.ListTasks(projectFlag)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	for _, t := range tasks {
		indent := strings.Repeat("  ", t.OutlineLevel)
		kind := " "
		if t.IsSummary {
			kind = "S"
		} else if t.IsMilestone {
			kind = "M"
		}
		pin := " "
		if t.Pinned() {
			pin = "*"
		}
		fmt.Printf("%s%s%s %-12s %-6s %5.1f  %3.0f%%  %s\n",
			kind, pin, indent, t.ID, t.Priority, t.Duration, t.PercentComplete, t.Name)
	}
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.GetTask(projectFlag, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Task %s\n", t.ID)
	fmt.Printf("  Name:      %s\n", t.Name)
	fmt.Printf("  Duration:  %.1f\n", t.Duration)
	fmt.Printf("  Priority:  %s\n", t.Priority)
	fmt.Printf("  Progress:  %.0f%%\n", t.PercentComplete)
	fmt.Printf("  Start:     %s\n", formatDate(t.StartDate))
	fmt.Printf("  Finish:    %s\n", formatDate(t.FinishDate))
	fmt.Printf("  Scheduled: %s\n", scheduleMode(t))
	if sched, err := s.GetSchedule(projectFlag); err == nil {
		if row, ok := sched[t.ID]; ok {
			crit := ""
			if row.IsCritical {
				crit = " (critical)"
			}
			fmt.Printf("  Planned:   %s -> %s%s\n",
				formatDate(cpm.FromMinutes(row.EarliestStart)),
				formatDate(cpm.FromMinutes(row.EarliestFinish)), crit)
		}
	}
	if t.IsSummary {
		fmt.Printf("  Summary task (level %d)\n", t.OutlineLevel)
	}
	if t.IsMilestone {
		fmt.Printf("  Milestone\n")
	}
	if len(t.AssigneeIDs) > 0 {
		fmt.Printf("  Assigned:  %s\n", strings.Join(t.AssigneeIDs, ", "))
	}

	// Show dependencies touching this task.
	edges, err := s.ListDependencies(projectFlag)
	if err != nil {
		return err
	}
	var in, out []string
	for _, e := range edges {
		if e.SuccessorID == t.ID {
			in = append(in, fmt.Sprintf("%s (%s, lag %.1f)", e.PredecessorID, e.Type, e.Lag))
		}
		if e.PredecessorID == t.ID {
			out = append(out, fmt.Sprintf("%s (%s, lag %.1f)", e.SuccessorID, e.Type, e.Lag))
		}
	}
	if len(in) > 0 {
		fmt.Printf("  After:     %s\n", strings.Join(in, ", "))
	}
	if len(out) > 0 {
		fmt.Printf("  Before:    %s\n", strings.Join(out, ", "))
	}

	return nil
}

func scheduleMode(t *graph.Task) string {
	if t.Pinned() {
		return "manual (pinned)"
	}
	return "auto"
}

func runTaskPin(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := parseDate(args[1])
	if err != nil {
		return err
	}
	finish := start
	if len(args) > 2 {
		if finish, err = parseDate(args[2]); err != nil {
			return err
		}
	}

	if err := s.PinTask(projectFlag, args[0], start, finish); err != nil {
		return err
	}
	fmt.Printf("Pinned task %s to %s\n", args[0], formatDate(start))
	return nil
}

func runTaskUnpin(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.UnpinTask(projectFlag, args[0]); err != nil {
		return err
	}
	fmt.Printf("Task %s returned to automatic scheduling\n", args[0])
	return nil
}

func runTaskProgress(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	pct, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid percent: %s", args[1])
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("percent must be between 0 and 100")
	}

	if err := s.SetTaskProgress(projectFlag, args[0], pct); err != nil {
		return err
	}
	fmt.Printf("Task %s is %.0f%% complete\n", args[0], pct)
	return nil
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.AssignTask(projectFlag, args[0], args[1:]); err != nil {
		return err
	}
	fmt.Printf("Assigned task %s to %s\n", args[0], strings.Join(args[1:], ", "))
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.GetTask(projectFlag, args[0])
	if err != nil {
		return err
	}
	if err := s.DeleteTask(projectFlag, args[0]); err != nil {
		return err
	}
	logEvent(s, engine.TaskEvent(engine.EventTaskDeleted, projectFlag, t))
	fmt.Printf("Removed task %s and its dependencies\n", args[0])
	return nil
}
