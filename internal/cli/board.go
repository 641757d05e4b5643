package cli

import (
	"fmt"
	"strings"

	"github.com/vkmindia80/critpath/internal/cpm"
	"github.com/spf13/cobra"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorWhite   = "\033[37m"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the project timeline",
	Long:  "Renders the computed schedule as a text Gantt chart. Critical tasks are highlighted.",
	RunE:  runBoard,
}

const ganttWidth = 48

func runBoard(cmd *cobra.Command, args []string) error {
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

	if len(out.Timing) == 0 {
		fmt.Printf("%sNothing scheduled.%s Run: %scritpath task add%s first.\n",
			colorDim, colorReset, colorCyan, colorReset)
		return nil
	}

	// Project window for scaling bars.
	minStart := out.Timing[0].EarliestStart
	maxFinish := out.Timing[0].EarliestFinish
	for _, row := range out.Timing {
		if row.EarliestStart < minStart {
			minStart = row.EarliestStart
		}
		if row.EarliestFinish > maxFinish {
			maxFinish = row.EarliestFinish
		}
	}
	span := maxFinish - minStart
	if span <= 0 {
		span = 1
	}

	fmt.Printf("%s%-12s %-10s %s%s\n", colorBold, "TASK", "START", "TIMELINE", colorReset)
	fmt.Println(colorDim + strings.Repeat("─", 12+1+10+1+ganttWidth) + colorReset)

	byID := make(map[string]cpm.Timing, len(out.Timing))
	for _, row := range out.Timing {
		byID[row.TaskID] = row
	}

	// Walk stored outline order so the chart matches the task list.
	tasks, err := s.ListTasks(projectFlag)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		row, ok := byID[t.ID]
		if !ok {
			continue
		}
		bar := ganttBar(row, minStart, span)
		color := colorBlue
		switch {
		case row.IsCritical:
			color = colorRed + colorBold
		case t.IsSummary:
			color = colorMagenta
		case t.PercentComplete >= 100:
			color = colorGreen
		}
		fmt.Printf("%-12s %-10s %s%s%s\n",
			truncate(t.ID, 12),
			cpm.FromMinutes(row.EarliestStart).Format("2006-01-02"),
			color, bar, colorReset)
	}

	// Legend and summary.
	fmt.Println()
	fmt.Printf("%s█ critical%s  %s█ scheduled%s  %s█ summary%s  %s█ done%s\n",
		colorRed, colorReset, colorBlue, colorReset, colorMagenta, colorReset, colorGreen, colorReset)
	fmt.Printf("%sProject:%s %s -> %s",
		colorBold, colorReset,
		cpm.FromMinutes(minStart).Format("2006-01-02"),
		cpm.FromMinutes(maxFinish).Format("2006-01-02"))
	if n := len(out.Conflicts); n > 0 {
		fmt.Printf("  %s⚠ %d conflict(s)%s", colorRed, n, colorReset)
	}
	fmt.Println()

	return nil
}

// ganttBar maps a task's window onto the chart width. Milestones and
// other zero-length tasks render as a single diamond.
func ganttBar(row cpm.Timing, minStart, span int64) string {
	lead := int((row.EarliestStart - minStart) * ganttWidth / span)
	length := int((row.EarliestFinish - row.EarliestStart) * ganttWidth / span)
	if lead >= ganttWidth {
		lead = ganttWidth - 1
	}
	if length <= 0 {
		return strings.Repeat(" ", lead) + "◆"
	}
	if lead+length > ganttWidth {
		length = ganttWidth - lead
	}
	return strings.Repeat(" ", lead) + strings.Repeat("█", length)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
