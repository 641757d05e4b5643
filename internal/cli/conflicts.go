package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List detected scheduling conflicts",
	RunE:  runConflicts,
}

func runConflicts(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	conflicts, err := s.ListConflicts(projectFlag)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		fmt.Println("No conflicts. Run: critpath plan to refresh.")
		return nil
	}

	for _, c := range conflicts {
		res := ""
		if c.ResourceID != "" {
			res = fmt.Sprintf(" [%s]", c.ResourceID)
		}
		fmt.Printf("%s%-10s%s %-24s%s %s\n",
			severityColor(c.Severity), strings.ToUpper(c.Severity), colorReset,
			c.Kind, res, c.Message)
		if len(c.TaskIDs) > 0 {
			fmt.Printf("           tasks: %s\n", strings.Join(c.TaskIDs, ", "))
		}
	}
	fmt.Printf("\n%d conflict(s). Run: critpath reschedule to attempt repair.\n", len(conflicts))
	return nil
}

func severityColor(severity string) string {
	switch severity {
	case "critical":
		return colorRed + colorBold
	case "high":
		return colorRed
	case "medium":
		return colorYellow
	case "low":
		return colorDim
	default:
		return ""
	}
}
