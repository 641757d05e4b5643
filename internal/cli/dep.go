package cli

import (
	"fmt"

	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/vkmindia80/critpath/internal/graph"
	"github.com/spf13/cobra"
)

var (
	depType    string
	depLag     float64
	depLagUnit string
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage dependencies between tasks",
}

var depAddCmd = &cobra.Command{
	Use:   "add [predecessor] [successor]",
	Short: "Add a dependency edge",
	Long: "Links two tasks. Types: FS (finish-to-start, default), SS, FF, SF.\n" +
		"Legacy long names like finish_to_start are accepted and normalized.",
	Args: cobra.ExactArgs(2),
	RunE: runDepAdd,
}

var depListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dependencies",
	RunE:  runDepList,
}

var depRmCmd = &cobra.Command{
	Use:   "rm [predecessor] [successor]",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE:  runDepRm,
}

func init() {
	depAddCmd.Flags().StringVarP(&depType, "type", "t", "FS", "Dependency type: FS, SS, FF, SF")
	depAddCmd.Flags().Float64VarP(&depLag, "lag", "l", 0, "Lag (negative for lead)")
	depAddCmd.Flags().StringVar(&depLagUnit, "lag-unit", "hours", "Lag unit: hours or days")

	depRmCmd.Flags().StringVarP(&depType, "type", "t", "FS", "Dependency type: FS, SS, FF, SF")

	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depListCmd)
	depCmd.AddCommand(depRmCmd)
}

func runDepAdd(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	dt, err := graph.ParseDepType(depType)
	if err != nil {
		return err
	}
	unit, err := graph.ParseUnit(depLagUnit)
	if err != nil {
		return err
	}

	e := graph.Edge{
		PredecessorID: args[0],
		SuccessorID:   args[1],
		Type:          dt,
		Lag:           depLag,
		LagUnit:       unit,
	}
	if err := s.AddDependency(projectFlag, e); err != nil {
		return err
	}
	logEvent(s, engine.DependencyEvent(projectFlag, e))

	lag := ""
	if depLag != 0 {
		lag = fmt.Sprintf(" lag %.1f %s", depLag, unit)
	}
	fmt.Printf("Added dependency %s -> %s (%s)%s\n", args[0], args[1], dt, lag)
	return nil
}

func runDepList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	edges, err := s.ListDependencies(projectFlag)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		fmt.Println("No dependencies found.")
		return nil
	}

	for _, e := range edges {
		lag := ""
		if e.Lag != 0 {
			lag = fmt.Sprintf("  lag %.1f %s", e.Lag, e.LagUnit)
		}
		fmt.Printf("%-12s -> %-12s %s%s\n", e.PredecessorID, e.SuccessorID, e.Type, lag)
	}
	return nil
}

func runDepRm(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	dt, err := graph.ParseDepType(depType)
	if err != nil {
		return err
	}
	if err := s.DeleteDependency(projectFlag, args[0], args[1], dt); err != nil {
		return err
	}
	logEvent(s, engine.DependencyEvent(projectFlag, graph.Edge{
		PredecessorID: args[0],
		SuccessorID:   args[1],
		Type:          dt,
	}))
	fmt.Printf("Removed dependency %s -> %s (%s)\n", args[0], args[1], dt)
	return nil
}
