package cli

import (
	"fmt"
	"os"

	"github.com/vkmindia80/critpath/internal/engine"
	"github.com/vkmindia80/critpath/internal/graph"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the project as a JSON snapshot",
	Long:  "Writes the project's tasks and dependencies as JSON. Dependency types are emitted as two-letter codes.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSON snapshot into the project",
	Long: "Reads a snapshot file and replaces the project's tasks and dependencies.\n" +
		"Dependency types may use codes (FS, SS, FF, SF) or legacy long names.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := loadConfig()
	snap, err := s.Snapshot(projectFlag, cfg.Capacity())
	if err != nil {
		return err
	}

	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	fmt.Printf("Exported %d task(s) and %d dependency(ies) to %s\n",
		len(snap.Tasks), len(snap.Dependencies), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := engine.ParseSnapshot(data)
	if err != nil {
		return err
	}

	if _, err := s.GetProject(projectFlag); err != nil {
		if _, err := s.CreateProject(projectFlag, projectFlag, snap.Unit); err != nil {
			return err
		}
	}
	if !snap.ProjectStart.IsZero() || !snap.Deadline.IsZero() {
		if err := s.SetProjectDates(projectFlag, snap.ProjectStart, snap.Deadline); err != nil {
			return err
		}
	}

	for i, t := range snap.Tasks {
		t.ProjectID = projectFlag
		if err := s.UpsertTask(t, i); err != nil {
			return err
		}
	}
	for _, d := range snap.Dependencies {
		dt, err := graph.ParseDepType(d.Type)
		if err != nil {
			return err
		}
		unit, err := graph.ParseUnit(d.LagUnit)
		if err != nil {
			return err
		}
		e := graph.Edge{
			PredecessorID: d.PredecessorID,
			SuccessorID:   d.SuccessorID,
			Type:          dt,
			Lag:           d.Lag,
			LagUnit:       unit,
		}
		if err := s.AddDependency(projectFlag, e); err != nil {
			return err
		}
	}

	fmt.Printf("Imported %d task(s) and %d dependency(ies) into project %s\n",
		len(snap.Tasks), len(snap.Dependencies), projectFlag)
	fmt.Println("Run: critpath plan")
	return nil
}
