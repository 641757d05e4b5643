package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vkmindia80/critpath/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize critpath in the current directory",
	Long:  "Creates a .critpath/ directory with default config, database, and a default project.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := critpathDirName

	// Check if already initialized.
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("critpath already initialized in this directory (.critpath/ exists)")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create .critpath: %w", err)
	}

	// Write default config.
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := config.DefaultConfig()
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Create database by opening store (migration runs automatically).
	dbPath := filepath.Join(dir, "critpath.db")
	s, err := openStore(dbPath)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer s.Close()

	if _, err := s.CreateProject("default", "Default project", cfg.Unit); err != nil {
		return fmt.Errorf("create default project: %w", err)
	}

	fmt.Println("Initialized critpath in .critpath/")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit .critpath/config.yaml to set resource capacities")
	fmt.Println("  2. Run: critpath task add t1 \"First task\" --duration 8")
	fmt.Println("  3. Run: critpath plan")

	return nil
}
