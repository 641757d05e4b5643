package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	projectUnit     string
	projectStart    string
	projectDeadline string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create and manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [id] [name]",
	Short: "Create a new project",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectList,
}

var projectDatesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Set the project start and deadline",
	RunE:  runProjectDates,
}

func init() {
	projectCreateCmd.Flags().StringVarP(&projectUnit, "unit", "u", "hours", "Duration unit: hours or days")

	projectDatesCmd.Flags().StringVar(&projectStart, "start", "", "Project start date (YYYY-MM-DD)")
	projectDatesCmd.Flags().StringVar(&projectDeadline, "deadline", "", "Project deadline (YYYY-MM-DD)")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectDatesCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id := args[0]
	name := id
	if len(args) > 1 {
		name = strings.Join(args[1:], " ")
	}

	p, err := s.CreateProject(id, name, projectUnit)
	if err != nil {
		return err
	}

	fmt.Printf("Created project %s: %s [%s]\n", p.ID, p.Name, p.Unit)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projects, err := s.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	for _, p := range projects {
		fmt.Printf("%-16s %-8s start %-16s deadline %-16s %s\n",
			p.ID, p.Unit, formatDate(p.ProjectStart), formatDate(p.Deadline), p.Name)
	}
	return nil
}

func runProjectDates(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := parseDate(projectStart)
	if err != nil {
		return err
	}
	deadline, err := parseDate(projectDeadline)
	if err != nil {
		return err
	}

	if err := s.SetProjectDates(projectFlag, start, deadline); err != nil {
		return err
	}

	fmt.Printf("Project %s: start %s, deadline %s\n", projectFlag, formatDate(start), formatDate(deadline))
	return nil
}
