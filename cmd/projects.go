package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/model"
)

var (
	projectsEditName string
	projectsEditCode string
	projectsDelYes   bool
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "List and manage projects",
	Args:    cobra.NoArgs,
	RunE:    runProjectsList,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add NAME CODE",
	Short: "Create a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectsAdd,
}

var projectsEditCmd = &cobra.Command{
	Use:   "edit PROJECT",
	Short: "Change a project's name or code",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsEdit,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT",
	Short: "Delete a project together with its work logs",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	projectsEditCmd.Flags().StringVar(&projectsEditName, "name", "", "New name")
	projectsEditCmd.Flags().StringVar(&projectsEditCode, "code", "", "New code")
	projectsDeleteCmd.Flags().BoolVarP(&projectsDelYes, "yes", "y", false, "Do not ask for confirmation")
	projectsCmd.AddCommand(projectsAddCmd, projectsEditCmd, projectsDeleteCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	projects, err := a.tracker.ListProjects(ctx)
	if err != nil {
		exitOn(err)
	}
	printProjects(os.Stdout, projects)
	return nil
}

func printProjects(w io.Writer, projects []model.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}
	for _, p := range projects {
		fmt.Fprintf(w, "%-10s %-30s %s  %s\n", p.Code, p.Name, p.Color, p.ID)
	}
}

func runProjectsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	p, err := a.tracker.CreateProject(ctx, args[0], args[1])
	if err != nil {
		exitOn(err)
	}
	fmt.Printf("Created %s (%s)\n", p.Label(), p.Color)
	return nil
}

func runProjectsEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	projects, err := a.tracker.ListProjects(ctx)
	if err != nil {
		exitOn(err)
	}
	p, err := resolveProject(projects, args[0])
	if err != nil {
		exitOn(fmt.Errorf("%w: %w", model.ErrValidation, err))
	}

	name, code := p.Name, p.Code
	if cmd.Flags().Changed("name") {
		name = projectsEditName
	}
	if cmd.Flags().Changed("code") {
		code = projectsEditCode
	}
	updated, err := a.tracker.UpdateProject(ctx, p.ID, name, code)
	if err != nil {
		exitOn(err)
	}
	fmt.Printf("Updated %s\n", updated.Label())
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	projects, err := a.tracker.ListProjects(ctx)
	if err != nil {
		exitOn(err)
	}
	p, err := resolveProject(projects, args[0])
	if err != nil {
		exitOn(fmt.Errorf("%w: %w", model.ErrValidation, err))
	}

	if !projectsDelYes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete %s and all of its work logs?", p.Label())) {
		fmt.Println("Aborted.")
		return nil
	}
	if err := a.tracker.DeleteProject(ctx, p.ID); err != nil {
		exitOn(err)
	}
	fmt.Printf("Deleted %s\n", p.Label())
	return nil
}

// confirm asks a yes/no question; only an explicit y or yes counts.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
