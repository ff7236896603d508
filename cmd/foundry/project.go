package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foundry/internal/planner"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Create, inspect and plan projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(opts),
		newProjectListCmd(opts),
		newProjectShowCmd(opts),
		newProjectGenerateCmd(opts),
		newProjectImportCmd(opts),
		newProjectExportCmd(opts),
		newProjectDeleteCmd(opts),
	)
	return cmd
}

func newProjectCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		idea     string
		generate bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Example: `  foundry project create Acme --idea "Drone delivery for groceries"
  foundry project create Acme --idea "Drone delivery for groceries" --generate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			project, err := a.tracker.CreateProject(cmd.Context(), args[0], idea)
			if err != nil {
				return err
			}
			printStatus(out, "✓", fmt.Sprintf("Created project %s (%s)", project.Name, project.ID), color.FgGreen)

			if !generate {
				return nil
			}
			if strings.TrimSpace(idea) == "" {
				return fmt.Errorf("--generate needs --idea")
			}
			return generatePlan(cmd, a, project.ID, idea)
		},
	}
	cmd.Flags().StringVar(&idea, "idea", "", "The startup idea; stored as the project description")
	cmd.Flags().BoolVar(&generate, "generate", false, "Generate departments and tasks from the idea")
	return cmd
}

func generatePlan(cmd *cobra.Command, a *app, projectID, idea string) error {
	p, err := a.planner()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	result, err := p.Generate(cmd.Context(), projectID, idea)
	if err != nil {
		return backendError(err)
	}
	for _, d := range result.Departments {
		printStatus(out, "✓", fmt.Sprintf("%s: %d tasks, %d dependencies", d.Name, d.TaskCount, d.DependencyCount), color.FgGreen)
	}
	fmt.Fprintln(out, result.Message)
	printUsage(cmd.ErrOrStderr(), a.usage)
	return nil
}

func newProjectListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.tracker.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects. Run 'foundry project create <name>' to start.")
				return nil
			}
			for _, p := range projects {
				fmt.Fprintf(out, "%s  %s  %s\n", p.ID, headerStyle.Render(p.Name), dimStyle.Render(p.CreatedAt.Local().Format("2006-01-02 15:04")))
			}
			return nil
		},
	}
}

func newProjectShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with every department board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			overview, err := a.tracker.ProjectOverview(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			renderOverview(out, overview)
			for _, d := range overview.Departments {
				board, err := a.tracker.DepartmentBoard(ctx, d.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				renderBoard(out, board)
			}
			return nil
		},
	}
}

func newProjectGenerateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <project-id> <idea...>",
		Short: "Generate departments and tasks for an existing project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			return generatePlan(cmd, a, args[0], strings.Join(args[1:], " "))
		},
	}
}

func newProjectImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <project-id> <plan.yaml>",
		Short: "Create departments and tasks from a YAML plan",
		Long: `Import a plan file into a project without calling the generation backend.

A plan lists departments, each with tasks in order. depends_on holds 0-based
indexes of earlier tasks in the same department:

  departments:
    - name: Development
      tasks:
        - title: Design schema
          description: Tables and indexes
        - title: Build API
          description: REST endpoints
          depends_on: [0]`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := planner.LoadPlanFile(args[1])
			if err != nil {
				return err
			}
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			p := planner.New(planner.Config{Store: a.db, Logger: a.logger.Logger})
			result, err := p.Apply(cmd.Context(), args[0], plan)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range result.Departments {
				printStatus(out, "✓", fmt.Sprintf("%s: %d tasks, %d dependencies", d.Name, d.TaskCount, d.DependencyCount), color.FgGreen)
			}
			return nil
		},
	}
}

func newProjectExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Write a project's departments and tasks as a YAML plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := planner.Export(cmd.Context(), a.db, args[0])
			if err != nil {
				return err
			}
			if output != "" {
				if err := planner.WritePlanFile(output, plan); err != nil {
					return err
				}
				printStatus(cmd.ErrOrStderr(), "✓", "Wrote "+output, color.FgGreen)
				return nil
			}
			data, err := planner.MarshalPlan(plan)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newProjectDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project with its departments, tasks and chat history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tracker.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", "Deleted project "+args[0], color.FgGreen)
			return nil
		},
	}
}
