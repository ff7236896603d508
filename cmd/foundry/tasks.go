package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foundry/internal/tracker"
	"github.com/ShayCichocki/foundry/pkg/models"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <department-id>",
		Short: "Show a department's tasks in dependency order",
		Long: `Show a department's tasks ordered so every task follows the tasks it
depends on. Blocked tasks list the incomplete tasks holding them up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			board, err := a.tracker.DepartmentBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderBoard(cmd.OutOrStdout(), board)
			return nil
		},
	}
}

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Change a single task",
	}
	cmd.AddCommand(
		newTaskAddCmd(opts),
		newTaskEditCmd(opts),
		newTaskStatusCmd(opts),
		newTaskStartCmd(opts),
		newTaskAddDepCmd(opts),
		newTaskRmDepCmd(opts),
		newTaskDeleteCmd(opts),
	)
	return cmd
}

func newTaskAddCmd(opts *rootOptions) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <department-id> <title>",
		Short: "Add a pending task to a department",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.tracker.CreateTask(cmd.Context(), args[0], args[1], description)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Created task %q (%s)", task.Title, task.ID), color.FgGreen)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description (required)")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newTaskEditCmd(opts *rootOptions) *cobra.Command {
	var (
		title       string
		description string
	)
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			task, err := a.tracker.GetTask(ctx, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				task.Title = title
			}
			if cmd.Flags().Changed("description") {
				task.Description = description
			}
			task, err = a.tracker.UpdateTask(ctx, task.ID, task.Title, task.Description)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Updated task %q", task.Title), color.FgGreen)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newTaskStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "status <task-id> <pending|in_progress|completed>",
		Short:     "Set a task's status",
		Long:      "Set a task's status. A task cannot be started or completed while a task it depends on is incomplete.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.TaskStatusPending), string(models.TaskStatusInProgress), string(models.TaskStatusCompleted)},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseTaskStatus(args[1])
			if err != nil {
				return fmt.Errorf("%q: %w", args[1], err)
			}
			return setStatus(cmd, opts, args[0], func(ctx context.Context, svc *tracker.Service, id string) (models.Task, error) {
				return svc.SetTaskStatus(ctx, id, status)
			})
		},
	}
}

func newTaskStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Move a task to in_progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatus(cmd, opts, args[0], func(ctx context.Context, svc *tracker.Service, id string) (models.Task, error) {
				return svc.StartTask(ctx, id)
			})
		},
	}
}

// setStatus runs a guarded status change and prints the result.
func setStatus(cmd *cobra.Command, opts *rootOptions, taskID string, apply func(context.Context, *tracker.Service, string) (models.Task, error)) error {
	a, err := opts.open(false)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := apply(cmd.Context(), a.tracker, taskID)
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), statusIcon(task.Status), fmt.Sprintf("%s is now %s", task.Title, task.Status), color.FgGreen)
	return nil
}

func newTaskAddDepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-dep <task-id> <depends-on-task-id>",
		Short: "Make a task depend on another task in the same project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tracker.AddDependency(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("%s now depends on %s", args[0], args[1]), color.FgGreen)
			return nil
		},
	}
}

func newTaskRmDepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-dep <task-id> <depends-on-task-id>",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tracker.RemoveDependency(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("%s no longer depends on %s", args[0], args[1]), color.FgGreen)
			return nil
		},
	}
}

func newTaskDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <task-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its dependencies",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tracker.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), "✓", "Deleted task "+args[0], color.FgGreen)
			return nil
		},
	}
}
