package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foundry/pkg/models"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "chat <project-id> [message...]",
		Short: "Ask the project assistant; it may change tasks for you",
		Long: `Send a message to the project assistant. The assistant sees every
department, task, status and dependency, and can create, rename and delete
tasks, change statuses and add or remove dependencies.

With --history and no message, prints the conversation so far.`,
		Example: `  foundry chat 3f2a... "Add a task to Marketing for a launch video"
  foundry chat 3f2a... --history 20`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			projectID := args[0]

			if len(args) == 1 {
				msgs, err := orch.History(cmd.Context(), projectID, history)
				if err != nil {
					return err
				}
				printHistory(cmd, msgs)
				return nil
			}

			turn, err := orch.HandleUserMessage(cmd.Context(), projectID, strings.Join(args[1:], " "))
			if err != nil {
				return backendError(err)
			}
			renderToolResults(out, turn.ToolResults)
			fmt.Fprintln(out, turn.Reply)
			printUsage(cmd.ErrOrStderr(), a.usage)
			return nil
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "Number of recent messages to print when no message is given (0 = all)")
	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "ask <task-id> [message...]",
		Short: "Ask the assistant about one task",
		Long: `Ask for help with a single task. The assistant knows the task, its
department, and which dependencies are still incomplete. It never changes
anything.

With no message, prints the task's conversation so far.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ta, err := a.taskAssistant()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				msgs, err := ta.History(cmd.Context(), args[0], history)
				if err != nil {
					return err
				}
				printHistory(cmd, msgs)
				return nil
			}

			reply, err := ta.Ask(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return backendError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			printUsage(cmd.ErrOrStderr(), a.usage)
			return nil
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "Number of recent messages to print when no message is given (0 = all)")
	return cmd
}

func printHistory(cmd *cobra.Command, msgs []models.ChatMessage) {
	out := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintln(out, dimStyle.Render("(no messages)"))
		return
	}
	for _, m := range msgs {
		who := "you"
		if m.Role == models.ChatRoleAssistant {
			who = "assistant"
		}
		fmt.Fprintf(out, "%s %s\n%s\n\n", headerStyle.Render(who), dimStyle.Render(m.CreatedAt.Local().Format("2006-01-02 15:04")), m.Content)
	}
}
