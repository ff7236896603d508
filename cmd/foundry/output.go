package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/ShayCichocki/foundry/internal/api"
	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/tracker"
	"github.com/ShayCichocki/foundry/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blockStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.TaskStatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.TaskStatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.TaskStatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}
)

func okMark() string   { return color.GreenString("✓") }
func failMark() string { return color.RedString("✗") }

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

func statusIcon(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusCompleted:
		return "●"
	case models.TaskStatusInProgress:
		return "◐"
	default:
		return "○"
	}
}

func renderStatus(s models.TaskStatus) string {
	return statusStyles[s].Render(statusIcon(s) + " " + string(s))
}

// renderBoard prints a department's tasks in dependency order.
func renderBoard(w io.Writer, board *tracker.Board) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(board.Department.Name), dimStyle.Render(board.Department.ID))
	if board.Cycle {
		fmt.Fprintf(w, "  %s\n", blockStyle.Render("dependency cycle: order is best effort"))
	}
	if len(board.Tasks) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (no tasks)"))
		return
	}

	width := 0
	for _, t := range board.Tasks {
		width = max(width, len(t.Title))
	}
	for i, t := range board.Tasks {
		fmt.Fprintf(w, "  %2d. %-*s  %s  %s\n", i+1, width, t.Title, renderStatus(t.Status), dimStyle.Render(t.ID))
		if t.Blocked {
			var names []string
			for _, b := range t.Blockers {
				if !b.Completed() {
					names = append(names, b.Title)
				}
			}
			fmt.Fprintf(w, "      %s %s\n", blockStyle.Render("blocked by:"), strings.Join(names, ", "))
		}
	}
}

// renderOverview prints a project summary.
func renderOverview(w io.Writer, o *tracker.Overview) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(o.Project.Name), dimStyle.Render(o.Project.ID))
	if o.Project.Description != "" {
		fmt.Fprintf(w, "  %s\n", o.Project.Description)
	}
	s := o.Stats
	fmt.Fprintf(w, "  %d departments, %d tasks: %d completed, %d in progress, %d pending (%d%%)\n",
		s.Departments, s.Tasks, s.Completed, s.InProgress, s.Pending, s.PercentComplete())
}

// renderToolResults prints one line per executed tool call.
func renderToolResults(w io.Writer, results []llm.ToolResult) {
	for _, r := range results {
		mark := okMark()
		if r.IsError {
			mark = failMark()
		}
		fmt.Fprintf(w, "  %s %s %s\n", mark, r.Name, dimStyle.Render(r.Content))
	}
}

// printUsage prints the token totals and estimated cost of the backend
// calls made so far. Nothing is printed before the first call.
func printUsage(w io.Writer, usage *api.TokenTracker) {
	if usage == nil || usage.Calls() == 0 {
		return
	}
	in, out := usage.Total()
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("(%d calls, ~%d tokens in, ~%d out, $%.4f)", usage.Calls(), in, out, usage.Cost())))
}

// backendError replaces classified backend failures with the message a user
// can act on.
func backendError(err error) error {
	switch {
	case errors.Is(err, llm.ErrRateLimited), errors.Is(err, llm.ErrPaymentRequired):
		return errors.New(llm.UserMessage(err))
	case errors.Is(err, llm.ErrBackend):
		return fmt.Errorf("%s: %w", llm.MessageGeneric, err)
	}
	return err
}
