package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "foundry",
		Short: "AI-assisted startup planning and task tracking",
		Long: `Foundry turns a startup idea into departments and dependent tasks,
tracks their progress, and lets you manage the project by chatting with an
assistant that can create, rename, delete and re-link tasks for you.

Tasks are shown in dependency order. A task is blocked while any task it
depends on is not completed, and blocked tasks cannot be started.

Configuration is read from ~/.config/foundry/config.yaml with per-directory
overrides in .foundry.yaml and FOUNDRY_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: user config merged with .foundry.yaml)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides database.path)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newProjectCmd(opts),
		newTasksCmd(opts),
		newTaskCmd(opts),
		newChatCmd(opts),
		newAskCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failMark(), err)
		stop()
		os.Exit(1)
	}
}

func main() {
	Execute()
}
