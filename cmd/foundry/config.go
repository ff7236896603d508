package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foundry/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long: `Inspect Foundry configuration.

Configuration is stored at ~/.config/foundry/config.yaml
Project-specific overrides can be placed in .foundry.yaml
Any key can be overridden with FOUNDRY_<SECTION>_<KEY>, e.g. FOUNDRY_SERVER_PORT.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				displayAllConfig(cmd.OutOrStdout(), cfg)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config files in use",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				out := cmd.OutOrStdout()
				if opts.configPath != "" {
					fmt.Fprintf(out, "config: %s\n", opts.configPath)
					return
				}
				fmt.Fprintf(out, "user: %s\n", config.GetUserConfigPath())
				project := config.GetProjectConfigPath()
				if project == "" {
					project = "(none)"
				}
				fmt.Fprintf(out, "project: %s\n", project)
			},
		},
		newConfigInitCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default user config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetUserConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg := config.Default()
			cfg.Anthropic.APIKey = "${ANTHROPIC_API_KEY}"
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			printStatus(cmd.OutOrStdout(), "✓", "Wrote "+path, color.FgGreen)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if key, err := config.GetAPIKey(cfg); err == nil {
		apiKeyDisplay = config.MaskAPIKey(key)
	}

	fmt.Fprintf(w, "anthropic.api_key: %s (%s)\n", apiKeyDisplay, config.GetAPIKeySource(cfg))
	fmt.Fprintf(w, "anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Fprintf(w, "anthropic.max_tokens: %d\n", cfg.Anthropic.MaxTokens)
	fmt.Fprintf(w, "anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	if cfg.Anthropic.UseBedrock {
		fmt.Fprintf(w, "anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
		fmt.Fprintf(w, "anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	}
	fmt.Fprintf(w, "anthropic.requests_per_second: %g\n", cfg.Anthropic.RequestsPerSecond)
	if cfg.Anthropic.BaseURL != "" {
		fmt.Fprintf(w, "anthropic.base_url: %s\n", cfg.Anthropic.BaseURL)
	}
	fmt.Fprintf(w, "database.path: %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "server.address: %s\n", cfg.Server.Address())
	fmt.Fprintf(w, "server.shutdown_timeout: %s\n", cfg.Server.ShutdownTimeout)
	fmt.Fprintf(w, "assistant.enforce_status_guard: %t\n", cfg.Assistant.EnforceStatusGuard)
	fmt.Fprintf(w, "assistant.serialize_project_mutations: %t\n", cfg.Assistant.SerializeProjectMutations)
	fmt.Fprintf(w, "assistant.history_limit: %d\n", cfg.Assistant.HistoryLimit)
	fmt.Fprintf(w, "log.level: %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "log.format: %s\n", cfg.Log.Format)
}
