package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/assistant"
	"github.com/ShayCichocki/foundry/internal/config"
	"github.com/ShayCichocki/foundry/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the Foundry HTTP API.

The log level and the assistant policy (assistant.*) are reloaded when the
config file changes. Without credentials for the generation backend the
server still runs; plan generation and chat endpoints answer 503.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return runServe(cmd.Context(), opts, a)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, a *app) error {
	log := a.logger.Logger
	deps := server.Deps{
		Tracker: a.tracker,
		Metrics: a.metrics,
		Logger:  log,
	}

	var (
		orch  *assistant.Orchestrator
		tasks *assistant.TaskAssistant
	)
	if _, err := a.generator(); err != nil {
		log.Warn("generation backend unavailable; assistant endpoints disabled", zap.Error(err))
	} else {
		deps.Planner, _ = a.planner()
		orch, _ = a.orchestrator()
		tasks, _ = a.taskAssistant()
		deps.Assistant = orch
		deps.TaskAssistant = tasks
	}

	srv, err := server.New(deps, server.Config{
		Host:            a.cfg.Server.Host,
		Port:            a.cfg.Server.Port,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	watchPath := opts.configPath
	if watchPath == "" {
		watchPath = config.ActivePath()
	}
	err = config.Watch(ctx, watchPath, func(cfg *config.Config, err error) {
		if err == nil && opts.configPath == "" {
			// The watched file is one layer; rebuild the merged view.
			cfg, err = config.Load()
		}
		if err != nil {
			log.Warn("config reload failed; keeping previous settings", zap.Error(err))
			return
		}
		applyReload(a, cfg, opts.logLevel != "", orch, tasks)
	})
	if err != nil {
		log.Warn("config hot reload disabled", zap.String("path", watchPath), zap.Error(err))
	} else {
		log.Info("watching config", zap.String("path", watchPath))
	}

	err = srv.Run(ctx)
	if a.usage != nil {
		in, out := a.usage.Total()
		log.Info("generation usage",
			zap.Int("calls", a.usage.Calls()),
			zap.Int64("input_tokens", in),
			zap.Int64("output_tokens", out),
			zap.Float64("estimated_cost_usd", a.usage.Cost()),
		)
	}
	return err
}

// applyReload pushes reloadable settings into running components. Listener,
// database and backend settings need a restart.
func applyReload(a *app, cfg *config.Config, levelPinned bool, orch *assistant.Orchestrator, tasks *assistant.TaskAssistant) {
	log := a.logger.Logger
	if !levelPinned {
		if err := a.logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("invalid log level on reload", zap.Error(err))
		}
	}
	policy := policyFrom(cfg)
	if orch != nil {
		orch.SetPolicy(policy)
	}
	if tasks != nil {
		tasks.SetHistoryLimit(policy.HistoryLimit)
	}
	log.Info("config reloaded",
		zap.String("log_level", a.logger.Level().String()),
		zap.Bool("enforce_status_guard", policy.EnforceStatusGuard),
		zap.Bool("serialize_project_mutations", policy.SerializeProjectMutations),
		zap.Int("history_limit", policy.HistoryLimit))
}
