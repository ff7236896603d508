package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/api"
	"github.com/ShayCichocki/foundry/internal/assistant"
	"github.com/ShayCichocki/foundry/internal/config"
	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/internal/metrics"
	"github.com/ShayCichocki/foundry/internal/planner"
	"github.com/ShayCichocki/foundry/internal/state"
	"github.com/ShayCichocki/foundry/internal/tracker"
)

// app bundles what a command needs once config is loaded and the database
// is open.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Metrics
	db      *state.DB
	tracker *tracker.Service

	gen   llm.Generator
	usage *api.TokenTracker
}

// loadConfig honours --config and --db.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return cfg, nil
}

// open loads config, builds the logger and opens the database. Commands
// other than serve log at warn unless --log-level says otherwise, so
// routine info logs do not interleave with command output.
func (o *rootOptions) open(serving bool) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log.Logging()
	switch {
	case o.logLevel != "":
		logCfg.Level = o.logLevel
	case !serving:
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := state.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Debug("database ready", zap.String("path", db.Path()))

	var m *metrics.Metrics
	if serving {
		m = metrics.New()
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		db:      db,
		tracker: tracker.NewService(db, nil, nil, logger.Logger),
	}, nil
}

// Close releases the database and flushes logs.
func (a *app) Close() error {
	err := a.db.Close()
	_ = a.logger.Sync()
	return err
}

// generator builds the backend on first use.
func (a *app) generator() (llm.Generator, error) {
	if a.gen != nil {
		return a.gen, nil
	}
	gen, err := createGenerator(a.cfg, a.logger.Logger, a.metrics)
	if err != nil {
		return nil, err
	}
	a.gen = gen
	a.usage = gen.Usage()
	return gen, nil
}

func (a *app) planner() (*planner.Planner, error) {
	gen, err := a.generator()
	if err != nil {
		return nil, err
	}
	return planner.New(planner.Config{Generator: gen, Store: a.db, Logger: a.logger.Logger}), nil
}

func (a *app) orchestrator() (*assistant.Orchestrator, error) {
	gen, err := a.generator()
	if err != nil {
		return nil, err
	}
	return assistant.NewOrchestrator(assistant.OrchestratorConfig{
		Generator: gen,
		Store:     a.db,
		Policy:    policyFrom(a.cfg),
		Logger:    a.logger.Logger,
		Metrics:   a.metrics,
	}), nil
}

func (a *app) taskAssistant() (*assistant.TaskAssistant, error) {
	gen, err := a.generator()
	if err != nil {
		return nil, err
	}
	return assistant.NewTaskAssistant(assistant.TaskAssistantConfig{
		Generator:    gen,
		Store:        a.db,
		HistoryLimit: a.cfg.Assistant.HistoryLimit,
		Logger:       a.logger.Logger,
	}), nil
}

// policyFrom maps the assistant config section onto a mutation policy.
func policyFrom(cfg *config.Config) assistant.Policy {
	return assistant.Policy{
		EnforceStatusGuard:        cfg.Assistant.EnforceStatusGuard,
		SerializeProjectMutations: cfg.Assistant.SerializeProjectMutations,
		HistoryLimit:              cfg.Assistant.HistoryLimit,
	}
}
