package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/api"
	"github.com/ShayCichocki/foundry/internal/config"
	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/internal/metrics"
)

// createGenerator builds the Claude-backed generator from config.
func createGenerator(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*api.Generator, error) {
	if err := config.RequireCredentials(cfg); err != nil {
		return nil, err
	}

	var apiKey string
	if !cfg.Anthropic.UseBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		if err := config.ValidateAPIKey(key); err != nil && cfg.Anthropic.BaseURL == "" {
			logging.OrNop(logger).Warn("API key looks malformed", zap.Error(err))
		}
		apiKey = key
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		BaseURL:       cfg.Anthropic.BaseURL,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}

	logging.OrNop(logger).Debug("generation backend ready",
		zap.String("model", string(client.Model())),
		zap.Bool("bedrock", client.IsBedrock()),
	)

	return api.NewGenerator(client, api.GeneratorConfig{
		MaxTokens:         cfg.Anthropic.MaxTokens,
		RequestsPerSecond: cfg.Anthropic.RequestsPerSecond,
		Logger:            logger,
		Metrics:           m,
	}), nil
}
