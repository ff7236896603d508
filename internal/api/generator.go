package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/metrics"
)

const defaultMaxTokens = 4096

// Generator implements llm.Generator over the Claude Messages API.
type Generator struct {
	client    *Client
	maxTokens int64
	limiter   *rate.Limiter
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// GeneratorConfig contains configuration for creating a Generator.
type GeneratorConfig struct {
	// MaxTokens caps each response. Zero uses 4096.
	MaxTokens int
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	Logger            *zap.Logger
	Metrics           *metrics.Metrics
}

// NewGenerator creates a Generator backed by client.
func NewGenerator(client *Client, cfg GeneratorConfig) *Generator {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Generator{
		client:    client,
		maxTokens: maxTokens,
		limiter:   limiter,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

var _ llm.Generator = (*Generator)(nil)

// Usage returns the token totals accumulated by successful calls.
func (g *Generator) Usage() *TokenTracker {
	return g.client.Tracker()
}

// Generate sends one Messages API request. Failures are returned as
// *llm.Error classified by HTTP status; they are never retried here.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return llm.Response{}, &llm.Error{Kind: llm.KindGeneric, Message: "rate limiter: " + err.Error(), Err: err}
		}
	}

	maxTokens := g.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     g.client.Model(),
		MaxTokens: maxTokens,
		Messages:  messageParams(req.Messages),
		Tools:     ToolDefinitions(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.ForceTool != "" {
		params.ToolChoice = toolChoice(req.ForceTool)
	}

	start := time.Now()
	resp, err := g.client.sdk().Messages.New(ctx, params)
	if err != nil {
		classified := classify(err)
		g.metrics.RecordGeneration(time.Since(start), string(classified.Kind))
		g.logger.Warn("generation failed",
			zap.String("kind", string(classified.Kind)),
			zap.Int("status", classified.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
		)
		return llm.Response{}, classified
	}
	g.metrics.RecordGeneration(time.Since(start), "")

	g.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	g.metrics.RecordTokens(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	out := llm.Response{
		Usage: llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content += variant.Text
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: variant.Input,
			})
		}
	}

	g.logger.Debug("generation complete",
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// classify maps an SDK error to a classified backend failure. Errors that
// carry no HTTP status (network, context) are generic.
func classify(err error) *llm.Error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.NewError(apiErr.StatusCode, http.StatusText(apiErr.StatusCode), err)
	}
	return &llm.Error{Kind: llm.KindGeneric, Message: err.Error(), Err: err}
}
