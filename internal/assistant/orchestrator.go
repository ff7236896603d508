// Package assistant implements the project and task chat assistants. The
// project assistant runs a bounded two-round tool protocol: generate, execute
// any requested tools against the store, then generate once more with the
// results.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/internal/metrics"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// ErrEmptyMessage is returned for blank user input.
var ErrEmptyMessage = errors.New("message is empty")

// OrchestratorConfig contains the collaborators for an Orchestrator.
type OrchestratorConfig struct {
	// Generator is the text generation backend. Required.
	Generator llm.Generator
	// Store persists projects, tasks, edges and chat. Required.
	Store Store
	// Tools is the tool catalog. Nil uses DefaultRegistry.
	Tools *Registry
	// Policy is the initial mutation policy. Use DefaultPolicy for defaults.
	Policy Policy
	// Logger receives per-round and per-tool logs. Nil disables logging.
	Logger *zap.Logger
	// Metrics records tool outcomes. Nil disables metrics.
	Metrics *metrics.Metrics
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Orchestrator handles one user message at a time per call; concurrent calls
// are independent unless the policy serializes them per project.
type Orchestrator struct {
	gen     llm.Generator
	store   Store
	tools   *Registry
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
	locks   *projectLocks

	// mu protects policy, which can change on config reload.
	mu     sync.RWMutex
	policy Policy
}

// Turn is the result of one handled message.
type Turn struct {
	// Reply is the final assistant text.
	Reply string `json:"response"`
	// ToolResults lists every executed tool call in order.
	ToolResults []llm.ToolResult `json:"tool_results,omitempty"`
}

// NewOrchestrator creates an Orchestrator with the given configuration.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	tools := cfg.Tools
	if tools == nil {
		tools = DefaultRegistry()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = defaultID
	}
	return &Orchestrator{
		gen:     cfg.Generator,
		store:   cfg.Store,
		tools:   tools,
		logger:  logging.OrNop(cfg.Logger).Named("assistant"),
		metrics: cfg.Metrics,
		now:     now,
		newID:   newID,
		locks:   newProjectLocks(),
		policy:  cfg.Policy,
	}
}

// Policy returns the current mutation policy.
func (o *Orchestrator) Policy() Policy {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.policy
}

// SetPolicy replaces the mutation policy for subsequent turns.
func (o *Orchestrator) SetPolicy(p Policy) {
	o.mu.Lock()
	o.policy = p
	o.mu.Unlock()
}

// HandleUserMessage runs one chat turn for a project. Backend failures are
// returned as classified llm errors; no tool runs when the first round fails,
// and nothing is written to chat history for a failed turn. Individual tool
// failures never fail the turn.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, projectID, message string) (*Turn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	policy := o.Policy()
	log := o.logger.With(zap.String("project_id", projectID))

	release := func() {}
	if policy.SerializeProjectMutations {
		r, err := o.locks.acquire(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("wait for project lock: %w", err)
		}
		release = r
	}
	defer release()

	// Compose
	snap, err := LoadSnapshot(ctx, o.store, projectID)
	if err != nil {
		return nil, err
	}
	history, err := o.history(ctx, models.ChatScopeProject, projectID, policy.HistoryLimit)
	if err != nil {
		return nil, err
	}
	messages := append(history, llm.UserText(message))
	req := llm.Request{
		System:   projectSystemPrompt(snap),
		Messages: messages,
		Tools:    o.tools.Specs(),
	}

	// Generate-1
	first, err := o.gen.Generate(ctx, req)
	if err != nil {
		log.Warn("generation failed", zap.Int("round", 1), zap.String("kind", string(llm.KindOf(err))), zap.Error(err))
		return nil, fmt.Errorf("generate response: %w", err)
	}
	log.Debug("generation complete", zap.Int("round", 1), zap.Int("tool_calls", len(first.ToolCalls)))

	turn := &Turn{Reply: first.Content}
	if first.HasToolCalls() {
		// Execute
		x := &execution{store: o.store, snap: snap, policy: policy, now: o.now, newID: o.newID}
		turn.ToolResults = o.executeAll(ctx, log, x, first.ToolCalls)
		release()

		// Generate-2
		req.Messages = append(req.Messages,
			llm.Message{Role: llm.RoleAssistant, Content: first.Content, ToolCalls: first.ToolCalls},
			llm.Message{Role: llm.RoleUser, ToolResults: turn.ToolResults},
		)
		second, err := o.gen.Generate(ctx, req)
		if err != nil {
			log.Warn("generation failed", zap.Int("round", 2), zap.String("kind", string(llm.KindOf(err))), zap.Error(err))
			return nil, fmt.Errorf("generate follow-up: %w", err)
		}
		if second.HasToolCalls() {
			log.Info("ignoring tool calls in follow-up round", zap.Int("tool_calls", len(second.ToolCalls)))
		}
		log.Debug("generation complete", zap.Int("round", 2))
		turn.Reply = second.Content
	}

	if err := o.remember(ctx, models.ChatScopeProject, projectID, message, turn.Reply); err != nil {
		log.Warn("failed to save chat history", zap.Error(err))
	}
	return turn, nil
}

// executeAll runs calls in order. Every call yields a result.
func (o *Orchestrator) executeAll(ctx context.Context, log *zap.Logger, x *execution, calls []llm.ToolCall) []llm.ToolResult {
	results := make([]llm.ToolResult, 0, len(calls))
	for _, call := range calls {
		result := o.tools.execute(ctx, x, call)
		o.metrics.RecordToolCall(call.Name, result.IsError)
		if result.IsError {
			log.Info("tool failed", zap.String("tool", call.Name), zap.String("result", result.Content))
		} else {
			log.Info("tool executed", zap.String("tool", call.Name), zap.String("result", result.Content))
		}
		results = append(results, result)
	}
	return results
}

// History returns a project's chat history, oldest first.
func (o *Orchestrator) History(ctx context.Context, projectID string, limit int) ([]models.ChatMessage, error) {
	if _, err := o.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return o.store.ListChatMessages(ctx, models.ChatScopeProject, projectID, limit)
}

func (o *Orchestrator) history(ctx context.Context, scope models.ChatScope, scopeID string, limit int) ([]llm.Message, error) {
	return loadHistory(ctx, o.store, scope, scopeID, limit)
}

func (o *Orchestrator) remember(ctx context.Context, scope models.ChatScope, scopeID, userText, reply string) error {
	return saveExchange(ctx, o.store, o.now, o.newID, scope, scopeID, userText, reply)
}

// loadHistory converts the last limit stored messages into llm messages.
// The window always opens on a user message.
func loadHistory(ctx context.Context, store Store, scope models.ChatScope, scopeID string, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	stored, err := store.ListChatMessages(ctx, scope, scopeID, limit)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	for len(stored) > 0 && stored[0].Role != models.ChatRoleUser {
		stored = stored[1:]
	}
	msgs := make([]llm.Message, 0, len(stored)+1)
	for _, m := range stored {
		if m.Role == models.ChatRoleAssistant {
			msgs = append(msgs, llm.AssistantText(m.Content))
			continue
		}
		msgs = append(msgs, llm.UserText(m.Content))
	}
	return msgs, nil
}

// saveExchange appends the user message and reply atomically.
func saveExchange(ctx context.Context, store Store, now func() time.Time, newID func() string, scope models.ChatScope, scopeID, userText, reply string) error {
	at := now().UTC()
	return store.AppendChatMessages(ctx,
		models.ChatMessage{ID: newID(), Scope: scope, ScopeID: scopeID, Role: models.ChatRoleUser, Content: userText, CreatedAt: at},
		models.ChatMessage{ID: newID(), Scope: scope, ScopeID: scopeID, Role: models.ChatRoleAssistant, Content: reply, CreatedAt: at.Add(time.Microsecond)},
	)
}
