package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/graph"
	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// TaskAssistantConfig contains the collaborators for a TaskAssistant.
type TaskAssistantConfig struct {
	Generator llm.Generator
	Store     Store
	// HistoryLimit is the number of prior task messages sent with each turn.
	HistoryLimit int
	Logger       *zap.Logger
	Now          func() time.Time
	NewID        func() string
}

// TaskAssistant answers questions about a single task. It never mutates
// tasks; it warns when the task is blocked.
type TaskAssistant struct {
	gen          llm.Generator
	store        Store
	historyLimit atomic.Int64
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// NewTaskAssistant creates a TaskAssistant.
func NewTaskAssistant(cfg TaskAssistantConfig) *TaskAssistant {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = defaultID
	}
	a := &TaskAssistant{
		gen:    cfg.Generator,
		store:  cfg.Store,
		logger: logging.OrNop(cfg.Logger).Named("task_assistant"),
		now:    now,
		newID:  newID,
	}
	a.historyLimit.Store(int64(cfg.HistoryLimit))
	return a
}

// SetHistoryLimit changes how much history later calls send.
func (a *TaskAssistant) SetHistoryLimit(n int) {
	a.historyLimit.Store(int64(n))
}

// Ask sends message about taskID with the task's context and history and
// returns the reply. The exchange is stored only when generation succeeds.
func (a *TaskAssistant) Ask(ctx context.Context, taskID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	in, err := a.loadContext(ctx, taskID)
	if err != nil {
		return "", err
	}
	history, err := loadHistory(ctx, a.store, models.ChatScopeTask, taskID, int(a.historyLimit.Load()))
	if err != nil {
		return "", err
	}

	resp, err := a.gen.Generate(ctx, llm.Request{
		System:   taskSystemPrompt(in),
		Messages: append(history, llm.UserText(message)),
	})
	if err != nil {
		a.logger.Warn("generation failed",
			zap.String("task_id", taskID),
			zap.String("kind", string(llm.KindOf(err))),
			zap.Error(err))
		return "", fmt.Errorf("generate response: %w", err)
	}

	if err := saveExchange(ctx, a.store, a.now, a.newID, models.ChatScopeTask, taskID, message, resp.Content); err != nil {
		a.logger.Warn("failed to save chat history", zap.String("task_id", taskID), zap.Error(err))
	}
	return resp.Content, nil
}

// History returns a task's chat history, oldest first.
func (a *TaskAssistant) History(ctx context.Context, taskID string, limit int) ([]models.ChatMessage, error) {
	if _, err := a.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return a.store.ListChatMessages(ctx, models.ChatScopeTask, taskID, limit)
}

func (a *TaskAssistant) loadContext(ctx context.Context, taskID string) (taskPromptInput, error) {
	task, err := a.store.GetTask(ctx, taskID)
	if err != nil {
		return taskPromptInput{}, fmt.Errorf("load task: %w", err)
	}
	dept, err := a.store.GetDepartment(ctx, task.DepartmentID)
	if err != nil {
		return taskPromptInput{}, fmt.Errorf("load department: %w", err)
	}
	project, err := a.store.GetProject(ctx, dept.ProjectID)
	if err != nil {
		return taskPromptInput{}, fmt.Errorf("load project: %w", err)
	}
	departments, err := a.store.ListDepartments(ctx, project.ID)
	if err != nil {
		return taskPromptInput{}, fmt.Errorf("load departments: %w", err)
	}
	tasks, err := a.store.ListTasksByProject(ctx, project.ID)
	if err != nil {
		return taskPromptInput{}, fmt.Errorf("load tasks: %w", err)
	}
	edges, err := a.store.ListDependencies(ctx, []string{task.ID})
	if err != nil {
		return taskPromptInput{}, fmt.Errorf("load dependencies: %w", err)
	}

	return taskPromptInput{
		Project:     project,
		Departments: departments,
		Department:  dept,
		Task:        task,
		Blockers:    graph.IncompleteBlockers(task, edges, tasks),
	}, nil
}
