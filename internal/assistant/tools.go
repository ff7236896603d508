package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/foundry/internal/graph"
	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// Tool names offered to the project assistant.
const (
	ToolCreateTask       = "create_task"
	ToolDeleteTask       = "delete_task"
	ToolUpdateTaskStatus = "update_task_status"
	ToolAddDependency    = "add_dependency"
	ToolRemoveDependency = "remove_dependency"
	ToolUpdateTaskName   = "update_task_name"
)

// execution is the per-turn context a tool handler runs against.
type execution struct {
	store  Store
	snap   *Snapshot
	policy Policy
	now    func() time.Time
	newID  func() string
}

// outcome is a successful (or informational) tool payload.
type outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(format string, args ...any) outcome {
	return outcome{Success: true, Message: fmt.Sprintf(format, args...)}
}

// toolError is a failure reported back to the model as {"error": ...}.
type toolError struct {
	msg string
	err error
}

func (e *toolError) Error() string { return e.msg }
func (e *toolError) Unwrap() error { return e.err }

func failf(cause error, format string, args ...any) error {
	return &toolError{msg: fmt.Sprintf(format, args...), err: cause}
}

func taskNotFound(title string) error {
	return failf(models.ErrNotFound, "Task \"%s\" not found", title)
}

// handler runs one tool against raw JSON arguments.
type handler func(ctx context.Context, x *execution, raw json.RawMessage) (outcome, error)

// validator is implemented by tool argument structs.
type validator interface {
	validate() error
}

// typed decodes and validates arguments before calling fn.
func typed[A validator](fn func(ctx context.Context, x *execution, args A) (outcome, error)) handler {
	return func(ctx context.Context, x *execution, raw json.RawMessage) (outcome, error) {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return outcome{}, failf(err, "Invalid arguments: %v", err)
			}
		}
		if err := args.validate(); err != nil {
			return outcome{}, err
		}
		return fn(ctx, x, args)
	}
}

// requireArgs reports the first empty field in name/value pairs.
func requireArgs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return failf(nil, "Missing required argument %q", pairs[i])
		}
	}
	return nil
}

// Tool pairs the schema offered to the model with its handler.
type Tool struct {
	Spec llm.ToolSpec
	run  handler
}

// Registry maps tool names to typed handlers.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from tools. Later tools replace earlier ones
// with the same name.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Spec.Name] = t
	}
	return r
}

// DefaultRegistry returns the project assistant's tool catalog.
func DefaultRegistry() *Registry {
	return NewRegistry(
		createTaskTool(),
		deleteTaskTool(),
		updateTaskStatusTool(),
		addDependencyTool(),
		removeDependencyTool(),
		updateTaskNameTool(),
	)
}

// Specs returns tool schemas sorted by name.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, t.Spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// execute runs one call and converts any failure into an error payload.
func (r *Registry) execute(ctx context.Context, x *execution, call llm.ToolCall) llm.ToolResult {
	result := llm.ToolResult{ToolCallID: call.ID, Name: call.Name}

	tool, found := r.tools[call.Name]
	if !found {
		result.Content = errorPayload(fmt.Sprintf("Unknown tool %q", call.Name))
		result.IsError = true
		return result
	}

	out, err := tool.run(ctx, x, call.Arguments)
	if err != nil {
		result.Content = errorPayload(toolMessage(err))
		result.IsError = true
		return result
	}
	result.Content = encode(out)
	return result
}

// toolMessage returns the text shown to the model for a failure. Errors that
// did not come from a handler are store failures.
func toolMessage(err error) string {
	var te *toolError
	if errors.As(err, &te) {
		return te.msg
	}
	return "Operation failed: " + err.Error()
}

func errorPayload(msg string) string {
	return encode(map[string]string{"error": msg})
}

func encode(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return `{"error":"unencodable result"}`
	}
	return string(out)
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

type createTaskArgs struct {
	DepartmentName string `json:"department_name"`
	Title          string `json:"title"`
	Description    string `json:"description"`
}

func (a createTaskArgs) validate() error {
	return requireArgs("department_name", a.DepartmentName, "title", a.Title)
}

func createTaskTool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        ToolCreateTask,
			Description: "Create a new pending task in a department.",
			Properties: map[string]any{
				"department_name": stringProp("Exact name of the department"),
				"title":           stringProp("Title of the new task"),
				"description":     stringProp("What the task involves"),
			},
			Required: []string{"department_name", "title", "description"},
		},
		run: typed(func(ctx context.Context, x *execution, a createTaskArgs) (outcome, error) {
			dept, found := x.snap.DepartmentByName(a.DepartmentName)
			if !found {
				return outcome{}, failf(models.ErrNotFound, "Department \"%s\" not found", a.DepartmentName)
			}
			title := strings.TrimSpace(a.Title)

			exists := false
			for _, t := range x.snap.DepartmentTasks(dept.ID) {
				if t.Title == title {
					exists = true
					break
				}
			}
			if !exists {
				_, err := x.store.FindTaskByTitle(ctx, dept.ID, title)
				switch {
				case err == nil:
					exists = true
				case !errors.Is(err, models.ErrNotFound):
					return outcome{}, err
				}
			}
			if exists {
				return outcome{
					Success: false,
					Message: fmt.Sprintf("Task \"%s\" already exists in %s", title, dept.Name),
				}, nil
			}

			task, err := models.NewTask(x.newID(), dept.ID, title, a.Description, x.now())
			if err != nil {
				return outcome{}, failf(err, "Invalid task: %v", err)
			}
			if err := x.store.CreateTask(ctx, task); err != nil {
				return outcome{}, err
			}
			x.snap.putTask(task)
			return ok("Created task \"%s\" in %s", task.Title, dept.Name), nil
		}),
	}
}

type deleteTaskArgs struct {
	TaskTitle string `json:"task_title"`
}

func (a deleteTaskArgs) validate() error {
	return requireArgs("task_title", a.TaskTitle)
}

func deleteTaskTool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        ToolDeleteTask,
			Description: "Delete a task and every dependency that references it.",
			Properties: map[string]any{
				"task_title": stringProp("Exact title of the task to delete"),
			},
			Required: []string{"task_title"},
		},
		run: typed(func(ctx context.Context, x *execution, a deleteTaskArgs) (outcome, error) {
			task, found := x.snap.TaskByTitle(a.TaskTitle)
			if !found {
				return outcome{}, taskNotFound(a.TaskTitle)
			}
			if err := x.store.DeleteTask(ctx, task.ID); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return outcome{}, taskNotFound(a.TaskTitle)
				}
				return outcome{}, err
			}
			x.snap.dropTask(task.ID)
			return ok("Deleted task \"%s\"", task.Title), nil
		}),
	}
}

type updateTaskStatusArgs struct {
	TaskTitle string `json:"task_title"`
	Status    string `json:"status"`
}

func (a updateTaskStatusArgs) validate() error {
	return requireArgs("task_title", a.TaskTitle, "status", a.Status)
}

func updateTaskStatusTool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        ToolUpdateTaskStatus,
			Description: "Change the status of a task.",
			Properties: map[string]any{
				"task_title": stringProp("Exact title of the task"),
				"status": map[string]any{
					"type": "string",
					"enum": []string{
						string(models.TaskStatusPending),
						string(models.TaskStatusInProgress),
						string(models.TaskStatusCompleted),
					},
				},
			},
			Required: []string{"task_title", "status"},
		},
		run: typed(func(ctx context.Context, x *execution, a updateTaskStatusArgs) (outcome, error) {
			status, err := models.ParseTaskStatus(a.Status)
			if err != nil {
				return outcome{}, failf(err, "Invalid status \"%s\"", a.Status)
			}
			task, found := x.snap.TaskByTitle(a.TaskTitle)
			if !found {
				return outcome{}, taskNotFound(a.TaskTitle)
			}

			if x.policy.EnforceStatusGuard {
				// Re-read so the guard sees completions made since Compose.
				tasks, err := x.store.ListTasksByProject(ctx, x.snap.Project.ID)
				if err != nil {
					return outcome{}, err
				}
				edges, err := x.store.ListDependencies(ctx, []string{task.ID})
				if err != nil {
					return outcome{}, err
				}
				if err := graph.CheckStatusTransition(task, status, edges, tasks); err != nil {
					return outcome{}, failf(err, "Cannot set \"%s\" to %s: %s", task.Title, status, models.ErrBlocked)
				}
			}

			task.Status = status
			if err := x.store.UpdateTask(ctx, task); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return outcome{}, taskNotFound(a.TaskTitle)
				}
				return outcome{}, err
			}
			x.snap.putTask(task)
			return ok("Set \"%s\" to %s", task.Title, status), nil
		}),
	}
}

type dependencyArgs struct {
	TaskTitle      string `json:"task_title"`
	DependsOnTitle string `json:"depends_on_title"`
}

func (a dependencyArgs) validate() error {
	return requireArgs("task_title", a.TaskTitle, "depends_on_title", a.DependsOnTitle)
}

func dependencyProperties() map[string]any {
	return map[string]any{
		"task_title":       stringProp("Exact title of the dependent task"),
		"depends_on_title": stringProp("Exact title of the task it depends on"),
	}
}

func addDependencyTool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        ToolAddDependency,
			Description: "Make a task depend on another task in the same project.",
			Properties:  dependencyProperties(),
			Required:    []string{"task_title", "depends_on_title"},
		},
		run: typed(func(ctx context.Context, x *execution, a dependencyArgs) (outcome, error) {
			task, found := x.snap.TaskByTitle(a.TaskTitle)
			if !found {
				return outcome{}, taskNotFound(a.TaskTitle)
			}
			target, found := x.snap.TaskByTitle(a.DependsOnTitle)
			if !found {
				return outcome{}, taskNotFound(a.DependsOnTitle)
			}
			if task.ID == target.ID {
				return outcome{}, failf(nil, "Task \"%s\" cannot depend on itself", task.Title)
			}

			edge := models.TaskDependency{TaskID: task.ID, DependsOnTaskID: target.ID, CreatedAt: x.now().UTC()}
			err := x.store.AddDependency(ctx, edge)
			switch {
			case errors.Is(err, models.ErrAlreadyExists):
				return outcome{
					Success: false,
					Message: fmt.Sprintf("\"%s\" already depends on \"%s\"", task.Title, target.Title),
				}, nil
			case err != nil:
				return outcome{}, err
			}
			x.snap.addEdge(edge)
			return ok("\"%s\" now depends on \"%s\"", task.Title, target.Title), nil
		}),
	}
}

func removeDependencyTool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        ToolRemoveDependency,
			Description: "Remove a dependency between two tasks.",
			Properties:  dependencyProperties(),
			Required:    []string{"task_title", "depends_on_title"},
		},
		run: typed(func(ctx context.Context, x *execution, a dependencyArgs) (outcome, error) {
			task, found := x.snap.TaskByTitle(a.TaskTitle)
			target, targetFound := x.snap.TaskByTitle(a.DependsOnTitle)
			if !found || !targetFound {
				return outcome{}, failf(models.ErrNotFound, "Failed to remove dependency: task not found")
			}

			err := x.store.RemoveDependency(ctx, task.ID, target.ID)
			switch {
			case errors.Is(err, models.ErrNotFound):
				return ok("\"%s\" did not depend on \"%s\"", task.Title, target.Title), nil
			case err != nil:
				return outcome{}, err
			}
			x.snap.dropEdge(task.ID, target.ID)
			return ok("\"%s\" no longer depends on \"%s\"", task.Title, target.Title), nil
		}),
	}
}

type updateTaskNameArgs struct {
	OldTitle string `json:"old_title"`
	NewTitle string `json:"new_title"`
}

func (a updateTaskNameArgs) validate() error {
	return requireArgs("old_title", a.OldTitle, "new_title", a.NewTitle)
}

func updateTaskNameTool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        ToolUpdateTaskName,
			Description: "Rename a task.",
			Properties: map[string]any{
				"old_title": stringProp("Current exact title"),
				"new_title": stringProp("New title"),
			},
			Required: []string{"old_title", "new_title"},
		},
		run: typed(func(ctx context.Context, x *execution, a updateTaskNameArgs) (outcome, error) {
			task, found := x.snap.TaskByTitle(a.OldTitle)
			if !found {
				return outcome{}, taskNotFound(a.OldTitle)
			}
			newTitle := strings.TrimSpace(a.NewTitle)
			if newTitle == task.Title {
				return ok("Task \"%s\" already has that name", task.Title), nil
			}
			for _, t := range x.snap.DepartmentTasks(task.DepartmentID) {
				if t.Title == newTitle {
					return outcome{}, failf(models.ErrAlreadyExists, "Task \"%s\" already exists", newTitle)
				}
			}

			old := task.Title
			task.Title = newTitle
			if err := x.store.UpdateTask(ctx, task); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return outcome{}, taskNotFound(a.OldTitle)
				}
				return outcome{}, err
			}
			x.snap.putTask(task)
			return ok("Renamed \"%s\" to \"%s\"", old, newTitle), nil
		}),
	}
}

func defaultID() string {
	return uuid.NewString()
}
