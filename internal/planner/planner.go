package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/graph"
	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/internal/state"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// ToolName is the single tool the planning request forces.
const ToolName = "create_startup_plan"

// ErrNoToolCall is returned when the backend answers without the plan tool.
var ErrNoToolCall = errors.New("no tool call in response")

// Store is the persistence the planner writes to.
type Store interface {
	state.ProjectStore
	state.TaskStore
	state.DependencyStore
}

// Config contains the collaborators for a Planner.
type Config struct {
	// Generator is required for Generate; Apply works without it.
	Generator llm.Generator
	Store     Store
	Logger    *zap.Logger
	Now       func() time.Time
	NewID     func() string
}

// Planner creates project structure from a plan.
type Planner struct {
	gen    llm.Generator
	store  Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// CreatedDepartment reports what Apply created for one department.
type CreatedDepartment struct {
	models.Department
	TaskCount       int `json:"task_count"`
	DependencyCount int `json:"dependency_count"`
}

// Result is the outcome of Generate or Apply.
type Result struct {
	Departments []CreatedDepartment `json:"departments"`
	Message     string              `json:"message"`
}

// New creates a Planner.
func New(cfg Config) *Planner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Planner{
		gen:    cfg.Generator,
		store:  cfg.Store,
		logger: logging.OrNop(cfg.Logger).Named("planner"),
		now:    now,
		newID:  newID,
	}
}

// Generate asks the backend for a plan for idea and applies it to the
// project. The idea becomes the project description. Backend failures are
// returned as classified llm errors and leave the project untouched.
func (p *Planner) Generate(ctx context.Context, projectID, idea string) (*Result, error) {
	if p.gen == nil {
		return nil, errors.New("planner has no generator")
	}
	project, err := p.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	plan, err := p.requestPlan(ctx, idea)
	if err != nil {
		return nil, err
	}

	project.Description = idea
	if err := p.store.UpdateProject(ctx, project); err != nil {
		p.logger.Warn("failed to save project idea", zap.String("project_id", projectID), zap.Error(err))
	}

	return p.Apply(ctx, projectID, plan)
}

func (p *Planner) requestPlan(ctx context.Context, idea string) (*Plan, error) {
	resp, err := p.gen.Generate(ctx, llm.Request{
		System:    systemPrompt,
		Messages:  []llm.Message{llm.UserText(idea)},
		Tools:     []llm.ToolSpec{planToolSpec()},
		ForceTool: ToolName,
	})
	if err != nil {
		p.logger.Warn("plan generation failed", zap.String("kind", string(llm.KindOf(err))), zap.Error(err))
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	var raw json.RawMessage
	for _, c := range resp.ToolCalls {
		if c.Name == ToolName {
			raw = c.Arguments
			break
		}
	}
	if raw == nil {
		return nil, ErrNoToolCall
	}

	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	p.logger.Info("plan received",
		zap.Int("departments", len(plan.Departments)),
		zap.Int("tasks", plan.TaskCount()))
	return &plan, nil
}

// Apply creates the plan's departments, pending tasks and dependencies under
// projectID. A department or task failure aborts; a dependency failure is
// logged and skipped. Dependency indexes that are negative, forward or
// self-referencing are dropped.
func (p *Planner) Apply(ctx context.Context, projectID string, plan *Plan) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if _, err := p.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	// Creation order is the display order, so timestamps must be strictly
	// increasing even when the clock is coarse.
	base := p.now().UTC()
	seq := 0
	stamp := func() time.Time {
		seq++
		return base.Add(time.Duration(seq) * time.Microsecond)
	}

	result := &Result{}
	for _, pd := range plan.Departments {
		dept, err := models.NewDepartment(p.newID(), projectID, pd.Name, stamp())
		if err != nil {
			return nil, fmt.Errorf("department %q: %w", pd.Name, err)
		}
		if err := p.store.CreateDepartment(ctx, dept); err != nil {
			return nil, fmt.Errorf("create department %q: %w", pd.Name, err)
		}

		created := make([]models.Task, 0, len(pd.Tasks))
		for _, pt := range pd.Tasks {
			task, err := models.NewTask(p.newID(), dept.ID, pt.Title, pt.Description, stamp())
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", pt.Title, err)
			}
			if err := p.store.CreateTask(ctx, task); err != nil {
				return nil, fmt.Errorf("create task %q: %w", pt.Title, err)
			}
			created = append(created, task)
		}

		deps := 0
		for i, pt := range pd.Tasks {
			for _, j := range pt.DependsOn {
				if j < 0 || j >= i {
					continue
				}
				edge := models.TaskDependency{
					TaskID:          created[i].ID,
					DependsOnTaskID: created[j].ID,
					CreatedAt:       stamp(),
				}
				if err := p.store.AddDependency(ctx, edge); err != nil {
					if !errors.Is(err, models.ErrAlreadyExists) {
						p.logger.Warn("failed to create dependency",
							zap.String("department", dept.Name),
							zap.String("task", created[i].Title),
							zap.String("depends_on", created[j].Title),
							zap.Error(err))
					}
					continue
				}
				deps++
			}
		}

		p.logger.Info("created department",
			zap.String("department", dept.Name),
			zap.Int("tasks", len(created)),
			zap.Int("dependencies", deps))
		result.Departments = append(result.Departments, CreatedDepartment{
			Department:      dept,
			TaskCount:       len(created),
			DependencyCount: deps,
		})
	}

	result.Message = fmt.Sprintf("Successfully created %d departments with tasks!", len(result.Departments))
	return result, nil
}

// Export builds a plan from an existing project. Tasks are listed in
// dependency order so every exported dependency points at an earlier index.
func Export(ctx context.Context, store Store, projectID string) (*Plan, error) {
	if _, err := store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	departments, err := store.ListDepartments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	edges, err := store.ListDependenciesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Departments: make([]PlanDepartment, 0, len(departments))}
	for _, d := range departments {
		tasks, err := store.ListTasksByDepartment(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		ordered := graph.OrderTasks(tasks, edges)
		index := make(map[string]int, len(ordered))
		for i, t := range ordered {
			index[t.ID] = i
		}

		pd := PlanDepartment{Name: d.Name, Tasks: make([]PlanTask, 0, len(ordered))}
		for i, t := range ordered {
			pt := PlanTask{Title: t.Title, Description: t.Description}
			for _, e := range edges {
				if e.TaskID != t.ID {
					continue
				}
				if j, ok := index[e.DependsOnTaskID]; ok && j < i {
					pt.DependsOn = append(pt.DependsOn, j)
				}
			}
			pd.Tasks = append(pd.Tasks, pt)
		}
		plan.Departments = append(plan.Departments, pd)
	}
	return plan, nil
}
