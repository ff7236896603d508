package assistant

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/foundry/internal/llm"
	"github.com/ShayCichocki/foundry/internal/state"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// scriptedGenerator replays canned responses and records every request.
type scriptedGenerator struct {
	mu       sync.Mutex
	steps    []step
	requests []llm.Request
}

type step struct {
	resp llm.Response
	err  error
}

func (g *scriptedGenerator) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if len(g.steps) == 0 {
		return llm.Response{Content: "(no script)"}, nil
	}
	s := g.steps[0]
	g.steps = g.steps[1:]
	return s.resp, s.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// clock hands out strictly increasing times.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type fixture struct {
	db        *state.DB
	clock     *clock
	project   models.Project
	dev       models.Department
	marketing models.Department
	buildAPI  models.Task
	writeDocs models.Task
}

// newFixture seeds a project with two departments. "Write docs" depends on
// "Build API"; both are pending.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := state.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	f := &fixture{db: db, clock: newClock()}

	f.project, err = models.NewProject("p1", "Acme", "Delivery drones", f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, db.CreateProject(ctx, f.project))

	f.dev, err = models.NewDepartment("d-dev", "p1", "Development", f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, db.CreateDepartment(ctx, f.dev))
	f.marketing, err = models.NewDepartment("d-mkt", "p1", "Marketing", f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, db.CreateDepartment(ctx, f.marketing))

	f.buildAPI, err = models.NewTask("t-api", "d-dev", "Build API", "REST endpoints", f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, db.CreateTask(ctx, f.buildAPI))
	f.writeDocs, err = models.NewTask("t-docs", "d-dev", "Write docs", "API reference", f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, db.CreateTask(ctx, f.writeDocs))

	require.NoError(t, db.AddDependency(ctx, models.TaskDependency{
		TaskID: "t-docs", DependsOnTaskID: "t-api", CreatedAt: f.clock.Now(),
	}))
	return f
}

func (f *fixture) orchestrator(gen llm.Generator, policy Policy) *Orchestrator {
	return NewOrchestrator(OrchestratorConfig{
		Generator: gen,
		Store:     f.db,
		Policy:    policy,
		Now:       f.clock.Now,
	})
}

func call(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func toolTurn(calls ...llm.ToolCall) step {
	return step{resp: llm.Response{Content: "Working on it.", ToolCalls: calls}}
}

func textTurn(text string) step {
	return step{resp: llm.Response{Content: text}}
}

func TestHandleUserMessage_NoToolCalls(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{textTurn("Two tasks remain.")}}
	o := f.orchestrator(gen, DefaultPolicy())

	turn, err := o.HandleUserMessage(context.Background(), "p1", "How are we doing?")
	require.NoError(t, err)
	assert.Equal(t, "Two tasks remain.", turn.Reply)
	assert.Empty(t, turn.ToolResults)
	require.Equal(t, 1, gen.calls())

	req := gen.requests[0]
	assert.Contains(t, req.System, `"Acme"`)
	assert.Contains(t, req.System, `"total_tasks": 2`)
	assert.Contains(t, req.System, `"Build API"`)
	assert.Len(t, req.Tools, 6)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "How are we doing?", req.Messages[0].Content)

	history, err := o.History(context.Background(), "p1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ChatRoleUser, history[0].Role)
	assert.Equal(t, "Two tasks remain.", history[1].Content)
}

func TestHandleUserMessage_PartialToolFailure(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{
		toolTurn(
			call("c1", ToolUpdateTaskStatus, `{"task_title":"Build API","status":"completed"}`),
			call("c2", ToolDeleteTask, `{"task_title":"Ghost"}`),
		),
		textTurn("Marked Build API complete; Ghost does not exist."),
	}}
	o := f.orchestrator(gen, DefaultPolicy())

	turn, err := o.HandleUserMessage(context.Background(), "p1", "Finish the API and delete Ghost")
	require.NoError(t, err)
	assert.Equal(t, "Marked Build API complete; Ghost does not exist.", turn.Reply)

	require.Len(t, turn.ToolResults, 2)
	assert.False(t, turn.ToolResults[0].IsError)
	assert.Equal(t, "c1", turn.ToolResults[0].ToolCallID)
	assert.Contains(t, turn.ToolResults[0].Content, `"success":true`)
	assert.True(t, turn.ToolResults[1].IsError)
	assert.Equal(t, "c2", turn.ToolResults[1].ToolCallID)
	assert.JSONEq(t, `{"error":"Task \"Ghost\" not found"}`, turn.ToolResults[1].Content)

	require.Equal(t, 2, gen.calls())
	followUp := gen.requests[1].Messages
	require.Len(t, followUp, 3)
	assert.Equal(t, llm.RoleAssistant, followUp[1].Role)
	assert.Len(t, followUp[1].ToolCalls, 2)
	assert.Equal(t, llm.RoleUser, followUp[2].Role)
	assert.Equal(t, turn.ToolResults, followUp[2].ToolResults)

	got, err := f.db.GetTask(context.Background(), "t-api")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
}

func TestHandleUserMessage_CreateTaskTwice(t *testing.T) {
	f := newFixture(t)
	args := `{"department_name":"Marketing","title":"Landing page","description":"Hero and signup"}`
	gen := &scriptedGenerator{steps: []step{
		toolTurn(call("c1", ToolCreateTask, args), call("c2", ToolCreateTask, args)),
		textTurn("Created the landing page task."),
	}}
	o := f.orchestrator(gen, DefaultPolicy())

	turn, err := o.HandleUserMessage(context.Background(), "p1", "Add a landing page task twice")
	require.NoError(t, err)
	require.Len(t, turn.ToolResults, 2)
	assert.JSONEq(t, `{"success":true,"message":"Created task \"Landing page\" in Marketing"}`, turn.ToolResults[0].Content)
	assert.False(t, turn.ToolResults[1].IsError)
	assert.JSONEq(t, `{"success":false,"message":"Task \"Landing page\" already exists in Marketing"}`, turn.ToolResults[1].Content)

	tasks, err := f.db.ListTasksByDepartment(context.Background(), "d-mkt")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Landing page", tasks[0].Title)
	assert.Equal(t, models.TaskStatusPending, tasks[0].Status)
}

func TestHandleUserMessage_CreateTaskExistingInStore(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{
		toolTurn(call("c1", ToolCreateTask, `{"department_name":"development","title":"Build API","description":"again"}`)),
		textTurn("It already exists."),
	}}
	o := f.orchestrator(gen, DefaultPolicy())

	turn, err := o.HandleUserMessage(context.Background(), "p1", "Add Build API")
	require.NoError(t, err)
	require.Len(t, turn.ToolResults, 1)
	assert.False(t, turn.ToolResults[0].IsError)
	assert.Contains(t, turn.ToolResults[0].Content, "already exists in Development")

	tasks, err := f.db.ListTasksByDepartment(context.Background(), "d-dev")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestHandleUserMessage_RateLimited(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{
		{err: llm.NewError(429, "slow down", nil)},
	}}
	o := f.orchestrator(gen, DefaultPolicy())

	_, err := o.HandleUserMessage(context.Background(), "p1", "Delete Build API")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrRateLimited)
	assert.NotErrorIs(t, err, llm.ErrBackend)
	assert.Equal(t, llm.MessageRateLimited, llm.UserMessage(err))
	assert.Equal(t, 1, gen.calls())

	_, err = f.db.GetTask(context.Background(), "t-api")
	assert.NoError(t, err, "no tool may run after a failed first round")

	history, err := o.History(context.Background(), "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHandleUserMessage_ClassifiedErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"payment required", 402, llm.MessagePaymentRequired},
		{"server error", 500, llm.MessageGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			gen := &scriptedGenerator{steps: []step{{err: llm.NewError(tt.status, "boom", nil)}}}
			_, err := f.orchestrator(gen, DefaultPolicy()).HandleUserMessage(context.Background(), "p1", "hi")
			require.Error(t, err)
			assert.Equal(t, tt.want, llm.UserMessage(err))
		})
	}
}

func TestHandleUserMessage_FollowUpFailure(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{
		toolTurn(call("c1", ToolUpdateTaskName, `{"old_title":"Build API","new_title":"Build REST API"}`)),
		{err: llm.NewError(500, "down", nil)},
	}}
	o := f.orchestrator(gen, DefaultPolicy())

	_, err := o.HandleUserMessage(context.Background(), "p1", "Rename it")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrBackend)

	got, err := f.db.GetTask(context.Background(), "t-api")
	require.NoError(t, err)
	assert.Equal(t, "Build REST API", got.Title, "executed tools stay applied")

	history, err := o.History(context.Background(), "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHandleUserMessage_StatusGuardPolicy(t *testing.T) {
	args := `{"task_title":"Write docs","status":"in_progress"}`

	t.Run("guard off lets the assistant override", func(t *testing.T) {
		f := newFixture(t)
		gen := &scriptedGenerator{steps: []step{toolTurn(call("c1", ToolUpdateTaskStatus, args)), textTurn("done")}}
		turn, err := f.orchestrator(gen, DefaultPolicy()).HandleUserMessage(context.Background(), "p1", "start docs")
		require.NoError(t, err)
		assert.False(t, turn.ToolResults[0].IsError)

		got, err := f.db.GetTask(context.Background(), "t-docs")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusInProgress, got.Status)
	})

	t.Run("guard on rejects blocked task", func(t *testing.T) {
		f := newFixture(t)
		policy := DefaultPolicy()
		policy.EnforceStatusGuard = true
		gen := &scriptedGenerator{steps: []step{toolTurn(call("c1", ToolUpdateTaskStatus, args)), textTurn("blocked")}}
		turn, err := f.orchestrator(gen, policy).HandleUserMessage(context.Background(), "p1", "start docs")
		require.NoError(t, err)
		assert.True(t, turn.ToolResults[0].IsError)
		assert.JSONEq(t,
			`{"error":"Cannot set \"Write docs\" to in_progress: blocked by incomplete dependencies"}`,
			turn.ToolResults[0].Content)

		got, err := f.db.GetTask(context.Background(), "t-docs")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusPending, got.Status)
	})

	t.Run("guard on sees completions from the same batch", func(t *testing.T) {
		f := newFixture(t)
		policy := DefaultPolicy()
		policy.EnforceStatusGuard = true
		gen := &scriptedGenerator{steps: []step{
			toolTurn(
				call("c1", ToolUpdateTaskStatus, `{"task_title":"Build API","status":"completed"}`),
				call("c2", ToolUpdateTaskStatus, args),
			),
			textTurn("both done"),
		}}
		turn, err := f.orchestrator(gen, policy).HandleUserMessage(context.Background(), "p1", "finish api, start docs")
		require.NoError(t, err)
		assert.False(t, turn.ToolResults[0].IsError)
		assert.False(t, turn.ToolResults[1].IsError)
	})
}

func TestHandleUserMessage_SendsHistory(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{textTurn("first reply"), textTurn("second reply")}}
	o := f.orchestrator(gen, DefaultPolicy())

	_, err := o.HandleUserMessage(context.Background(), "p1", "first question")
	require.NoError(t, err)
	_, err = o.HandleUserMessage(context.Background(), "p1", "second question")
	require.NoError(t, err)

	msgs := gen.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "first reply", msgs[1].Content)
	assert.Equal(t, "second question", msgs[2].Content)

	o.SetPolicy(Policy{HistoryLimit: 0})
	gen.steps = []step{textTurn("third reply")}
	_, err = o.HandleUserMessage(context.Background(), "p1", "third question")
	require.NoError(t, err)
	assert.Len(t, gen.requests[2].Messages, 1)
}

func TestHandleUserMessage_OddHistoryLimitStartsOnUser(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{textTurn("first reply"), textTurn("second reply"), textTurn("third reply")}}
	o := f.orchestrator(gen, DefaultPolicy())

	_, err := o.HandleUserMessage(context.Background(), "p1", "first question")
	require.NoError(t, err)
	_, err = o.HandleUserMessage(context.Background(), "p1", "second question")
	require.NoError(t, err)

	o.SetPolicy(Policy{HistoryLimit: 3})
	_, err = o.HandleUserMessage(context.Background(), "p1", "third question")
	require.NoError(t, err)

	msgs := gen.requests[2].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, "second question", msgs[0].Content)
	assert.Equal(t, "second reply", msgs[1].Content)
	assert.Equal(t, "third question", msgs[2].Content)

	o.SetPolicy(Policy{HistoryLimit: 1})
	gen.steps = []step{textTurn("fourth reply")}
	_, err = o.HandleUserMessage(context.Background(), "p1", "fourth question")
	require.NoError(t, err)
	assert.Len(t, gen.requests[3].Messages, 1)
}

func TestHandleUserMessage_Validation(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{}
	o := f.orchestrator(gen, DefaultPolicy())

	_, err := o.HandleUserMessage(context.Background(), "p1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = o.HandleUserMessage(context.Background(), "missing", "hello")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, gen.calls())
}

func TestTools(t *testing.T) {
	tests := []struct {
		name      string
		call      llm.ToolCall
		wantError bool
		want      string
	}{
		{"unknown tool", call("c", "launch_rocket", `{}`), true, `{"error":"Unknown tool \"launch_rocket\""}`},
		{"malformed arguments", call("c", ToolDeleteTask, `{"task_title":`), true, ""},
		{"missing argument", call("c", ToolDeleteTask, `{}`), true, `{"error":"Missing required argument \"task_title\""}`},
		{"department name differs in case", call("c", ToolCreateTask, `{"department_name":"development","title":"x","description":"y"}`), true, `{"error":"Department \"development\" not found"}`},
		{"unknown department", call("c", ToolCreateTask, `{"department_name":"Legal","title":"x","description":"y"}`), true, `{"error":"Department \"Legal\" not found"}`},
		{"invalid status", call("c", ToolUpdateTaskStatus, `{"task_title":"Build API","status":"done"}`), true, `{"error":"Invalid status \"done\""}`},
		{"add dependency missing target", call("c", ToolAddDependency, `{"task_title":"Build API","depends_on_title":"Ghost"}`), true, `{"error":"Task \"Ghost\" not found"}`},
		{"add self dependency", call("c", ToolAddDependency, `{"task_title":"Build API","depends_on_title":"Build API"}`), true, ""},
		{"add duplicate dependency", call("c", ToolAddDependency, `{"task_title":"Write docs","depends_on_title":"Build API"}`), false, `{"success":false,"message":"\"Write docs\" already depends on \"Build API\""}`},
		{"add dependency", call("c", ToolAddDependency, `{"task_title":"Build API","depends_on_title":"Write docs"}`), false, `{"success":true,"message":"\"Build API\" now depends on \"Write docs\""}`},
		{"remove dependency missing task", call("c", ToolRemoveDependency, `{"task_title":"Ghost","depends_on_title":"Build API"}`), true, `{"error":"Failed to remove dependency: task not found"}`},
		{"remove absent edge", call("c", ToolRemoveDependency, `{"task_title":"Build API","depends_on_title":"Write docs"}`), false, `{"success":true,"message":"\"Build API\" did not depend on \"Write docs\""}`},
		{"rename missing", call("c", ToolUpdateTaskName, `{"old_title":"Ghost","new_title":"Spirit"}`), true, `{"error":"Task \"Ghost\" not found"}`},
		{"rename collision", call("c", ToolUpdateTaskName, `{"old_title":"Build API","new_title":"Write docs"}`), true, `{"error":"Task \"Write docs\" already exists"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			snap, err := LoadSnapshot(context.Background(), f.db, "p1")
			require.NoError(t, err)
			x := &execution{store: f.db, snap: snap, policy: DefaultPolicy(), now: f.clock.Now, newID: defaultID}

			result := DefaultRegistry().execute(context.Background(), x, tt.call)
			assert.Equal(t, tt.wantError, result.IsError, result.Content)
			assert.Equal(t, tt.call.ID, result.ToolCallID)
			if tt.want != "" {
				assert.JSONEq(t, tt.want, result.Content)
			}
		})
	}
}

func TestTools_DeleteRemovesEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	snap, err := LoadSnapshot(ctx, f.db, "p1")
	require.NoError(t, err)
	x := &execution{store: f.db, snap: snap, policy: DefaultPolicy(), now: f.clock.Now, newID: defaultID}

	result := DefaultRegistry().execute(ctx, x, call("c", ToolDeleteTask, `{"task_title":"Build API"}`))
	require.False(t, result.IsError, result.Content)

	_, err = f.db.GetTask(ctx, "t-api")
	assert.ErrorIs(t, err, models.ErrNotFound)
	edges, err := f.db.ListDependenciesByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, edges)
	assert.Empty(t, snap.Edges)

	again := DefaultRegistry().execute(ctx, x, call("c2", ToolDeleteTask, `{"task_title":"Build API"}`))
	assert.True(t, again.IsError)
}

func TestRegistry_Specs(t *testing.T) {
	specs := DefaultRegistry().Specs()
	require.Len(t, specs, 6)
	for i := 1; i < len(specs); i++ {
		assert.Less(t, specs[i-1].Name, specs[i].Name)
	}
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.Description, s.Name)
		for _, req := range s.Required {
			assert.Contains(t, s.Properties, req, "%s.%s", s.Name, req)
		}
	}
	assert.Equal(t, []string{
		ToolAddDependency, ToolCreateTask, ToolDeleteTask,
		ToolRemoveDependency, ToolUpdateTaskName, ToolUpdateTaskStatus,
	}, names)
}

func TestProjectLocks(t *testing.T) {
	locks := newProjectLocks()
	ctx := context.Background()

	release, err := locks.acquire(ctx, "p1")
	require.NoError(t, err)

	other, err := locks.acquire(ctx, "p2")
	require.NoError(t, err, "different projects do not contend")
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(waitCtx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan func())
	go func() {
		r, err := locks.acquire(ctx, "p1")
		if err == nil {
			acquired <- r
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired before release")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release()
	select {
	case r := <-acquired:
		r()
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Zero(t, locks.size())
}

func TestTaskAssistant_Ask(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{textTurn("Finish Build API first.")}}
	a := NewTaskAssistant(TaskAssistantConfig{Generator: gen, Store: f.db, HistoryLimit: 10, Now: f.clock.Now})

	reply, err := a.Ask(context.Background(), "t-docs", "How do I start?")
	require.NoError(t, err)
	assert.Equal(t, "Finish Build API first.", reply)

	require.Equal(t, 1, gen.calls())
	req := gen.requests[0]
	assert.Empty(t, req.Tools)
	assert.Contains(t, req.System, "TASK IS BLOCKED")
	assert.Contains(t, req.System, `- "Build API" (Status: pending)`)
	assert.Contains(t, req.System, "PROJECT DEPARTMENTS: Development, Marketing")
	assert.Contains(t, req.System, "- Department: Development")

	history, err := a.History(context.Background(), "t-docs", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "How do I start?", history[0].Content)
	assert.Equal(t, models.ChatScopeTask, history[0].Scope)
}

func TestTaskAssistant_UnblockedTask(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{textTurn("Start with the schema.")}}
	a := NewTaskAssistant(TaskAssistantConfig{Generator: gen, Store: f.db})

	_, err := a.Ask(context.Background(), "t-api", "Where do I start?")
	require.NoError(t, err)
	assert.NotContains(t, gen.requests[0].System, "TASK IS BLOCKED")
}

func TestTaskAssistant_FailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	gen := &scriptedGenerator{steps: []step{{err: llm.NewError(402, "pay up", nil)}}}
	a := NewTaskAssistant(TaskAssistantConfig{Generator: gen, Store: f.db})

	_, err := a.Ask(context.Background(), "t-api", "help")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrPaymentRequired)

	history, err := a.History(context.Background(), "t-api", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = a.Ask(context.Background(), "missing", "help")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = a.Ask(context.Background(), "t-api", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestRequireArgs(t *testing.T) {
	assert.NoError(t, requireArgs("title", "Build API"))

	err := requireArgs("title", "Build API", "description", "  ")
	require.Error(t, err)
	assert.Equal(t, `Missing required argument "description"`, err.Error())
}

func TestSnapshot_Lookups(t *testing.T) {
	f := newFixture(t)
	snap, err := LoadSnapshot(context.Background(), f.db, "p1")
	require.NoError(t, err)

	_, ok := snap.TaskByTitle("build api")
	assert.False(t, ok, "task titles match exactly")
	task, ok := snap.TaskByTitle("Build API")
	require.True(t, ok)
	assert.Equal(t, "t-api", task.ID)

	_, ok = snap.DepartmentByName("marketing")
	assert.False(t, ok, "department names match exactly")
	_, ok = snap.DepartmentByName(" Marketing ")
	assert.False(t, ok)
	dept, ok := snap.DepartmentByName("Marketing")
	require.True(t, ok)
	assert.Equal(t, "d-mkt", dept.ID)

	assert.True(t, snap.HasEdge("t-docs", "t-api"))
	assert.Equal(t, models.ProjectStats{Departments: 2, Tasks: 2, Pending: 2}, snap.Stats())

	snap.dropTask("t-api")
	assert.Len(t, snap.Tasks, 1)
	assert.Empty(t, snap.Edges)
}
