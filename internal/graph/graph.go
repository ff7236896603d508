// Package graph derives display order and blocked state from task dependency edges.
package graph

import (
	"errors"

	"github.com/ShayCichocki/foundry/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found among a task set.
// Ordering never returns it; it is only reported by HasCycle callers.
var ErrCycleDetected = errors.New("circular dependency detected")

// adjacency maps a task ID to the IDs it depends on, in edge order, keeping
// only targets present in the task set.
func adjacency(tasks []models.Task, edges []models.TaskDependency) map[string][]string {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	adj := make(map[string][]string, len(tasks))
	for _, e := range edges {
		if !known[e.TaskID] || !known[e.DependsOnTaskID] {
			continue
		}
		adj[e.TaskID] = append(adj[e.TaskID], e.DependsOnTaskID)
	}
	return adj
}

// frame is one entry of the explicit DFS stack.
type frame struct {
	id   string
	next int
}

// OrderTasks returns every task exactly once, each after the dependencies it
// has inside the same set. Unrelated tasks keep their input order. An edge
// that closes a cycle (including a self edge) is skipped, so the result is a
// best-effort order rather than an error.
func OrderTasks(tasks []models.Task, edges []models.TaskDependency) []models.Task {
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	adj := adjacency(tasks, edges)

	finished := make(map[string]bool, len(tasks))
	inProgress := make(map[string]bool)
	out := make([]models.Task, 0, len(tasks))

	for _, root := range tasks {
		if finished[root.ID] || inProgress[root.ID] {
			continue
		}
		stack := []frame{{id: root.ID}}
		inProgress[root.ID] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := adj[top.id]
			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++
				// A dependency still on the stack closes a cycle: leave it for
				// its own frame to emit.
				if finished[dep] || inProgress[dep] {
					continue
				}
				inProgress[dep] = true
				stack = append(stack, frame{id: dep})
				continue
			}

			stack = stack[:len(stack)-1]
			delete(inProgress, top.id)
			finished[top.id] = true
			out = append(out, byID[top.id])
		}
	}

	return out
}

// HasCycle reports whether the edges restricted to tasks contain a cycle.
// Uses the same colouring as OrderTasks: a dependency met while still on the
// stack is a back edge.
func HasCycle(tasks []models.Task, edges []models.TaskDependency) bool {
	adj := adjacency(tasks, edges)
	const (
		white = iota
		gray
		black
	)
	colors := make(map[string]int, len(tasks))

	for _, root := range tasks {
		if colors[root.ID] != white {
			continue
		}
		stack := []frame{{id: root.ID}}
		colors[root.ID] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := adj[top.id]
			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++
				switch colors[dep] {
				case gray:
					return true
				case white:
					colors[dep] = gray
					stack = append(stack, frame{id: dep})
				}
				continue
			}
			colors[top.id] = black
			stack = stack[:len(stack)-1]
		}
	}
	return false
}

// BlockerTasksOf returns the resolved tasks for every edge whose source is
// task. Edges whose target is not in allTasks are ignored.
func BlockerTasksOf(task models.Task, edges []models.TaskDependency, allTasks []models.Task) []models.Task {
	byID := make(map[string]models.Task, len(allTasks))
	for _, t := range allTasks {
		byID[t.ID] = t
	}
	var blockers []models.Task
	for _, e := range edges {
		if e.TaskID != task.ID {
			continue
		}
		if dep, ok := byID[e.DependsOnTaskID]; ok {
			blockers = append(blockers, dep)
		}
	}
	return blockers
}

// IncompleteBlockers is BlockerTasksOf filtered to tasks not yet completed.
func IncompleteBlockers(task models.Task, edges []models.TaskDependency, allTasks []models.Task) []models.Task {
	var out []models.Task
	for _, b := range BlockerTasksOf(task, edges, allTasks) {
		if !b.Completed() {
			out = append(out, b)
		}
	}
	return out
}

// IsBlocked reports whether task has at least one resolvable dependency that
// is not completed. Dangling edges never block.
func IsBlocked(task models.Task, edges []models.TaskDependency, allTasks []models.Task) bool {
	return len(IncompleteBlockers(task, edges, allTasks)) > 0
}
