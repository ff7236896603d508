package assistant

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/foundry/internal/state"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// Store is the persistence surface the assistants need.
type Store interface {
	state.ProjectStore
	state.TaskStore
	state.DependencyStore
	state.ChatStore
}

// Snapshot is the project state loaded once per chat turn. Tool lookups by
// title resolve against it; tool handlers keep it current as they mutate so
// later calls in the same batch see earlier effects.
type Snapshot struct {
	Project     models.Project
	Departments []models.Department
	Tasks       []models.Task
	Edges       []models.TaskDependency
}

// LoadSnapshot reads a project with its departments, tasks and edges.
func LoadSnapshot(ctx context.Context, store Store, projectID string) (*Snapshot, error) {
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	departments, err := store.ListDepartments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	tasks, err := store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	edges, err := store.ListDependenciesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	return &Snapshot{
		Project:     project,
		Departments: departments,
		Tasks:       tasks,
		Edges:       edges,
	}, nil
}

// TaskByTitle finds a task by exact title.
func (s *Snapshot) TaskByTitle(title string) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.Title == title {
			return t, true
		}
	}
	return models.Task{}, false
}

// DepartmentByName finds a department by exact name.
func (s *Snapshot) DepartmentByName(name string) (models.Department, bool) {
	for _, d := range s.Departments {
		if d.Name == name {
			return d, true
		}
	}
	return models.Department{}, false
}

// Department returns the department with the given id.
func (s *Snapshot) Department(id string) (models.Department, bool) {
	for _, d := range s.Departments {
		if d.ID == id {
			return d, true
		}
	}
	return models.Department{}, false
}

// DepartmentTasks returns the tasks of one department in creation order.
func (s *Snapshot) DepartmentTasks(departmentID string) []models.Task {
	var out []models.Task
	for _, t := range s.Tasks {
		if t.DepartmentID == departmentID {
			out = append(out, t)
		}
	}
	return out
}

// Stats summarizes task progress.
func (s *Snapshot) Stats() models.ProjectStats {
	return models.ComputeStats(len(s.Departments), s.Tasks)
}

// HasEdge reports whether taskID already depends on dependsOnID.
func (s *Snapshot) HasEdge(taskID, dependsOnID string) bool {
	for _, e := range s.Edges {
		if e.TaskID == taskID && e.DependsOnTaskID == dependsOnID {
			return true
		}
	}
	return false
}

func (s *Snapshot) putTask(task models.Task) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == task.ID {
			s.Tasks[i] = task
			return
		}
	}
	s.Tasks = append(s.Tasks, task)
}

func (s *Snapshot) dropTask(id string) {
	tasks := s.Tasks[:0]
	for _, t := range s.Tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	s.Tasks = tasks

	edges := s.Edges[:0]
	for _, e := range s.Edges {
		if e.TaskID != id && e.DependsOnTaskID != id {
			edges = append(edges, e)
		}
	}
	s.Edges = edges
}

func (s *Snapshot) addEdge(edge models.TaskDependency) {
	if !s.HasEdge(edge.TaskID, edge.DependsOnTaskID) {
		s.Edges = append(s.Edges, edge)
	}
}

func (s *Snapshot) dropEdge(taskID, dependsOnID string) {
	edges := s.Edges[:0]
	for _, e := range s.Edges {
		if e.TaskID != taskID || e.DependsOnTaskID != dependsOnID {
			edges = append(edges, e)
		}
	}
	s.Edges = edges
}
