package models

import (
	"strings"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task is finished.
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// ParseTaskStatus normalizes a user or model supplied status string.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Task represents a unit of work belonging to a department.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// DepartmentID is the owning department.
	DepartmentID string `json:"department_id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// ArtifactURL references a deployed artifact produced for the task, if any.
	ArtifactURL string `json:"artifact_url,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
}

// Completed reports whether the task status is completed.
func (t Task) Completed() bool {
	return t.Status == TaskStatusCompleted
}

// NewTask builds a pending task after validating its title.
func NewTask(id, departmentID, title, description string, now time.Time) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrInvalidTitle
	}
	if strings.TrimSpace(departmentID) == "" {
		return Task{}, ErrInvalidID
	}
	return Task{
		ID:           id,
		DepartmentID: departmentID,
		Title:        title,
		Description:  strings.TrimSpace(description),
		Status:       TaskStatusPending,
		CreatedAt:    now.UTC(),
	}, nil
}

// TaskDependency is a directed edge: TaskID cannot be considered unblocked
// until DependsOnTaskID is completed.
type TaskDependency struct {
	TaskID          string    `json:"task_id"`
	DependsOnTaskID string    `json:"depends_on_task_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TaskIDs returns the ids of the given tasks in order.
func TaskIDs(tasks []Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
