package state

import (
	"context"
	"io"

	"github.com/ShayCichocki/foundry/pkg/models"
)

// ProjectStore handles project and department persistence.
type ProjectStore interface {
	CreateProject(ctx context.Context, p models.Project) error
	GetProject(ctx context.Context, id string) (models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	UpdateProject(ctx context.Context, p models.Project) error
	DeleteProject(ctx context.Context, id string) error

	CreateDepartment(ctx context.Context, d models.Department) error
	GetDepartment(ctx context.Context, id string) (models.Department, error)
	ListDepartments(ctx context.Context, projectID string) ([]models.Department, error)
}

// TaskStore handles task persistence.
type TaskStore interface {
	CreateTask(ctx context.Context, t models.Task) error
	GetTask(ctx context.Context, id string) (models.Task, error)
	FindTaskByTitle(ctx context.Context, departmentID, title string) (models.Task, error)
	ListTasksByDepartment(ctx context.Context, departmentID string) ([]models.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// DependencyStore handles task dependency edges.
type DependencyStore interface {
	AddDependency(ctx context.Context, d models.TaskDependency) error
	RemoveDependency(ctx context.Context, taskID, dependsOnTaskID string) error
	ListDependencies(ctx context.Context, taskIDs []string) ([]models.TaskDependency, error)
	ListDependenciesByProject(ctx context.Context, projectID string) ([]models.TaskDependency, error)
}

// ChatStore handles assistant chat history.
type ChatStore interface {
	AppendChatMessages(ctx context.Context, msgs ...models.ChatMessage) error
	ListChatMessages(ctx context.Context, scope models.ChatScope, scopeID string, limit int) ([]models.ChatMessage, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store composes every persistence concern. Services depend on the narrower
// interfaces where they can.
type Store interface {
	io.Closer
	Migrator
	ProjectStore
	TaskStore
	DependencyStore
	ChatStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store           = (*DB)(nil)
	_ ProjectStore    = (*DB)(nil)
	_ TaskStore       = (*DB)(nil)
	_ DependencyStore = (*DB)(nil)
	_ ChatStore       = (*DB)(nil)
)
