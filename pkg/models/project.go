package models

import (
	"strings"
	"time"
)

// Project is the top-level container. Description doubles as the original
// free-text idea the plan was generated from.
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	GeneratedCode string    `json:"generated_code,omitempty"`
	DeploymentURL string    `json:"deployment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewProject validates and builds a project.
func NewProject(id, name, description string, now time.Time) (Project, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(id) == "" {
		return Project{}, ErrInvalidID
	}
	if name == "" {
		return Project{}, ErrInvalidName
	}
	return Project{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UTC(),
	}, nil
}

// Department groups tasks within a project and is the unit of ordering.
type Department struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDepartment validates and builds a department.
func NewDepartment(id, projectID, name string, now time.Time) (Department, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(id) == "" || strings.TrimSpace(projectID) == "" {
		return Department{}, ErrInvalidID
	}
	if name == "" {
		return Department{}, ErrInvalidName
	}
	return Department{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now.UTC(),
	}, nil
}

// ChatScope identifies what a chat history belongs to.
type ChatScope string

const (
	ChatScopeProject ChatScope = "project"
	ChatScopeTask    ChatScope = "task"
)

// ChatRole is the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one persisted turn of an assistant conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Scope     ChatScope `json:"scope"`
	ScopeID   string    `json:"scope_id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
