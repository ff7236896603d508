// Package tracker is the application service behind the CLI and HTTP
// surfaces: project, department and task CRUD, guarded status changes,
// dependency edits and the ordered department board.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/graph"
	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/internal/state"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// Repository is the persistence the service needs.
type Repository interface {
	state.ProjectStore
	state.TaskStore
	state.DependencyStore
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service implements tracker operations over a Repository.
type Service struct {
	repo   Repository
	idGen  IDGenerator
	clock  Clock
	logger *zap.Logger
}

// NewService constructs a Service. Nil idGen and clock use UUIDs and
// time.Now.
func NewService(repo Repository, idGen IDGenerator, clock Clock, logger *zap.Logger) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:   repo,
		idGen:  idGen,
		clock:  clock,
		logger: logging.OrNop(logger).Named("tracker"),
	}
}

// CreateProject creates a project. The idea is stored as its description.
func (s *Service) CreateProject(ctx context.Context, name, idea string) (models.Project, error) {
	project, err := models.NewProject(s.idGen(), name, idea, s.clock())
	if err != nil {
		return models.Project{}, err
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return models.Project{}, err
	}
	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("name", project.Name))
	return project, nil
}

// ListProjects lists projects newest first.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.repo.ListProjects(ctx)
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, id string) (models.Project, error) {
	return s.repo.GetProject(ctx, id)
}

// UpdateProject changes a project's name and description.
func (s *Service) UpdateProject(ctx context.Context, id, name, description string) (models.Project, error) {
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, models.ErrInvalidName
	}
	project.Name = name
	project.Description = strings.TrimSpace(description)
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

// DeleteProject removes a project with its departments, tasks, edges and chat.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project deleted", zap.String("project_id", id))
	return nil
}

// CreateDepartment adds a department to a project.
func (s *Service) CreateDepartment(ctx context.Context, projectID, name string) (models.Department, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return models.Department{}, err
	}
	dept, err := models.NewDepartment(s.idGen(), projectID, name, s.clock())
	if err != nil {
		return models.Department{}, err
	}
	if err := s.repo.CreateDepartment(ctx, dept); err != nil {
		return models.Department{}, err
	}
	return dept, nil
}

// ListDepartments lists a project's departments in creation order.
func (s *Service) ListDepartments(ctx context.Context, projectID string) ([]models.Department, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListDepartments(ctx, projectID)
}

// CreateTask adds a pending task. Title and description are required and
// titles are unique within a department.
func (s *Service) CreateTask(ctx context.Context, departmentID, title, description string) (models.Task, error) {
	if strings.TrimSpace(description) == "" {
		return models.Task{}, models.ErrInvalidDescription
	}
	if _, err := s.repo.GetDepartment(ctx, departmentID); err != nil {
		return models.Task{}, err
	}
	task, err := models.NewTask(s.idGen(), departmentID, title, description, s.clock())
	if err != nil {
		return models.Task{}, err
	}
	if err := s.ensureTitleFree(ctx, departmentID, task.Title, ""); err != nil {
		return models.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, id string) (models.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// UpdateTask changes a task's title and description.
func (s *Service) UpdateTask(ctx context.Context, id, title, description string) (models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, models.ErrInvalidTitle
	}
	if strings.TrimSpace(description) == "" {
		return models.Task{}, models.ErrInvalidDescription
	}
	if title != task.Title {
		if err := s.ensureTitleFree(ctx, task.DepartmentID, title, task.ID); err != nil {
			return models.Task{}, err
		}
	}
	task.Title = title
	task.Description = strings.TrimSpace(description)
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *Service) ensureTitleFree(ctx context.Context, departmentID, title, exceptID string) error {
	existing, err := s.repo.FindTaskByTitle(ctx, departmentID, title)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == exceptID:
		return nil
	}
	return fmt.Errorf("task %q: %w", title, models.ErrAlreadyExists)
}

// SetTaskStatus changes a task's status. Starting or completing a task is
// refused with models.ErrBlocked while any dependency is incomplete; the
// check uses freshly loaded edges and tasks.
func (s *Service) SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("status %q: %w", status, models.ErrInvalidStatus)
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if status != models.TaskStatusPending {
		edges, tasks, err := s.dependencyContext(ctx, task)
		if err != nil {
			return models.Task{}, err
		}
		if err := graph.CheckStatusTransition(task, status, edges, tasks); err != nil {
			return models.Task{}, err
		}
	}

	task.Status = status
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return models.Task{}, err
	}
	s.logger.Debug("task status changed", zap.String("task_id", id), zap.String("status", string(status)))
	return task, nil
}

// StartTask moves a task to in_progress, subject to the dependency guard.
func (s *Service) StartTask(ctx context.Context, id string) (models.Task, error) {
	return s.SetTaskStatus(ctx, id, models.TaskStatusInProgress)
}

// DeleteTask removes a task and every edge that references it.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.repo.DeleteTask(ctx, id)
}

// AddDependency makes taskID depend on dependsOnID. Both tasks must exist,
// differ and belong to the same project.
func (s *Service) AddDependency(ctx context.Context, taskID, dependsOnID string) error {
	if taskID == dependsOnID {
		return fmt.Errorf("task cannot depend on itself: %w", models.ErrInvalidDependency)
	}
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	target, err := s.repo.GetTask(ctx, dependsOnID)
	if err != nil {
		return err
	}

	taskProject, err := s.projectOf(ctx, task)
	if err != nil {
		return err
	}
	targetProject, err := s.projectOf(ctx, target)
	if err != nil {
		return err
	}
	if taskProject != targetProject {
		return fmt.Errorf("tasks belong to different projects: %w", models.ErrInvalidDependency)
	}

	return s.repo.AddDependency(ctx, models.TaskDependency{
		TaskID:          taskID,
		DependsOnTaskID: dependsOnID,
		CreatedAt:       s.clock().UTC(),
	})
}

// RemoveDependency deletes the edge taskID -> dependsOnID.
func (s *Service) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	return s.repo.RemoveDependency(ctx, taskID, dependsOnID)
}

// BoardTask is a task with its derived blocking state.
type BoardTask struct {
	models.Task
	Blocked  bool          `json:"blocked"`
	Blockers []models.Task `json:"blockers"`
}

// Board is a department's tasks in dependency order. Cycle is set when the
// department's dependencies loop, in which case the order is best effort.
type Board struct {
	Department models.Department `json:"department"`
	Tasks      []BoardTask       `json:"tasks"`
	Cycle      bool              `json:"cycle"`
}

// DepartmentBoard returns a department's tasks ordered so each follows its
// dependencies, each marked with whether it is blocked. Blockers lists every
// dependency, complete or not.
func (s *Service) DepartmentBoard(ctx context.Context, departmentID string) (*Board, error) {
	dept, err := s.repo.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasksByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	// Blockers may live in other departments of the same project.
	projectTasks, err := s.repo.ListTasksByProject(ctx, dept.ProjectID)
	if err != nil {
		return nil, err
	}
	edges, err := s.repo.ListDependencies(ctx, models.TaskIDs(tasks))
	if err != nil {
		return nil, err
	}

	board := &Board{
		Department: dept,
		Tasks:      make([]BoardTask, 0, len(tasks)),
		Cycle:      graph.HasCycle(tasks, edges),
	}
	if board.Cycle {
		s.logger.Warn("dependency cycle in department", zap.String("department_id", departmentID))
	}
	for _, t := range graph.OrderTasks(tasks, edges) {
		blockers := graph.BlockerTasksOf(t, edges, projectTasks)
		if blockers == nil {
			blockers = []models.Task{}
		}
		board.Tasks = append(board.Tasks, BoardTask{
			Task:     t,
			Blocked:  graph.IsBlocked(t, edges, projectTasks),
			Blockers: blockers,
		})
	}
	return board, nil
}

// ProjectStats counts a project's tasks by status.
func (s *Service) ProjectStats(ctx context.Context, projectID string) (models.ProjectStats, error) {
	departments, err := s.ListDepartments(ctx, projectID)
	if err != nil {
		return models.ProjectStats{}, err
	}
	tasks, err := s.repo.ListTasksByProject(ctx, projectID)
	if err != nil {
		return models.ProjectStats{}, err
	}
	return models.ComputeStats(len(departments), tasks), nil
}

// Overview is a project with its departments and progress.
type Overview struct {
	Project     models.Project      `json:"project"`
	Departments []models.Department `json:"departments"`
	Stats       models.ProjectStats `json:"stats"`
}

// ProjectOverview returns a project, its departments and stats.
func (s *Service) ProjectOverview(ctx context.Context, projectID string) (*Overview, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	departments, err := s.repo.ListDepartments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Project:     project,
		Departments: departments,
		Stats:       models.ComputeStats(len(departments), tasks),
	}, nil
}

// dependencyContext loads the task's outgoing edges and its project's tasks.
func (s *Service) dependencyContext(ctx context.Context, task models.Task) ([]models.TaskDependency, []models.Task, error) {
	projectID, err := s.projectOf(ctx, task)
	if err != nil {
		return nil, nil, err
	}
	edges, err := s.repo.ListDependencies(ctx, []string{task.ID})
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.repo.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return edges, tasks, nil
}

func (s *Service) projectOf(ctx context.Context, task models.Task) (string, error) {
	dept, err := s.repo.GetDepartment(ctx, task.DepartmentID)
	if err != nil {
		return "", err
	}
	return dept.ProjectID, nil
}
