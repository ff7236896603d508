package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/planner"
	"github.com/ShayCichocki/foundry/pkg/models"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// CreateProjectRequest is the body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name     string `json:"name"`
	Idea     string `json:"idea"`
	Generate bool   `json:"generate"`
}

// CreateProjectResponse returns the project and, when requested, the
// generated plan.
type CreateProjectResponse struct {
	Project models.Project  `json:"project"`
	Plan    *planner.Result `json:"plan,omitempty"`
}

// UpdateProjectRequest is the body for PATCH /api/v1/projects/:id.
type UpdateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GenerateRequest is the body for POST /api/v1/projects/:id/generate.
type GenerateRequest struct {
	Idea string `json:"idea"`
}

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	Message string `json:"message"`
}

// TaskChatResponse is the reply of POST /api/v1/tasks/:id/chat.
type TaskChatResponse struct {
	Message string `json:"message"`
}

// TaskRequest is the body for creating or updating a task.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StatusRequest is the body for PUT /api/v1/tasks/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// DependencyRequest is the body for POST /api/v1/tasks/:id/dependencies.
type DependencyRequest struct {
	DependsOnTaskID string `json:"depends_on_task_id"`
}

var errNoAssistant = echo.NewHTTPError(http.StatusServiceUnavailable, "assistant is not configured")

func bind(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.deps.Tracker.ListProjects(c.Request().Context())
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

// handleCreateProject creates a project and optionally generates its plan.
// A failed generation leaves the project in place; the client may retry via
// the generate endpoint.
func (s *Server) handleCreateProject(c echo.Context) error {
	var req CreateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	project, err := s.deps.Tracker.CreateProject(ctx, req.Name, req.Idea)
	if err != nil {
		return err
	}
	resp := CreateProjectResponse{Project: project}
	if req.Generate {
		if s.deps.Planner == nil {
			return errNoAssistant
		}
		result, err := s.deps.Planner.Generate(ctx, project.ID, req.Idea)
		if err != nil {
			s.logger.Warn("plan generation failed for new project",
				zap.String("project_id", project.ID), zap.Error(err))
			return err
		}
		resp.Plan = result
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGetProject(c echo.Context) error {
	overview, err := s.deps.Tracker.ProjectOverview(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if overview.Departments == nil {
		overview.Departments = []models.Department{}
	}
	return c.JSON(http.StatusOK, overview)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	var req UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := s.deps.Tracker.UpdateProject(c.Request().Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if err := s.deps.Tracker.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGenerate(c echo.Context) error {
	if s.deps.Planner == nil {
		return errNoAssistant
	}
	var req GenerateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Idea == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "idea is required")
	}
	result, err := s.deps.Planner.Generate(c.Request().Context(), c.Param("id"), req.Idea)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleProjectChat(c echo.Context) error {
	if s.deps.Assistant == nil {
		return errNoAssistant
	}
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	turn, err := s.deps.Assistant.HandleUserMessage(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, turn)
}

func (s *Server) handleProjectHistory(c echo.Context) error {
	if s.deps.Assistant == nil {
		return errNoAssistant
	}
	limit, err := limitParam(c)
	if err != nil {
		return err
	}
	msgs, err := s.deps.Assistant.History(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(msgs))
}

func (s *Server) handleBoard(c echo.Context) error {
	board, err := s.deps.Tracker.DepartmentBoard(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req TaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := s.deps.Tracker.CreateTask(c.Request().Context(), c.Param("id"), req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var req TaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := s.deps.Tracker.UpdateTask(c.Request().Context(), c.Param("id"), req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleSetStatus(c echo.Context) error {
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	status, err := models.ParseTaskStatus(req.Status)
	if err != nil {
		return err
	}
	task, err := s.deps.Tracker.SetTaskStatus(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.deps.Tracker.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAddDependency(c echo.Context) error {
	var req DependencyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.DependsOnTaskID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "depends_on_task_id is required")
	}
	if err := s.deps.Tracker.AddDependency(c.Request().Context(), c.Param("id"), req.DependsOnTaskID); err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

func (s *Server) handleRemoveDependency(c echo.Context) error {
	if err := s.deps.Tracker.RemoveDependency(c.Request().Context(), c.Param("id"), c.Param("dep")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleTaskChat(c echo.Context) error {
	if s.deps.TaskAssistant == nil {
		return errNoAssistant
	}
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	reply, err := s.deps.TaskAssistant.Ask(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TaskChatResponse{Message: reply})
}

func (s *Server) handleTaskHistory(c echo.Context) error {
	if s.deps.TaskAssistant == nil {
		return errNoAssistant
	}
	limit, err := limitParam(c)
	if err != nil {
		return err
	}
	msgs, err := s.deps.TaskAssistant.History(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(msgs))
}

// limitParam reads ?limit=; absent or zero means everything.
func limitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	return n, nil
}

func nonNil(msgs []models.ChatMessage) []models.ChatMessage {
	if msgs == nil {
		return []models.ChatMessage{}
	}
	return msgs
}
