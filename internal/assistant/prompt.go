package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/foundry/internal/graph"
	"github.com/ShayCichocki/foundry/pkg/models"
)

type promptTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Blocked     bool     `json:"blocked,omitempty"`
}

type promptDepartment struct {
	Name  string       `json:"name"`
	Tasks []promptTask `json:"tasks"`
}

type promptProject struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type promptContext struct {
	Project     promptProject       `json:"project"`
	Departments []promptDepartment  `json:"departments"`
	Statistics  models.ProjectStats `json:"statistics"`
}

// projectContext renders the snapshot as indented JSON. Tasks appear in
// dependency order within each department.
func projectContext(s *Snapshot) string {
	pc := promptContext{
		Project: promptProject{
			Name:        s.Project.Name,
			Description: s.Project.Description,
		},
		Departments: make([]promptDepartment, 0, len(s.Departments)),
		Statistics:  s.Stats(),
	}

	for _, d := range s.Departments {
		pd := promptDepartment{Name: d.Name, Tasks: []promptTask{}}
		for _, t := range graph.OrderTasks(s.DepartmentTasks(d.ID), s.Edges) {
			pt := promptTask{
				Title:       t.Title,
				Description: t.Description,
				Status:      string(t.Status),
				Blocked:     graph.IsBlocked(t, s.Edges, s.Tasks),
			}
			for _, b := range graph.BlockerTasksOf(t, s.Edges, s.Tasks) {
				pt.DependsOn = append(pt.DependsOn, b.Title)
			}
			pd.Tasks = append(pd.Tasks, pt)
		}
		pc.Departments = append(pc.Departments, pd)
	}

	out, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		// Only plain strings and ints are marshaled.
		return "{}"
	}
	return string(out)
}

// projectSystemPrompt builds the Compose-phase system prompt.
func projectSystemPrompt(s *Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful AI assistant for the project %q.\n\n", s.Project.Name)
	b.WriteString("PROJECT CONTEXT:\n")
	b.WriteString(projectContext(s))
	b.WriteString("\n\n")
	b.WriteString("Help the user understand their project, answer questions about tasks and progress, and offer strategic advice. ")
	b.WriteString("When the user asks you to change the project, use the provided tools. ")
	b.WriteString("Refer to departments and tasks by their exact names as shown above. ")
	b.WriteString("After tools run you will see their results; report failures honestly.\n\n")
	b.WriteString("Be concise and proactive about progress and potential issues.")
	return b.String()
}

// taskPromptInput is everything the task assistant prompt needs.
type taskPromptInput struct {
	Project     models.Project
	Departments []models.Department
	Department  models.Department
	Task        models.Task
	Blockers    []models.Task
}

// taskSystemPrompt builds the prompt for a single-task conversation. When
// blockers exist the model is told to lead with them.
func taskSystemPrompt(in taskPromptInput) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant for a task management system helping with a startup project.\n\n")

	name := in.Project.Name
	if name == "" {
		name = "Untitled Project"
	}
	fmt.Fprintf(&b, "PROJECT: %s\n", name)
	if in.Project.Description != "" {
		fmt.Fprintf(&b, "\nPROJECT DESCRIPTION:\n%s\n", in.Project.Description)
	}
	if len(in.Departments) > 0 {
		names := make([]string, 0, len(in.Departments))
		for _, d := range in.Departments {
			names = append(names, d.Name)
		}
		fmt.Fprintf(&b, "\nPROJECT DEPARTMENTS: %s\n", strings.Join(names, ", "))
	}

	dept := in.Department.Name
	if dept == "" {
		dept = "Unknown"
	}
	b.WriteString("\nCURRENT TASK YOU'RE HELPING WITH:\n")
	fmt.Fprintf(&b, "- Title: %s\n", in.Task.Title)
	fmt.Fprintf(&b, "- Description: %s\n", in.Task.Description)
	fmt.Fprintf(&b, "- Status: %s\n", in.Task.Status)
	fmt.Fprintf(&b, "- Department: %s\n", dept)

	if len(in.Blockers) > 0 {
		b.WriteString("\nTASK IS BLOCKED:\n")
		b.WriteString("This task depends on the following incomplete tasks. The user cannot start this task until they are completed:\n")
		b.WriteString(formatBlockers(in.Blockers))
		b.WriteString("\nYou MUST inform the user that this task is blocked and that the blocker tasks need to be completed first. ")
		b.WriteString("Guide them toward the blocking tasks instead of giving detailed help on this one.\n")
	}

	b.WriteString("\nBreak the task into actionable steps, relate it to the overall project, and use the conversation history when relevant. ")
	b.WriteString("Keep responses concise and actionable.")
	return b.String()
}

// formatBlockers lists blockers one per line as - "<title>" (Status: <status>).
func formatBlockers(blockers []models.Task) string {
	var b strings.Builder
	for _, t := range blockers {
		fmt.Fprintf(&b, "  - \"%s\" (Status: %s)\n", t.Title, t.Status)
	}
	return b.String()
}
