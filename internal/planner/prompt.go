package planner

import "github.com/ShayCichocki/foundry/internal/llm"

const systemPrompt = `You are a senior startup advisor. Turn the user's startup idea into a concrete action plan.

Create three departments: Product Execution, Development and Marketing. Give each department between five and eight tasks.
Every task must be specific to this idea, with an action-oriented title and a detailed description of what to build or do.
Dependencies are 0-based indexes of earlier tasks in the same department.

Call the create_startup_plan tool with the plan.`

// planToolSpec is the schema of the forced planning tool.
func planToolSpec() llm.ToolSpec {
	task := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"dependsOn": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "0-based indexes of tasks in this department that this task depends on. Use [] for none.",
			},
		},
		"required":             []string{"title", "description", "dependsOn"},
		"additionalProperties": false,
	}
	department := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type": "string",
				"enum": []string{"Product Execution", "Development", "Marketing"},
			},
			"tasks": map[string]any{
				"type":     "array",
				"items":    task,
				"minItems": 5,
				"maxItems": 8,
			},
		},
		"required":             []string{"name", "tasks"},
		"additionalProperties": false,
	}
	return llm.ToolSpec{
		Name:        ToolName,
		Description: "Generate departments and tasks for a startup project",
		Properties: map[string]any{
			"departments": map[string]any{
				"type":     "array",
				"items":    department,
				"minItems": 3,
				"maxItems": 3,
			},
		},
		Required: []string{"departments"},
	}
}
