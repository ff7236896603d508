// Package planner turns a free-text project idea into departments, tasks and
// dependencies, either by asking the generation backend or by reading a plan
// file.
package planner

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrEmptyPlan is returned for a plan with nothing to create.
var ErrEmptyPlan = errors.New("plan has no departments")

// Plan is the structure produced by the create_startup_plan tool.
type Plan struct {
	Departments []PlanDepartment `json:"departments" yaml:"departments"`
}

// PlanDepartment is one department with its tasks in creation order.
type PlanDepartment struct {
	Name  string     `json:"name" yaml:"name"`
	Tasks []PlanTask `json:"tasks" yaml:"tasks"`
}

// PlanTask declares dependencies as 0-based indexes of earlier tasks in the
// same department.
type PlanTask struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	DependsOn   []int  `json:"dependsOn" yaml:"depends_on,omitempty"`
}

// Validate checks that every department and task is named.
func (p *Plan) Validate() error {
	if p == nil || len(p.Departments) == 0 {
		return ErrEmptyPlan
	}
	for i, d := range p.Departments {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("department %d: name is required", i)
		}
		for j, t := range d.Tasks {
			if strings.TrimSpace(t.Title) == "" {
				return fmt.Errorf("department %q task %d: title is required", d.Name, j)
			}
		}
	}
	return nil
}

// TaskCount returns the number of tasks across all departments.
func (p *Plan) TaskCount() int {
	n := 0
	for _, d := range p.Departments {
		n += len(d.Tasks)
	}
	return n
}

// LoadPlanFile reads a YAML plan.
func LoadPlanFile(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}
	return &plan, nil
}

// WritePlanFile writes plan as YAML.
func WritePlanFile(path string, plan *Plan) error {
	data, err := MarshalPlan(plan)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// MarshalPlan encodes plan as YAML with two-space indentation.
func MarshalPlan(plan *Plan) ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(plan); err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	return []byte(b.String()), nil
}
