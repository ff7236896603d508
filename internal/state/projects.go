package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/foundry/pkg/models"
)

// Project CRUD operations

// CreateProject inserts a new project.
func (db *DB) CreateProject(ctx context.Context, p models.Project) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, generated_code, deployment_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.GeneratedCode, p.DeploymentURL, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (db *DB) GetProject(ctx context.Context, id string) (models.Project, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, description, generated_code, deployment_url, created_at
		FROM projects WHERE id = ?
	`, id)
	p, err := scanProject(row)
	if err != nil {
		return models.Project{}, notFound(err, "get project")
	}
	return p, nil
}

// ListProjects lists all projects, newest first.
func (db *DB) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, generated_code, deployment_url, created_at
		FROM projects ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject updates the mutable project fields.
func (db *DB) UpdateProject(ctx context.Context, p models.Project) error {
	res, err := db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, generated_code = ?, deployment_url = ?
		WHERE id = ?
	`, p.Name, p.Description, p.GeneratedCode, p.DeploymentURL, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return translateNoRows(res, "update project")
}

// DeleteProject removes a project together with its departments, tasks,
// dependency edges and chat history.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	return db.TransactionContext(ctx, func(tx *sql.Tx) error {
		taskScope := `SELECT t.id FROM tasks t JOIN departments d ON d.id = t.department_id WHERE d.project_id = ?`

		stmts := []struct {
			query string
			args  []any
		}{
			{`DELETE FROM task_dependencies WHERE task_id IN (` + taskScope + `) OR depends_on_task_id IN (` + taskScope + `)`, []any{id, id}},
			{`DELETE FROM chat_messages WHERE scope = ? AND scope_id IN (` + taskScope + `)`, []any{string(models.ChatScopeTask), id}},
			{`DELETE FROM chat_messages WHERE scope = ? AND scope_id = ?`, []any{string(models.ChatScopeProject), id}},
			{`DELETE FROM tasks WHERE department_id IN (SELECT id FROM departments WHERE project_id = ?)`, []any{id}},
			{`DELETE FROM departments WHERE project_id = ?`, []any{id}},
		}
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
				return fmt.Errorf("delete project: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return translateNoRows(res, "delete project")
	})
}

// Department operations

// CreateDepartment inserts a new department.
func (db *DB) CreateDepartment(ctx context.Context, d models.Department) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO departments (id, project_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.ProjectID, d.Name, formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// GetDepartment retrieves a department by ID.
func (db *DB) GetDepartment(ctx context.Context, id string) (models.Department, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, project_id, name, created_at FROM departments WHERE id = ?
	`, id)
	d, err := scanDepartment(row)
	if err != nil {
		return models.Department{}, notFound(err, "get department")
	}
	return d, nil
}

// ListDepartments lists the departments of a project in creation order.
func (db *DB) ListDepartments(ctx context.Context, projectID string) ([]models.Department, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, project_id, name, created_at FROM departments
		WHERE project_id = ? ORDER BY created_at, rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var departments []models.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func scanProject(s scanner) (models.Project, error) {
	var p models.Project
	var createdAt string
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.GeneratedCode, &p.DeploymentURL, &createdAt); err != nil {
		return models.Project{}, err
	}
	p.CreatedAt, _ = parseTime(createdAt)
	return p, nil
}

func scanDepartment(s scanner) (models.Department, error) {
	var d models.Department
	var createdAt string
	if err := s.Scan(&d.ID, &d.ProjectID, &d.Name, &createdAt); err != nil {
		return models.Department{}, err
	}
	d.CreatedAt, _ = parseTime(createdAt)
	return d, nil
}
