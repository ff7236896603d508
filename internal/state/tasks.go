package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/foundry/pkg/models"
)

const taskColumns = `t.id, t.department_id, t.title, t.description, t.status, t.artifact_url, t.created_at`

// Task CRUD operations

// CreateTask inserts a new task.
func (db *DB) CreateTask(ctx context.Context, t models.Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, department_id, title, description, status, artifact_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.DepartmentID, t.Title, t.Description, string(t.Status), t.ArtifactURL, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (db *DB) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, notFound(err, "get task")
	}
	return t, nil
}

// FindTaskByTitle returns the first task in a department with exactly the given title.
func (db *DB) FindTaskByTitle(ctx context.Context, departmentID, title string) (models.Task, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE t.department_id = ? AND t.title = ?
		ORDER BY t.created_at, t.rowid LIMIT 1
	`, departmentID, title)
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, notFound(err, "find task")
	}
	return t, nil
}

// ListTasksByDepartment lists a department's tasks in creation order.
func (db *DB) ListTasksByDepartment(ctx context.Context, departmentID string) ([]models.Task, error) {
	return db.listTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE t.department_id = ? ORDER BY t.created_at, t.rowid
	`, departmentID)
}

// ListTasksByProject lists every task of a project, grouped by department
// creation order and then task creation order.
func (db *DB) ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	return db.listTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		JOIN departments d ON d.id = t.department_id
		WHERE d.project_id = ?
		ORDER BY d.created_at, d.rowid, t.created_at, t.rowid
	`, projectID)
}

func (db *DB) listTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask updates the mutable task fields.
func (db *DB) UpdateTask(ctx context.Context, t models.Task) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, artifact_url = ?
		WHERE id = ?
	`, t.Title, t.Description, string(t.Status), t.ArtifactURL, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return translateNoRows(res, "update task")
}

// DeleteTask removes every dependency edge touching the task, then the task.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	return db.TransactionContext(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_task_id = ?
		`, id, id); err != nil {
			return fmt.Errorf("delete task dependencies: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM chat_messages WHERE scope = ? AND scope_id = ?
		`, string(models.ChatScopeTask), id); err != nil {
			return fmt.Errorf("delete task chat: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return translateNoRows(res, "delete task")
	})
}

// Dependency operations

// AddDependency inserts an edge. An identical existing edge yields
// models.ErrAlreadyExists.
func (db *DB) AddDependency(ctx context.Context, d models.TaskDependency) error {
	res, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO task_dependencies (task_id, depends_on_task_id, created_at)
		VALUES (?, ?, ?)
	`, d.TaskID, d.DependsOnTaskID, formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("add dependency: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add dependency: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("add dependency: %w", models.ErrAlreadyExists)
	}
	return nil
}

// RemoveDependency deletes a matching edge. A missing edge yields
// models.ErrNotFound.
func (db *DB) RemoveDependency(ctx context.Context, taskID, dependsOnTaskID string) error {
	res, err := db.ExecContext(ctx, `
		DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ?
	`, taskID, dependsOnTaskID)
	if err != nil {
		return fmt.Errorf("remove dependency: %w", err)
	}
	return translateNoRows(res, "remove dependency")
}

// ListDependencies returns every edge whose source is one of taskIDs.
func (db *DB) ListDependencies(ctx context.Context, taskIDs []string) ([]models.TaskDependency, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(taskIDs))
	for i, id := range taskIDs {
		args[i] = id
	}
	return db.listDependencies(ctx, `
		SELECT task_id, depends_on_task_id, created_at FROM task_dependencies
		WHERE task_id IN (`+placeholders(len(taskIDs))+`)
		ORDER BY created_at, rowid
	`, args...)
}

// ListDependenciesByProject returns every edge whose source task belongs to the project.
func (db *DB) ListDependenciesByProject(ctx context.Context, projectID string) ([]models.TaskDependency, error) {
	return db.listDependencies(ctx, `
		SELECT td.task_id, td.depends_on_task_id, td.created_at FROM task_dependencies td
		JOIN tasks t ON t.id = td.task_id
		JOIN departments d ON d.id = t.department_id
		WHERE d.project_id = ?
		ORDER BY td.created_at, td.rowid
	`, projectID)
}

func (db *DB) listDependencies(ctx context.Context, query string, args ...any) ([]models.TaskDependency, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	var deps []models.TaskDependency
	for rows.Next() {
		var d models.TaskDependency
		var createdAt string
		if err := rows.Scan(&d.TaskID, &d.DependsOnTaskID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		d.CreatedAt, _ = parseTime(createdAt)
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func scanTask(s scanner) (models.Task, error) {
	var t models.Task
	var status, createdAt string
	if err := s.Scan(&t.ID, &t.DepartmentID, &t.Title, &t.Description, &status, &t.ArtifactURL, &createdAt); err != nil {
		return models.Task{}, err
	}
	t.Status = models.TaskStatus(status)
	t.CreatedAt, _ = parseTime(createdAt)
	return t, nil
}
