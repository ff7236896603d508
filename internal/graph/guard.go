package graph

import (
	"fmt"

	"github.com/ShayCichocki/foundry/pkg/models"
)

// CheckStatusTransition gates a status change on dependency completeness.
// Moving to pending is always allowed; moving to in_progress or completed is
// rejected with models.ErrBlocked while any dependency is incomplete. Callers
// must pass edges and tasks loaded at the time of the request.
func CheckStatusTransition(task models.Task, target models.TaskStatus, edges []models.TaskDependency, allTasks []models.Task) error {
	if !target.Valid() {
		return fmt.Errorf("status %q: %w", target, models.ErrInvalidStatus)
	}
	if target == models.TaskStatusPending {
		return nil
	}
	if IsBlocked(task, edges, allTasks) {
		return fmt.Errorf("cannot set %q to %s: %w", task.Title, target, models.ErrBlocked)
	}
	return nil
}
