package models

// ProjectStats summarizes task progress across a project.
type ProjectStats struct {
	Departments int `json:"total_departments"`
	Tasks       int `json:"total_tasks"`
	Completed   int `json:"completed_tasks"`
	InProgress  int `json:"in_progress_tasks"`
	Pending     int `json:"pending_tasks"`
}

// ComputeStats counts tasks by status.
func ComputeStats(departments int, tasks []Task) ProjectStats {
	stats := ProjectStats{Departments: departments, Tasks: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case TaskStatusCompleted:
			stats.Completed++
		case TaskStatusInProgress:
			stats.InProgress++
		case TaskStatusPending:
			stats.Pending++
		}
	}
	return stats
}

// PercentComplete returns completed tasks as a percentage of all tasks.
func (s ProjectStats) PercentComplete() int {
	if s.Tasks == 0 {
		return 0
	}
	return s.Completed * 100 / s.Tasks
}
