package models

import (
	"errors"
	"testing"
	"time"
)

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"pending is valid", TaskStatusPending, true},
		{"in_progress is valid", TaskStatusInProgress, true},
		{"completed is valid", TaskStatusCompleted, true},
		{"empty string is invalid", TaskStatus(""), false},
		{"done is not a status", TaskStatus("done"), false},
		{"typo status is invalid", TaskStatus("pendingg"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("TaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    TaskStatus
		wantErr bool
	}{
		{"pending", TaskStatusPending, false},
		{" In_Progress ", TaskStatusInProgress, false},
		{"COMPLETED", TaskStatusCompleted, false},
		{"blocked", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTaskStatus(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Fatalf("ParseTaskStatus(%q) error = %v, want ErrInvalidStatus", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTaskStatus(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseTaskStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNewTask(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("x", 3600))

	task, err := NewTask("t1", "d1", "  Build landing page  ", " copy ", now)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.Title != "Build landing page" {
		t.Errorf("Title = %q, want trimmed", task.Title)
	}
	if task.Description != "copy" {
		t.Errorf("Description = %q, want trimmed", task.Description)
	}
	if task.Status != TaskStatusPending {
		t.Errorf("Status = %q, want pending", task.Status)
	}
	if task.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt should be UTC, got %v", task.CreatedAt.Location())
	}
}

func TestNewTask_Validation(t *testing.T) {
	now := time.Now()
	if _, err := NewTask("t1", "d1", "   ", "", now); !errors.Is(err, ErrInvalidTitle) {
		t.Errorf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := NewTask("t1", "", "ok", "", now); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestNewProjectAndDepartment(t *testing.T) {
	now := time.Now()
	if _, err := NewProject("p1", "  ", "", now); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
	p, err := NewProject("p1", " Foundry ", " an idea ", now)
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if p.Name != "Foundry" || p.Description != "an idea" {
		t.Errorf("unexpected project %+v", p)
	}

	if _, err := NewDepartment("d1", "", "Marketing", now); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	d, err := NewDepartment("d1", "p1", "Marketing", now)
	if err != nil {
		t.Fatalf("NewDepartment failed: %v", err)
	}
	if d.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", d.ProjectID)
	}
}

func TestTaskIDs(t *testing.T) {
	got := TaskIDs([]Task{{ID: "a"}, {ID: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("TaskIDs = %v, want [a b]", got)
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Now()
	tasks := []Task{
		{ID: "1", Status: TaskStatusCompleted, CreatedAt: now},
		{ID: "2", Status: TaskStatusCompleted, CreatedAt: now},
		{ID: "3", Status: TaskStatusInProgress, CreatedAt: now},
		{ID: "4", Status: TaskStatusPending, CreatedAt: now},
	}

	stats := ComputeStats(2, tasks)
	want := ProjectStats{Departments: 2, Tasks: 4, Completed: 2, InProgress: 1, Pending: 1}
	if stats != want {
		t.Errorf("ComputeStats() = %+v, want %+v", stats, want)
	}
	if got := stats.PercentComplete(); got != 50 {
		t.Errorf("PercentComplete() = %d, want 50", got)
	}
	if got := (ProjectStats{}).PercentComplete(); got != 0 {
		t.Errorf("empty PercentComplete() = %d, want 0", got)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrInvalidTitle) {
		t.Error("ErrInvalidTitle should be a validation error")
	}
	if !IsValidation(errors.Join(errors.New("ctx"), ErrInvalidDependency)) {
		t.Error("wrapped ErrInvalidDependency should be a validation error")
	}
	if IsValidation(ErrNotFound) || IsValidation(ErrBlocked) {
		t.Error("not found and blocked are not validation errors")
	}
}
