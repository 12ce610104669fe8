package domain

import "time"

// TaskStatus enumerates the task lifecycle.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is one contact record assigned to an agent.
// AdminID duplicates the assigned agent's AdminID so scoped queries never join.
type Task struct {
	ID          string
	FirstName   string
	Phone       string
	Notes       string
	AgentID     string
	AdminID     string
	UploadID    string
	Status      TaskStatus
	CompletedAt *time.Time
	CompletedBy *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsCompleted reports whether the task is in the completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// ContactRow is one spreadsheet data row after header matching.
type ContactRow struct {
	FirstName string
	Phone     string
	Notes     string
}
