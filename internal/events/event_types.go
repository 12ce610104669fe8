package events

import (
	"time"

	"github.com/taskdist/distribution-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTasksDistributed  EventType = "tasks_distributed"
	EventTaskStatusChanged EventType = "task_status_changed"
	EventTasksDeleted      EventType = "tasks_deleted"
	EventAgentCreated      EventType = "agent_created"
	EventAgentUpdated      EventType = "agent_updated"
	EventAgentDeleted      EventType = "agent_deleted"
)

// Actor identifies who caused an event.
type Actor struct {
	Role domain.Role `json:"role"`
	ID   string      `json:"id"`
}

// Event represents a domain event emitted by services. AdminID names the
// workspace the event belongs to.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	AdminID   string    `json:"admin_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TasksDistributedPayload payload.
type TasksDistributedPayload struct {
	UploadID   string         `json:"upload_id"`
	TotalTasks int            `json:"total_tasks"`
	PerAgent   map[string]int `json:"per_agent"`
}

// TaskStatusChangedPayload payload.
type TaskStatusChangedPayload struct {
	TaskID    string            `json:"task_id"`
	AgentID   string            `json:"agent_id"`
	OldStatus domain.TaskStatus `json:"old_status"`
	NewStatus domain.TaskStatus `json:"new_status"`
}

// TasksDeletedPayload payload. UploadID is empty when a single task was removed.
type TasksDeletedPayload struct {
	UploadID string `json:"upload_id,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
	Count    int64  `json:"count"`
}

// AgentCreatedPayload payload.
type AgentCreatedPayload struct {
	AgentID string `json:"agent_id"`
	Email   string `json:"email"`
}

// AgentUpdatedPayload payload.
type AgentUpdatedPayload struct {
	AgentID string `json:"agent_id"`
	Email   string `json:"email"`
}

// AgentDeletedPayload payload.
type AgentDeletedPayload struct {
	AgentID      string `json:"agent_id"`
	TasksRemoved int64  `json:"tasks_removed"`
}
