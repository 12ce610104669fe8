package dto

import (
	"time"

	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/service"
)

// TaskListQuery binds GET /tasks filters.
type TaskListQuery struct {
	UploadID string `query:"uploadId"`
	AgentID  string `query:"agentId"`
}

// AgentTaskQuery binds GET /agent/tasks paging.
type AgentTaskQuery struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1"`
}

// TaskResponse describes a task.
type TaskResponse struct {
	ID          string            `json:"id"`
	FirstName   string            `json:"firstName"`
	Phone       string            `json:"phone"`
	Notes       string            `json:"notes"`
	AgentID     string            `json:"agentId"`
	UploadID    string            `json:"uploadId"`
	Status      domain.TaskStatus `json:"status"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	CompletedBy *string           `json:"completedBy,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Agent       *AgentSummary     `json:"agent,omitempty"`
}

// AgentTasksResponse is one agent's share of a listing or an upload.
type AgentTasksResponse struct {
	Agent     AgentSummary   `json:"agent"`
	Tasks     []TaskResponse `json:"tasks"`
	TaskCount int            `json:"taskCount"`
}

// UploadResponse reports a distribution.
type UploadResponse struct {
	UploadID     string               `json:"uploadId"`
	TotalTasks   int                  `json:"totalTasks"`
	Distribution []AgentTasksResponse `json:"distribution"`
}

// TaskListResponse is the flat admin task listing.
type TaskListResponse struct {
	TotalTasks int            `json:"totalTasks"`
	Tasks      []TaskResponse `json:"tasks"`
}

// DeleteTasksResponse reports removed tasks.
type DeleteTasksResponse struct {
	Message string `json:"message"`
	Removed int64  `json:"removed"`
}

// UploadGroupResponse is one upload batch of an agent's page.
type UploadGroupResponse struct {
	UploadID   string         `json:"uploadId"`
	AdminEmail string         `json:"adminEmail"`
	CreatedAt  time.Time      `json:"createdAt"`
	Tasks      []TaskResponse `json:"tasks"`
}

// PaginationResponse describes the page window.
type PaginationResponse struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalTasks  int  `json:"totalTasks"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// AgentIdentity is the calling agent as read from its token.
type AgentIdentity struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	AdminEmail string `json:"adminEmail"`
}

// AgentTaskPageResponse is GET /agent/tasks.
type AgentTaskPageResponse struct {
	Agent      AgentIdentity         `json:"agent"`
	TaskGroups []UploadGroupResponse `json:"taskGroups"`
	Pagination PaginationResponse    `json:"pagination"`
}

// TaskStatusResponse answers a completion toggle.
type TaskStatusResponse struct {
	Message string       `json:"message"`
	Task    TaskResponse `json:"task"`
}

// NewTaskResponse maps the domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		FirstName:   task.FirstName,
		Phone:       task.Phone,
		Notes:       task.Notes,
		AgentID:     task.AgentID,
		UploadID:    task.UploadID,
		Status:      task.Status,
		CompletedAt: task.CompletedAt,
		CompletedBy: task.CompletedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// NewTaskResponses maps tasks, attaching agent summaries when agents is set.
func NewTaskResponses(tasks []domain.Task, agents map[string]domain.Agent) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp := NewTaskResponse(&tasks[i])
		if agent, ok := agents[tasks[i].AgentID]; ok {
			summary := NewAgentSummary(&agent)
			resp.Agent = &summary
		}
		out = append(out, resp)
	}
	return out
}

// NewAgentTasksResponses maps per-agent groups.
func NewAgentTasksResponses(groups []service.AgentTasks) []AgentTasksResponse {
	out := make([]AgentTasksResponse, 0, len(groups))
	for i := range groups {
		out = append(out, AgentTasksResponse{
			Agent:     NewAgentSummary(&groups[i].Agent),
			Tasks:     NewTaskResponses(groups[i].Tasks, nil),
			TaskCount: len(groups[i].Tasks),
		})
	}
	return out
}

// NewUploadResponse maps an upload result.
func NewUploadResponse(result *service.UploadResult) UploadResponse {
	return UploadResponse{
		UploadID:     result.UploadID,
		TotalTasks:   result.TotalTasks,
		Distribution: NewAgentTasksResponses(result.Distribution),
	}
}

// NewTaskListResponse maps the admin listing. A listing grouped by agent
// takes the same shape as an upload result.
func NewTaskListResponse(listing *service.TaskListing) any {
	if listing.Grouped {
		return UploadResponse{
			UploadID:     listing.UploadID,
			TotalTasks:   len(listing.Tasks),
			Distribution: NewAgentTasksResponses(listing.Distribution),
		}
	}
	return TaskListResponse{
		TotalTasks: len(listing.Tasks),
		Tasks:      NewTaskResponses(listing.Tasks, listing.Agents),
	}
}

// NewAgentTaskPageResponse maps an agent's task page.
func NewAgentTaskPageResponse(identity AgentIdentity, page *service.AgentTaskPage) AgentTaskPageResponse {
	groups := make([]UploadGroupResponse, 0, len(page.Groups))
	for _, group := range page.Groups {
		groups = append(groups, UploadGroupResponse{
			UploadID:   group.UploadID,
			AdminEmail: group.AdminEmail,
			CreatedAt:  group.CreatedAt,
			Tasks:      NewTaskResponses(group.Tasks, nil),
		})
	}
	return AgentTaskPageResponse{
		Agent:      identity,
		TaskGroups: groups,
		Pagination: PaginationResponse{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalTasks:  page.TotalTasks,
			HasNext:     page.HasNext,
			HasPrev:     page.HasPrev,
		},
	}
}
