package dto

import (
	"time"

	"github.com/taskdist/distribution-service/internal/domain"
)

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// UpdateAgentRequest payload. An empty password keeps the current one.
type UpdateAgentRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Password     string `json:"password,omitempty"`
}

// AgentResponse describes an agent without its credentials.
type AgentResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	MobileNumber string      `json:"mobileNumber"`
	AdminEmail   string      `json:"adminEmail,omitempty"`
	Role         domain.Role `json:"role,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// AgentSummary is the short agent form embedded in task listings.
type AgentSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
}

// AgentDetailResponse is an agent with its assigned tasks.
type AgentDetailResponse struct {
	Agent AgentResponse  `json:"agent"`
	Tasks []TaskResponse `json:"tasks"`
}

// DeleteAgentResponse reports a cascade delete.
type DeleteAgentResponse struct {
	Message      string `json:"message"`
	TasksRemoved int64  `json:"tasksRemoved"`
}

// NewAgentResponse maps the domain agent.
func NewAgentResponse(agent *domain.Agent) AgentResponse {
	return AgentResponse{
		ID:           agent.ID,
		Name:         agent.Name,
		Email:        agent.Email,
		MobileNumber: agent.MobileNumber,
		CreatedAt:    agent.CreatedAt,
		UpdatedAt:    agent.UpdatedAt,
	}
}

// NewAgentSummary maps the domain agent to its short form.
func NewAgentSummary(agent *domain.Agent) AgentSummary {
	return AgentSummary{
		ID:           agent.ID,
		Name:         agent.Name,
		Email:        agent.Email,
		MobileNumber: agent.MobileNumber,
	}
}

// NewAgentResponses maps a list of agents.
func NewAgentResponses(agents []domain.Agent) []AgentResponse {
	out := make([]AgentResponse, 0, len(agents))
	for i := range agents {
		out = append(out, NewAgentResponse(&agents[i]))
	}
	return out
}
