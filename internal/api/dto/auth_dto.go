package dto

import (
	"time"

	"github.com/taskdist/distribution-service/internal/domain"
)

// RegisterRequest payload for new admins.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest payload for admin login. Email format is not validated so
// a malformed address fails like any other unknown one.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AgentLoginRequest payload for agent login. AdminEmail selects the
// workspace when the agent email exists in several.
type AgentLoginRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	AdminEmail string `json:"adminEmail"`
}

// AdminResponse describes an authenticated admin.
type AdminResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// AuthResponse standard response for admin auth endpoints.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      AdminResponse `json:"user"`
}

// AgentAuthResponse standard response for agent login.
type AgentAuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Agent     AgentResponse `json:"agent"`
}

// SessionResponse echoes the decoded bearer token.
type SessionResponse struct {
	Role       domain.Role `json:"role"`
	UserID     string      `json:"userId"`
	AgentID    string      `json:"agentId,omitempty"`
	Email      string      `json:"email"`
	Name       string      `json:"name,omitempty"`
	AdminEmail string      `json:"adminEmail,omitempty"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

// NewSessionResponse flattens a session for clients.
func NewSessionResponse(session *domain.Session) SessionResponse {
	resp := SessionResponse{Role: session.Role, ExpiresAt: session.ExpiresAt}
	switch {
	case session.IsAdmin():
		resp.UserID = session.Admin.UserID
		resp.Email = session.Admin.Email
	case session.IsAgent():
		resp.UserID = session.Agent.UserID
		resp.AgentID = session.Agent.AgentID
		resp.Email = session.Agent.Email
		resp.Name = session.Agent.Name
		resp.AdminEmail = session.Agent.AdminEmail
	}
	return resp
}
