// Package workspace derives data-access scopes from authenticated sessions.
//
// A Scope is the only way repositories accept a tenant filter. It is built
// from decoded token claims, never from request input, so a caller can only
// reach records owned by its own admin (and, for agents, assigned to itself).
package workspace

import (
	"errors"

	"github.com/taskdist/distribution-service/internal/domain"
)

var (
	// ErrEmptyScope guards repositories against unscoped queries.
	ErrEmptyScope = errors.New("workspace scope is empty")
	// ErrRoleMismatch is returned when a session cannot produce the requested scope.
	ErrRoleMismatch = errors.New("session role does not permit this scope")
)

// Scope restricts queries to one admin's workspace and optionally one agent.
type Scope struct {
	AdminID string
	AgentID string
}

// ForAdmin returns the workspace scope of an admin session.
func ForAdmin(session *domain.Session) (Scope, error) {
	if !session.IsAdmin() || session.Admin.UserID == "" {
		return Scope{}, ErrRoleMismatch
	}
	return Scope{AdminID: session.Admin.UserID}, nil
}

// ForAgent returns the assignment scope of an agent session.
func ForAgent(session *domain.Session) (Scope, error) {
	if !session.IsAgent() || session.Agent.UserID == "" || session.Agent.AgentID == "" {
		return Scope{}, ErrRoleMismatch
	}
	return Scope{AdminID: session.Agent.UserID, AgentID: session.Agent.AgentID}, nil
}

// Validate rejects scopes that would not filter by workspace.
func (s Scope) Validate() error {
	if s.AdminID == "" {
		return ErrEmptyScope
	}
	return nil
}

// IsAgent reports whether the scope is narrowed to one agent's assignments.
func (s Scope) IsAgent() bool {
	return s.AgentID != ""
}

// Workspace widens an agent scope to its whole workspace.
func (s Scope) Workspace() Scope {
	return Scope{AdminID: s.AdminID}
}

// PermitsAgent reports whether the agent record lies inside the scope.
func (s Scope) PermitsAgent(agent *domain.Agent) bool {
	if agent == nil || s.AdminID == "" || agent.AdminID != s.AdminID {
		return false
	}
	return !s.IsAgent() || agent.ID == s.AgentID
}

// PermitsTask reports whether the task record lies inside the scope.
func (s Scope) PermitsTask(task *domain.Task) bool {
	if task == nil || s.AdminID == "" || task.AdminID != s.AdminID {
		return false
	}
	return !s.IsAgent() || task.AgentID == s.AgentID
}
