package domain

import "time"

// Role discriminates the two token shapes.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// AdminClaims identify an authenticated admin.
type AdminClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// AgentClaims identify an authenticated agent. UserID is the owning admin.
type AgentClaims struct {
	AgentID    string `json:"agentId"`
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	AdminEmail string `json:"adminEmail"`
}

// Session is the decoded, validated token attached to a request.
// Exactly one of Admin or Agent is set, matching Role.
type Session struct {
	Role      Role
	Admin     *AdminClaims
	Agent     *AgentClaims
	ExpiresAt time.Time
}

// IsAdmin reports whether the session carries admin claims.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin && s.Admin != nil
}

// IsAgent reports whether the session carries agent claims.
func (s *Session) IsAgent() bool {
	return s != nil && s.Role == RoleAgent && s.Agent != nil
}
