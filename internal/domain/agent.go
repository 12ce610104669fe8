package domain

import "time"

// WorkspaceAgentCount is the number of agents a workspace must hold before
// an upload can be distributed.
const WorkspaceAgentCount = 5

// Agent is a member of an admin's workspace who works through assigned tasks.
// Email is unique per owning admin only.
type Agent struct {
	ID           string
	Name         string
	Email        string
	MobileNumber string
	PasswordHash string
	AdminID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
