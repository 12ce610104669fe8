package domain

import "time"

// Admin owns a workspace of agents and tasks.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
