// Package distribution splits uploaded contact rows across a workspace's agents.
package distribution

import (
	"errors"

	"github.com/taskdist/distribution-service/internal/domain"
)

// ErrInvalidAgentCount is returned when the agent list is not exactly
// domain.WorkspaceAgentCount long.
var ErrInvalidAgentCount = errors.New("exactly 5 agents are required for task distribution")

// Group is the contiguous block of rows handed to one agent.
type Group struct {
	AgentID string
	Rows    []domain.ContactRow
}

// Assignment pairs a row with the agent it was given to.
type Assignment struct {
	Row     domain.ContactRow
	AgentID string
}

// Sizes returns the block size for each agent position when n rows are split.
// The first n%5 positions receive one extra row.
func Sizes(n int) []int {
	sizes := make([]int, domain.WorkspaceAgentCount)
	if n <= 0 {
		return sizes
	}
	base := n / domain.WorkspaceAgentCount
	remainder := n % domain.WorkspaceAgentCount
	for i := range sizes {
		sizes[i] = base
		if i < remainder {
			sizes[i]++
		}
	}
	return sizes
}

// Distribute partitions rows into one group per agent, in agentIDs order.
// Rows keep file order and are handed out in contiguous blocks, so identical
// input always yields identical output.
func Distribute(rows []domain.ContactRow, agentIDs []string) ([]Group, error) {
	if len(agentIDs) != domain.WorkspaceAgentCount {
		return nil, ErrInvalidAgentCount
	}

	groups := make([]Group, len(agentIDs))
	offset := 0
	for i, size := range Sizes(len(rows)) {
		block := make([]domain.ContactRow, size)
		copy(block, rows[offset:offset+size])
		groups[i] = Group{AgentID: agentIDs[i], Rows: block}
		offset += size
	}
	return groups, nil
}

// Assignments expands the group into (row, agent) pairs.
func (g Group) Assignments() []Assignment {
	out := make([]Assignment, 0, len(g.Rows))
	for _, row := range g.Rows {
		out = append(out, Assignment{Row: row, AgentID: g.AgentID})
	}
	return out
}

// Flatten returns every assignment across groups, preserving row order.
func Flatten(groups []Group) []Assignment {
	total := 0
	for _, g := range groups {
		total += len(g.Rows)
	}
	out := make([]Assignment, 0, total)
	for _, g := range groups {
		out = append(out, g.Assignments()...)
	}
	return out
}
