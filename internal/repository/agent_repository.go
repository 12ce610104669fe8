package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/workspace"
)

// AgentRepository handles persistence for workspace agents. Every method
// except FindByEmail is filtered by the workspace scope.
type AgentRepository interface {
	Create(ctx context.Context, scope workspace.Scope, agent *domain.Agent) error
	Update(ctx context.Context, scope workspace.Scope, agent *domain.Agent) error
	GetByID(ctx context.Context, scope workspace.Scope, id string) (*domain.Agent, error)
	GetByEmail(ctx context.Context, scope workspace.Scope, email string) (*domain.Agent, error)
	List(ctx context.Context, scope workspace.Scope) ([]domain.Agent, error)
	// Delete removes the agent and its tasks in one transaction and returns
	// the number of tasks removed.
	Delete(ctx context.Context, scope workspace.Scope, id string) (int64, error)
	// FindByEmail searches every workspace, oldest first. Only agent login
	// may call it.
	FindByEmail(ctx context.Context, email string) ([]domain.Agent, error)
}

const agentColumns = `id, name, email, mobile_number, password_hash, admin_id, created_at, updated_at`

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) Create(ctx context.Context, scope workspace.Scope, agent *domain.Agent) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if agent.AdminID != scope.AdminID {
		return ErrCrossWorkspace
	}
	const query = `
        INSERT INTO agents (name, email, mobile_number, password_hash, admin_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	agent.Email = NormalizeEmail(agent.Email)
	err := r.pool.QueryRow(ctx, query,
		agent.Name,
		agent.Email,
		agent.MobileNumber,
		agent.PasswordHash,
		scope.AdminID,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
	return mapPgErr(err)
}

func (r *agentRepository) Update(ctx context.Context, scope workspace.Scope, agent *domain.Agent) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	const query = `
        UPDATE agents
        SET name=$1, email=$2, mobile_number=$3, password_hash=$4, updated_at=NOW()
        WHERE id=$5 AND admin_id=$6
        RETURNING updated_at`

	agent.Email = NormalizeEmail(agent.Email)
	err := r.pool.QueryRow(ctx, query,
		agent.Name,
		agent.Email,
		agent.MobileNumber,
		agent.PasswordHash,
		agent.ID,
		scope.AdminID,
	).Scan(&agent.UpdatedAt)
	return mapPgErr(err)
}

func (r *agentRepository) GetByID(ctx context.Context, scope workspace.Scope, id string) (*domain.Agent, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id=$1 AND admin_id=$2`
	return r.fetchSingle(ctx, query, id, scope.AdminID)
}

func (r *agentRepository) GetByEmail(ctx context.Context, scope workspace.Scope, email string) (*domain.Agent, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	query := `SELECT ` + agentColumns + ` FROM agents WHERE email=$1 AND admin_id=$2`
	return r.fetchSingle(ctx, query, NormalizeEmail(email), scope.AdminID)
}

func (r *agentRepository) List(ctx context.Context, scope workspace.Scope) ([]domain.Agent, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	query := `SELECT ` + agentColumns + ` FROM agents WHERE admin_id=$1`
	args := []any{scope.AdminID}
	if scope.IsAgent() {
		args = append(args, scope.AgentID)
		query += fmt.Sprintf(" AND id=$%d", len(args))
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) Delete(ctx context.Context, scope workspace.Scope, id string) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tasks, err := tx.Exec(ctx, `DELETE FROM tasks WHERE agent_id=$1 AND admin_id=$2`, id, scope.AdminID)
	if err != nil {
		return 0, mapPgErr(err)
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM agents WHERE id=$1 AND admin_id=$2`, id, scope.AdminID)
	if err != nil {
		return 0, mapPgErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tasks.RowsAffected(), nil
}

func (r *agentRepository) FindByEmail(ctx context.Context, email string) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE email=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, NormalizeEmail(email))
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (r *agentRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Agent, error) {
	var agent domain.Agent
	if err := scanAgent(r.pool.QueryRow(ctx, query, args...), &agent); err != nil {
		return nil, mapPgErr(err)
	}
	return &agent, nil
}

func scanAgent(row pgx.Row, agent *domain.Agent) error {
	return row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Email,
		&agent.MobileNumber,
		&agent.PasswordHash,
		&agent.AdminID,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
}

func scanAgents(rows pgx.Rows) ([]domain.Agent, error) {
	var result []domain.Agent
	for rows.Next() {
		var agent domain.Agent
		if err := scanAgent(rows, &agent); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, mapPgErr(rows.Err())
}
