package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/workspace"
)

// TaskFilter narrows a scoped task listing.
type TaskFilter struct {
	UploadID *string
	AgentID  *string
	Status   *domain.TaskStatus
	Limit    int
	Offset   int
}

// TaskRepository encapsulates task persistence. All methods are scoped.
type TaskRepository interface {
	// CreateMany inserts one upload batch. Every task must carry the
	// scope's admin id.
	CreateMany(ctx context.Context, scope workspace.Scope, tasks []*domain.Task) error
	GetByID(ctx context.Context, scope workspace.Scope, id string) (*domain.Task, error)
	List(ctx context.Context, scope workspace.Scope, filter TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, scope workspace.Scope, filter TaskFilter) (int, error)
	// UpdateStatus persists status, completed_at and completed_by. The
	// statement matches the task's id, admin and assigned agent.
	UpdateStatus(ctx context.Context, scope workspace.Scope, task *domain.Task) error
	Delete(ctx context.Context, scope workspace.Scope, id string) error
	DeleteByUpload(ctx context.Context, scope workspace.Scope, uploadID string) (int64, error)
}

const taskColumns = `id, first_name, phone, notes, agent_id, admin_id, upload_id, status,
               completed_at, completed_by, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) CreateMany(ctx context.Context, scope workspace.Scope, tasks []*domain.Task) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(tasks))
	for _, task := range tasks {
		if task.AdminID != scope.AdminID {
			return ErrCrossWorkspace
		}
		id, err := pgUUID(task.ID)
		if err != nil {
			return err
		}
		agentID, err := pgUUID(task.AgentID)
		if err != nil {
			return err
		}
		adminID, err := pgUUID(task.AdminID)
		if err != nil {
			return err
		}
		rows = append(rows, []any{
			id,
			task.FirstName,
			task.Phone,
			task.Notes,
			agentID,
			adminID,
			task.UploadID,
			string(task.Status),
			task.CreatedAt,
			task.UpdatedAt,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"tasks"},
		[]string{"id", "first_name", "phone", "notes", "agent_id", "admin_id", "upload_id", "status", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	return mapPgErr(err)
}

func (r *taskRepository) GetByID(ctx context.Context, scope workspace.Scope, id string) (*domain.Task, error) {
	clauses, args, err := scopeClauses(scope)
	if err != nil {
		return nil, err
	}
	args = append(args, id)
	clauses = append(clauses, fmt.Sprintf("id=$%d", len(args)))

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(clauses, " AND ")
	var task domain.Task
	if err := scanTask(r.pool.QueryRow(ctx, query, args...), &task); err != nil {
		return nil, mapPgErr(err)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, scope workspace.Scope, filter TaskFilter) ([]domain.Task, error) {
	clauses, args, err := filterClauses(scope, filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY created_at DESC, seq ASC`
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *taskRepository) Count(ctx context.Context, scope workspace.Scope, filter TaskFilter) (int, error) {
	clauses, args, err := filterClauses(scope, filter)
	if err != nil {
		return 0, err
	}
	var count int
	query := `SELECT COUNT(*) FROM tasks WHERE ` + strings.Join(clauses, " AND ")
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapPgErr(err)
	}
	return count, nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, scope workspace.Scope, task *domain.Task) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if !scope.PermitsTask(task) {
		return ErrNotFound
	}
	const query = `
        UPDATE tasks SET status=$1, completed_at=$2, completed_by=$3, updated_at=NOW()
        WHERE id=$4 AND admin_id=$5 AND agent_id=$6
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		string(task.Status),
		task.CompletedAt,
		task.CompletedBy,
		task.ID,
		task.AdminID,
		task.AgentID,
	).Scan(&task.UpdatedAt)
	return mapPgErr(err)
}

func (r *taskRepository) Delete(ctx context.Context, scope workspace.Scope, id string) error {
	clauses, args, err := scopeClauses(scope)
	if err != nil {
		return err
	}
	args = append(args, id)
	clauses = append(clauses, fmt.Sprintf("id=$%d", len(args)))

	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE `+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return mapPgErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) DeleteByUpload(ctx context.Context, scope workspace.Scope, uploadID string) (int64, error) {
	clauses, args, err := scopeClauses(scope)
	if err != nil {
		return 0, err
	}
	args = append(args, uploadID)
	clauses = append(clauses, fmt.Sprintf("upload_id=$%d", len(args)))

	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE `+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return 0, mapPgErr(err)
	}
	return cmd.RowsAffected(), nil
}

func scopeClauses(scope workspace.Scope) ([]string, []any, error) {
	if err := scope.Validate(); err != nil {
		return nil, nil, err
	}
	args := []any{scope.AdminID}
	clauses := []string{"admin_id=$1"}
	if scope.IsAgent() {
		args = append(args, scope.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	return clauses, args, nil
}

func filterClauses(scope workspace.Scope, filter TaskFilter) ([]string, []any, error) {
	clauses, args, err := scopeClauses(scope)
	if err != nil {
		return nil, nil, err
	}
	if filter.UploadID != nil {
		args = append(args, *filter.UploadID)
		clauses = append(clauses, fmt.Sprintf("upload_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	return clauses, args, nil
}

func scanTask(row pgx.Row, task *domain.Task) error {
	var status string
	if err := row.Scan(
		&task.ID,
		&task.FirstName,
		&task.Phone,
		&task.Notes,
		&task.AgentID,
		&task.AdminID,
		&task.UploadID,
		&status,
		&task.CompletedAt,
		&task.CompletedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return err
	}
	task.Status = domain.TaskStatus(status)
	return nil
}

func scanTasks(rows pgx.Rows) ([]domain.Task, error) {
	var result []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := scanTask(rows, &task); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, mapPgErr(rows.Err())
}
