package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdist/distribution-service/internal/distribution"
	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/events"
	"github.com/taskdist/distribution-service/internal/observability"
	"github.com/taskdist/distribution-service/internal/repository"
	"github.com/taskdist/distribution-service/internal/spreadsheet"
	"github.com/taskdist/distribution-service/internal/workspace"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TaskService coordinates uploads, listings and the task lifecycle.
type TaskService struct {
	admins  repository.AdminRepository
	agents  repository.AgentRepository
	tasks   repository.TaskRepository
	events  publisher
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// TaskDependencies bundles repositories for task service.
type TaskDependencies struct {
	AdminRepo  repository.AdminRepository
	AgentRepo  repository.AgentRepository
	TaskRepo   repository.TaskRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// UploadFile is one spreadsheet submitted by an admin.
type UploadFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// AgentTasks pairs an agent with the tasks assigned to it.
type AgentTasks struct {
	Agent domain.Agent
	Tasks []domain.Task
}

// UploadResult describes a completed distribution.
type UploadResult struct {
	UploadID     string
	TotalTasks   int
	Distribution []AgentTasks
}

// TaskQuery filters the admin task listing.
type TaskQuery struct {
	UploadID string
	AgentID  string
}

// TaskListing is the admin task listing. When only an upload id was given
// Distribution holds one entry per workspace agent and Grouped is set.
type TaskListing struct {
	UploadID     string
	Grouped      bool
	Tasks        []domain.Task
	Distribution []AgentTasks
	Agents       map[string]domain.Agent
}

// UploadGroup holds one upload batch of an agent's task page.
type UploadGroup struct {
	UploadID   string
	AdminEmail string
	CreatedAt  time.Time
	Tasks      []domain.Task
}

// AgentTaskPage is one page of an agent's own tasks.
type AgentTaskPage struct {
	Groups      []UploadGroup
	CurrentPage int
	Limit       int
	TotalTasks  int
	TotalPages  int
	HasNext     bool
	HasPrev     bool
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		admins:  deps.AdminRepo,
		agents:  deps.AgentRepo,
		tasks:   deps.TaskRepo,
		events:  publisher{dispatcher: deps.Dispatcher, logger: logger},
		metrics: deps.Metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload parses file and splits its rows across the workspace's agents.
// The workspace must hold exactly five agents; they receive blocks in
// creation order.
func (s *TaskService) Upload(ctx context.Context, scope workspace.Scope, file UploadFile) (*UploadResult, error) {
	result, err := s.upload(ctx, scope, file)
	s.metrics.RecordUpload(err == nil, resultSize(result))
	return result, err
}

func (s *TaskService) upload(ctx context.Context, scope workspace.Scope, file UploadFile) (*UploadResult, error) {
	if len(file.Data) == 0 && file.Name == "" {
		return nil, apperrors.NewValidationError("no file provided", map[string]any{"field": "file"})
	}
	if !spreadsheet.IsAllowed(file.Name, file.MimeType) {
		return nil, apperrors.NewBadRequest(apperrors.CodeUnsupportedFile, spreadsheet.ErrUnsupportedFormat)
	}

	agents, err := s.agents.List(ctx, scope)
	if err != nil {
		return nil, mapRepoErr(err, "agent")
	}
	if len(agents) != domain.WorkspaceAgentCount {
		return nil, apperrors.NewDomainError(apperrors.CodeInsufficientAgents,
			"exactly 5 agents are required for task distribution in your workspace",
			http.StatusBadRequest, map[string]any{"required": domain.WorkspaceAgentCount, "found": len(agents)})
	}

	rows, err := spreadsheet.Parse(file.Name, file.Data)
	if err != nil {
		return nil, mapUploadErr(err)
	}

	agentIDs := make([]string, 0, len(agents))
	for _, agent := range agents {
		agentIDs = append(agentIDs, agent.ID)
	}
	groups, err := distribution.Distribute(rows, agentIDs)
	if err != nil {
		return nil, mapUploadErr(err)
	}

	uploadID := uuid.NewString()
	now := s.now()
	batch := make([]*domain.Task, 0, len(rows))
	result := &UploadResult{UploadID: uploadID, TotalTasks: len(rows)}
	perAgent := make(map[string]int, len(groups))

	for i, group := range groups {
		assigned := make([]domain.Task, 0, len(group.Rows))
		for _, row := range group.Rows {
			task := domain.Task{
				ID:        uuid.NewString(),
				FirstName: row.FirstName,
				Phone:     row.Phone,
				Notes:     row.Notes,
				AgentID:   group.AgentID,
				AdminID:   scope.AdminID,
				UploadID:  uploadID,
				Status:    domain.TaskStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			assigned = append(assigned, task)
			batch = append(batch, &assigned[len(assigned)-1])
		}
		perAgent[group.AgentID] = len(assigned)
		result.Distribution = append(result.Distribution, AgentTasks{Agent: agents[i], Tasks: assigned})
	}

	if err := s.tasks.CreateMany(ctx, scope, batch); err != nil {
		return nil, mapRepoErr(err, "task")
	}

	s.logger.Info("tasks distributed",
		zap.String("admin_id", scope.AdminID),
		zap.String("upload_id", uploadID),
		zap.Int("total", len(rows)),
	)
	s.events.publish(ctx, scope, events.EventTasksDistributed, events.TasksDistributedPayload{
		UploadID:   uploadID,
		TotalTasks: len(rows),
		PerAgent:   perAgent,
	})
	return result, nil
}

// List returns the admin's tasks filtered by query.
func (s *TaskService) List(ctx context.Context, scope workspace.Scope, query TaskQuery) (*TaskListing, error) {
	filter := repository.TaskFilter{}
	if query.UploadID != "" {
		filter.UploadID = &query.UploadID
	}
	if query.AgentID != "" {
		filter.AgentID = &query.AgentID
	}

	tasks, err := s.tasks.List(ctx, scope, filter)
	if err != nil {
		return nil, mapRepoErr(err, "task")
	}
	agents, err := s.agents.List(ctx, scope)
	if err != nil {
		return nil, mapRepoErr(err, "agent")
	}

	listing := &TaskListing{
		UploadID: query.UploadID,
		Tasks:    tasks,
		Agents:   make(map[string]domain.Agent, len(agents)),
	}
	for _, agent := range agents {
		listing.Agents[agent.ID] = agent
	}

	if query.UploadID != "" && query.AgentID == "" {
		listing.Grouped = true
		byAgent := make(map[string][]domain.Task, len(agents))
		for _, task := range tasks {
			byAgent[task.AgentID] = append(byAgent[task.AgentID], task)
		}
		for _, agent := range agents {
			assigned := byAgent[agent.ID]
			if assigned == nil {
				assigned = []domain.Task{}
			}
			listing.Distribution = append(listing.Distribution, AgentTasks{Agent: agent, Tasks: assigned})
		}
	}
	return listing, nil
}

// Delete removes one task from the workspace.
func (s *TaskService) Delete(ctx context.Context, scope workspace.Scope, id string) error {
	if err := s.tasks.Delete(ctx, scope, id); err != nil {
		return mapRepoErr(err, "task")
	}
	s.events.publish(ctx, scope, events.EventTasksDeleted, events.TasksDeletedPayload{TaskID: id, Count: 1})
	return nil
}

// DeleteUpload removes every task of an upload batch.
func (s *TaskService) DeleteUpload(ctx context.Context, scope workspace.Scope, uploadID string) (int64, error) {
	removed, err := s.tasks.DeleteByUpload(ctx, scope, uploadID)
	if err != nil {
		return 0, mapRepoErr(err, "upload")
	}
	if removed == 0 {
		return 0, apperrors.NewNotFound("upload", map[string]any{"uploadId": uploadID})
	}
	s.events.publish(ctx, scope, events.EventTasksDeleted, events.TasksDeletedPayload{UploadID: uploadID, Count: removed})
	return removed, nil
}

// ListForAgent returns one page of the agent's tasks, newest first,
// grouped by upload batch.
func (s *TaskService) ListForAgent(ctx context.Context, scope workspace.Scope, page, limit int) (*AgentTaskPage, error) {
	if !scope.IsAgent() {
		return nil, apperrors.NewForbidden("agent access required")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	total, err := s.tasks.Count(ctx, scope, repository.TaskFilter{})
	if err != nil {
		return nil, mapRepoErr(err, "task")
	}
	tasks, err := s.tasks.List(ctx, scope, repository.TaskFilter{Limit: limit, Offset: offset})
	if err != nil {
		return nil, mapRepoErr(err, "task")
	}
	owner, err := s.admins.GetByID(ctx, scope.AdminID)
	if err != nil {
		return nil, mapRepoErr(err, "admin")
	}

	result := &AgentTaskPage{
		Groups:      []UploadGroup{},
		CurrentPage: page,
		Limit:       limit,
		TotalTasks:  total,
		TotalPages:  (total + limit - 1) / limit,
		HasNext:     offset+limit < total,
		HasPrev:     page > 1,
	}
	index := make(map[string]int)
	for _, task := range tasks {
		pos, ok := index[task.UploadID]
		if !ok {
			pos = len(result.Groups)
			index[task.UploadID] = pos
			result.Groups = append(result.Groups, UploadGroup{
				UploadID:   task.UploadID,
				AdminEmail: owner.Email,
				CreatedAt:  task.CreatedAt,
			})
		}
		result.Groups[pos].Tasks = append(result.Groups[pos].Tasks, task)
	}
	return result, nil
}

// Complete marks a pending task of the calling agent as completed.
func (s *TaskService) Complete(ctx context.Context, scope workspace.Scope, id string) (*domain.Task, error) {
	return s.transition(ctx, scope, id, domain.TaskStatusCompleted)
}

// Reopen returns a completed task of the calling agent to pending.
func (s *TaskService) Reopen(ctx context.Context, scope workspace.Scope, id string) (*domain.Task, error) {
	return s.transition(ctx, scope, id, domain.TaskStatusPending)
}

func (s *TaskService) transition(ctx context.Context, scope workspace.Scope, id string, target domain.TaskStatus) (*domain.Task, error) {
	if !scope.IsAgent() {
		return nil, apperrors.NewForbidden("agent access required")
	}

	// fetched across the workspace so a foreign assignment yields 403, not 404
	task, err := s.tasks.GetByID(ctx, scope.Workspace(), id)
	if err != nil {
		return nil, mapRepoErr(err, "task")
	}
	if task.AgentID != scope.AgentID {
		return nil, apperrors.NewForbidden("task not assigned to you")
	}

	previous := task.Status
	switch target {
	case domain.TaskStatusCompleted:
		if task.IsCompleted() {
			return nil, apperrors.NewDomainError(apperrors.CodeTaskAlreadyCompleted, "task is already completed", http.StatusBadRequest, nil)
		}
		now := s.now()
		agentID := scope.AgentID
		task.Status = domain.TaskStatusCompleted
		task.CompletedAt = &now
		task.CompletedBy = &agentID
	default:
		if !task.IsCompleted() {
			return nil, apperrors.NewDomainError(apperrors.CodeTaskNotCompleted, "task is not completed", http.StatusBadRequest, nil)
		}
		task.Status = domain.TaskStatusPending
		task.CompletedAt = nil
		task.CompletedBy = nil
	}

	if err := s.tasks.UpdateStatus(ctx, scope, task); err != nil {
		return nil, mapRepoErr(err, "task")
	}

	s.metrics.RecordTaskTransition(string(task.Status))
	s.events.publish(ctx, scope, events.EventTaskStatusChanged, events.TaskStatusChangedPayload{
		TaskID:    task.ID,
		AgentID:   task.AgentID,
		OldStatus: previous,
		NewStatus: task.Status,
	})
	return task, nil
}

func resultSize(result *UploadResult) int {
	if result == nil {
		return 0
	}
	return result.TotalTasks
}
