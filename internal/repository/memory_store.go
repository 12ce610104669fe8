package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/workspace"
)

// MemoryStore keeps admins, agents and tasks in process memory. It applies
// the same workspace scoping and uniqueness rules as the Postgres
// repositories and backs the service when no DSN is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	admins  map[string]domain.Admin
	agents  map[string]domain.Agent
	tasks   map[string]memTask
	nextSeq int64
	last    time.Time
	now     func() time.Time
}

type memTask struct {
	task domain.Task
	seq  int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		admins: make(map[string]domain.Admin),
		agents: make(map[string]domain.Agent),
		tasks:  make(map[string]memTask),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Admins returns the admin repository view of the store.
func (s *MemoryStore) Admins() AdminRepository { return memAdmins{s} }

// Agents returns the agent repository view of the store.
func (s *MemoryStore) Agents() AgentRepository { return memAgents{s} }

// Tasks returns the task repository view of the store.
func (s *MemoryStore) Tasks() TaskRepository { return memTasks{s} }

type memAdmins struct{ s *MemoryStore }

func (r memAdmins) Create(_ context.Context, admin *domain.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	admin.Email = NormalizeEmail(admin.Email)
	for _, existing := range r.s.admins {
		if existing.Email == admin.Email {
			return ErrConflict
		}
	}
	now := r.s.stamp()
	admin.ID = uuid.NewString()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	r.s.admins[admin.ID] = *admin
	return nil
}

func (r memAdmins) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	admin, ok := r.s.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &admin, nil
}

func (r memAdmins) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = NormalizeEmail(email)
	for _, admin := range r.s.admins {
		if admin.Email == email {
			return &admin, nil
		}
	}
	return nil, ErrNotFound
}

type memAgents struct{ s *MemoryStore }

func (r memAgents) Create(_ context.Context, scope workspace.Scope, agent *domain.Agent) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if agent.AdminID != scope.AdminID {
		return ErrCrossWorkspace
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.admins[scope.AdminID]; !ok {
		return ErrCrossWorkspace
	}
	agent.Email = NormalizeEmail(agent.Email)
	if r.s.agentEmailTaken(scope.AdminID, agent.Email, "") {
		return ErrConflict
	}
	now := r.s.stamp()
	agent.ID = uuid.NewString()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	r.s.agents[agent.ID] = *agent
	return nil
}

func (r memAgents) Update(_ context.Context, scope workspace.Scope, agent *domain.Agent) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.agents[agent.ID]
	if !ok || existing.AdminID != scope.AdminID {
		return ErrNotFound
	}
	agent.Email = NormalizeEmail(agent.Email)
	if r.s.agentEmailTaken(scope.AdminID, agent.Email, agent.ID) {
		return ErrConflict
	}
	existing.Name = agent.Name
	existing.Email = agent.Email
	existing.MobileNumber = agent.MobileNumber
	existing.PasswordHash = agent.PasswordHash
	existing.UpdatedAt = r.s.stamp()
	r.s.agents[agent.ID] = existing
	*agent = existing
	return nil
}

func (r memAgents) GetByID(_ context.Context, scope workspace.Scope, id string) (*domain.Agent, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	agent, ok := r.s.agents[id]
	if !ok || agent.AdminID != scope.AdminID {
		return nil, ErrNotFound
	}
	return &agent, nil
}

func (r memAgents) GetByEmail(_ context.Context, scope workspace.Scope, email string) (*domain.Agent, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = NormalizeEmail(email)
	for _, agent := range r.s.agents {
		if agent.AdminID == scope.AdminID && agent.Email == email {
			return &agent, nil
		}
	}
	return nil, ErrNotFound
}

func (r memAgents) List(_ context.Context, scope workspace.Scope) ([]domain.Agent, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.Agent
	for _, agent := range r.s.agents {
		if scope.PermitsAgent(&agent) {
			result = append(result, agent)
		}
	}
	sortAgents(result)
	return result, nil
}

func (r memAgents) Delete(_ context.Context, scope workspace.Scope, id string) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	agent, ok := r.s.agents[id]
	if !ok || agent.AdminID != scope.AdminID {
		return 0, ErrNotFound
	}
	var removed int64
	for taskID, entry := range r.s.tasks {
		if entry.task.AgentID == id && entry.task.AdminID == scope.AdminID {
			delete(r.s.tasks, taskID)
			removed++
		}
	}
	delete(r.s.agents, id)
	return removed, nil
}

func (r memAgents) FindByEmail(_ context.Context, email string) ([]domain.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = NormalizeEmail(email)
	var result []domain.Agent
	for _, agent := range r.s.agents {
		if agent.Email == email {
			result = append(result, agent)
		}
	}
	sortAgents(result)
	return result, nil
}

type memTasks struct{ s *MemoryStore }

func (r memTasks) CreateMany(_ context.Context, scope workspace.Scope, tasks []*domain.Task) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, task := range tasks {
		if task.AdminID != scope.AdminID {
			return ErrCrossWorkspace
		}
		agent, ok := r.s.agents[task.AgentID]
		if !ok || agent.AdminID != task.AdminID {
			return ErrCrossWorkspace
		}
		if _, ok := r.s.tasks[task.ID]; ok || task.ID == "" {
			return ErrConflict
		}
	}
	for _, task := range tasks {
		r.s.nextSeq++
		r.s.tasks[task.ID] = memTask{task: cloneTask(*task), seq: r.s.nextSeq}
	}
	return nil
}

func (r memTasks) GetByID(_ context.Context, scope workspace.Scope, id string) (*domain.Task, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entry, ok := r.s.tasks[id]
	if !ok || !scope.PermitsTask(&entry.task) {
		return nil, ErrNotFound
	}
	task := cloneTask(entry.task)
	return &task, nil
}

func (r memTasks) List(_ context.Context, scope workspace.Scope, filter TaskFilter) ([]domain.Task, error) {
	entries, err := r.matching(scope, filter)
	if err != nil {
		return nil, err
	}
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(entries) {
			return nil, nil
		}
		end := offset + filter.Limit
		if end > len(entries) {
			end = len(entries)
		}
		entries = entries[offset:end]
	}
	result := make([]domain.Task, 0, len(entries))
	for _, entry := range entries {
		result = append(result, cloneTask(entry.task))
	}
	return result, nil
}

func (r memTasks) Count(_ context.Context, scope workspace.Scope, filter TaskFilter) (int, error) {
	entries, err := r.matching(scope, filter)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (r memTasks) UpdateStatus(_ context.Context, scope workspace.Scope, task *domain.Task) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if !scope.PermitsTask(task) {
		return ErrNotFound
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry, ok := r.s.tasks[task.ID]
	if !ok || entry.task.AdminID != task.AdminID || entry.task.AgentID != task.AgentID {
		return ErrNotFound
	}
	entry.task.Status = task.Status
	entry.task.CompletedAt = task.CompletedAt
	entry.task.CompletedBy = task.CompletedBy
	entry.task.UpdatedAt = r.s.stamp()
	entry.task = cloneTask(entry.task)
	r.s.tasks[task.ID] = entry
	task.UpdatedAt = entry.task.UpdatedAt
	return nil
}

func (r memTasks) Delete(_ context.Context, scope workspace.Scope, id string) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry, ok := r.s.tasks[id]
	if !ok || !scope.PermitsTask(&entry.task) {
		return ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r memTasks) DeleteByUpload(_ context.Context, scope workspace.Scope, uploadID string) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	for id, entry := range r.s.tasks {
		if entry.task.UploadID == uploadID && scope.PermitsTask(&entry.task) {
			delete(r.s.tasks, id)
			removed++
		}
	}
	return removed, nil
}

func (r memTasks) matching(scope workspace.Scope, filter TaskFilter) ([]memTask, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []memTask
	for _, entry := range r.s.tasks {
		task := entry.task
		if !scope.PermitsTask(&task) {
			continue
		}
		if filter.UploadID != nil && task.UploadID != *filter.UploadID {
			continue
		}
		if filter.AgentID != nil && task.AgentID != *filter.AgentID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq < b.seq
	})
	return result, nil
}

// stamp returns a strictly increasing timestamp at Postgres precision so
// created_at ordering matches insertion order. Callers hold the write lock.
func (s *MemoryStore) stamp() time.Time {
	t := s.now().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *MemoryStore) agentEmailTaken(adminID, email, exceptID string) bool {
	for _, agent := range s.agents {
		if agent.AdminID == adminID && agent.Email == email && agent.ID != exceptID {
			return true
		}
	}
	return false
}

func sortAgents(agents []domain.Agent) {
	sort.Slice(agents, func(i, j int) bool {
		if !agents[i].CreatedAt.Equal(agents[j].CreatedAt) {
			return agents[i].CreatedAt.Before(agents[j].CreatedAt)
		}
		return agents[i].ID < agents[j].ID
	})
}

func cloneTask(task domain.Task) domain.Task {
	if task.CompletedAt != nil {
		at := *task.CompletedAt
		task.CompletedAt = &at
	}
	if task.CompletedBy != nil {
		by := *task.CompletedBy
		task.CompletedBy = &by
	}
	return task
}
