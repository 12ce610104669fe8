package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/taskdist/distribution-service/internal/cache"
	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/observability"
	"github.com/taskdist/distribution-service/internal/repository"
	"github.com/taskdist/distribution-service/internal/workspace"
)

const (
	timelineDays      = 7
	recentCompletions = 10
)

// TaskAnalytics is the completion report of one workspace.
type TaskAnalytics struct {
	Overview           AnalyticsOverview  `json:"overview"`
	AgentPerformance   []AgentPerformance `json:"agentPerformance"`
	UploadSessions     []UploadSession    `json:"uploadSessions"`
	CompletionTimeline []TimelinePoint    `json:"completionTimeline"`
	RecentCompletions  []RecentCompletion `json:"recentCompletions"`
	GeneratedAt        time.Time          `json:"generatedAt"`
}

// AnalyticsOverview aggregates every task of the workspace.
type AnalyticsOverview struct {
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	PendingTasks   int     `json:"pendingTasks"`
	CompletionRate float64 `json:"completionRate"`
}

// AgentSummary identifies an agent inside analytics.
type AgentSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AgentPerformance aggregates one agent's tasks.
type AgentPerformance struct {
	Agent          AgentSummary `json:"agent"`
	Total          int          `json:"total"`
	Completed      int          `json:"completed"`
	Pending        int          `json:"pending"`
	CompletionRate float64      `json:"completionRate"`
}

// UploadSession aggregates one upload batch.
type UploadSession struct {
	UploadID       string    `json:"uploadId"`
	CreatedAt      time.Time `json:"createdAt"`
	Total          int       `json:"total"`
	Completed      int       `json:"completed"`
	Pending        int       `json:"pending"`
	CompletionRate float64   `json:"completionRate"`
}

// TimelinePoint counts completions on one UTC day.
type TimelinePoint struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
}

// RecentCompletion is one entry of the recent completions feed.
type RecentCompletion struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	Phone       string     `json:"phone"`
	AgentName   string     `json:"agentName"`
	CompletedAt *time.Time `json:"completedAt"`
	UploadID    string     `json:"uploadId"`
}

// AnalyticsService computes workspace analytics, cached per admin.
type AnalyticsService struct {
	agents  repository.AgentRepository
	tasks   repository.TaskRepository
	cache   *cache.AnalyticsCache
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// AnalyticsDependencies bundles collaborators for analytics service.
type AnalyticsDependencies struct {
	AgentRepo repository.AgentRepository
	TaskRepo  repository.TaskRepository
	Cache     *cache.AnalyticsCache
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		agents:  deps.AgentRepo,
		tasks:   deps.TaskRepo,
		cache:   deps.Cache,
		metrics: deps.Metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// TaskAnalytics returns the report for the workspace of scope.
func (s *AnalyticsService) TaskAnalytics(ctx context.Context, scope workspace.Scope) (*TaskAnalytics, error) {
	if err := scope.Validate(); err != nil {
		return nil, mapRepoErr(err, "analytics")
	}
	scope = scope.Workspace()

	if s.cache.Enabled() {
		var cached TaskAnalytics
		hit, err := s.cache.Get(ctx, scope.AdminID, &cached)
		if err != nil {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		}
		s.metrics.RecordCache(hit)
		if hit {
			return &cached, nil
		}
	}

	agents, err := s.agents.List(ctx, scope)
	if err != nil {
		return nil, mapRepoErr(err, "agent")
	}
	tasks, err := s.tasks.List(ctx, scope, repository.TaskFilter{})
	if err != nil {
		return nil, mapRepoErr(err, "task")
	}

	report := buildAnalytics(agents, tasks, s.now())
	if err := s.cache.Set(ctx, scope.AdminID, report); err != nil {
		s.logger.Warn("analytics cache write failed", zap.Error(err))
	}
	return report, nil
}

// buildAnalytics expects tasks newest first.
func buildAnalytics(agents []domain.Agent, tasks []domain.Task, now time.Time) *TaskAnalytics {
	report := &TaskAnalytics{
		AgentPerformance:  make([]AgentPerformance, 0, len(agents)),
		UploadSessions:    []UploadSession{},
		RecentCompletions: []RecentCompletion{},
		GeneratedAt:       now,
	}

	agentIndex := make(map[string]int, len(agents))
	for i, agent := range agents {
		agentIndex[agent.ID] = i
		report.AgentPerformance = append(report.AgentPerformance, AgentPerformance{
			Agent: AgentSummary{ID: agent.ID, Name: agent.Name, Email: agent.Email},
		})
	}

	today := now.UTC().Truncate(24 * time.Hour)
	timelineIndex := make(map[string]int, timelineDays)
	for i := timelineDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(time.DateOnly)
		timelineIndex[day] = len(report.CompletionTimeline)
		report.CompletionTimeline = append(report.CompletionTimeline, TimelinePoint{Date: day})
	}

	uploadIndex := make(map[string]int)
	for _, task := range tasks {
		completed := task.IsCompleted()
		report.Overview.TotalTasks++
		if completed {
			report.Overview.CompletedTasks++
		}

		if i, ok := agentIndex[task.AgentID]; ok {
			perf := &report.AgentPerformance[i]
			perf.Total++
			if completed {
				perf.Completed++
			}
		}

		pos, ok := uploadIndex[task.UploadID]
		if !ok {
			pos = len(report.UploadSessions)
			uploadIndex[task.UploadID] = pos
			report.UploadSessions = append(report.UploadSessions, UploadSession{UploadID: task.UploadID, CreatedAt: task.CreatedAt})
		}
		session := &report.UploadSessions[pos]
		session.Total++
		if completed {
			session.Completed++
		}
		if task.CreatedAt.After(session.CreatedAt) {
			session.CreatedAt = task.CreatedAt
		}

		if !completed {
			continue
		}
		if task.CompletedAt != nil {
			if i, ok := timelineIndex[task.CompletedAt.UTC().Format(time.DateOnly)]; ok {
				report.CompletionTimeline[i].Completed++
			}
		}
		if len(report.RecentCompletions) < recentCompletions {
			agentName := ""
			if i, ok := agentIndex[task.AgentID]; ok {
				agentName = agents[i].Name
			}
			report.RecentCompletions = append(report.RecentCompletions, RecentCompletion{
				ID:          task.ID,
				FirstName:   task.FirstName,
				Phone:       task.Phone,
				AgentName:   agentName,
				CompletedAt: task.CompletedAt,
				UploadID:    task.UploadID,
			})
		}
	}

	report.Overview.PendingTasks = report.Overview.TotalTasks - report.Overview.CompletedTasks
	report.Overview.CompletionRate = completionRate(report.Overview.CompletedTasks, report.Overview.TotalTasks)
	for i := range report.AgentPerformance {
		perf := &report.AgentPerformance[i]
		perf.Pending = perf.Total - perf.Completed
		perf.CompletionRate = completionRate(perf.Completed, perf.Total)
	}
	for i := range report.UploadSessions {
		session := &report.UploadSessions[i]
		session.Pending = session.Total - session.Completed
		session.CompletionRate = completionRate(session.Completed, session.Total)
	}
	sort.SliceStable(report.UploadSessions, func(i, j int) bool {
		return report.UploadSessions[i].CreatedAt.After(report.UploadSessions[j].CreatedAt)
	})
	return report
}

// completionRate is a percentage rounded to one decimal.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)*1000/float64(total)) / 10
}
