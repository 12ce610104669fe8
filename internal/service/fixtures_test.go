package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdist/distribution-service/internal/auth"
	"github.com/taskdist/distribution-service/internal/cache"
	"github.com/taskdist/distribution-service/internal/config"
	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/events"
	"github.com/taskdist/distribution-service/internal/observability"
	"github.com/taskdist/distribution-service/internal/repository"
	"github.com/taskdist/distribution-service/internal/workspace"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:         "test-secret",
	BcryptCost:        bcrypt.MinCost,
	MinPasswordLength: 6,
	AgentPhoneRegion:  "IN",
}

type fixture struct {
	store      *repository.MemoryStore
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	auth       *AuthService
	agents     *AgentService
	tasks      *TaskService
	analytics  *AnalyticsService
}

func newFixture(t *testing.T, analyticsCache *cache.AnalyticsCache) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	tokens := auth.NewTokenManager(testAuthConfig.JWTSecret, time.Hour)
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	NewNotificationService(dispatcher, analyticsCache, logger, config.NotificationConfig{}).RegisterHandlers()

	f := &fixture{
		store:      store,
		tokens:     tokens,
		dispatcher: dispatcher,
		metrics:    metrics,
		auth: NewAuthService(testAuthConfig, AuthDependencies{
			AdminRepo: store.Admins(),
			AgentRepo: store.Agents(),
			Tokens:    tokens,
			Metrics:   metrics,
			Logger:    logger,
		}),
		agents: NewAgentService(testAuthConfig, AgentDependencies{
			AgentRepo:  store.Agents(),
			TaskRepo:   store.Tasks(),
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		tasks: NewTaskService(TaskDependencies{
			AdminRepo:  store.Admins(),
			AgentRepo:  store.Agents(),
			TaskRepo:   store.Tasks(),
			Dispatcher: dispatcher,
			Metrics:    metrics,
			Logger:     logger,
		}),
		analytics: NewAnalyticsService(AnalyticsDependencies{
			AgentRepo: store.Agents(),
			TaskRepo:  store.Tasks(),
			Cache:     analyticsCache,
			Metrics:   metrics,
			Logger:    logger,
		}),
	}
	f.tasks.now = tickingClock(time.Now().UTC())
	return f
}

// tickingClock advances one second per call so batches sort deterministically.
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

// registerAdmin signs up an admin and returns its workspace scope.
func (f *fixture) registerAdmin(t *testing.T, email string) workspace.Scope {
	t.Helper()
	result, err := f.auth.Register(context.Background(), email, "secret123")
	require.NoError(t, err)
	session, err := f.tokens.ParseToken(result.Token)
	require.NoError(t, err)
	scope, err := workspace.ForAdmin(session)
	require.NoError(t, err)
	return scope
}

// addAgents creates n agents named prefix-1..prefix-n.
func (f *fixture) addAgents(t *testing.T, scope workspace.Scope, prefix string, n int) []*domain.Agent {
	t.Helper()
	agents := make([]*domain.Agent, 0, n)
	for i := 1; i <= n; i++ {
		agent, err := f.agents.Create(context.Background(), scope, AgentInput{
			Name:         fmt.Sprintf("%s %d", prefix, i),
			Email:        fmt.Sprintf("%s-%d@example.com", prefix, i),
			MobileNumber: fmt.Sprintf("98765432%02d", i),
			Password:     "agentpass",
		})
		require.NoError(t, err)
		agents = append(agents, agent)
	}
	return agents
}

func agentScope(scope workspace.Scope, agent *domain.Agent) workspace.Scope {
	return workspace.Scope{AdminID: scope.AdminID, AgentID: agent.ID}
}

// contactsCSV renders n generated contact rows with a header.
func contactsCSV(n int) []byte {
	gofakeit.Seed(7)
	var b strings.Builder
	b.WriteString("FirstName,Phone,Notes\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s,%s,%s\n", gofakeit.FirstName(), gofakeit.Phone(), gofakeit.Word())
	}
	return []byte(b.String())
}

func csvUpload(n int) UploadFile {
	return UploadFile{Name: "contacts.csv", MimeType: "text/csv", Data: contactsCSV(n)}
}
