package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/taskdist/distribution-service/internal/auth"
	"github.com/taskdist/distribution-service/internal/config"
	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/events"
	"github.com/taskdist/distribution-service/internal/repository"
	"github.com/taskdist/distribution-service/internal/workspace"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

// AgentService manages the agents of one workspace.
type AgentService struct {
	agents            repository.AgentRepository
	tasks             repository.TaskRepository
	events            publisher
	logger            *zap.Logger
	bcryptCost        int
	minPasswordLength int
	phoneRegion       string
}

// AgentDependencies bundles repositories for agent service.
type AgentDependencies struct {
	AgentRepo  repository.AgentRepository
	TaskRepo   repository.TaskRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// AgentInput carries agent fields. Password is required on create and
// optional on update.
type AgentInput struct {
	Name         string
	Email        string
	MobileNumber string
	Password     string
}

// NewAgentService constructs the service.
func NewAgentService(cfg config.AuthConfig, deps AgentDependencies) *AgentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	region := strings.ToUpper(strings.TrimSpace(cfg.AgentPhoneRegion))
	if region == "" {
		region = "IN"
	}
	return &AgentService{
		agents:            deps.AgentRepo,
		tasks:             deps.TaskRepo,
		events:            publisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:            logger,
		bcryptCost:        cfg.BcryptCost,
		minPasswordLength: cfg.MinPasswordLength,
		phoneRegion:       region,
	}
}

// List returns the workspace agents in creation order.
func (s *AgentService) List(ctx context.Context, scope workspace.Scope) ([]domain.Agent, error) {
	agents, err := s.agents.List(ctx, scope)
	if err != nil {
		return nil, mapRepoErr(err, "agent")
	}
	return agents, nil
}

// Get returns one agent together with its tasks.
func (s *AgentService) Get(ctx context.Context, scope workspace.Scope, id string) (*domain.Agent, []domain.Task, error) {
	agent, err := s.agents.GetByID(ctx, scope, id)
	if err != nil {
		return nil, nil, mapRepoErr(err, "agent")
	}
	tasks, err := s.tasks.List(ctx, scope, repository.TaskFilter{AgentID: &agent.ID})
	if err != nil {
		return nil, nil, mapRepoErr(err, "task")
	}
	return agent, tasks, nil
}

// Create adds an agent to the workspace of scope.
func (s *AgentService) Create(ctx context.Context, scope workspace.Scope, input AgentInput) (*domain.Agent, error) {
	if err := scope.Validate(); err != nil {
		return nil, mapRepoErr(err, "agent")
	}
	agent, err := s.build(input, true)
	if err != nil {
		return nil, err
	}

	if _, err := s.agents.GetByEmail(ctx, scope, agent.Email); err == nil {
		return nil, duplicateAgent()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, mapRepoErr(err, "agent")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	agent.PasswordHash = hash
	agent.AdminID = scope.AdminID

	if err := s.agents.Create(ctx, scope, agent); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, duplicateAgent()
		}
		return nil, mapRepoErr(err, "agent")
	}
	s.logger.Info("agent created", zap.String("admin_id", scope.AdminID), zap.String("agent_id", agent.ID))
	s.events.publish(ctx, scope, events.EventAgentCreated, events.AgentCreatedPayload{
		AgentID: agent.ID,
		Email:   agent.Email,
	})
	return agent, nil
}

// Update replaces the agent's profile and, when given, its password.
func (s *AgentService) Update(ctx context.Context, scope workspace.Scope, id string, input AgentInput) (*domain.Agent, error) {
	existing, err := s.agents.GetByID(ctx, scope, id)
	if err != nil {
		return nil, mapRepoErr(err, "agent")
	}
	changes, err := s.build(input, false)
	if err != nil {
		return nil, err
	}

	if changes.Email != existing.Email {
		if other, err := s.agents.GetByEmail(ctx, scope, changes.Email); err == nil && other.ID != existing.ID {
			return nil, duplicateAgent()
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, mapRepoErr(err, "agent")
		}
	}

	existing.Name = changes.Name
	existing.Email = changes.Email
	existing.MobileNumber = changes.MobileNumber
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		existing.PasswordHash = hash
	}

	if err := s.agents.Update(ctx, scope, existing); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, duplicateAgent()
		}
		return nil, mapRepoErr(err, "agent")
	}
	s.events.publish(ctx, scope, events.EventAgentUpdated, events.AgentUpdatedPayload{
		AgentID: existing.ID,
		Email:   existing.Email,
	})
	return existing, nil
}

// Delete removes the agent and every task assigned to it.
func (s *AgentService) Delete(ctx context.Context, scope workspace.Scope, id string) (int64, error) {
	removed, err := s.agents.Delete(ctx, scope, id)
	if err != nil {
		return 0, mapRepoErr(err, "agent")
	}
	s.logger.Info("agent deleted",
		zap.String("admin_id", scope.AdminID),
		zap.String("agent_id", id),
		zap.Int64("tasks_removed", removed),
	)
	s.events.publish(ctx, scope, events.EventAgentDeleted, events.AgentDeletedPayload{
		AgentID:      id,
		TasksRemoved: removed,
	})
	return removed, nil
}

func (s *AgentService) build(input AgentInput, requirePassword bool) (*domain.Agent, error) {
	name := strings.TrimSpace(input.Name)
	email := repository.NormalizeEmail(input.Email)
	if name == "" || email == "" || strings.TrimSpace(input.MobileNumber) == "" {
		return nil, apperrors.NewValidationError("name, email, and mobile number are required", nil)
	}
	if requirePassword || input.Password != "" {
		if err := checkPassword(input.Password, s.minPasswordLength); err != nil {
			return nil, err
		}
	}
	mobile, err := NormalizeMobile(input.MobileNumber, s.phoneRegion)
	if err != nil {
		return nil, apperrors.NewValidationError("mobile number is not valid",
			map[string]any{"field": "mobileNumber", "region": s.phoneRegion})
	}
	return &domain.Agent{Name: name, Email: email, MobileNumber: mobile}, nil
}

// NormalizeMobile parses number in region (numbers with a leading "+" carry
// their own country code) and returns it in E.164 form.
func NormalizeMobile(number, region string) (string, error) {
	parsed, err := phonenumbers.Parse(strings.TrimSpace(number), region)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", errors.New("invalid phone number")
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func duplicateAgent() error {
	return apperrors.NewConflictCode(apperrors.CodeDuplicateAgent,
		"agent already exists with this email in your workspace",
		map[string]any{"field": "email"})
}
