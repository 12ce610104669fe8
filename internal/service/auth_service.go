package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/taskdist/distribution-service/internal/auth"
	"github.com/taskdist/distribution-service/internal/config"
	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/observability"
	"github.com/taskdist/distribution-service/internal/repository"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

// AuthService coordinates admin registration and login for both roles.
type AuthService struct {
	admins            repository.AdminRepository
	agents            repository.AgentRepository
	tokens            *auth.TokenManager
	bcryptCost        int
	minPasswordLength int
	metrics           *observability.Metrics
	logger            *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AdminRepo repository.AdminRepository
	AgentRepo repository.AgentRepository
	Tokens    *auth.TokenManager
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// AdminAuthResult is returned by admin registration and login.
type AdminAuthResult struct {
	Admin     *domain.Admin
	Token     string
	ExpiresAt time.Time
}

// AgentAuthResult is returned by agent login.
type AgentAuthResult struct {
	Agent      *domain.Agent
	AdminEmail string
	Token      string
	ExpiresAt  time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:            deps.AdminRepo,
		agents:            deps.AgentRepo,
		tokens:            deps.Tokens,
		bcryptCost:        cfg.BcryptCost,
		minPasswordLength: cfg.MinPasswordLength,
		metrics:           deps.Metrics,
		logger:            logger,
	}
}

// Register creates an admin account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AdminAuthResult, error) {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	if err := checkPassword(password, s.minPasswordLength); err != nil {
		return nil, err
	}

	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	admin := &domain.Admin{Email: email, PasswordHash: hash}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, emailTaken()
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("admin registered", zap.String("admin_id", admin.ID))
	return s.signAdmin(admin)
}

// LoginAdmin authenticates an admin by email and password.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*AdminAuthResult, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLoginAttempt(string(domain.RoleAdmin), false)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		s.metrics.RecordLoginAttempt(string(domain.RoleAdmin), false)
		return nil, errInvalidCredentials
	}
	s.metrics.RecordLoginAttempt(string(domain.RoleAdmin), true)
	return s.signAdmin(admin)
}

// LoginAgent authenticates an agent. Agent emails are unique per workspace
// only, so every agent carrying the email is a candidate; adminEmail, when
// given, narrows the candidates to one workspace. The password must match
// exactly one candidate.
func (s *AuthService) LoginAgent(ctx context.Context, email, password, adminEmail string) (*AgentAuthResult, error) {
	candidates, err := s.agents.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if adminEmail = strings.TrimSpace(adminEmail); adminEmail != "" {
		admin, err := s.admins.GetByEmail(ctx, adminEmail)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			candidates = nil
		case err != nil:
			return nil, apperrors.NewInternalError(err)
		default:
			candidates = filterByAdmin(candidates, admin.ID)
		}
	}

	var matched []domain.Agent
	for _, candidate := range candidates {
		if auth.ComparePassword(candidate.PasswordHash, password) == nil {
			matched = append(matched, candidate)
		}
	}

	switch len(matched) {
	case 0:
		s.metrics.RecordLoginAttempt(string(domain.RoleAgent), false)
		return nil, errInvalidCredentials
	case 1:
	default:
		s.metrics.RecordLoginAttempt(string(domain.RoleAgent), false)
		s.logger.Warn("ambiguous agent login", zap.Int("matches", len(matched)))
		return nil, apperrors.NewConflictCode(apperrors.CodeAmbiguousAgent,
			"credentials match agents in several workspaces; resend with adminEmail",
			map[string]any{"field": "adminEmail"})
	}

	agent := matched[0]
	owner, err := s.admins.GetByID(ctx, agent.AdminID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("load owner of agent %s: %w", agent.ID, err))
	}

	token, exp, err := s.tokens.IssueAgentToken(domain.AgentClaims{
		AgentID:    agent.ID,
		UserID:     agent.AdminID,
		Email:      agent.Email,
		Name:       agent.Name,
		AdminEmail: owner.Email,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordLoginAttempt(string(domain.RoleAgent), true)
	return &AgentAuthResult{Agent: &agent, AdminEmail: owner.Email, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) signAdmin(admin *domain.Admin) (*AdminAuthResult, error) {
	token, exp, err := s.tokens.IssueAdminToken(domain.AdminClaims{UserID: admin.ID, Email: admin.Email})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AdminAuthResult{Admin: admin, Token: token, ExpiresAt: exp}, nil
}

func checkPassword(password string, minLength int) error {
	if len(password) < minLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters long", minLength),
			map[string]any{"field": "password", "min": minLength},
		)
	}
	return nil
}

func emailTaken() error {
	return apperrors.NewConflictCode(apperrors.CodeEmailTaken, "email already registered", map[string]any{"field": "email"})
}

func filterByAdmin(agents []domain.Agent, adminID string) []domain.Agent {
	var out []domain.Agent
	for _, agent := range agents {
		if agent.AdminID == adminID {
			out = append(out, agent)
		}
	}
	return out
}
