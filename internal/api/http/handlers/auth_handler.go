package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/taskdist/distribution-service/internal/api/dto"
	"github.com/taskdist/distribution-service/internal/auth"
	"github.com/taskdist/distribution-service/internal/domain"
	"github.com/taskdist/distribution-service/internal/service"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	validator *validator.Validate
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService, validator: validator.New()}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": adminAuthResponse(result)})
}

// AdminLogin handles POST /auth/admin-login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": adminAuthResponse(result)})
}

// AgentLogin handles POST /auth/agent-login.
func (h *AuthHandler) AgentLogin(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.auth.LoginAgent(c.UserContext(), req.Email, req.Password, req.AdminEmail)
	if err != nil {
		return err
	}

	agent := dto.NewAgentResponse(result.Agent)
	agent.AdminEmail = result.AdminEmail
	agent.Role = domain.RoleAgent
	return c.JSON(fiber.Map{"data": dto.AgentAuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Agent:     agent,
	}})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(session)})
}

func adminAuthResponse(result *service.AdminAuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User: dto.AdminResponse{
			ID:    result.Admin.ID,
			Email: result.Admin.Email,
			Role:  domain.RoleAdmin,
		},
	}
}
