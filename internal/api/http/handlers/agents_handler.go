package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/taskdist/distribution-service/internal/api/dto"
	"github.com/taskdist/distribution-service/internal/service"
)

// AgentsHandler manages the agents of the caller's workspace.
type AgentsHandler struct {
	agents    *service.AgentService
	validator *validator.Validate
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{agents: agentService, validator: validator.New()}
}

// List GET /agents.
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	agents, err := h.agents.List(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentResponses(agents)})
}

// Get GET /agents/:id.
func (h *AgentsHandler) Get(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	agent, tasks, err := h.agents.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentDetailResponse{
		Agent: dto.NewAgentResponse(agent),
		Tasks: dto.NewTaskResponses(tasks, nil),
	}})
}

// Create POST /agents.
func (h *AgentsHandler) Create(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	var req dto.CreateAgentRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	agent, err := h.agents.Create(c.UserContext(), scope, service.AgentInput{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAgentResponse(agent)})
}

// Update PUT /agents/:id.
func (h *AgentsHandler) Update(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAgentRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	agent, err := h.agents.Update(c.UserContext(), scope, c.Params("id"), service.AgentInput{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentResponse(agent)})
}

// Delete DELETE /agents/:id.
func (h *AgentsHandler) Delete(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	removed, err := h.agents.Delete(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DeleteAgentResponse{
		Message:      "agent deleted successfully",
		TasksRemoved: removed,
	}})
}
