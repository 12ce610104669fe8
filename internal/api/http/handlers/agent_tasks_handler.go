package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/taskdist/distribution-service/internal/api/dto"
	"github.com/taskdist/distribution-service/internal/service"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

// AgentTasksHandler serves the endpoints an agent uses on its own tasks.
type AgentTasksHandler struct {
	tasks     *service.TaskService
	validator *validator.Validate
}

// NewAgentTasksHandler constructs handler.
func NewAgentTasksHandler(taskService *service.TaskService) *AgentTasksHandler {
	return &AgentTasksHandler{tasks: taskService, validator: validator.New()}
}

// List GET /agent/tasks.
func (h *AgentTasksHandler) List(c *fiber.Ctx) error {
	scope, session, err := agentScope(c)
	if err != nil {
		return err
	}
	var query dto.AgentTaskQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := validate(h.validator, &query); err != nil {
		return err
	}

	page, err := h.tasks.ListForAgent(c.UserContext(), scope, query.Page, query.Limit)
	if err != nil {
		return err
	}
	identity := dto.AgentIdentity{
		Name:       session.Agent.Name,
		Email:      session.Agent.Email,
		AdminEmail: session.Agent.AdminEmail,
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentTaskPageResponse(identity, page)})
}

// Complete POST /tasks/:id/complete.
func (h *AgentTasksHandler) Complete(c *fiber.Ctx) error {
	scope, _, err := agentScope(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Complete(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TaskStatusResponse{
		Message: "task marked as completed",
		Task:    dto.NewTaskResponse(task),
	}})
}

// Reopen DELETE /tasks/:id/complete.
func (h *AgentTasksHandler) Reopen(c *fiber.Ctx) error {
	scope, _, err := agentScope(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Reopen(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TaskStatusResponse{
		Message: "task marked as pending",
		Task:    dto.NewTaskResponse(task),
	}})
}
