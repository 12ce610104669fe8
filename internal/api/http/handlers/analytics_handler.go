package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taskdist/distribution-service/internal/service"
)

// AnalyticsHandler serves workspace task analytics.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analyticsService}
}

// Tasks GET /analytics/tasks.
func (h *AnalyticsHandler) Tasks(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	report, err := h.analytics.TaskAnalytics(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
