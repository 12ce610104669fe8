package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/taskdist/distribution-service/internal/api/dto"
	"github.com/taskdist/distribution-service/internal/service"
	apperrors "github.com/taskdist/distribution-service/pkg/util/errorutil"
)

// TasksHandler serves the admin task endpoints.
type TasksHandler struct {
	tasks    *service.TaskService
	maxBytes int64
}

// NewTasksHandler constructs handler. maxBytes bounds one uploaded file;
// zero disables the check.
func NewTasksHandler(taskService *service.TaskService, maxBytes int) *TasksHandler {
	return &TasksHandler{tasks: taskService, maxBytes: int64(maxBytes)}
}

// Upload POST /tasks/upload.
func (h *TasksHandler) Upload(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}

	file, err := h.readFile(c)
	if err != nil {
		return err
	}

	result, err := h.tasks.Upload(c.UserContext(), scope, file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUploadResponse(result)})
}

func (h *TasksHandler) readFile(c *fiber.Ctx) (service.UploadFile, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return service.UploadFile{}, nil
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return service.UploadFile{}, apperrors.NewValidationError("file too large", map[string]any{
			"field":    "file",
			"maxBytes": h.maxBytes,
		})
	}

	f, err := header.Open()
	if err != nil {
		return service.UploadFile{}, apperrors.NewInternalError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.UploadFile{}, apperrors.NewInternalError(err)
	}
	return service.UploadFile{
		Name:     header.Filename,
		MimeType: header.Header.Get(fiber.HeaderContentType),
		Data:     data,
	}, nil
}

// List GET /tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	var query dto.TaskListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}

	listing, err := h.tasks.List(c.UserContext(), scope, service.TaskQuery{
		UploadID: query.UploadID,
		AgentID:  query.AgentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskListResponse(listing)})
}

// Delete DELETE /tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), scope, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DeleteTasksResponse{Message: "task deleted successfully", Removed: 1}})
}

// DeleteUpload DELETE /tasks/uploads/:uploadId.
func (h *TasksHandler) DeleteUpload(c *fiber.Ctx) error {
	scope, _, err := adminScope(c)
	if err != nil {
		return err
	}
	removed, err := h.tasks.DeleteUpload(c.UserContext(), scope, c.Params("uploadId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DeleteTasksResponse{Message: "upload deleted successfully", Removed: removed}})
}
