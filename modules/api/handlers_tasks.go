package api

import (
	"errors"
	"log"
	"strconv"

	taskdomain "github.com/Rahim-U/horizon-labs-assessment/domain/task"
	domain "github.com/Rahim-U/horizon-labs-assessment/domain/user"
	"github.com/Rahim-U/horizon-labs-assessment/modules/tasks"
	"github.com/gofiber/fiber/v2"
)

// currentClaims returns the claims set by AuthMiddleware.
func currentClaims(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok
}

// ListTasks returns the authenticated user's tasks with filtering,
// searching and sorting applied server-side.
func (m *Module) ListTasks(c *fiber.Ctx) error {
	claims, ok := currentClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	q := taskdomain.Query{
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
	}

	if q.Status != "" && !taskdomain.ValidStatus(q.Status) {
		return unprocessable(c, tasks.ErrInvalidStatus.Error())
	}
	if q.Priority != "" && !taskdomain.ValidPriority(q.Priority) {
		return unprocessable(c, tasks.ErrInvalidPriority.Error())
	}
	if q.SortBy != "" && !taskdomain.ValidSortField(q.SortBy) {
		return unprocessable(c, "sort_by must be one of: created_at, updated_at, due_date, title, status, priority")
	}
	if len(q.Search) > 200 {
		return unprocessable(c, "search query cannot exceed 200 characters")
	}

	result, err := m.tasksService.List(c.UserContext(), claims.UserID, q)
	if err != nil {
		return m.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// CreateTask creates a new task for the authenticated user.
func (m *Module) CreateTask(c *fiber.Ctx) error {
	claims, ok := currentClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	var req tasks.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return unprocessable(c, "Invalid request body")
	}

	task, err := m.tasksService.Create(c.UserContext(), claims.UserID, req)
	if err != nil {
		return m.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTask returns a single task by ID.
func (m *Module) GetTask(c *fiber.Ctx) error {
	claims, ok := currentClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := parseTaskID(c)
	if err != nil {
		return unprocessable(c, "Task ID must be a positive integer")
	}

	task, err := m.tasksService.Get(c.UserContext(), claims.UserID, taskID)
	if err != nil {
		return m.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(task)
}

// UpdateTask applies a partial patch to a task.
func (m *Module) UpdateTask(c *fiber.Ctx) error {
	claims, ok := currentClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := parseTaskID(c)
	if err != nil {
		return unprocessable(c, "Task ID must be a positive integer")
	}

	var req tasks.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return unprocessable(c, "Invalid request body")
	}

	task, err := m.tasksService.Update(c.UserContext(), claims.UserID, taskID, req)
	if err != nil {
		return m.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(task)
}

// DeleteTask removes a task.
func (m *Module) DeleteTask(c *fiber.Ctx) error {
	claims, ok := currentClaims(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := parseTaskID(c)
	if err != nil {
		return unprocessable(c, "Task ID must be a positive integer")
	}

	if err := m.tasksService.Delete(c.UserContext(), claims.UserID, taskID); err != nil {
		return m.handleTaskError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// parseTaskID extracts and validates the :id path parameter.
func parseTaskID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid task id")
	}
	return uint(id), nil
}

// handleTaskError maps task service errors to HTTP responses.
func (m *Module) handleTaskError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Detail: "Task not found",
		})
	case errors.Is(err, tasks.ErrEmptyUpdate):
		return badRequest(c, err.Error())
	case errors.Is(err, tasks.ErrEmptyTitle),
		errors.Is(err, tasks.ErrTitleTooLong),
		errors.Is(err, tasks.ErrDescTooLong),
		errors.Is(err, tasks.ErrInvalidStatus),
		errors.Is(err, tasks.ErrInvalidPriority),
		errors.Is(err, tasks.ErrDueDateInPast):
		return unprocessable(c, err.Error())
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Detail: "Database error occurred. Please try again later.",
		})
	}
}

// unauthenticated writes the 401 used when middleware claims are missing.
func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Detail: "Not authenticated",
	})
}

// unprocessable writes a 422 with the detail error shape.
func unprocessable(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
		Detail: detail,
	})
}
