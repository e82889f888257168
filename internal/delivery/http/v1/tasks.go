package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkravets/todo-api/internal/models"
	"github.com/mkravets/todo-api/internal/services"
)

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	Tags        []string   `json:"tags"`
	OwnerID     string     `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func newTaskResponse(task *models.Task) taskResponse {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Completed:   task.Completed,
		Tags:        tags,
		OwnerID:     task.OwnerID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description" binding:"required"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	// The owner always comes from the verified token, never
	// from the request body.
	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	filter, err := parseTaskFilter(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse task filter")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	tasks, err := h.tasks.GetTasksByOwner(c, userID, filter)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newTaskResponse(task)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	task, err := h.tasks.GetTaskByID(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to get task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type updateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:          taskID,
		CallerID:    userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		Tags:        req.Tags,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to update task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrTaskAccessDenied):
			abort(c, newForbiddenError(services.ErrTaskAccessDenied.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	task, err := h.tasks.DeleteTask(c, taskID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrTaskAccessDenied):
			abort(c, newForbiddenError(services.ErrTaskAccessDenied.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// parseTaskFilter turns loose query strings into an explicit filter.
// Dates accept YYYY-MM-DD (time component zeroed) with an RFC 3339
// fallback; tags are comma-separated.
func parseTaskFilter(c *gin.Context) (services.TaskFilter, error) {
	var filter services.TaskFilter

	if raw := c.Query("createdAt"); raw != "" {
		t, err := parseFilterDate(raw)
		if err != nil {
			return services.TaskFilter{}, err
		}
		filter.CreatedAt = &t
	}
	if raw := c.Query("dueDate"); raw != "" {
		t, err := parseFilterDate(raw)
		if err != nil {
			return services.TaskFilter{}, err
		}
		filter.DueDate = &t
	}
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	return filter, nil
}

func parseFilterDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err == nil {
		return t, nil
	}

	t, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid date filter, expected YYYY-MM-DD")
	}
	return t, nil
}
