package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tasknest/api/internal/auth"
	"github.com/tasknest/api/internal/httputil"
	"github.com/tasknest/api/internal/logging"
)

// Handler contains HTTP handlers for task endpoints. All routes sit behind
// the auth middleware, so the authenticated user id is always in context.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateTaskRequest represents the task creation request body.
// Any owner field supplied by the caller is simply not decoded.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// UpdateTaskRequest represents a partial task update; omitted fields are unchanged
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TaskListResponse represents a task listing with counts
type TaskListResponse struct {
	Tasks         []*Task `json:"tasks"`
	TotalCount    int     `json:"total_count"`
	FilteredCount int     `json:"filtered_count"`
}

// Create handles task creation
// @Summary      Create a task
// @Description  Create a new task owned by the authenticated user.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateTaskRequest true "Task fields"
// @Success      201 {object} Task
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /tasks [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondUnauthorized(w, "missing authentication token", httputil.CodeMissingToken)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create task request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), userID, CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.respondTaskError(w, logger, err, "failed to create task")
		return
	}

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// List handles task listing
// @Summary      List tasks
// @Description  List the authenticated user's tasks, newest first, with an optional status filter.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter: complete or incomplete (anything else is unfiltered)"
// @Success      200 {object} TaskListResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /tasks [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondUnauthorized(w, "missing authentication token", httputil.CodeMissingToken)
		return
	}

	result, err := h.service.List(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		logger.Error("failed to list tasks", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list tasks", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, TaskListResponse{
		Tasks:         result.Tasks,
		TotalCount:    result.TotalCount,
		FilteredCount: result.FilteredCount,
	}, http.StatusOK)
}

// Get handles single task retrieval
// @Summary      Get a task
// @Description  Get one of the authenticated user's tasks by id.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Task id"
// @Success      200 {object} Task
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Task not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /tasks/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondUnauthorized(w, "missing authentication token", httputil.CodeMissingToken)
		return
	}

	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), userID, taskID)
	if err != nil {
		h.respondTaskError(w, logger, err, "failed to get task")
		return
	}

	httputil.RespondJSON(w, t, http.StatusOK)
}

// Update handles partial task updates
// @Summary      Update a task
// @Description  Update title and/or description of one of the authenticated user's tasks.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Task id"
// @Param        request body UpdateTaskRequest true "Fields to change"
// @Success      200 {object} Task
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Task not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /tasks/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondUnauthorized(w, "missing authentication token", httputil.CodeMissingToken)
		return
	}

	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update task request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, taskID, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.respondTaskError(w, logger, err, "failed to update task")
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles task deletion
// @Summary      Delete a task
// @Description  Permanently delete one of the authenticated user's tasks.
// @Tags         tasks
// @Security     BearerAuth
// @Param        id path int true "Task id"
// @Success      204 "Deleted"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Task not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /tasks/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondUnauthorized(w, "missing authentication token", httputil.CodeMissingToken)
		return
	}

	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, taskID); err != nil {
		h.respondTaskError(w, logger, err, "failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles completion toggling
// @Summary      Toggle task completion
// @Description  Flip the completion flag of one of the authenticated user's tasks.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Task id"
// @Success      200 {object} Task
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Task not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /tasks/{id}/toggle [patch]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondUnauthorized(w, "missing authentication token", httputil.CodeMissingToken)
		return
	}

	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	toggled, err := h.service.Toggle(r.Context(), userID, taskID)
	if err != nil {
		h.respondTaskError(w, logger, err, "failed to toggle task")
		return
	}

	httputil.RespondJSON(w, toggled, http.StatusOK)
}

// taskIDFromRequest parses the id path parameter. A non-integer id can never
// match a row, so it is reported as not found rather than a distinct error.
func taskIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "task not found", httputil.CodeTaskNotFound, http.StatusNotFound)
		return 0, false
	}
	return taskID, true
}

// respondTaskError maps service errors to HTTP responses
func (h *Handler) respondTaskError(w http.ResponseWriter, logger *logging.Logger, err error, internalMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Warn("task lookup failed: not found or not owned")
		httputil.RespondErrorWithCode(w, "task not found", httputil.CodeTaskNotFound, http.StatusNotFound)
	case errors.Is(err, ErrTitleRequired):
		logger.Warn("task validation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeTitleRequired, http.StatusBadRequest)
	case errors.Is(err, ErrTitleTooLong):
		logger.Warn("task validation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeTitleTooLong, http.StatusBadRequest)
	case errors.Is(err, ErrDescriptionTooLong):
		logger.Warn("task validation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeDescriptionTooLong, http.StatusBadRequest)
	default:
		logger.Error(internalMsg, "error", err.Error())
		httputil.RespondErrorWithCode(w, internalMsg, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
