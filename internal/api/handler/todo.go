package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daap14/tasktrack/internal/api/middleware"
	"github.com/daap14/tasktrack/internal/api/response"
	"github.com/daap14/tasktrack/internal/api/validation"
	"github.com/daap14/tasktrack/internal/todo"
)

// TodoService is the subset of todo.Service used by TodoHandler.
type TodoService interface {
	Create(ctx context.Context, t *todo.Todo) error
	Get(ctx context.Context, id uuid.UUID) (*todo.Todo, error)
	List(ctx context.Context, limit int) ([]todo.Todo, error)
	Update(ctx context.Context, id uuid.UUID, fields todo.UpdateFields) (*todo.Todo, error)
	Delete(ctx context.Context, id uuid.UUID) (*todo.Todo, error)
}

// createTodoRequest is the request body for POST /todos.
type createTodoRequest struct {
	Name        string `json:"todo_name"`
	Description string `json:"todo_description"`
	Priority    *int   `json:"priority,omitempty"`
}

// updateTodoRequest is the request body for PUT /todos/:id.
type updateTodoRequest struct {
	Name        *string `json:"todo_name,omitempty"`
	Description *string `json:"todo_description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}

// todoResponse is the API representation of a todo.
type todoResponse struct {
	ID          string  `json:"todo_id"`
	Name        string  `json:"todo_name"`
	Description string  `json:"todo_description"`
	Priority    int     `json:"priority"`
	CreatedBy   *string `json:"created_by,omitempty"`
	CreatedAt   string  `json:"created_dt,omitempty"`
}

func toTodoResponse(t *todo.Todo) todoResponse {
	resp := todoResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Priority:    int(t.Priority),
		CreatedAt:   formatTimestamp(t.CreatedAt),
	}
	if t.CreatedBy != uuid.Nil {
		by := t.CreatedBy.String()
		resp.CreatedBy = &by
	}
	return resp
}

// TodoHandler handles todo CRUD endpoints.
type TodoHandler struct {
	svc TodoService
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(svc TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// Create handles POST /todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateTodoRequest(validation.CreateTodoRequest{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &todo.Todo{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Priority != nil {
		t.Priority = todo.Priority(*req.Priority)
	}
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		t.CreatedBy = identity.ID
	}

	if err := h.svc.Create(r.Context(), t); err != nil {
		slog.Error("failed to create todo", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create todo", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTodoResponse(t), requestID)
}

// List handles GET /todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	limit := 0
	if v := r.URL.Query().Get("first_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "first_n", Message: "first_n must be a positive integer"}}, requestID)
			return
		}
		limit = n
	}

	todos, err := h.svc.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list todos", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list todos", requestID)
		return
	}

	items := make([]todoResponse, 0, len(todos))
	for i := range todos {
		items = append(items, toTodoResponse(&todos[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// GetByID handles GET /todos/{id}.
func (h *TodoHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseTodoID(w, r, requestID)
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to get todo", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTodoResponse(t), requestID)
}

// Update handles PUT /todos/{id}. Only fields present in the body are changed.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseTodoID(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	fieldErrors := validation.ValidateUpdateTodoRequest(validation.UpdateTodoRequest{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	fields := todo.UpdateFields{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := todo.Priority(*req.Priority)
		fields.Priority = &p
	}

	t, err := h.svc.Update(r.Context(), id, fields)
	if err != nil {
		h.writeError(w, r, err, "Failed to update todo", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTodoResponse(t), requestID)
}

// Delete handles DELETE /todos/{id} and returns the removed todo.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseTodoID(w, r, requestID)
	if !ok {
		return
	}

	t, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to delete todo", requestID)
		return
	}

	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		slog.Info("todo deleted", "todoId", t.ID, "by", identity.Username, "requestId", requestID)
	}

	response.Success(w, http.StatusOK, toTodoResponse(t), requestID)
}

func (h *TodoHandler) writeError(w http.ResponseWriter, r *http.Request, err error, message, requestID string) {
	if errors.Is(err, todo.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Todo not found", requestID)
		return
	}
	slog.Error("todo operation failed", "error", err, "method", r.Method, "requestId", requestID)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", message, requestID)
}

// formatTimestamp renders t as RFC 3339 in UTC, keeping sub-second digits.
// A zero time renders as "" so the field is omitted.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTodoID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Todo ID must be a valid UUID", requestID)
		return uuid.Nil, false
	}
	return id, true
}
