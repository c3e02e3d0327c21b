package validation

import (
	"strings"
	"unicode/utf8"
)

const (
	minTodoNameLen = 3
	maxTodoNameLen = 512
)

// CreateTodoRequest mirrors the fields needed for create todo validation.
type CreateTodoRequest struct {
	Name        string
	Description string
	Priority    *int
}

// ValidateCreateTodoRequest validates the fields of a create todo request.
func ValidateCreateTodoRequest(req CreateTodoRequest) []FieldError {
	var errs []FieldError
	errs = appendNameErrors(errs, req.Name)
	if strings.TrimSpace(req.Description) == "" {
		errs = append(errs, FieldError{Field: "todo_description", Message: "todo_description is required"})
	}
	errs = appendPriorityErrors(errs, req.Priority)
	return errs
}

// UpdateTodoRequest mirrors the fields needed for update todo validation.
// Nil fields are not validated.
type UpdateTodoRequest struct {
	Name        *string
	Description *string
	Priority    *int
}

// ValidateUpdateTodoRequest validates the fields of an update todo request.
// An empty request is valid and changes nothing.
func ValidateUpdateTodoRequest(req UpdateTodoRequest) []FieldError {
	var errs []FieldError
	if req.Name != nil {
		errs = appendNameErrors(errs, *req.Name)
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		errs = append(errs, FieldError{Field: "todo_description", Message: "todo_description must not be empty"})
	}
	errs = appendPriorityErrors(errs, req.Priority)
	return errs
}

func appendNameErrors(errs []FieldError, name string) []FieldError {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return append(errs, FieldError{Field: "todo_name", Message: "todo_name is required"})
	case n < minTodoNameLen || n > maxTodoNameLen:
		return append(errs, FieldError{Field: "todo_name", Message: "todo_name must be 3-512 characters"})
	}
	return errs
}

func appendPriorityErrors(errs []FieldError, p *int) []FieldError {
	if p != nil && (*p < 1 || *p > 3) {
		return append(errs, FieldError{Field: "priority", Message: "priority must be 1 (high), 2 (medium) or 3 (low)"})
	}
	return errs
}
