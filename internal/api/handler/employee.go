package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rrens/onboarding-agent/internal/api/response"
	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/service"
	"github.com/go-chi/chi/v5"
)

// EmployeeService is the part of service.EmployeeService used over HTTP
type EmployeeService interface {
	Get(ctx context.Context, threadID string) (*domain.Employee, error)
	UpdateFields(ctx context.Context, threadID string, fields map[string]string) (*domain.Employee, error)
	Confirm(ctx context.Context, threadID string) (*domain.Employee, error)
}

// EmployeeHandler handles the onboarding record endpoints
type EmployeeHandler struct {
	employees EmployeeService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(employees EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// Get returns the record of the thread
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.employees.Get(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		writeEmployeeError(w, err)
		return
	}
	response.OK(w, e)
}

// Update applies a partial update given as a JSON object of field values
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(fields) == 0 {
		response.BadRequest(w, "no fields to update")
		return
	}

	e, err := h.employees.UpdateFields(r.Context(), chi.URLParam(r, "threadID"), fields)
	if err != nil {
		writeEmployeeError(w, err)
		return
	}
	response.OK(w, e)
}

// Confirm finalises the record
func (h *EmployeeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	e, err := h.employees.Confirm(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		writeEmployeeError(w, err)
		return
	}
	response.OK(w, map[string]any{
		"employee": e,
		"summary":  e.Summary(),
	})
}

func writeEmployeeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Unprocessable(w, map[string]string{
			"field":  verr.Field,
			"reason": verr.Reason,
		})
	case errors.Is(err, domain.ErrUnknownField), errors.Is(err, domain.ErrIncompleteRecord):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrAlreadyConfirmed):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
