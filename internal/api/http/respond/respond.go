// Package respond writes JSON responses and maps domain errors to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Page is the shape of every paginated list response.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int32 `json:"total"`
	Page  int32 `json:"page"`
	Limit int32 `json:"limit"`
}

func NewPage[T any](data []T, total, page, limit int32) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Total: total, Page: page, Limit: limit}
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

func Created(w http.ResponseWriter, v any) {
	JSON(w, http.StatusCreated, v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{StatusCode: status, Error: http.StatusText(status), Message: message})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with its mapped status. Unclassified errors are logged and
// reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Message(w, status, "internal server error")
		return
	}
	msg := domain.ErrorMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	Message(w, status, msg)
}
