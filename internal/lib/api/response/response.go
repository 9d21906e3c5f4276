// Package response defines the JSON envelope and error-to-status mapping
// shared by all HTTP handlers.
package response

import (
	"errors"
	"net/http"

	"CrewChat/entity"
)

type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	statusOK    = "OK"
	statusError = "Error"
)

func OK() Response {
	return Response{Status: statusOK}
}

func Error(msg string) Response {
	return Response{
		Status: statusError,
		Error:  msg,
	}
}

// StatusCode maps the domain error taxonomy to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrValidation), errors.Is(err, entity.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, entity.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
