package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/teshtvele/groups-management/internal/api/respond"
	"github.com/teshtvele/groups-management/internal/model"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []respond.FieldError
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("http %d", e.Status)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	for _, f := range e.Fields {
		msg += fmt.Sprintf("; %s (%s): %s", f.Field, f.Rule, f.Message)
	}
	return msg
}

// Is maps status codes onto the model sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == model.ErrNotFound
	case http.StatusBadRequest:
		return target == model.ErrValidation
	case http.StatusConflict:
		return target == model.ErrConsistency
	}
	return false
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool { return errors.Is(err, model.ErrNotFound) }
