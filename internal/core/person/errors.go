package person

import (
	"errors"
	"fmt"

	"github.com/teshtvele/groups-management/internal/model"
)

// ValidationError reports one field that violates a shape rule.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == model.ErrValidation }

// NewValidationError creates a new validation error
func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped and joined errors)
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationFailures flattens every ValidationError found in err's tree.
func ValidationFailures(err error) []*ValidationError {
	var out []*ValidationError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ve, ok := e.(*ValidationError); ok {
			out = append(out, ve)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// NotFoundError represents a referenced group, changeset or person that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == model.ErrNotFound }

// NewNotFoundError constructs NotFoundError
func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFoundError checks if error is NotFoundError
func IsNotFoundError(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// ConsistencyError signals that a write would break a group's history timeline.
type ConsistencyError struct {
	GroupID int64
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("group %d timeline inconsistent: %s", e.GroupID, e.Message)
}

func (e *ConsistencyError) Is(target error) bool { return target == model.ErrConsistency }

// NewConsistencyError constructs ConsistencyError
func NewConsistencyError(groupID int64, format string, args ...any) *ConsistencyError {
	return &ConsistencyError{GroupID: groupID, Message: fmt.Sprintf(format, args...)}
}

// IsConsistencyError checks if error is ConsistencyError
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
