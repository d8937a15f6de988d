package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrAggregateNotFound = errors.New("aggregate not found")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrParentNotFound    = errors.New("parent not found")
	ErrRankNotFound      = errors.New("rank not found")
)

// AggregateNotFoundError is returned when an action targets an unknown or deleted id.
type AggregateNotFoundError struct {
	Kind string // notebook, note, file
	ID   string
}

func (e *AggregateNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *AggregateNotFoundError) StatusCode() int { return http.StatusNotFound }

// Is allows errors.Is() to match against ErrAggregateNotFound and ErrNotFound
func (e *AggregateNotFoundError) Is(target error) bool {
	return target == ErrAggregateNotFound || target == ErrNotFound
}

// DuplicateIDError is returned when a create action reuses an id that is
// active, or that was deleted earlier in the same batch.
type DuplicateIDError struct {
	Kind string
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}

func (e *DuplicateIDError) StatusCode() int { return http.StatusConflict }

func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID || target == ErrConflict
}

// ParentNotFoundError is returned when a tree node references a parent that
// cannot be resolved. The node is rejected rather than attached to the root.
type ParentNotFoundError struct {
	ID       string
	ParentID string
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("file %s: parent node %s not found", e.ID, e.ParentID)
}

func (e *ParentNotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *ParentNotFoundError) Is(target error) bool {
	return target == ErrParentNotFound
}

// RankNotFoundError is returned when a reorder or delete references a rank
// no sibling holds.
type RankNotFoundError struct {
	Rank  int
	Count int
}

func (e *RankNotFoundError) Error() string {
	return fmt.Sprintf("rank %d not found among %d siblings", e.Rank, e.Count)
}

func (e *RankNotFoundError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *RankNotFoundError) Is(target error) bool {
	return target == ErrRankNotFound
}

// ValidationError indicates a malformed action or request
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string   { return e.Message }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError formats a ValidationError
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ActionError reports which action of a batch failed. The wrapped error
// carries the kind (match it with errors.Is / errors.As).
type ActionError struct {
	Index      int
	ActionID   string
	ActionType string
	Err        error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d (%s %s): %v", e.Index, e.ActionType, e.ActionID, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// StatusCode delegates to the wrapped error when it knows its status
func (e *ActionError) StatusCode() int {
	var httpErr HTTPError
	if errors.As(e.Err, &httpErr) {
		return httpErr.StatusCode()
	}
	return http.StatusInternalServerError
}
