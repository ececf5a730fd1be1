package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("admin capability required")
	ErrValidation         = errors.New("validation failed")
	ErrLocationRequired   = errors.New("location required")
	ErrImageTooLarge      = errors.New("file too large")
	ErrEmptySelection     = errors.New("select at least one operator")
	ErrAlreadyAssigned    = errors.New("operator already assigned to this order")
	ErrUnknownOperator    = errors.New("operator is not listed")
	ErrAlreadyFinished    = errors.New("order already finished")
	ErrOrderInactive      = errors.New("order is inactive")
	ErrNoPendingOrder     = errors.New("no pending order")
	ErrBusy               = errors.New("operation already in progress")
	ErrFlowNotFound       = errors.New("flow not found")
	ErrFlowKind           = errors.New("operation not available in this flow")
	ErrInvalidKey         = errors.New("invalid resource key")
)

// ValidationError carries the per-field error map together with the
// dominant error surfaced as a toast.
type ValidationError struct {
	Fields map[string]string
	Cause  error
}

func (e *ValidationError) Error() string {
	if e.Cause == nil {
		return ErrValidation.Error()
	}
	return e.Cause.Error()
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// AssignmentConflictError reports a partially applied bulk assignment.
type AssignmentConflictError struct {
	Conflicts []model.AssignmentConflict
}

func (e *AssignmentConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "assignment partially failed"
	}
	lines := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		lines = append(lines, fmt.Sprintf("operator %d: %s", c.OperatorID, c.Message))
	}
	return strings.Join(lines, "\n")
}

// APIError is a non-success response from the remote API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote api error: %d %s", e.Status, http.StatusText(e.Status))
}

// Is matches 404 responses to ErrNotFound and 409 to ErrAlreadyExists.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrAlreadyExists:
		return e.Status == http.StatusConflict
	}
	return false
}

// UserMessage extracts the server-provided message of err or returns fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var conflictErr *AssignmentConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr.Error()
	}
	return fallback
}
