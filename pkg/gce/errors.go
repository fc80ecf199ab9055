package gce

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
)

var (
	// ErrInvalidTemplate is returned before any provider call when a template cannot be submitted.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrScopeUndetermined means a continuation was requested without the project or zone it belongs to.
	ErrScopeUndetermined = errors.New("cannot determine scope for paged request")
)

// OperationError is a provider-reported failure of a finished operation.
type OperationError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed. Http Error Code: %d HttpError: %s", e.Operation, e.StatusCode, e.Message)
}

// TimeoutError means a wait ran out of time before its condition held.
type TimeoutError struct {
	What    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not complete within %s", e.What, e.Timeout)
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}

// IsOperationFailure reports whether err is, or wraps, an OperationError.
func IsOperationFailure(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr)
}

// IsNotFound reports whether err is a 404 from the compute API.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

func invalidTemplate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTemplate, fmt.Sprintf(format, args...))
}

// ErrInvalidNodeID is returned for node ids that are not zone/name tokens.
var ErrInvalidNodeID = errors.New("invalid node id")
