package models

import "fmt"

// OperationStatus is the lifecycle state of a provider operation
type OperationStatus string

const (
	OperationPending OperationStatus = "PENDING"
	OperationRunning OperationStatus = "RUNNING"
	OperationDone    OperationStatus = "DONE"
)

// Rank orders statuses along PENDING -> RUNNING -> DONE. Unknown values rank lowest.
func (s OperationStatus) Rank() int {
	switch s {
	case OperationPending:
		return 1
	case OperationRunning:
		return 2
	case OperationDone:
		return 3
	default:
		return 0
	}
}

// HTTPError is the failure payload the provider attaches to a finished operation
type HTTPError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *HTTPError) String() string {
	return fmt.Sprintf("Http Error Code: %d HttpError: %s", e.StatusCode, e.Message)
}

// OperationErrorDetail is one entry of the operation's error list
type OperationErrorDetail struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// Operation is a provider-side handle for an asynchronous mutation.
// HTTPError is only populated once the operation is DONE and failed.
type Operation struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	SelfLink      string                 `json:"self_link"`
	TargetLink    string                 `json:"target_link,omitempty"`
	Zone          string                 `json:"zone,omitempty"`
	OperationType string                 `json:"operation_type,omitempty"`
	Status        OperationStatus        `json:"status"`
	Progress      int                    `json:"progress"`
	HTTPError     *HTTPError             `json:"http_error,omitempty"`
	Errors        []OperationErrorDetail `json:"errors,omitempty"`
}

// IsDone reports whether the operation reached its terminal state
func (o *Operation) IsDone() bool {
	return o.Status == OperationDone
}

// Failed reports whether the operation is done and carries an error payload
func (o *Operation) Failed() bool {
	return o.IsDone() && o.HTTPError != nil
}
