// Package errors defines the JSON error body returned by every API endpoint.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies an API error and selects its HTTP status.
type ErrorKind string

const (
	KindInvalidRequest  ErrorKind = "invalid_request"
	KindInvalidSource   ErrorKind = "invalid_source"
	KindRunNotFound     ErrorKind = "run_not_found"
	KindPayloadTooLarge ErrorKind = "payload_too_large"
	KindInternal        ErrorKind = "internal"
)

var statusByKind = map[ErrorKind]int{
	KindInvalidRequest:  http.StatusBadRequest,
	KindInvalidSource:   http.StatusUnprocessableEntity,
	KindRunNotFound:     http.StatusNotFound,
	KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
	KindInternal:        http.StatusInternalServerError,
}

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the status code for the error kind. Unknown kinds are 500.
func (e *APIError) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithRequestID stamps the ID of the request that produced the error.
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// InvalidRequest reports a body that could not be bound or breaks a request rule.
// details maps field names to what is wrong with them.
func InvalidRequest(message string, details map[string]string) *APIError {
	return &APIError{
		Kind:    KindInvalidRequest,
		Message: message,
		Details: details,
	}
}

// InvalidSource reports a well-formed request whose video source cannot be ingested.
func InvalidSource(field, reason string) *APIError {
	return &APIError{
		Kind:    KindInvalidSource,
		Message: "Invalid source",
		Details: map[string]string{field: reason},
	}
}

func RunNotFound(id string) *APIError {
	return &APIError{
		Kind:    KindRunNotFound,
		Message: fmt.Sprintf("run %q not found", id),
		Details: map[string]string{"id": id},
	}
}

func PayloadTooLarge(limit int64) *APIError {
	return &APIError{
		Kind:    KindPayloadTooLarge,
		Message: fmt.Sprintf("upload exceeds %d bytes", limit),
	}
}

func Internal(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}
