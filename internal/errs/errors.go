// Package errs provides the dispatcher's transport-shape error type.
//
// Transport-shape errors (caller sent a malformed request) carry an
// HTTP status and a code drawn from a fixed set; engine-plane errors
// (a well-formed request an engine could not complete) are plain
// error_code strings on a ComputeResult (error text on a
// ValidateResult) and never become
// a ServiceError.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is one of the fixed transport-shape error codes from spec §7.
type Code string

const (
	CodeInvalidJSON       Code = "INVALID_JSON"
	CodeInvalidRequest    Code = "INVALID_REQUEST"
	CodeUnknownEngine     Code = "UNKNOWN_ENGINE"
	CodeNotFound          Code = "NOT_FOUND"
	CodeNoEngines         Code = "NO_ENGINES"
	CodeEngineUnavailable Code = "ENGINE_UNAVAILABLE"
	CodeNotImplemented    Code = "NOT_IMPLEMENTED"
)

// ServiceError is a structured transport-shape error.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped error for errors.Is/errors.As.
func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair to Details, returning e for chaining.
func (e *ServiceError) WithDetails(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds a ServiceError with no wrapped cause.
func New(code Code, message string, status int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status}
}

func InvalidJSON(err error) *ServiceError {
	return &ServiceError{Code: CodeInvalidJSON, Message: "invalid JSON body", HTTPStatus: http.StatusBadRequest, Err: err}
}

func InvalidRequest(message string) *ServiceError {
	return New(CodeInvalidRequest, message, http.StatusBadRequest)
}

func UnknownEngine(name string, available []string) *ServiceError {
	return New(CodeUnknownEngine, fmt.Sprintf("unknown engine: %s", name), http.StatusUnprocessableEntity).
		WithDetails("available", available)
}

func NotFound(message string) *ServiceError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func NoEngines() *ServiceError {
	return New(CodeNoEngines, "no engines available for this request", http.StatusServiceUnavailable)
}

func EngineUnavailable(name string) *ServiceError {
	return New(CodeEngineUnavailable, fmt.Sprintf("engine %q is not available", name), http.StatusServiceUnavailable)
}

func NotImplemented(message string) *ServiceError {
	return New(CodeNotImplemented, message, http.StatusBadRequest)
}

// As extracts a *ServiceError from err's chain, if any.
func As(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// HTTPStatus returns the status for err, defaulting to 500 for
// non-ServiceError values.
func HTTPStatus(err error) int {
	if se := As(err); se != nil {
		return se.HTTPStatus
	}
	return http.StatusInternalServerError
}
