// Package flowerr implements the engine's structured error taxonomy: a
// closed set of stable, machine-matchable error kinds shared by node
// execution failures and workflow structural failures alike, instead of
// string-matched sentinel errors.
package flowerr

import (
	"encoding/json"
	"fmt"
)

// Kind is a stable, serializable error identifier.
type Kind string

const (
	KindMissingInput      Kind = "MissingInput"
	KindInvalidInputType  Kind = "InvalidInputType"
	KindConfiguration     Kind = "Configuration"
	KindExecutionFailed   Kind = "ExecutionFailed"
	KindInitializationFailed Kind = "InitializationFailed"
	KindTimeout           Kind = "Timeout"
	KindCancelled         Kind = "Cancelled"
	KindNotFound          Kind = "NotFound"
	KindInvalid           Kind = "Invalid"
	KindCyclicDependency  Kind = "CyclicDependency"
	KindNodeNotFound      Kind = "NodeNotFound"
	KindUnknownNodeType   Kind = "UnknownNodeType"
	KindInvalidConnection Kind = "InvalidConnection"
)

// Error is the engine's single structured error type. It implements the
// standard error interface plus Is and Unwrap, and exposes its Kind as a
// field, so callers can use errors.Is/errors.As against either a Kind or
// a wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes any wrapped lower-level cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Wrapped }

// MarshalJSON implements the {kind, message} wire encoding from the
// engine's external error-surfacing contract.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    Kind   `json:"kind"`
		Message string `json:"message"`
	}{Kind: e.Kind, Message: e.Error()})
}

// Is lets errors.Is match by Kind against any other *Error, whatever its
// Message or Wrapped cause, so a bare kind probe works, e.g.
// errors.Is(err, flowerr.Timeout(0)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func MissingInput(field string) *Error {
	return &Error{Kind: KindMissingInput, Message: fmt.Sprintf("missing required input %q", field)}
}

func InvalidInputType(field, expected, actual string) *Error {
	return &Error{
		Kind:    KindInvalidInputType,
		Message: fmt.Sprintf("input %q: expected %s, got %s", field, expected, actual),
	}
}

func Configuration(detail string) *Error {
	return &Error{Kind: KindConfiguration, Message: detail}
}

func ExecutionFailed(detail string) *Error {
	return &Error{Kind: KindExecutionFailed, Message: detail}
}

func ExecutionFailedf(format string, args ...any) *Error {
	return &Error{Kind: KindExecutionFailed, Message: fmt.Sprintf(format, args...)}
}

func WrapExecutionFailed(err error) *Error {
	return &Error{Kind: KindExecutionFailed, Message: err.Error(), Wrapped: err}
}

func InitializationFailed(detail string) *Error {
	return &Error{Kind: KindInitializationFailed, Message: detail}
}

func Timeout(seconds int) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf("timed out after %ds", seconds)}
}

func Cancelled() *Error {
	return &Error{Kind: KindCancelled, Message: "cancelled"}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what}
}

func Invalid(detail string) *Error {
	return &Error{Kind: KindInvalid, Message: detail}
}

func CyclicDependency() *Error {
	return &Error{Kind: KindCyclicDependency, Message: "workflow contains a cycle"}
}

func NodeNotFound(id string) *Error {
	return &Error{Kind: KindNodeNotFound, Message: fmt.Sprintf("node %q not found", id)}
}

func UnknownNodeType(nodeType string) *Error {
	return &Error{Kind: KindUnknownNodeType, Message: fmt.Sprintf("unknown node type %q", nodeType)}
}

func InvalidConnection(detail string) *Error {
	return &Error{Kind: KindInvalidConnection, Message: detail}
}
