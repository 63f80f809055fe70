package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel error kinds for use with errors.Is.
var (
	// ErrInvalidOptions indicates the caller omitted a required identifier.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrSession indicates a lookup or routing failure: a pending or active
	// session was not found, or no handler matched.
	ErrSession = errors.New("session error")

	// ErrGeneric covers everything else: disabled-handler misuse,
	// participant-resolution anomalies, REST failures.
	ErrGeneric = errors.New("generic error")
)

// CallError carries structured context for a failed session operation.
type CallError struct {
	// Kind is one of ErrInvalidOptions, ErrSession, ErrGeneric.
	Kind error

	// Message describes the failure.
	Message string

	// Details holds ids and parameters for diagnostics.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// NewCallError builds a CallError of the given kind. kv are alternating
// detail keys and values.
func NewCallError(kind error, message string, kv ...any) *CallError {
	e := &CallError{Kind: kind, Message: message}
	if len(kv) > 0 {
		e.Details = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Details[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return e
}

// WithCause attaches the underlying error.
func (e *CallError) WithCause(cause error) *CallError {
	e.Cause = cause
	return e
}

// Error returns the error message.
func (e *CallError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the kind sentinel and the cause to errors.Is.
func (e *CallError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}
