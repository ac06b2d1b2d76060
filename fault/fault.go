// Package fault provides the error taxonomy shared by the model client,
// the execution sandbox, and the feedback loop.
//
// Three kinds of faults exist in this system:
//   - Transport: the model or FHIR endpoint could not be reached, or
//     returned a non-success status.
//   - Timeout: a bounded wait (generation or execution) expired.
//   - Execution: generated code raised a fault inside the sandbox.
//
// A Fault always preserves the original message as a payload field rather
// than collapsing it into a formatted string.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the coarse fault category.
type Kind int

const (
	// Transport covers network and HTTP failures reaching an endpoint.
	Transport Kind = iota
	// Timeout covers an expired bounded wait.
	Timeout
	// Execution covers faults raised by generated code.
	Execution
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Timeout:
		return "timeout"
	case Execution:
		return "execution"
	default:
		return "unknown"
	}
}

// Fault is a tagged error with a coarse kind, a fine-grained class name
// (for execution faults: the fault-kind name reported by the interpreter),
// and the original message.
type Fault struct {
	Kind    Kind
	Class   string
	Message string
	Err     error // underlying cause, if any
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Class != "" {
		return fmt.Sprintf("%s fault (%s): %s", f.Kind, f.Class, f.Message)
	}
	return fmt.Sprintf("%s fault: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying cause.
func (f *Fault) Unwrap() error {
	return f.Err
}

// New creates a fault with the given kind and message.
func New(kind Kind, class, message string) *Fault {
	return &Fault{Kind: kind, Class: class, Message: message}
}

// Wrap creates a fault around an existing error, preserving its message.
func Wrap(kind Kind, class string, err error) *Fault {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Class: class, Message: err.Error(), Err: err}
}

// Transportf creates a transport fault with a formatted message.
func Transportf(format string, args ...interface{}) *Fault {
	return &Fault{Kind: Transport, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a Fault of the given kind.
func IsKind(err error, kind Kind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// Classify derives a class name from an arbitrary error. Context
// cancellation and deadline errors classify as timeouts; faults keep
// their own class; everything else falls back to a generic class.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var f *Fault
	if errors.As(err, &f) && f.Class != "" {
		return f.Class
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "DeadlineExceeded"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	default:
		return "Error"
	}
}
