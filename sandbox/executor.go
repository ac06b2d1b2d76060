// Package sandbox executes sanitized, model-generated code against an
// explicit set of capability bindings.
//
// This is the one genuinely dangerous primitive in the system: the code
// it runs was written by a model, not a person. Both executors therefore
// confine faults completely — nothing raised by generated code ever
// propagates to the caller — and expose only the bindings handed to
// them, never ambient process state.
package sandbox

import (
	"context"
	"time"

	"github.com/emrtools/fhirloop/fhir"
)

// Bindings is the explicit capability set exposed to generated code.
// Anything not listed here does not exist inside the sandbox.
type Bindings struct {
	FHIRClient *fhir.Client
	Explorer   *fhir.Explorer
}

// Outcome is the result of one execution attempt. Produced once, never
// mutated.
type Outcome struct {
	OK       bool          `json:"ok"`
	Class    string        `json:"class,omitempty"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Success creates a successful outcome.
func Success(d time.Duration) Outcome {
	return Outcome{OK: true, Duration: d}
}

// Failure creates a failed outcome with a classification and message.
// The classification is never empty.
func Failure(class, message string, d time.Duration) Outcome {
	if class == "" {
		class = "Error"
	}
	return Outcome{Class: class, Message: message, Duration: d}
}

// TimedOut creates the failure outcome for an expired execution bound.
func TimedOut(d time.Duration) Outcome {
	return Outcome{Class: "Timeout", Message: "execution timed out", Duration: d}
}

// Executor runs one snippet of generated code. The feedback loop depends
// only on this interface; swapping the in-process interpreter for the
// out-of-process runner is a construction-time decision.
type Executor interface {
	// Name returns the executor name (for logging/debugging).
	Name() string

	// Execute evaluates code in an isolated namespace seeded with the
	// given bindings, invoking a zero-argument main if one is defined.
	// Faults raised by the code are converted into a failed Outcome,
	// never returned.
	Execute(ctx context.Context, code string, binds Bindings) Outcome
}
