// Model Provider interface - the abstract interface for text-generation
// backends.
//
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
)

// Provider defines the abstract interface for text-generation backends.
// Implementations hide transport details while exposing a consistent
// generate/health-check surface.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Generate sends a generation request and returns the generated text
	// with metadata. Transport failures and non-success statuses surface
	// as a *fault.Fault of the Transport kind.
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)

	// HealthCheck reports whether the backing service is reachable.
	// It never returns an error; any transport failure reports false.
	HealthCheck(ctx context.Context) bool
}
