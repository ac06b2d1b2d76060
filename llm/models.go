// Package llm provides shared data models for model providers.
package llm

import "encoding/json"

// GenerationRequest describes one text-generation call. A request is
// immutable once built; the loop constructs a fresh one per attempt.
type GenerationRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Generation defaults, matching the typical local-model setup.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// NewRequest creates a generation request with default temperature and
// token budget.
func NewRequest(prompt, system string) GenerationRequest {
	return GenerationRequest{
		Prompt:      prompt,
		System:      system,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// WithTemperature returns a copy of the request with the given temperature.
func (r GenerationRequest) WithTemperature(t float64) GenerationRequest {
	r.Temperature = t
	return r
}

// WithMaxTokens returns a copy of the request with the given token budget.
func (r GenerationRequest) WithMaxTokens(n int) GenerationRequest {
	r.MaxTokens = n
	return r
}

// GenerationResult is the outcome of one generation call. Owned by the
// caller; providers never retain a reference to it.
type GenerationResult struct {
	// Content is the full generated text. For streaming transports this
	// is the ordered concatenation of every chunk's response fragment.
	Content string

	// Metadata carries the model identifier and the parameters used.
	Metadata map[string]interface{}

	// RawResponse is the last well-formed chunk of a streaming response;
	// it typically carries completion statistics. Nil for non-streaming
	// providers.
	RawResponse json.RawMessage
}
