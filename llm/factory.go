// Model Provider Factory.
//
// Quick Start:
//
//	// Local-first default: Ollama on localhost
//	provider, err := llm.NewProvider("ollama", "deepseek-coder", "http://localhost:11434")
//
//	// Hosted fallback, API key read from the environment
//	provider, err := llm.NewProvider("anthropic", "", "")

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported model providers.
type ProviderType int

const (
	// ProviderOllama is a locally running Ollama instance (the default).
	ProviderOllama ProviderType = iota
	// ProviderOpenAI is any OpenAI-compatible endpoint.
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOllama:
		return "ollama"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
// Ollama needs no key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOllama:
		return "deepseek-coder"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderGemini:
		return "gemini-2.0-flash"
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "ollama", "local", "":
		return ProviderOllama, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// NewProvider creates a provider by name. Model and baseURL fall back to
// per-provider defaults when empty; hosted providers read their API key
// from the environment.
func NewProvider(name, model, baseURL string) (Provider, error) {
	providerType, err := ParseProviderType(name)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = providerType.DefaultModel()
	}

	switch providerType {
	case ProviderOllama:
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return NewOllamaProvider(baseURL, model), nil
	case ProviderOpenAI:
		apiKey := os.Getenv(providerType.EnvVar())
		if baseURL != "" {
			return NewOpenAICompatProviderWithBaseURL(apiKey, model, baseURL), nil
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%s: %s environment variable not set", providerType, providerType.EnvVar())
		}
		return NewOpenAICompatProvider(apiKey, model), nil
	case ProviderAnthropic:
		apiKey := os.Getenv(providerType.EnvVar())
		if apiKey == "" {
			return nil, fmt.Errorf("%s: %s environment variable not set", providerType, providerType.EnvVar())
		}
		return NewAnthropicProvider(apiKey, model), nil
	case ProviderGemini:
		apiKey := os.Getenv(providerType.EnvVar())
		if apiKey == "" {
			return nil, fmt.Errorf("%s: %s environment variable not set", providerType, providerType.EnvVar())
		}
		return NewGeminiProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", providerType)
	}
}
