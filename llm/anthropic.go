// Anthropic Provider implementation using official anthropic-sdk-go.
//
// A hosted fallback for when no local model is available.

package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/emrtools/fhirloop/fault"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client anthropic.Client
	apiKey string
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		apiKey: apiKey,
		model:  model,
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the current model.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Generate sends a generation request to the Messages API.
func (p *AnthropicProvider) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return GenerationResult{}, fault.Wrap(fault.Transport, "", err)
	}

	content := ""
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += variant.Text
		}
	}

	return GenerationResult{
		Content: content,
		Metadata: map[string]interface{}{
			"model":             p.model,
			"temperature":       req.Temperature,
			"max_tokens":        req.MaxTokens,
			"prompt_tokens":     message.Usage.InputTokens,
			"completion_tokens": message.Usage.OutputTokens,
		},
	}, nil
}

// HealthCheck reports whether the provider is configured. Hosted
// endpoints are not probed to avoid a billable call.
func (p *AnthropicProvider) HealthCheck(_ context.Context) bool {
	return p.apiKey != ""
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
