// OpenAI-compatible Provider implementation using go-openai library.
//
// Also serves local OpenAI-compatible servers (llama.cpp, vLLM, LM Studio)
// via a configurable base URL.

package llm

import (
	"context"

	"github.com/emrtools/fhirloop/fault"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatProvider implements the Provider interface over any
// OpenAI-compatible chat completion endpoint.
type OpenAICompatProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAICompatProvider creates a provider against api.openai.com.
func NewOpenAICompatProvider(apiKey, model string) *OpenAICompatProvider {
	return &OpenAICompatProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// NewOpenAICompatProviderWithBaseURL creates a provider against a local
// OpenAI-compatible server. The API key may be empty for servers that do
// not check it.
func NewOpenAICompatProviderWithBaseURL(apiKey, model, baseURL string) *OpenAICompatProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	return &OpenAICompatProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Name returns the provider name.
func (p *OpenAICompatProvider) Name() string {
	return "openai"
}

// Model returns the current model.
func (p *OpenAICompatProvider) Model() string {
	return p.model
}

// Generate sends a generation request as a single-turn chat completion.
func (p *OpenAICompatProvider) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            messages,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	})
	if err != nil {
		return GenerationResult{}, fault.Wrap(fault.Transport, "", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return GenerationResult{
		Content: content,
		Metadata: map[string]interface{}{
			"model":             p.model,
			"temperature":       req.Temperature,
			"max_tokens":        req.MaxTokens,
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
		},
	}, nil
}

// HealthCheck lists models on the endpoint. Any transport failure
// reports false.
func (p *OpenAICompatProvider) HealthCheck(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Verify OpenAICompatProvider implements Provider
var _ Provider = (*OpenAICompatProvider)(nil)
