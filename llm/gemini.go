// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// A hosted fallback for when no local model is available.

package llm

import (
	"context"
	"fmt"

	"github.com/emrtools/fhirloop/fault"
	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	initErr error // client initialization error, reported on first use
}

// NewGeminiProvider creates a new Gemini provider. If client
// initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			model:   model,
			initErr: fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}
	return &GeminiProvider{client: client, model: model}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the current model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Generate sends a generation request.
func (p *GeminiProvider) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if p.initErr != nil {
		return GenerationResult{}, p.initErr
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	response, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return GenerationResult{}, fault.Wrap(fault.Transport, "", err)
	}

	return GenerationResult{
		Content: response.Text(),
		Metadata: map[string]interface{}{
			"model":       p.model,
			"temperature": req.Temperature,
			"max_tokens":  req.MaxTokens,
		},
	}, nil
}

// HealthCheck reports whether the client initialized. Hosted endpoints
// are not probed to avoid a billable call.
func (p *GeminiProvider) HealthCheck(_ context.Context) bool {
	return p.initErr == nil && p.client != nil
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
