// Ollama Provider implementation over the local HTTP API.
//
// Information Hiding:
// - Streaming NDJSON response handling
// - Request payload format for /api/generate
// - Health probe against /api/tags

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emrtools/fhirloop/fault"
)

// OllamaProvider implements the Provider interface for a locally running
// Ollama instance.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama provider for the given base URL
// and model.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func (p *OllamaProvider) WithHTTPClient(client *http.Client) *OllamaProvider {
	p.client = client
	return p
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the current model.
func (p *OllamaProvider) Model() string {
	return p.model
}

// ollamaRequest is the /api/generate request payload.
type ollamaRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// ollamaChunk is one line of the streaming NDJSON response.
type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends a generation request and assembles the streamed response.
// The service delivers one JSON object per line, each carrying a fragment
// of the generated text in its "response" field; the final text is the
// concatenation of every well-formed fragment in arrival order. Malformed
// lines are skipped. The last well-formed chunk is retained raw, since it
// carries completion statistics.
func (p *OllamaProvider) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	payload := ollamaRequest{
		Model:       p.model,
		Prompt:      req.Prompt,
		System:      req.System,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return GenerationResult{}, fault.Wrap(fault.Transport, "", fmt.Errorf("failed to generate: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return GenerationResult{}, fault.Transportf("generate returned status %d", resp.StatusCode)
	}

	var content strings.Builder
	var lastChunk []byte

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Malformed lines are ignored per the streaming contract.
			continue
		}
		content.WriteString(chunk.Response)
		lastChunk = append(lastChunk[:0], line...)
	}
	if err := scanner.Err(); err != nil {
		return GenerationResult{}, fault.Wrap(fault.Transport, "", fmt.Errorf("stream aborted: %w", err))
	}

	return GenerationResult{
		Content: content.String(),
		Metadata: map[string]interface{}{
			"model":       p.model,
			"temperature": req.Temperature,
			"max_tokens":  req.MaxTokens,
		},
		RawResponse: json.RawMessage(lastChunk),
	}, nil
}

// HealthCheck probes /api/tags. A 200 status is the only recognized
// healthy signal; any transport failure reports false.
func (p *OllamaProvider) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Verify OllamaProvider implements Provider
var _ Provider = (*OllamaProvider)(nil)
