package llm

import (
	"testing"
)

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input   string
		want    ProviderType
		wantErr bool
	}{
		{"ollama", ProviderOllama, false},
		{"local", ProviderOllama, false},
		{"", ProviderOllama, false},
		{"OpenAI", ProviderOpenAI, false},
		{"gpt", ProviderOpenAI, false},
		{"anthropic", ProviderAnthropic, false},
		{"claude", ProviderAnthropic, false},
		{"gemini", ProviderGemini, false},
		{"google", ProviderGemini, false},
		{"mystery", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseProviderType(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProviderType(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewProviderOllamaDefaults(t *testing.T) {
	provider, err := NewProvider("ollama", "", "")
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("expected ollama, got %s", provider.Name())
	}
	if provider.Model() != ProviderOllama.DefaultModel() {
		t.Errorf("expected default model, got %s", provider.Model())
	}
}

func TestNewProviderUnknown(t *testing.T) {
	if _, err := NewProvider("mystery", "", ""); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewProviderHostedRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewProvider("anthropic", "", ""); err == nil {
		t.Error("expected error when API key is unset")
	}

	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	provider, err := NewProvider("anthropic", "", "")
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if provider.Name() != "anthropic" {
		t.Errorf("expected anthropic, got %s", provider.Name())
	}
}

func TestNewProviderOpenAICompatLocalNeedsNoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	provider, err := NewProvider("openai", "local-model", "http://localhost:8080/v1")
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if provider.Model() != "local-model" {
		t.Errorf("expected local-model, got %s", provider.Model())
	}
}
