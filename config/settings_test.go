package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "OLLAMA_BASE_URL",
		"LLM_MAX_TOKENS", "LLM_TEMPERATURE",
		"FHIR_BASE_URL",
		"LOOP_MAX_ATTEMPTS", "LOOP_GEN_TIMEOUT_SECS", "LOOP_EXEC_TIMEOUT_SECS",
		"DB_PATH", "ARTIFACTS_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestNewDefaults(t *testing.T) {
	clearEnv(t)

	s, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if s.LLM.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %q", s.LLM.Provider)
	}
	if s.LLM.Model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, s.LLM.Model)
	}
	if s.LLM.BaseURL != DefaultOllamaBaseURL {
		t.Errorf("expected default base URL %q, got %q", DefaultOllamaBaseURL, s.LLM.BaseURL)
	}
	if s.LLM.MaxTokens != 2000 {
		t.Errorf("expected default max tokens 2000, got %d", s.LLM.MaxTokens)
	}
	if s.LLM.Temperature != 0.7 {
		t.Errorf("expected default temperature 0.7, got %v", s.LLM.Temperature)
	}
	if s.FHIR.BaseURL != DefaultFHIRBaseURL {
		t.Errorf("expected default FHIR base URL %q, got %q", DefaultFHIRBaseURL, s.FHIR.BaseURL)
	}
	if s.Loop.MaxAttempts != 3 {
		t.Errorf("expected default max attempts 3, got %d", s.Loop.MaxAttempts)
	}
	if s.Loop.GenTimeout != 60*time.Second {
		t.Errorf("expected default generation timeout 60s, got %v", s.Loop.GenTimeout)
	}
	if s.Loop.ExecTimeout != 10*time.Second {
		t.Errorf("expected default execution timeout 10s, got %v", s.Loop.ExecTimeout)
	}
	if s.DB.Path != "" || s.DB.ArtifactsDir != "" {
		t.Errorf("expected recording disabled by default, got %+v", s.DB)
	}
}

func TestNewOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	t.Setenv("LLM_MAX_TOKENS", "4096")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("FHIR_BASE_URL", "http://localhost:8080/fhir")
	t.Setenv("LOOP_MAX_ATTEMPTS", "5")
	t.Setenv("LOOP_GEN_TIMEOUT_SECS", "120")
	t.Setenv("LOOP_EXEC_TIMEOUT_SECS", "30")
	t.Setenv("DB_PATH", "/tmp/fhirloop.db")
	t.Setenv("ARTIFACTS_DIR", "/tmp/artifacts")

	s, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if s.LLM.Provider != "openai" || s.LLM.Model != "gpt-4o-mini" {
		t.Errorf("provider override not applied: %+v", s.LLM)
	}
	if s.LLM.BaseURL != "http://gpu-box:11434" {
		t.Errorf("base URL override not applied: %q", s.LLM.BaseURL)
	}
	if s.LLM.MaxTokens != 4096 || s.LLM.Temperature != 0.2 {
		t.Errorf("numeric overrides not applied: %+v", s.LLM)
	}
	if s.FHIR.BaseURL != "http://localhost:8080/fhir" {
		t.Errorf("FHIR base URL override not applied: %q", s.FHIR.BaseURL)
	}
	if s.Loop.MaxAttempts != 5 {
		t.Errorf("max attempts override not applied: %d", s.Loop.MaxAttempts)
	}
	if s.Loop.GenTimeout != 120*time.Second || s.Loop.ExecTimeout != 30*time.Second {
		t.Errorf("timeout overrides not applied: %+v", s.Loop)
	}
	if s.DB.Path != "/tmp/fhirloop.db" || s.DB.ArtifactsDir != "/tmp/artifacts" {
		t.Errorf("db overrides not applied: %+v", s.DB)
	}
}

func TestNewInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric max tokens", "LLM_MAX_TOKENS", "lots"},
		{"non-numeric temperature", "LLM_TEMPERATURE", "warm"},
		{"non-numeric attempts", "LOOP_MAX_ATTEMPTS", "three"},
		{"non-numeric gen timeout", "LOOP_GEN_TIMEOUT_SECS", "1m"},
		{"non-numeric exec timeout", "LOOP_EXEC_TIMEOUT_SECS", "10s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := New(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestMustNewPanicsOnInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")

	defer func() {
		if recover() == nil {
			t.Error("expected MustNew to panic on invalid configuration")
		}
	}()
	MustNew()
}
