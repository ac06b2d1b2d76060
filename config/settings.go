// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings holds all application configuration.
type Settings struct {
	LLM  LLMConfig
	FHIR FHIRConfig
	Loop LoopConfig
	DB   DBConfig
}

// LLMConfig holds model provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	BaseURL     string // for local providers (ollama, openai-compatible)
	MaxTokens   int
	Temperature float64
}

// FHIRConfig holds FHIR server configuration.
type FHIRConfig struct {
	BaseURL string
}

// LoopConfig holds feedback loop configuration.
type LoopConfig struct {
	MaxAttempts int
	GenTimeout  time.Duration
	ExecTimeout time.Duration
}

// DBConfig holds attempt recorder configuration.
type DBConfig struct {
	Path         string // empty disables recording
	ArtifactsDir string // empty disables artifact files
}

// Defaults for the local-first setup.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultModel         = "deepseek-coder"
	DefaultFHIRBaseURL   = "https://hapi.fhir.org/baseR4"
)

// New creates settings, loading values from environment variables.
// Returns an error if environment variables contain invalid values.
func New() (Settings, error) {
	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", 2000)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	maxAttempts, err := getEnvInt("LOOP_MAX_ATTEMPTS", 3)
	if err != nil {
		return Settings{}, err
	}

	genTimeoutSecs, err := getEnvInt("LOOP_GEN_TIMEOUT_SECS", 60)
	if err != nil {
		return Settings{}, err
	}

	execTimeoutSecs, err := getEnvInt("LOOP_EXEC_TIMEOUT_SECS", 10)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "ollama"),
			Model:       getEnv("LLM_MODEL", DefaultModel),
			BaseURL:     getEnv("OLLAMA_BASE_URL", DefaultOllamaBaseURL),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		FHIR: FHIRConfig{
			BaseURL: getEnv("FHIR_BASE_URL", DefaultFHIRBaseURL),
		},
		Loop: LoopConfig{
			MaxAttempts: maxAttempts,
			GenTimeout:  time.Duration(genTimeoutSecs) * time.Second,
			ExecTimeout: time.Duration(execTimeoutSecs) * time.Second,
		},
		DB: DBConfig{
			Path:         getEnv("DB_PATH", ""),
			ArtifactsDir: getEnv("ARTIFACTS_DIR", ""),
		},
	}, nil
}

// MustNew creates settings, panicking on invalid environment values.
// Use this only when configuration errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Environment variable helpers with proper error handling

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
