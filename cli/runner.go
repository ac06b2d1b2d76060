// Command execution for CLI commands.
//
// Information Hiding:
// - Provider/executor/recorder setup hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emrtools/fhirloop/config"
	"github.com/emrtools/fhirloop/fhir"
	"github.com/emrtools/fhirloop/llm"
	"github.com/emrtools/fhirloop/loop"
	"github.com/emrtools/fhirloop/recorder"
	"github.com/emrtools/fhirloop/sandbox"
)

// Options holds CLI execution options.
type Options struct {
	Provider    string
	Model       string
	Executor    string // "yaegi" or "subprocess"
	MaxAttempts int
	Verbose     bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Executor: "yaegi",
		Verbose:  false,
	}
}

// NewLogger builds the process logger. Verbose mode lowers the level
// to debug.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// RunTrain executes the feedback loop for a single task.
func RunTrain(ctx context.Context, task string, opts Options) error {
	settings, err := config.New()
	if err != nil {
		return err
	}
	applyOverrides(&settings, opts)

	logger, err := NewLogger(opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}

	fhirClient := fhir.NewClient(settings.FHIR.BaseURL)
	binds := sandbox.Bindings{
		FHIRClient: fhirClient,
		Explorer:   fhir.NewExplorer(fhirClient),
	}

	executor, err := createExecutor(opts.Executor, settings)
	if err != nil {
		return err
	}

	ctrl := loop.New(provider, executor, binds, loop.Config{
		MaxAttempts: settings.Loop.MaxAttempts,
		GenTimeout:  settings.Loop.GenTimeout,
		ExecTimeout: settings.Loop.ExecTimeout,
		Temperature: settings.LLM.Temperature,
		MaxTokens:   settings.LLM.MaxTokens,
	}).WithLogger(logger)

	if settings.DB.Path != "" {
		rec, err := recorder.OpenSqlite(settings.DB.Path)
		if err != nil {
			return fmt.Errorf("failed to open recorder: %w", err)
		}
		defer rec.Close()
		if settings.DB.ArtifactsDir != "" {
			rec = rec.WithArtifacts(settings.DB.ArtifactsDir)
		}
		ctrl = ctrl.WithRecorder(rec)
	}

	fmt.Printf("Running task with %s (%s)...\n\n", provider.Name(), provider.Model())
	result := ctrl.Run(ctx, task)
	printResult(result)
	return nil
}

// RunHealth checks whether the model endpoint is reachable.
func RunHealth(ctx context.Context, opts Options) error {
	settings, err := config.New()
	if err != nil {
		return err
	}
	applyOverrides(&settings, opts)

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}

	if provider.HealthCheck(ctx) {
		fmt.Printf("%s (%s): healthy\n", provider.Name(), provider.Model())
		return nil
	}
	fmt.Printf("%s (%s): unreachable\n", provider.Name(), provider.Model())
	return nil
}

// RunExplore prints the structure and relationships of a resource type.
func RunExplore(ctx context.Context, resourceType, id string, opts Options) error {
	settings, err := config.New()
	if err != nil {
		return err
	}

	explorer := fhir.NewExplorer(fhir.NewClient(settings.FHIR.BaseURL))

	structure := explorer.ExploreStructure(ctx, resourceType)
	printJSON("Structure", structure)

	if id != "" {
		relationships := explorer.GetRelationships(ctx, id, resourceType)
		printJSON("Relationships", relationships)
	}
	return nil
}

// RunHistory prints recent recorded attempts.
func RunHistory(ctx context.Context, limit int) error {
	settings, err := config.New()
	if err != nil {
		return err
	}
	if settings.DB.Path == "" {
		return fmt.Errorf("no recorder configured: set DB_PATH")
	}

	rec, err := recorder.OpenSqlite(settings.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open recorder: %w", err)
	}
	defer rec.Close()

	rows, err := rec.RecentAttempts(ctx, limit)
	if err != nil {
		return err
	}
	for _, r := range rows {
		status := "ok"
		if !r.Success {
			status = fmt.Sprintf("failed (%s)", r.ErrorClass)
		}
		fmt.Printf("#%d %s v%d %s  %s  %q\n", r.ID, r.Fingerprint, r.Version, r.CreatedAt, status, r.Task)
	}
	return nil
}

// RunEval is the hidden child-process entry point used by the
// subprocess executor: code on stdin, JSON outcome on stdout. The
// parent enforces the deadline by killing this process.
func RunEval(ctx context.Context, fhirBaseURL string) error {
	code, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	fhirClient := fhir.NewClient(fhirBaseURL)
	binds := sandbox.Bindings{
		FHIRClient: fhirClient,
		Explorer:   fhir.NewExplorer(fhirClient),
	}

	outcome := sandbox.NewYaegiExecutor().Execute(ctx, string(code), binds)
	return json.NewEncoder(os.Stdout).Encode(outcome)
}

func applyOverrides(settings *config.Settings, opts Options) {
	if opts.Provider != "" {
		settings.LLM.Provider = opts.Provider
	}
	if opts.Model != "" {
		settings.LLM.Model = opts.Model
	}
	if opts.MaxAttempts > 0 {
		settings.Loop.MaxAttempts = opts.MaxAttempts
	}
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	baseURL := ""
	if settings.LLM.Provider == "" || settings.LLM.Provider == "ollama" {
		baseURL = settings.LLM.BaseURL
	}
	return llm.NewProvider(settings.LLM.Provider, settings.LLM.Model, baseURL)
}

func createExecutor(name string, settings config.Settings) (sandbox.Executor, error) {
	switch name {
	case "", "yaegi":
		return sandbox.NewYaegiExecutor(), nil
	case "subprocess":
		return sandbox.NewSubprocessExecutor(settings.FHIR.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown executor: %s", name)
	}
}

func printResult(result loop.Result) {
	for _, a := range result.Attempts {
		if !a.Executed {
			fmt.Printf("Attempt %d: generation failed: %s\n", a.N, a.GenerationErr)
			continue
		}
		if a.Outcome.OK {
			fmt.Printf("Attempt %d: success (%s)\n", a.N, a.Outcome.Duration)
		} else {
			fmt.Printf("Attempt %d: %s: %s\n", a.N, a.Outcome.Class, a.Outcome.Message)
		}
	}

	fmt.Println()
	switch result.State {
	case loop.Succeeded:
		fmt.Println("Result: succeeded")
		fmt.Println("----------------------------------------")
		fmt.Println(result.Code)
		fmt.Println("----------------------------------------")
	case loop.Exhausted:
		fmt.Printf("Result: exhausted after %d attempts\n", len(result.Attempts))
	}
}

func printJSON(label string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%s: %v\n", label, v)
		return
	}
	fmt.Printf("%s:\n%s\n", label, data)
}
