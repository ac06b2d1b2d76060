// Generate-execute-record feedback loop.
//
// This is THE core of the harness. Given a task description it
// repeatedly asks the model for code, runs it in the sandbox, records
// the outcome, and folds failures back into the next prompt, stopping
// on the first success or when the attempt budget runs out.
//
// Information Hiding:
// - Loop state transitions hidden
// - Prompt enrichment from recorded patterns hidden
// - Timeout handling per suspension point hidden

package loop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emrtools/fhirloop/internal/sanitize"
	"github.com/emrtools/fhirloop/llm"
	"github.com/emrtools/fhirloop/recorder"
	"github.com/emrtools/fhirloop/sandbox"
)

// State is the loop's position in its state machine.
type State int

const (
	// Idle: no task submitted yet.
	Idle State = iota
	// Generating: waiting on the model.
	Generating
	// Executing: waiting on the sandbox.
	Executing
	// Recording: persisting the attempt outcome.
	Recording
	// Succeeded: terminal, an attempt's outcome was success.
	Succeeded
	// Exhausted: terminal, the attempt budget ran out without success.
	Exhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Executing:
		return "executing"
	case Recording:
		return "recording"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Recorder is the optional persistence attachment. The controller only
// needs to log attempts and pull enrichment for prompts.
type Recorder interface {
	RecordAttempt(ctx context.Context, a recorder.Attempt) (recorder.SavedAttempt, error)
	BestPattern(ctx context.Context, task string) (string, bool)
	ErrorFix(ctx context.Context, class string) (string, bool)
}

// Config bounds one loop run.
type Config struct {
	MaxAttempts int
	GenTimeout  time.Duration
	ExecTimeout time.Duration
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default loop configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		GenTimeout:  60 * time.Second,
		ExecTimeout: 10 * time.Second,
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	}
}

// normalized fills zero fields with defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.GenTimeout <= 0 {
		c.GenTimeout = d.GenTimeout
	}
	if c.ExecTimeout <= 0 {
		c.ExecTimeout = d.ExecTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	return c
}

// AttemptReport is one attempt's worth of loop history.
type AttemptReport struct {
	N      int
	Prompt string
	// Executed reports whether the attempt reached the sandbox. A
	// generation timeout or transport fault consumes the attempt
	// without an execution.
	Executed bool
	Code     string
	Outcome  sandbox.Outcome
	// GenerationErr is set when generation failed for this attempt.
	GenerationErr string
}

// Result is the terminal report of one run. A run always returns
// normally: exhaustion is a Result, not an error.
type Result struct {
	RunID    string
	Task     string
	State    State
	Attempts []AttemptReport
	// Code is the successful snippet when State == Succeeded.
	Code string
}

// Controller orchestrates the feedback loop. One controller runs one
// task at a time; runs are independent and a terminal state is final
// for that run.
type Controller struct {
	provider llm.Provider
	executor sandbox.Executor
	binds    sandbox.Bindings
	rec      Recorder
	log      *zap.Logger
	cfg      Config
}

// New creates a controller over a model provider and an executor.
func New(provider llm.Provider, executor sandbox.Executor, binds sandbox.Bindings, cfg Config) *Controller {
	return &Controller{
		provider: provider,
		executor: executor,
		binds:    binds,
		log:      zap.NewNop(),
		cfg:      cfg.normalized(),
	}
}

// WithRecorder attaches attempt persistence and prompt enrichment.
func (c *Controller) WithRecorder(rec Recorder) *Controller {
	c.rec = rec
	return c
}

// WithLogger attaches a logger.
func (c *Controller) WithLogger(log *zap.Logger) *Controller {
	c.log = log
	return c
}

// Run executes the feedback loop for one task. It terminates after at
// most MaxAttempts attempts, reaching Succeeded on the first successful
// execution and Exhausted otherwise; it never attempts further
// generation after a success.
func (c *Controller) Run(ctx context.Context, task string) Result {
	runID := uuid.NewString()
	log := c.log.With(
		zap.String("run_id", runID),
		zap.String("fingerprint", recorder.Fingerprint(task)),
	)
	log.Info("run started",
		zap.String("provider", c.provider.Name()),
		zap.String("model", c.provider.Model()),
		zap.String("executor", c.executor.Name()),
		zap.Int("max_attempts", c.cfg.MaxAttempts),
	)

	result := Result{RunID: runID, Task: task, State: Idle}
	var lastFailure *sandbox.Outcome

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		prompt := c.buildPrompt(ctx, task, lastFailure)

		result.State = Generating
		req := llm.NewRequest(prompt, systemPrompt).
			WithTemperature(c.cfg.Temperature).
			WithMaxTokens(c.cfg.MaxTokens)

		genCtx, cancelGen := context.WithTimeout(ctx, c.cfg.GenTimeout)
		gen, err := c.provider.Generate(genCtx, req)
		cancelGen()
		if err != nil {
			// A generation timeout or transport fault consumes the
			// attempt; no execution happens for it.
			log.Warn("generation failed", zap.Int("attempt", attempt), zap.Error(err))
			result.Attempts = append(result.Attempts, AttemptReport{
				N:             attempt,
				Prompt:        prompt,
				GenerationErr: err.Error(),
			})
			continue
		}

		code := sanitize.Sanitize(gen.Content)
		log.Debug("generated code", zap.Int("attempt", attempt), zap.Int("bytes", len(code)))

		result.State = Executing
		execCtx, cancelExec := context.WithTimeout(ctx, c.cfg.ExecTimeout)
		outcome := c.executor.Execute(execCtx, code, c.binds)
		cancelExec()

		result.State = Recording
		c.record(ctx, runID, task, code, outcome, lastFailure)
		result.Attempts = append(result.Attempts, AttemptReport{
			N:        attempt,
			Prompt:   prompt,
			Executed: true,
			Code:     code,
			Outcome:  outcome,
		})

		if outcome.OK {
			log.Info("run succeeded",
				zap.Int("attempt", attempt),
				zap.Duration("exec_duration", outcome.Duration),
			)
			result.State = Succeeded
			result.Code = code
			return result
		}

		log.Info("attempt failed",
			zap.Int("attempt", attempt),
			zap.String("class", outcome.Class),
			zap.String("message", outcome.Message),
		)
		failed := outcome
		lastFailure = &failed
	}

	result.State = Exhausted
	log.Info("run exhausted", zap.Int("attempts", c.cfg.MaxAttempts))
	return result
}

// record persists one executed attempt. Recording problems are logged,
// never surfaced: losing history must not fail a run.
func (c *Controller) record(ctx context.Context, runID, task, code string, out sandbox.Outcome, last *sandbox.Outcome) {
	if c.rec == nil {
		return
	}
	prevClass := ""
	if last != nil {
		prevClass = last.Class
	}
	_, err := c.rec.RecordAttempt(ctx, recorder.Attempt{
		RunID:          runID,
		Task:           task,
		Code:           code,
		Success:        out.OK,
		ErrorClass:     out.Class,
		ErrorMessage:   out.Message,
		PrevErrorClass: prevClass,
		Duration:       out.Duration,
	})
	if err != nil {
		c.log.Warn("failed to record attempt", zap.Error(err))
	}
}
