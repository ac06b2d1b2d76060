// Out-of-process executor: re-execs the current binary's hidden eval
// command with the snippet on stdin, so a hostile or runaway snippet is
// confined to a child process the parent can kill.

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// SubprocessExecutor runs snippets in a child process. The child applies
// the same restricted interpreter as YaegiExecutor; the parent adds
// process isolation and a hard kill on deadline.
type SubprocessExecutor struct {
	binPath     string // defaults to the current executable
	fhirBaseURL string
}

// NewSubprocessExecutor creates an executor that re-execs the current
// binary. The child rebuilds its FHIR bindings against the given base URL.
func NewSubprocessExecutor(fhirBaseURL string) *SubprocessExecutor {
	return &SubprocessExecutor{fhirBaseURL: fhirBaseURL}
}

// WithBinary overrides the child binary path (used in tests).
func (e *SubprocessExecutor) WithBinary(path string) *SubprocessExecutor {
	e.binPath = path
	return e
}

// Name returns the executor name.
func (e *SubprocessExecutor) Name() string {
	return "subprocess"
}

// Execute spawns the child, feeds it the code, and reads back a JSON
// Outcome. A deadline kills the child and reports a timeout outcome;
// spawn problems report a Spawn-classified failure. Nothing propagates.
func (e *SubprocessExecutor) Execute(ctx context.Context, code string, _ Bindings) Outcome {
	start := time.Now()

	bin := e.binPath
	if bin == "" {
		path, err := os.Executable()
		if err != nil {
			return Failure("Spawn", err.Error(), time.Since(start))
		}
		bin = path
	}

	cmd := exec.CommandContext(ctx, bin, "eval", "--fhir-url", e.fhirBaseURL)
	cmd.Stdin = strings.NewReader(code)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Failure("Spawn", err.Error(), time.Since(start))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Failure("Spawn", err.Error(), time.Since(start))
	}

	if err := cmd.Start(); err != nil {
		return Failure("Spawn", err.Error(), time.Since(start))
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})

	copyErr := g.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return TimedOut(time.Since(start))
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return Failure("ChildExit", strings.TrimSpace(errBuf.String()), time.Since(start))
		}
		return Failure("Spawn", waitErr.Error(), time.Since(start))
	}
	if copyErr != nil {
		return Failure("Spawn", copyErr.Error(), time.Since(start))
	}

	var out Outcome
	if err := json.Unmarshal(outBuf.Bytes(), &out); err != nil {
		return Failure("Protocol", "child produced no outcome: "+strings.TrimSpace(errBuf.String()), time.Since(start))
	}
	// The child measured its own interpreter time; report wall time
	// including the spawn.
	out.Duration = time.Since(start)
	return out
}

// Verify SubprocessExecutor implements Executor
var _ Executor = (*SubprocessExecutor)(nil)
