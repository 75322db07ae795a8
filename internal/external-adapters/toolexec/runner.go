// Package toolexec runs external command-line tools with bounded runtime
// and captured output.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const defaultTimeout = 2 * time.Minute

// Runner executes a single tool invocation per call. It exists so the tool
// adapters share one timeout and capture discipline.
type Runner struct {
	timeout time.Duration
}

// NewRunner creates a runner; a non-positive timeout selects the default
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{timeout: timeout}
}

// Result contains the outcome of one tool invocation. A non-zero exit code
// is a result, not an error; errors are reserved for tools that cannot run
// at all.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Combined returns stdout and stderr joined, for pattern matching against
// tools that report on either stream
func (r *Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Run executes tool with args and waits for completion
func (r *Runner) Run(ctx context.Context, tool string, args ...string) (*Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	//nolint:gosec // G204: tool names are fixed constants in the calling adapters
	cmd := exec.CommandContext(execCtx, tool, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %v", tool, r.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", tool, err)
	}
	return result, nil
}

// IsInstalled reports whether tool is available in PATH
func IsInstalled(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}
