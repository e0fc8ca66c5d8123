package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Verdict statuses reported back on the result queue.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Verdict is the grading outcome for one submission.
type Verdict struct {
	Status string `json:"status"`
	Output string `json:"output"`
}

// RunnerConfig tunes how submissions are executed.
type RunnerConfig struct {
	// Image is the container image used for Go submissions.
	Image string
	// RunTimeout bounds stdout-comparison runs.
	RunTimeout time.Duration
	// SuiteTimeout bounds test-suite runs, which also compile the tests.
	SuiteTimeout time.Duration
	WorkspaceRoot string
	MemoryLimitMB int64
	CPUShares     int64
}

// Runner grades submissions by executing them in the sandbox. It is
// stateless: every execution gets a fresh workspace directory, and all
// artifacts are removed on every exit path.
type Runner struct {
	executor Executor
	cfg      RunnerConfig
	logger   zerolog.Logger
}

// NewRunner constructs a runner on top of the given executor.
func NewRunner(executor Executor, cfg RunnerConfig, logger zerolog.Logger) *Runner {
	if cfg.Image == "" {
		cfg.Image = "golang:1.22-alpine"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Second
	}
	if cfg.SuiteTimeout <= 0 {
		cfg.SuiteTimeout = 10 * time.Second
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}

	return &Runner{
		executor: executor,
		cfg:      cfg,
		logger:   logger.With().Str("component", "sandbox_runner").Logger(),
	}
}

// Execute grades code against the test spec derived from rawTestCode. It never
// returns an error: timeouts, compile failures and internal faults all
// surface as an error verdict so the consumer loop keeps running.
func (r *Runner) Execute(ctx context.Context, code, rawTestCode string) (verdict Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Msg("runner panic recovered")
			verdict = Verdict{Status: StatusError, Output: fmt.Sprintf("internal execution failure: %v", rec)}
		}
	}()

	spec, ok := ParseTestSpec(rawTestCode)
	if !ok {
		return Verdict{Status: StatusError, Output: "no tests found for this lesson"}
	}

	switch spec.Mode {
	case ModeStdout:
		return r.runStdout(ctx, code, spec.ExpectedOutput)
	case ModeSuite:
		return r.runSuite(ctx, code, spec.TestCode)
	default:
		return Verdict{Status: StatusError, Output: "no tests found for this lesson"}
	}
}

func (r *Runner) runStdout(ctx context.Context, code, expected string) Verdict {
	workspace, cleanup, err := r.workspace(map[string]string{"main.go": code})
	if err != nil {
		return Verdict{Status: StatusError, Output: err.Error()}
	}
	defer cleanup()

	result, runErr := r.executor.Run(ctx, ExecutionRequest{
		Image:         r.cfg.Image,
		Cmd:           []string{"go", "run", "main.go"},
		Env:           []string{"GOCACHE=/tmp/gocache", "GOPATH=/tmp/gopath"},
		Timeout:       r.cfg.RunTimeout,
		Workspace:     workspace,
		MemoryLimitMB: r.cfg.MemoryLimitMB,
		CPUShares:     r.cfg.CPUShares,
	})

	if result.TimedOut {
		return Verdict{Status: StatusError, Output: fmt.Sprintf("execution timed out after %s", r.cfg.RunTimeout)}
	}
	if runErr != nil {
		return Verdict{Status: StatusError, Output: runErr.Error()}
	}
	if result.ExitCode != 0 {
		return Verdict{Status: StatusError, Output: combineOutput(result.Stdout, result.Stderr)}
	}

	got := strings.TrimSpace(result.Stdout)
	want := strings.TrimSpace(expected)
	if got != want {
		return Verdict{
			Status: StatusError,
			Output: fmt.Sprintf("wrong output\n--- expected\n%s\n--- got\n%s", want, got),
		}
	}

	return Verdict{Status: StatusSuccess, Output: result.Stdout}
}

func (r *Runner) runSuite(ctx context.Context, code, testCode string) Verdict {
	files := map[string]string{
		"go.mod":           "module solution\n\ngo 1.22\n",
		"solution.go":      code,
		"solution_test.go": ensurePackageClause(testCode),
	}

	workspace, cleanup, err := r.workspace(files)
	if err != nil {
		return Verdict{Status: StatusError, Output: err.Error()}
	}
	defer cleanup()

	result, runErr := r.executor.Run(ctx, ExecutionRequest{
		Image:         r.cfg.Image,
		Cmd:           []string{"go", "test", "./..."},
		Env:           []string{"GOCACHE=/tmp/gocache", "GOPATH=/tmp/gopath"},
		Timeout:       r.cfg.SuiteTimeout,
		Workspace:     workspace,
		MemoryLimitMB: r.cfg.MemoryLimitMB,
		CPUShares:     r.cfg.CPUShares,
	})

	if result.TimedOut {
		return Verdict{Status: StatusError, Output: fmt.Sprintf("execution timed out after %s", r.cfg.SuiteTimeout)}
	}
	if runErr != nil {
		return Verdict{Status: StatusError, Output: runErr.Error()}
	}
	if result.ExitCode != 0 {
		return Verdict{Status: StatusError, Output: combineOutput(result.Stdout, result.Stderr)}
	}

	return Verdict{Status: StatusSuccess, Output: result.Stdout}
}

// workspace creates a unique directory holding the given files. Unique
// per-invocation directories keep concurrent executions from clobbering each
// other's artifacts.
func (r *Runner) workspace(files map[string]string) (string, func(), error) {
	dir, err := os.MkdirTemp(r.cfg.WorkspaceRoot, "submission-")
	if err != nil {
		return "", nil, fmt.Errorf("create workspace: %w", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Error().Err(err).Str("workspace", dir).Msg("failed to remove workspace")
		}
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	return dir, cleanup, nil
}

// ensurePackageClause prefixes the test file with the solution's package
// clause when the lesson author omitted it.
func ensurePackageClause(testCode string) string {
	for _, line := range strings.Split(testCode, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.HasPrefix(trimmed, "package ") {
			return testCode
		}
		break
	}
	return "package main\n\n" + testCode
}

func combineOutput(stdout, stderr string) string {
	combined := strings.TrimSpace(stdout + "\n" + stderr)
	if combined == "" {
		return "execution failed"
	}
	return combined
}
