package sandbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	result    ExecutionResult
	err       error
	lastReq   ExecutionRequest
	seenFiles map[string]string
}

func (s *stubExecutor) Run(_ context.Context, req ExecutionRequest) (ExecutionResult, error) {
	s.lastReq = req
	s.seenFiles = map[string]string{}
	entries, err := os.ReadDir(req.Workspace)
	if err == nil {
		for _, entry := range entries {
			content, readErr := os.ReadFile(filepath.Join(req.Workspace, entry.Name()))
			if readErr == nil {
				s.seenFiles[entry.Name()] = string(content)
			}
		}
	}
	return s.result, s.err
}

func newTestRunner(t *testing.T, exec Executor) *Runner {
	t.Helper()
	return NewRunner(exec, RunnerConfig{WorkspaceRoot: t.TempDir()}, zerolog.Nop())
}

func TestExecuteStdoutModeComparesTrimmedOutput(t *testing.T) {
	exec := &stubExecutor{result: ExecutionResult{Stdout: "hello world\n", ExitCode: 0}}
	runner := newTestRunner(t, exec)

	verdict := runner.Execute(context.Background(), "package main", `{"mode":"stdout","expected_output":"hello world"}`)
	require.Equal(t, StatusSuccess, verdict.Status)

	verdict = runner.Execute(context.Background(), "package main", `{"mode":"stdout","expected_output":"goodbye"}`)
	require.Equal(t, StatusError, verdict.Status)
	require.Contains(t, verdict.Output, "expected")
	require.Contains(t, verdict.Output, "goodbye")
}

func TestExecuteTimeoutIsReportedNotFatal(t *testing.T) {
	exec := &stubExecutor{
		result: ExecutionResult{TimedOut: true},
		err:    errors.New("execution timed out after 5s"),
	}
	runner := newTestRunner(t, exec)

	verdict := runner.Execute(context.Background(), "package main", `{"mode":"stdout","expected_output":"x"}`)
	require.Equal(t, StatusError, verdict.Status)
	require.Contains(t, verdict.Output, "timed out")
}

func TestExecuteCleansWorkspaceOnEveryPath(t *testing.T) {
	root := t.TempDir()
	exec := &stubExecutor{result: ExecutionResult{TimedOut: true}, err: errors.New("timeout")}
	runner := NewRunner(exec, RunnerConfig{WorkspaceRoot: root}, zerolog.Nop())

	runner.Execute(context.Background(), "package main", `{"mode":"stdout","expected_output":"x"}`)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries, "workspace artifacts must be removed after execution")
}

func TestExecuteMissingSpecSkipsExecution(t *testing.T) {
	exec := &stubExecutor{}
	runner := newTestRunner(t, exec)

	verdict := runner.Execute(context.Background(), "package main", "")
	require.Equal(t, StatusError, verdict.Status)
	require.Contains(t, verdict.Output, "no tests found")
	require.Empty(t, exec.lastReq.Image, "executor must not be invoked without a spec")
}

func TestExecuteSuiteModePrefixesPackageClause(t *testing.T) {
	exec := &stubExecutor{result: ExecutionResult{Stdout: "ok", ExitCode: 0}}
	runner := newTestRunner(t, exec)

	testCode := "import \"testing\"\n\nfunc TestAdd(t *testing.T) {}"
	verdict := runner.Execute(context.Background(), "package main\n\nfunc add(a, b int) int { return a + b }", testCode)

	require.Equal(t, StatusSuccess, verdict.Status)
	require.True(t, strings.HasPrefix(exec.seenFiles["solution_test.go"], "package main\n"))
	require.Contains(t, exec.seenFiles, "solution.go")
	require.Contains(t, exec.seenFiles, "go.mod")
	require.Equal(t, []string{"go", "test", "./..."}, exec.lastReq.Cmd)
}

func TestExecuteSuiteModeFailureCombinesOutput(t *testing.T) {
	exec := &stubExecutor{result: ExecutionResult{Stdout: "--- FAIL: TestAdd", Stderr: "exit status 1", ExitCode: 1}}
	runner := newTestRunner(t, exec)

	verdict := runner.Execute(context.Background(), "package main", `{"mode":"suite","test_code":"package main"}`)
	require.Equal(t, StatusError, verdict.Status)
	require.Contains(t, verdict.Output, "FAIL")
	require.Contains(t, verdict.Output, "exit status 1")
}

func TestParseTestSpecLegacyFallback(t *testing.T) {
	spec, ok := ParseTestSpec("package main\n\nfunc TestX(t *testing.T) {}")
	require.True(t, ok)
	require.Equal(t, ModeSuite, spec.Mode)

	_, ok = ParseTestSpec("   ")
	require.False(t, ok)

	_, ok = ParseTestSpec(`{"mode":"stdout"}`)
	require.False(t, ok, "stdout mode without expected output is unusable")
}
