package taskrunner

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/chores/internal/execshell"
	"github.com/tyemirov/chores/internal/tasks"
)

type stubCommandRunner struct {
	exitCodes map[string]int
	invoked   []string
}

func (runner *stubCommandRunner) Run(_ context.Context, command execshell.CommandSpec) (execshell.ExecutionResult, error) {
	runner.invoked = append(runner.invoked, command.String())
	return execshell.ExecutionResult{ExitCode: runner.exitCodes[command.String()]}, nil
}

func newSingleTaskRegistry(t *testing.T, taskName string, executables ...string) *tasks.Registry {
	t.Helper()
	registry := tasks.NewRegistry()
	task := tasks.Task{Name: taskName}
	for _, executable := range executables {
		task.Steps = append(task.Steps, tasks.Step{Name: executable, Command: execshell.CommandSpec{Executable: executable}})
	}
	require.NoError(t, registry.Register(task))
	registry.Seal()
	return registry
}

func TestBuildDependenciesRequiresRegistry(t *testing.T) {
	_, err := BuildDependencies(DependenciesConfig{}, DependenciesOptions{Output: &bytes.Buffer{}, Errors: &bytes.Buffer{}})
	require.ErrorIs(t, err, errRegistryMissing)
}

func TestBuildDependenciesUsesCommandWriters(t *testing.T) {
	command := &cobra.Command{Use: "chores"}
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(errorBuffer)

	runner := &stubCommandRunner{}
	result, err := BuildDependencies(
		DependenciesConfig{
			LoggerProvider: func() *zap.Logger { return nil },
			Registry:       newSingleTaskRegistry(t, "lint", "echo"),
			CommandRunner:  runner,
		},
		DependenciesOptions{Command: command},
	)
	require.NoError(t, err)
	require.Same(t, outputBuffer, result.Output)
	require.Same(t, errorBuffer, result.Errors)
	require.NotNil(t, result.Logger)

	taskResult, runError := result.TaskExecutor.RunTask(context.Background(), "lint")
	require.NoError(t, runError)
	require.True(t, taskResult.Succeeded)
	require.Equal(t, []string{"echo"}, runner.invoked)
	require.Contains(t, outputBuffer.String(), "[lint 1/1] echo: echo")
}

func TestBuildDependenciesCreatesOperatingSystemRunner(t *testing.T) {
	result, err := BuildDependencies(
		DependenciesConfig{Registry: newSingleTaskRegistry(t, "lint", "echo")},
		DependenciesOptions{Output: &bytes.Buffer{}, Errors: &bytes.Buffer{}},
	)
	require.NoError(t, err)
	require.IsType(t, &execshell.OSCommandRunner{}, result.CommandRunner)
}
