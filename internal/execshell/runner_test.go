//go:build unix

package execshell_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/chores/internal/execshell"
)

func TestOSCommandRunnerStreamsOutputAndReportsExitCodes(testInstance *testing.T) {
	testCases := []struct {
		name             string
		command          execshell.CommandSpec
		expectedExitCode int
		expectedOutput   string
		expectedErrors   string
	}{
		{
			name:             "echo_success",
			command:          execshell.CommandSpec{Executable: "echo", Arguments: []string{"a"}},
			expectedExitCode: 0,
			expectedOutput:   "a\n",
		},
		{
			name:             "false_exit_code",
			command:          execshell.CommandSpec{Executable: "false"},
			expectedExitCode: 1,
		},
		{
			name:             "arguments_are_not_shell_expanded",
			command:          execshell.CommandSpec{Executable: "echo", Arguments: []string{"$HOME", "*"}},
			expectedExitCode: 0,
			expectedOutput:   "$HOME *\n",
		},
		{
			name:             "standard_error_stream",
			command:          execshell.CommandSpec{Executable: "sh", Arguments: []string{"-c", "echo problem >&2; exit 4"}},
			expectedExitCode: 4,
			expectedErrors:   "problem\n",
		},
		{
			name: "environment_override",
			command: execshell.CommandSpec{
				Executable:           "sh",
				Arguments:            []string{"-c", "printf %s \"$CHORES_RUNNER_TEST\""},
				EnvironmentVariables: map[string]string{"CHORES_RUNNER_TEST": "configured"},
			},
			expectedOutput: "configured",
		},
		{
			name:             "signal_exit_code",
			command:          execshell.CommandSpec{Executable: "sh", Arguments: []string{"-c", "kill -TERM $$"}},
			expectedExitCode: 143,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			errorBuffer := &bytes.Buffer{}
			runner := execshell.NewOSCommandRunner(outputBuffer, errorBuffer, &bytes.Buffer{})

			result, runError := runner.Run(context.Background(), testCase.command)
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedExitCode, result.ExitCode)
			require.Equal(testInstance, testCase.expectedOutput, outputBuffer.String())
			require.Equal(testInstance, testCase.expectedErrors, errorBuffer.String())
		})
	}
}

func TestOSCommandRunnerWorkingDirectory(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	outputBuffer := &bytes.Buffer{}
	runner := execshell.NewOSCommandRunner(outputBuffer, &bytes.Buffer{}, &bytes.Buffer{})

	result, runError := runner.Run(context.Background(), execshell.CommandSpec{
		Executable:       "sh",
		Arguments:        []string{"-c", "touch marker && ls"},
		WorkingDirectory: workingDirectory,
	})
	require.NoError(testInstance, runError)
	require.Zero(testInstance, result.ExitCode)
	require.Equal(testInstance, "marker\n", outputBuffer.String())
}

func TestOSCommandRunnerMissingExecutableIsSpawnError(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner(&bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{})

	_, runError := runner.Run(context.Background(), execshell.CommandSpec{Executable: "chores-definitely-not-installed"})
	require.Error(testInstance, runError)

	var spawnError execshell.SpawnError
	require.True(testInstance, errors.As(runError, &spawnError))
	require.Equal(testInstance, "chores-definitely-not-installed", spawnError.Command.Executable)
	require.Contains(testInstance, runError.Error(), "unable to start chores-definitely-not-installed")
}

func TestOSCommandRunnerTerminatesChildOnCancellation(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner(&bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}).
		WithTerminationGracePeriod(time.Second)

	executionContext, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	startTime := time.Now()
	_, runError := runner.Run(executionContext, execshell.CommandSpec{Executable: "sleep", Arguments: []string{"30"}})
	require.ErrorIs(testInstance, runError, execshell.ErrInterrupted)
	require.ErrorIs(testInstance, runError, context.DeadlineExceeded)
	require.Less(testInstance, time.Since(startTime), 10*time.Second)
}

func TestOSCommandRunnerRefusesCancelledContext(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	runner := execshell.NewOSCommandRunner(outputBuffer, &bytes.Buffer{}, &bytes.Buffer{})

	executionContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, runError := runner.Run(executionContext, execshell.CommandSpec{Executable: "echo", Arguments: []string{"never"}})
	require.ErrorIs(testInstance, runError, execshell.ErrInterrupted)
	require.Empty(testInstance, outputBuffer.String())
}
