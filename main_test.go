package main

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/chores/cmd/cli"
	"github.com/tyemirov/chores/internal/execshell"
	"github.com/tyemirov/chores/internal/tasks"
)

func TestExitCodeFor(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{
			name:         "step_status_propagated",
			err:          &tasks.StepFailureError{TaskName: "format", StepIndex: 1, StepCount: 2, StepName: "false", Status: 3},
			expectedCode: 3,
		},
		{
			name:         "wrapped_step_status_propagated",
			err:          fmt.Errorf("run: %w", &tasks.StepFailureError{TaskName: "lint", StepCount: 1, Status: 2}),
			expectedCode: 2,
		},
		{
			name:         "spawn_failure_falls_back",
			err:          &tasks.StepFailureError{TaskName: "lint", StepCount: 1, Status: -1, Cause: execshell.SpawnError{Command: execshell.CommandSpec{Executable: "cspell"}}},
			expectedCode: 1,
		},
		{
			name:         "unknown_task_falls_back",
			err:          tasks.UnknownTaskError{TaskName: "deploy"},
			expectedCode: 1,
		},
		{
			name:         "termination_signal_exit_code",
			err:          fmt.Errorf("%w: %w", execshell.ErrInterrupted, cli.SignalError{Signal: syscall.SIGTERM}),
			expectedCode: 143,
		},
		{
			name:         "plain_error_falls_back",
			err:          errors.New("boom"),
			expectedCode: 1,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedCode, exitCodeFor(testCase.err))
		})
	}
}
