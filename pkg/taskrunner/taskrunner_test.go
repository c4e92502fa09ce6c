package taskrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/chores/internal/execshell"
	"github.com/tyemirov/chores/internal/tasks"
)

type fakeExecutor struct {
	result tasks.TaskResult
	err    error
}

func (executor fakeExecutor) RunTask(_ context.Context, _ string) (tasks.TaskResult, error) {
	return executor.result, executor.err
}

func TestRenderSummaryLineSucceeded(t *testing.T) {
	summary := RenderSummaryLine(NewSummaryData(tasks.TaskResult{
		TaskName:   "lint",
		RunID:      "run",
		Succeeded:  true,
		FailedStep: -1,
		StepCount:  5,
		StepsRun:   5,
		Duration:   1200 * time.Millisecond,
	}))
	require.Equal(t, "Summary: task=lint status=succeeded steps=5/5 duration_human=1.2s duration_ms=1200", summary)
}

func TestRenderSummaryLineFailedStep(t *testing.T) {
	summary := RenderSummaryLine(NewSummaryData(tasks.TaskResult{
		TaskName:   "lint",
		RunID:      "run",
		FailedStep: 1,
		ExitCode:   1,
		StepCount:  5,
		StepsRun:   2,
		Failures:   []tasks.StepFailure{{StepIndex: 1, StepName: "remark", ExitCode: 1}},
		Duration:   300 * time.Millisecond,
	}))
	require.Equal(t, "Summary: task=lint status=failed failed_step=2/5 step=remark exit_code=1 steps=2/5 duration_human=300ms duration_ms=300", summary)
}

func TestRenderSummaryLineSpawnFailure(t *testing.T) {
	spawnError := execshell.SpawnError{Command: execshell.CommandSpec{Executable: "cspell"}, Cause: errors.New("not found")}
	summary := RenderSummaryLine(NewSummaryData(tasks.TaskResult{
		TaskName:   "lint",
		RunID:      "run",
		FailedStep: 0,
		ExitCode:   -1,
		Cause:      spawnError,
		StepCount:  5,
		StepsRun:   1,
		Failures:   []tasks.StepFailure{{StepIndex: 0, StepName: "cspell", ExitCode: -1, Cause: spawnError}},
	}))
	require.Contains(t, summary, "status=failed failed_step=1/5 step=cspell spawn_error=true")
	require.NotContains(t, summary, "exit_code")
	require.Contains(t, summary, "duration_human=0s")
}

func TestRenderSummaryLineInterruptedAndDryRun(t *testing.T) {
	interruption := fmt.Errorf("%w: %w", execshell.ErrInterrupted, context.Canceled)
	interrupted := NewSummaryData(tasks.TaskResult{
		TaskName:   "test",
		FailedStep: 0,
		ExitCode:   -1,
		Cause:      interruption,
		StepCount:  1,
		Failures:   []tasks.StepFailure{{StepIndex: 0, StepName: "tox", ExitCode: -1, Cause: interruption}},
	})
	require.Equal(t, "interrupted", interrupted.Status)

	dryRun := NewSummaryData(tasks.TaskResult{TaskName: "test", Succeeded: true, DryRun: true, StepCount: 1})
	require.Contains(t, RenderSummaryLine(dryRun), "status=dry_run")
}

func TestRenderSummaryLineSkipsUnnamedTask(t *testing.T) {
	require.Equal(t, "", RenderSummaryLine(SummaryData{}))
}

func TestSummaryExecutorPrintsSummaryAfterRun(t *testing.T) {
	buffer := &bytes.Buffer{}
	executor := Resolve(func(Dependencies) Executor {
		return fakeExecutor{result: tasks.TaskResult{TaskName: "lint", RunID: "run", Succeeded: true, FailedStep: -1, StepCount: 1, StepsRun: 1}}
	}, Dependencies{Errors: buffer})

	result, err := executor.RunTask(context.Background(), "lint")
	require.NoError(t, err)
	require.True(t, result.Succeeded)
	require.Contains(t, buffer.String(), "Summary: task=lint status=succeeded")
}

func TestSummaryExecutorSkipsSummaryForLookupFailures(t *testing.T) {
	buffer := &bytes.Buffer{}
	lookupError := tasks.UnknownTaskError{TaskName: "deploy"}
	executor := Resolve(func(Dependencies) Executor {
		return fakeExecutor{result: tasks.TaskResult{TaskName: "deploy", FailedStep: -1}, err: lookupError}
	}, Dependencies{Errors: buffer})

	_, err := executor.RunTask(context.Background(), "deploy")
	require.Error(t, err)
	require.Empty(t, buffer.String())
}

func TestResolveWithoutExecutorFails(t *testing.T) {
	_, err := Resolve(nil, Dependencies{}).RunTask(context.Background(), "lint")
	require.ErrorIs(t, err, errExecutorMissing)
}
