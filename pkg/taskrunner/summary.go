package taskrunner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tyemirov/chores/internal/execshell"
	"github.com/tyemirov/chores/internal/tasks"
)

const (
	summaryStatusSucceeded   = "succeeded"
	summaryStatusFailed      = "failed"
	summaryStatusInterrupted = "interrupted"
	summaryStatusDryRun      = "dry_run"
	humanStepNumberOffset    = 1
)

// SummaryData captures the values rendered into the final summary line.
type SummaryData struct {
	TaskName             string
	Status               string
	StepCount            int
	StepsRun             int
	FailedStepIndex      int
	FailedStepName       string
	ExitCode             int
	SpawnFailed          bool
	FailureCount         int
	DurationHuman        string
	DurationMilliseconds int64
}

// NewSummaryData derives summary values from a task result.
func NewSummaryData(result tasks.TaskResult) SummaryData {
	data := SummaryData{
		TaskName:             result.TaskName,
		StepCount:            result.StepCount,
		StepsRun:             result.StepsRun,
		FailedStepIndex:      result.FailedStep,
		ExitCode:             result.ExitCode,
		FailureCount:         len(result.Failures),
		DurationHuman:        result.Duration.Round(time.Millisecond).String(),
		DurationMilliseconds: result.Duration.Milliseconds(),
	}

	switch {
	case result.Succeeded && result.DryRun:
		data.Status = summaryStatusDryRun
	case result.Succeeded:
		data.Status = summaryStatusSucceeded
	case errors.Is(result.Cause, execshell.ErrInterrupted):
		data.Status = summaryStatusInterrupted
	default:
		data.Status = summaryStatusFailed
	}

	if len(result.Failures) > 0 {
		firstFailure := result.Failures[0]
		data.FailedStepName = firstFailure.StepName
		var spawnError execshell.SpawnError
		data.SpawnFailed = errors.As(firstFailure.Cause, &spawnError)
	}
	return data
}

// RenderSummaryLine returns the summary line printed after a task run.
func RenderSummaryLine(data SummaryData) string {
	if len(strings.TrimSpace(data.TaskName)) == 0 {
		return ""
	}

	parts := []string{
		fmt.Sprintf("Summary: task=%s", data.TaskName),
		fmt.Sprintf("status=%s", data.Status),
	}

	if data.Status == summaryStatusFailed || data.Status == summaryStatusInterrupted {
		parts = append(parts, fmt.Sprintf("failed_step=%d/%d", data.FailedStepIndex+humanStepNumberOffset, data.StepCount))
		if len(data.FailedStepName) > 0 {
			parts = append(parts, fmt.Sprintf("step=%s", data.FailedStepName))
		}
		if data.SpawnFailed {
			parts = append(parts, "spawn_error=true")
		} else if data.ExitCode >= 0 {
			parts = append(parts, fmt.Sprintf("exit_code=%d", data.ExitCode))
		}
		if data.FailureCount > 1 {
			parts = append(parts, fmt.Sprintf("failures=%d", data.FailureCount))
		}
	}

	parts = append(parts, fmt.Sprintf("steps=%d/%d", data.StepsRun, data.StepCount))

	durationHuman := strings.TrimSpace(data.DurationHuman)
	if durationHuman == "" {
		durationHuman = "0s"
	}

	parts = append(parts, fmt.Sprintf("duration_human=%s", durationHuman))
	parts = append(parts, fmt.Sprintf("duration_ms=%d", data.DurationMilliseconds))

	return strings.Join(parts, " ")
}
