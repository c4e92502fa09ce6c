package tasks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/chores/internal/execshell"
)

func TestMetricsRecordStepsAndTasks(testInstance *testing.T) {
	metrics := NewMetrics()
	metrics.now = func() time.Time { return time.Unix(1700000000, 0) }

	black := Step{Name: "black", Command: execshell.CommandSpec{Executable: "black"}}
	isort := Step{Name: "isort", Command: execshell.CommandSpec{Executable: "isort"}}

	metrics.StepFinished("format", 0, black, StepOutcomeSucceeded, 2*time.Second)
	metrics.StepFinished("format", 1, isort, StepOutcomeFailed, time.Second)
	metrics.TaskFinished(TaskResult{TaskName: "format", FailedStep: 1, Duration: 3 * time.Second})
	metrics.TaskFinished(TaskResult{TaskName: "format", Succeeded: true, FailedStep: -1, Duration: 4 * time.Second})

	require.Equal(testInstance, 1.0, testutil.ToFloat64(metrics.stepRuns.WithLabelValues("format", "black", "0", "succeeded")))
	require.Equal(testInstance, 1.0, testutil.ToFloat64(metrics.stepRuns.WithLabelValues("format", "isort", "1", "failed")))
	require.Equal(testInstance, 1.0, testutil.ToFloat64(metrics.taskRuns.WithLabelValues("format", "failed")))
	require.Equal(testInstance, 1.0, testutil.ToFloat64(metrics.taskRuns.WithLabelValues("format", "succeeded")))
	require.Equal(testInstance, 4.0, testutil.ToFloat64(metrics.taskDuration.WithLabelValues("format")))
	require.Equal(testInstance, -1.0, testutil.ToFloat64(metrics.taskLastFailedStep.WithLabelValues("format")))
	require.Equal(testInstance, 1700000000.0, testutil.ToFloat64(metrics.taskLastSuccess.WithLabelValues("format")))
	require.Equal(testInstance, 2, testutil.CollectAndCount(metrics.stepDuration))
}

func TestMetricsWriteTextfile(testInstance *testing.T) {
	metrics := NewMetrics()
	metrics.TaskFinished(TaskResult{TaskName: "lint", Succeeded: true, FailedStep: -1, Duration: time.Second})

	metricsPath := filepath.Join(testInstance.TempDir(), "chores.prom")
	require.NoError(testInstance, metrics.WriteTextfile(metricsPath))

	content, readError := os.ReadFile(metricsPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(content), `chores_task_runs_total{status="succeeded",task="lint"} 1`)
}
