package taskrunner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tyemirov/chores/internal/tasks"
)

// Executor runs a named task.
type Executor interface {
	RunTask(ctx context.Context, taskName string) (tasks.TaskResult, error)
}

// Factory constructs an Executor given resolved dependencies.
type Factory func(Dependencies) Executor

// Resolve returns either the provided factory result or the default task
// executor, wrapped so that every completed run prints its summary line.
func Resolve(factory Factory, dependencies Dependencies) Executor {
	var base Executor
	if factory != nil {
		base = factory(dependencies)
	}
	if base == nil && dependencies.TaskExecutor != nil {
		base = dependencies.TaskExecutor
	}
	return summaryExecutor{
		delegate:     base,
		dependencies: dependencies,
	}
}

type summaryExecutor struct {
	delegate     Executor
	dependencies Dependencies
}

func (executor summaryExecutor) RunTask(ctx context.Context, taskName string) (tasks.TaskResult, error) {
	if executor.delegate == nil {
		return tasks.TaskResult{TaskName: taskName, FailedStep: -1}, errExecutorMissing
	}
	result, err := executor.delegate.RunTask(ctx, taskName)
	if len(result.RunID) > 0 {
		executor.printSummary(result)
	}
	return result, err
}

func (executor summaryExecutor) printSummary(result tasks.TaskResult) {
	if executor.dependencies.DisableSummary {
		return
	}
	writer := executor.summaryWriter()
	if writer == nil {
		return
	}

	summary := RenderSummaryLine(NewSummaryData(result))
	if len(strings.TrimSpace(summary)) == 0 {
		return
	}
	fmt.Fprintln(writer, summary)
}

func (executor summaryExecutor) summaryWriter() io.Writer {
	if executor.dependencies.Errors != nil {
		return executor.dependencies.Errors
	}
	if executor.dependencies.Output != nil {
		return executor.dependencies.Output
	}
	return nil
}
