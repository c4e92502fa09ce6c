package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tyemirov/chores/internal/execshell"
)

const (
	stepBannerTemplateConstant         = "[%s %d/%d] %s: %s\n"
	dryRunStepBannerTemplateConstant   = "[%s %d/%d] %s: %s (dry run)\n"
	taskStartMessageConstant           = "task starting"
	taskSucceededMessageConstant       = "task succeeded"
	taskFailedMessageConstant          = "task failed"
	taskInterruptedMessageConstant     = "task interrupted"
	stepFailedMessageConstant          = "step failed"
	runIdentifierFieldNameConstant     = "run_id"
	taskFieldNameConstant              = "task"
	stepFieldNameConstant              = "step"
	stepIndexFieldNameConstant         = "step_index"
	stepCountFieldNameConstant         = "step_count"
	failurePolicyFieldNameConstant     = "failure_policy"
	exitCodeFieldNameConstant          = "exit_code"
	durationFieldNameConstant          = "duration"
	unavailableExitCodeConstant        = -1
	runnerNotConfiguredMessageConstant = "task executor command runner not configured"
	registryNotConfiguredMessage       = "task executor registry not configured"
)

var (
	// ErrRegistryNotConfigured indicates the executor was built without a registry.
	ErrRegistryNotConfigured = errors.New(registryNotConfiguredMessage)
	// ErrRunnerNotConfigured indicates the executor was built without a command runner.
	ErrRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// StepOutcome classifies a finished step for observers.
type StepOutcome string

// Step outcomes reported to a Recorder.
const (
	StepOutcomeSucceeded  StepOutcome = "succeeded"
	StepOutcomeFailed     StepOutcome = "failed"
	StepOutcomeSpawnError StepOutcome = "spawn_error"
	StepOutcomeDryRun     StepOutcome = "dry_run"
)

// Recorder observes step and task completion.
type Recorder interface {
	StepFinished(taskName string, stepIndex int, step Step, outcome StepOutcome, duration time.Duration)
	TaskFinished(result TaskResult)
}

// ExecutorOptions tunes task execution.
type ExecutorOptions struct {
	FailurePolicy  FailurePolicy
	DryRun         bool
	Output         io.Writer
	Logger         *zap.Logger
	Recorder       Recorder
	RunIDGenerator func() string
	Clock          func() time.Time
}

// Executor runs registered tasks one step at a time.
type Executor struct {
	registry       *Registry
	shellExecutor  *execshell.ShellExecutor
	logger         *zap.Logger
	output         io.Writer
	failurePolicy  FailurePolicy
	dryRun         bool
	recorder       Recorder
	runIDGenerator func() string
	clock          func() time.Time
}

// NewExecutor builds an executor over the registry and command runner.
func NewExecutor(registry *Registry, commandRunner execshell.CommandRunner, options ExecutorOptions) (*Executor, error) {
	if registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrRunnerNotConfigured
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	shellExecutor, shellExecutorError := execshell.NewShellExecutor(logger, commandRunner)
	if shellExecutorError != nil {
		return nil, shellExecutorError
	}

	failurePolicy := options.FailurePolicy
	if len(failurePolicy) == 0 {
		failurePolicy = FailurePolicyHalt
	}

	output := options.Output
	if output == nil {
		output = io.Discard
	}

	runIDGenerator := options.RunIDGenerator
	if runIDGenerator == nil {
		runIDGenerator = func() string { return uuid.NewString() }
	}

	clock := options.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Executor{
		registry:       registry,
		shellExecutor:  shellExecutor,
		logger:         logger,
		output:         output,
		failurePolicy:  failurePolicy,
		dryRun:         options.DryRun,
		recorder:       options.Recorder,
		runIDGenerator: runIDGenerator,
		clock:          clock,
	}, nil
}

// RunTask executes the named task. Steps run strictly in order and each one
// blocks until its process exits. A failing step is never retried. An unknown
// task name returns UnknownTaskError before any process is started. The
// returned error is non-nil only for lookup failures and interruptions; step
// failures, including runner errors other than interruptions, are reported
// through the result (see TaskResult.Err).
func (executor *Executor) RunTask(executionContext context.Context, taskName string) (TaskResult, error) {
	task, lookupError := executor.registry.Lookup(taskName)
	if lookupError != nil {
		return TaskResult{TaskName: taskName, FailedStep: noFailedStepIndexConstant}, lookupError
	}
	if executionContext == nil {
		executionContext = context.Background()
	}

	run := &taskRun{
		executor: executor,
		task:     task,
		machine:  newStateMachine(),
		result: TaskResult{
			TaskName:   task.Name,
			RunID:      executor.runIDGenerator(),
			FailedStep: noFailedStepIndexConstant,
			StepCount:  len(task.Steps),
			DryRun:     executor.dryRun,
		},
		startTime: executor.clock(),
	}
	run.logger = executor.logger.With(
		zap.String(runIdentifierFieldNameConstant, run.result.RunID),
		zap.String(taskFieldNameConstant, task.Name),
	)
	run.logger.Info(taskStartMessageConstant,
		zap.Int(stepCountFieldNameConstant, len(task.Steps)),
		zap.String(failurePolicyFieldNameConstant, string(executor.failurePolicy)),
	)

	return run.execute(executionContext)
}

type taskRun struct {
	executor  *Executor
	task      Task
	machine   *stateMachine
	result    TaskResult
	logger    *zap.Logger
	startTime time.Time
}

func (run *taskRun) execute(executionContext context.Context) (TaskResult, error) {
	for stepIndex, step := range run.task.Steps {
		if transitionError := run.machine.transition(State{Kind: StateRunning, StepIndex: stepIndex}); transitionError != nil {
			return run.finish(), transitionError
		}

		if executionContext.Err() != nil {
			return run.interrupt(stepIndex, step, fmt.Errorf("%w: %w", execshell.ErrInterrupted, context.Cause(executionContext)))
		}

		run.printBanner(stepIndex, step)

		if run.executor.dryRun {
			run.recordStep(stepIndex, step, StepOutcomeDryRun, 0)
			continue
		}

		stepLogger := run.logger.With(zap.String(stepFieldNameConstant, step.Name), zap.Int(stepIndexFieldNameConstant, stepIndex))
		executionResult, executionError := run.executor.shellExecutor.ExecuteWithLogger(executionContext, stepLogger, step.Command)
		run.result.StepsRun++

		if executionError != nil {
			if errors.Is(executionError, execshell.ErrInterrupted) {
				return run.interrupt(stepIndex, step, executionError)
			}
			outcome := StepOutcomeFailed
			var spawnError execshell.SpawnError
			if errors.As(executionError, &spawnError) {
				outcome = StepOutcomeSpawnError
			}
			run.recordFailure(stepIndex, step, unavailableExitCodeConstant, executionError)
			run.recordStep(stepIndex, step, outcome, executionResult.Duration)
			if run.executor.failurePolicy == FailurePolicyHalt {
				break
			}
			continue
		}

		if executionResult.ExitCode != 0 {
			run.recordFailure(stepIndex, step, executionResult.ExitCode, nil)
			run.recordStep(stepIndex, step, StepOutcomeFailed, executionResult.Duration)
			if run.executor.failurePolicy == FailurePolicyHalt {
				break
			}
			continue
		}

		run.recordStep(stepIndex, step, StepOutcomeSucceeded, executionResult.Duration)
	}

	result := run.finish()
	if terminalError := run.enterTerminalState(); terminalError != nil {
		return result, terminalError
	}

	if result.Succeeded {
		run.logger.Info(taskSucceededMessageConstant, zap.Duration(durationFieldNameConstant, result.Duration))
	} else {
		run.logger.Warn(taskFailedMessageConstant,
			zap.Int(stepIndexFieldNameConstant, result.FailedStep),
			zap.Int(exitCodeFieldNameConstant, result.ExitCode),
			zap.Duration(durationFieldNameConstant, result.Duration),
		)
	}
	run.notifyTaskFinished(result)
	return result, nil
}

func (run *taskRun) interrupt(stepIndex int, step Step, cause error) (TaskResult, error) {
	run.recordFailure(stepIndex, step, unavailableExitCodeConstant, cause)
	run.recordStep(stepIndex, step, StepOutcomeFailed, 0)
	result := run.finish()
	run.logger.Warn(taskInterruptedMessageConstant, zap.Int(stepIndexFieldNameConstant, stepIndex), zap.Error(cause))
	run.notifyTaskFinished(result)
	if terminalError := run.enterTerminalState(); terminalError != nil {
		return result, errors.Join(cause, terminalError)
	}
	return result, cause
}

func (run *taskRun) recordFailure(stepIndex int, step Step, exitCode int, cause error) {
	run.result.Failures = append(run.result.Failures, StepFailure{
		StepIndex: stepIndex,
		StepName:  step.Name,
		Command:   step.Command.Clone(),
		ExitCode:  exitCode,
		Cause:     cause,
	})
	run.logger.Warn(stepFailedMessageConstant,
		zap.String(stepFieldNameConstant, step.Name),
		zap.Int(stepIndexFieldNameConstant, stepIndex),
		zap.Int(exitCodeFieldNameConstant, exitCode),
		zap.Error(cause),
	)
}

func (run *taskRun) recordStep(stepIndex int, step Step, outcome StepOutcome, duration time.Duration) {
	if run.executor.recorder == nil {
		return
	}
	run.executor.recorder.StepFinished(run.task.Name, stepIndex, step, outcome, duration)
}

func (run *taskRun) notifyTaskFinished(result TaskResult) {
	if run.executor.recorder == nil {
		return
	}
	run.executor.recorder.TaskFinished(result)
}

func (run *taskRun) finish() TaskResult {
	run.result.Duration = run.executor.clock().Sub(run.startTime)
	if len(run.result.Failures) == 0 {
		run.result.Succeeded = true
		run.result.FailedStep = noFailedStepIndexConstant
		run.result.ExitCode = 0
		run.result.Cause = nil
		return run.result
	}

	first := run.result.Failures[0]
	run.result.Succeeded = false
	run.result.FailedStep = first.StepIndex
	run.result.ExitCode = first.ExitCode
	run.result.Cause = first.Cause
	return run.result
}

func (run *taskRun) enterTerminalState() error {
	if run.result.Succeeded {
		return run.machine.transition(State{Kind: StateSucceeded})
	}
	return run.machine.transition(State{Kind: StateFailed, StepIndex: run.result.FailedStep})
}

func (run *taskRun) printBanner(stepIndex int, step Step) {
	template := stepBannerTemplateConstant
	if run.executor.dryRun {
		template = dryRunStepBannerTemplateConstant
	}
	fmt.Fprintf(run.executor.output, template, run.task.Name, stepIndex+humanStepNumberOffsetConstant, len(run.task.Steps), step.Name, step.Command.String())
}
