package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/tyemirov/chores/internal/execshell"
)

const (
	failurePolicyHaltConstant     = "halt"
	failurePolicyContinueConstant = "continue"
	noFailedStepIndexConstant     = -1
)

// Step is one command within a task, identified by its position.
type Step struct {
	Name    string
	Command execshell.CommandSpec
}

// Task is a named, ordered sequence of steps run as a unit.
type Task struct {
	Name        string
	Description string
	Steps       []Step
}

// Clone returns a deep copy so registered tasks cannot be mutated through a
// caller-held value.
func (task Task) Clone() Task {
	cloned := Task{Name: task.Name, Description: task.Description}
	if len(task.Steps) > 0 {
		cloned.Steps = make([]Step, len(task.Steps))
		for stepIndex, step := range task.Steps {
			cloned.Steps[stepIndex] = Step{Name: step.Name, Command: step.Command.Clone()}
		}
	}
	return cloned
}

// FailurePolicy selects what happens after a step fails.
type FailurePolicy string

// Supported failure policies.
const (
	FailurePolicyHalt     FailurePolicy = FailurePolicy(failurePolicyHaltConstant)
	FailurePolicyContinue FailurePolicy = FailurePolicy(failurePolicyContinueConstant)
)

// ParseFailurePolicy normalizes a configured policy. An empty value selects halt.
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", failurePolicyHaltConstant:
		return FailurePolicyHalt, nil
	case failurePolicyContinueConstant:
		return FailurePolicyContinue, nil
	default:
		return "", fmt.Errorf("unsupported failure policy %q (expected %s or %s)", raw, failurePolicyHaltConstant, failurePolicyContinueConstant)
	}
}

// StepFailure records one failing step.
type StepFailure struct {
	StepIndex int
	StepName  string
	Command   execshell.CommandSpec
	ExitCode  int
	Cause     error
}

// TaskResult summarizes one task invocation.
type TaskResult struct {
	TaskName   string
	RunID      string
	Succeeded  bool
	FailedStep int
	ExitCode   int
	Cause      error
	StepCount  int
	StepsRun   int
	Failures   []StepFailure
	Duration   time.Duration
	DryRun     bool
}

// Err converts a failed result into a *StepFailureError and returns nil for a
// successful one.
func (result TaskResult) Err() error {
	if result.Succeeded || len(result.Failures) == 0 {
		return nil
	}
	first := result.Failures[0]
	return &StepFailureError{
		TaskName:  result.TaskName,
		StepIndex: first.StepIndex,
		StepCount: result.StepCount,
		StepName:  first.StepName,
		Command:   first.Command,
		Status:    first.ExitCode,
		Cause:     first.Cause,
	}
}
