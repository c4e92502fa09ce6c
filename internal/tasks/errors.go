package tasks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/chores/internal/execshell"
)

const (
	duplicateTaskTemplateConstant           = "task %q already registered"
	duplicateCommandTemplateConstant        = "command %q defined more than once"
	unknownTaskTemplateConstant             = "unknown task %q"
	unknownTaskKnownTemplateConstant        = "%s (known tasks: %s)"
	unknownCommandReferenceTemplateConstant = "task %q step %d references undefined command %q"
	invalidTaskTemplateConstant             = "invalid task %q: %s"
	invalidCommandTemplateConstant          = "invalid command %q: %s"
	configurationErrorTemplateConstant      = "configuration error: %v"
	stepFailureExitTemplateConstant         = "task %q failed at step %d/%d (%s): %s exited with status %d"
	stepFailureSpawnTemplateConstant        = "task %q failed at step %d/%d (%s): %v"
	invalidTransitionTemplateConstant       = "invalid task state transition from %s to %s"
	registrySealedMessageConstant           = "task registry is sealed"
	defaultFailureExitCodeConstant          = 1
	humanStepNumberOffsetConstant           = 1
	knownTaskSeparatorConstant              = ", "
	noKnownTasksPlaceholderConstant         = "none"
)

// ErrRegistrySealed indicates a registration attempt after startup configuration completed.
var ErrRegistrySealed = errors.New(registrySealedMessageConstant)

// ConfigurationError wraps problems detected while building the registry. It is
// fatal: the tool does not start.
type ConfigurationError struct {
	Cause error
}

// Error implements the error interface.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Cause)
}

// Unwrap exposes the underlying error.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// DuplicateTaskError indicates a task name registered twice.
type DuplicateTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (duplicateError DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskTemplateConstant, duplicateError.TaskName)
}

// DuplicateCommandError indicates a command name defined twice in configuration.
type DuplicateCommandError struct {
	CommandName string
}

// Error implements the error interface.
func (duplicateError DuplicateCommandError) Error() string {
	return fmt.Sprintf(duplicateCommandTemplateConstant, duplicateError.CommandName)
}

// UnknownCommandReferenceError indicates a task step naming a command that is not defined.
type UnknownCommandReferenceError struct {
	TaskName    string
	StepIndex   int
	CommandName string
}

// Error implements the error interface.
func (referenceError UnknownCommandReferenceError) Error() string {
	return fmt.Sprintf(unknownCommandReferenceTemplateConstant, referenceError.TaskName, referenceError.StepIndex+humanStepNumberOffsetConstant, referenceError.CommandName)
}

// InvalidTaskError indicates a task that cannot be registered.
type InvalidTaskError struct {
	TaskName string
	Reason   string
}

// Error implements the error interface.
func (invalidError InvalidTaskError) Error() string {
	return fmt.Sprintf(invalidTaskTemplateConstant, invalidError.TaskName, invalidError.Reason)
}

// InvalidCommandError indicates a command definition that cannot be used.
type InvalidCommandError struct {
	CommandName string
	Reason      string
}

// Error implements the error interface.
func (invalidError InvalidCommandError) Error() string {
	return fmt.Sprintf(invalidCommandTemplateConstant, invalidError.CommandName, invalidError.Reason)
}

// UnknownTaskError indicates a lookup of a task that was never registered.
type UnknownTaskError struct {
	TaskName   string
	KnownTasks []string
}

// Error names the missing task and lists the registered ones.
func (unknownError UnknownTaskError) Error() string {
	baseMessage := fmt.Sprintf(unknownTaskTemplateConstant, unknownError.TaskName)
	knownTasks := noKnownTasksPlaceholderConstant
	if len(unknownError.KnownTasks) > 0 {
		knownTasks = strings.Join(unknownError.KnownTasks, knownTaskSeparatorConstant)
	}
	return fmt.Sprintf(unknownTaskKnownTemplateConstant, baseMessage, knownTasks)
}

// StepFailureError reports the step that made a task fail.
type StepFailureError struct {
	TaskName  string
	StepIndex int
	StepCount int
	StepName  string
	Command   execshell.CommandSpec
	Status    int
	Cause     error
}

// Error describes the failing step using one-based step numbers.
func (failureError *StepFailureError) Error() string {
	stepNumber := failureError.StepIndex + humanStepNumberOffsetConstant
	if failureError.Cause != nil {
		return fmt.Sprintf(stepFailureSpawnTemplateConstant, failureError.TaskName, stepNumber, failureError.StepCount, failureError.StepName, failureError.Cause)
	}
	return fmt.Sprintf(stepFailureExitTemplateConstant, failureError.TaskName, stepNumber, failureError.StepCount, failureError.StepName, failureError.Command.Executable, failureError.Status)
}

// Unwrap exposes the spawn error, when there is one.
func (failureError *StepFailureError) Unwrap() error {
	return failureError.Cause
}

// ExitCode is the process exit code the CLI should use: the step's own status
// when it has one, 1 otherwise.
func (failureError *StepFailureError) ExitCode() int {
	if failureError.Cause == nil && failureError.Status > 0 {
		return failureError.Status
	}
	return defaultFailureExitCodeConstant
}

// InvalidTransitionError indicates an illegal state machine transition.
type InvalidTransitionError struct {
	From State
	To   State
}

// Error implements the error interface.
func (transitionError InvalidTransitionError) Error() string {
	return fmt.Sprintf(invalidTransitionTemplateConstant, transitionError.From, transitionError.To)
}
