package execshell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"
)

const (
	defaultTerminationGracePeriod    = 5 * time.Second
	waitErrorMessageTemplateConstant = "waiting for %s: %w"
	signalExitCodeBaseConstant       = 128
	unknownExitCodeConstant          = -1
)

// OSCommandRunner runs commands as child processes of the current process.
// Child output is written straight to the configured writers so it is visible
// while the command runs.
type OSCommandRunner struct {
	output                 io.Writer
	errors                 io.Writer
	input                  io.Reader
	lookPath               func(string) (string, error)
	terminationGracePeriod time.Duration
}

// NewOSCommandRunner constructs a runner streaming to the provided writers. Nil
// writers fall back to the process's own standard streams.
func NewOSCommandRunner(output io.Writer, errorOutput io.Writer, input io.Reader) *OSCommandRunner {
	if output == nil {
		output = os.Stdout
	}
	if errorOutput == nil {
		errorOutput = os.Stderr
	}
	if input == nil {
		input = os.Stdin
	}
	return &OSCommandRunner{
		output:                 output,
		errors:                 errorOutput,
		input:                  input,
		lookPath:               exec.LookPath,
		terminationGracePeriod: defaultTerminationGracePeriod,
	}
}

// WithTerminationGracePeriod sets how long an interrupted child may take to exit
// after SIGTERM before it is killed.
func (runner *OSCommandRunner) WithTerminationGracePeriod(gracePeriod time.Duration) *OSCommandRunner {
	if gracePeriod > 0 {
		runner.terminationGracePeriod = gracePeriod
	}
	return runner
}

// Run starts the command, blocks until it exits and reports its exit code.
func (runner *OSCommandRunner) Run(executionContext context.Context, command CommandSpec) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if executionContext.Err() != nil {
		return ExecutionResult{}, fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(executionContext))
	}

	executablePath, lookupError := runner.lookPath(command.Executable)
	if lookupError != nil {
		return ExecutionResult{}, SpawnError{Command: command, Cause: lookupError}
	}

	process := exec.CommandContext(executionContext, executablePath, command.Arguments...)
	process.Dir = command.WorkingDirectory
	process.Env = mergeEnvironment(os.Environ(), command.EnvironmentVariables)
	process.Stdout = runner.output
	process.Stderr = runner.errors
	process.Stdin = runner.input
	process.WaitDelay = runner.terminationGracePeriod
	forceKill := configureProcessTermination(process, isTerminal(runner.input))

	startTime := time.Now()
	if startError := process.Start(); startError != nil {
		return ExecutionResult{}, SpawnError{Command: command, Cause: startError}
	}

	waitError := process.Wait()
	result := ExecutionResult{Duration: time.Since(startTime), ExitCode: exitCodeOf(process.ProcessState)}

	if executionContext.Err() != nil {
		forceKill()
		return result, fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(executionContext))
	}

	if waitError != nil {
		var exitError *exec.ExitError
		if errors.As(waitError, &exitError) {
			return result, nil
		}
		return result, fmt.Errorf(waitErrorMessageTemplateConstant, command.Executable, waitError)
	}

	return result, nil
}

// isTerminal reports whether the child's standard input is a terminal.
func isTerminal(input io.Reader) bool {
	file, isFile := input.(*os.File)
	if !isFile || file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func exitCodeOf(state *os.ProcessState) int {
	if state == nil {
		return unknownExitCodeConstant
	}
	if signalNumber, signaled := terminatingSignal(state); signaled {
		return signalExitCodeBaseConstant + signalNumber
	}
	return state.ExitCode()
}

// mergeEnvironment overlays overrides on the inherited environment. A nil
// result tells os/exec to inherit the parent environment unchanged.
func mergeEnvironment(inherited []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}

	merged := make([]string, 0, len(inherited)+len(overrides))
	for _, entry := range inherited {
		key, _, _ := strings.Cut(entry, "=")
		if _, overridden := overrides[key]; overridden {
			continue
		}
		merged = append(merged, entry)
	}

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, key+"="+overrides[key])
	}
	return merged
}
