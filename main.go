package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tyemirov/chores/cmd/cli"
)

const (
	exitErrorTemplateConstant  = "%v\n"
	genericFailureExitConstant = 1
)

type exitCoder interface {
	ExitCode() int
}

// main executes the chores command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(exitCodeFor(executionError))
	}
}

// exitCodeFor returns the failing step's status, or 128 plus the signal after
// an interruption, when the error carries one, and 1 otherwise.
func exitCodeFor(executionError error) int {
	var coder exitCoder
	if errors.As(executionError, &coder) {
		if exitCode := coder.ExitCode(); exitCode > 0 {
			return exitCode
		}
	}
	return genericFailureExitConstant
}
