package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const (
	signalExitCodeBaseConstant         = 128
	signalFallbackExitCodeConstant     = 1
	signalErrorMessageTemplateConstant = "received %v"
)

// SignalError is the cancellation cause recorded when the operator interrupts
// a run. Its exit code follows the shell convention of 128 plus the signal.
type SignalError struct {
	Signal os.Signal
}

// Error implements the error interface.
func (signalError SignalError) Error() string {
	return fmt.Sprintf(signalErrorMessageTemplateConstant, signalError.Signal)
}

// ExitCode returns 128 plus the signal number, 1 for signals without one.
func (signalError SignalError) ExitCode() int {
	if signalNumber, numbered := signalError.Signal.(syscall.Signal); numbered {
		return signalExitCodeBaseConstant + int(signalNumber)
	}
	return signalFallbackExitCodeConstant
}

// notifyInterruption returns a context cancelled with a SignalError cause on
// the first SIGINT or SIGTERM.
func notifyInterruption(parent context.Context) (context.Context, func()) {
	interruptionContext, cancel := context.WithCancelCause(parent)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case received := <-signals:
			cancel(SignalError{Signal: received})
		case <-interruptionContext.Done():
		}
	}()

	return interruptionContext, func() {
		signal.Stop(signals)
		cancel(nil)
	}
}
