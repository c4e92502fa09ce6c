//go:build unix

package execshell

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessTermination decides how an interrupted child is stopped and
// returns the function that force-kills it. A child reading the terminal stays
// in the foreground process group: in a group of its own a terminal read would
// stop it with SIGTTIN. Every other child gets its own process group so an
// interruption reaches every process the tool spawned.
func configureProcessTermination(process *exec.Cmd, sharesTerminal bool) func() {
	if sharesTerminal {
		process.Cancel = func() error {
			return signalProcess(process, unix.SIGTERM)
		}
		return func() {
			_ = signalProcess(process, unix.SIGKILL)
		}
	}

	process.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	process.Cancel = func() error {
		if process.Process == nil {
			return nil
		}
		return signalProcessGroup(process.Process.Pid, unix.SIGTERM)
	}
	return func() {
		if process.Process == nil {
			return
		}
		_ = signalProcessGroup(process.Process.Pid, unix.SIGKILL)
	}
}

func signalProcess(process *exec.Cmd, signal unix.Signal) error {
	if process.Process == nil {
		return nil
	}
	return process.Process.Signal(signal)
}

func signalProcessGroup(processIdentifier int, signal unix.Signal) error {
	signalError := unix.Kill(-processIdentifier, signal)
	if errors.Is(signalError, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return signalError
}

func terminatingSignal(state *os.ProcessState) (int, bool) {
	waitStatus, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !waitStatus.Signaled() {
		return 0, false
	}
	return int(waitStatus.Signal()), true
}
