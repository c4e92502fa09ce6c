//go:build !unix

package execshell

import (
	"os"
	"os/exec"
)

func configureProcessTermination(process *exec.Cmd, sharesTerminal bool) func() {
	return func() {
		if process.Process != nil {
			_ = process.Process.Kill()
		}
	}
}

func terminatingSignal(state *os.ProcessState) (int, bool) {
	return 0, false
}
