//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

// detach starts the plan in its own process group so a terminal interrupt
// aimed at gsd does not reach running plans. A timeout kills the whole group.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
