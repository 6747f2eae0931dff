//go:build windows

package executor

import "os/exec"

func detach(cmd *exec.Cmd) {}
