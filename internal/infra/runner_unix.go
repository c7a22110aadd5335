//go:build !windows

package infra

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup puts the command in its own process group and makes
// context cancellation kill the whole group, so a phase that spawns its own
// children does not outlive an interrupted run.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killProcess(cmd)
	}
}

// killProcess kills the process group on Unix systems
func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
