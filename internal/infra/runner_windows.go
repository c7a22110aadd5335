//go:build windows

package infra

import "os/exec"

func setupProcessGroup(cmd *exec.Cmd) {}
