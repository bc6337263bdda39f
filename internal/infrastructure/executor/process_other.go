//go:build !unix

package executor

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

func interruptProcess(cmd *exec.Cmd) {
	killProcess(cmd)
}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
