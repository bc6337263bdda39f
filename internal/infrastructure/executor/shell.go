package executor

import (
	"os"
	"runtime"
)

// ShellCommand returns the argv that runs command through a shell.
// shell defaults to $SHELL, then /bin/sh (cmd.exe on Windows).
func ShellCommand(shell, command string) (string, []string) {
	if shell == "" || shell == "auto" {
		shell = os.Getenv("SHELL")
	}
	if runtime.GOOS == "windows" && shell == "" {
		return "cmd.exe", []string{"/C", command}
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, []string{"-c", command}
}
