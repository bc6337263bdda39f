package automation

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// Clipboard implements ports.Clipboard using platform-specific tools.
// The first writer found on PATH is used. Writes go through the process
// runner, so a writer that stays resident to serve the selection
// (xclip, wl-copy) cannot stall the caller.
type Clipboard struct {
	runner   ports.ScriptRunner
	timeout  time.Duration
	writers  [][]string
	lookPath func(string) (string, error)
}

// NewClipboard builds the clipboard helper.
func NewClipboard(runner ports.ScriptRunner, timeout time.Duration) *Clipboard {
	if timeout <= 0 {
		timeout = domain.DefaultApplyTimeout
	}
	return &Clipboard{
		runner:  runner,
		timeout: timeout,
		writers: [][]string{
			{"pbcopy"},
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
			{"clip.exe"},
		},
		lookPath: exec.LookPath,
	}
}

// Enabled reports whether any clipboard writer is installed.
func (c *Clipboard) Enabled() bool {
	_, ok := c.writer()
	return ok
}

// Copy copies text to the system clipboard. There is no read-back.
func (c *Clipboard) Copy(ctx context.Context, text string) error {
	args, ok := c.writer()
	if !ok {
		return errors.New("clipboard utilities not found")
	}
	result, err := c.runner.Run(ctx, args[0], args[1:], text, c.timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%s exited with code %d: %s", args[0], result.ExitCode, result.Stderr)
	}
	return nil
}

// Writer returns the name of the clipboard tool that would be used.
func (c *Clipboard) Writer() string {
	if args, ok := c.writer(); ok {
		return args[0]
	}
	return ""
}

func (c *Clipboard) writer() ([]string, bool) {
	for _, args := range c.writers {
		if _, err := c.lookPath(args[0]); err == nil {
			return args, true
		}
	}
	return nil, false
}

var _ ports.Clipboard = (*Clipboard)(nil)
