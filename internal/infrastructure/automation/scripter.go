// Package automation talks to the foreground application through OS
// automation scripts: it checks accessibility trust, captures the current
// selection and pastes generated output back.
package automation

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// Script dialects.
const (
	DialectAppleScript = "applescript"
	DialectShell       = "shell"
)

// ScriptBridge is the shared scripting primitive. Scripts are fed to the
// interpreter on stdin so multi-line AppleScript needs no -e splitting.
type ScriptBridge struct {
	runner      ports.ScriptRunner
	interpreter string
	dialect     string
}

// NewScriptBridge builds the primitive for the given interpreter.
// osascript selects AppleScript; anything else is treated as a POSIX shell.
func NewScriptBridge(runner ports.ScriptRunner, interpreter string) *ScriptBridge {
	dialect := DialectShell
	if strings.EqualFold(filepath.Base(interpreter), "osascript") {
		dialect = DialectAppleScript
	}
	return &ScriptBridge{
		runner:      runner,
		interpreter: interpreter,
		dialect:     dialect,
	}
}

// RunScript implements ports.Scripter.
func (b *ScriptBridge) RunScript(ctx context.Context, script string, timeout time.Duration) (domain.ProcessResult, error) {
	return b.runner.Run(ctx, b.interpreter, nil, script, timeout)
}

// Dialect reports which script language the interpreter speaks.
func (b *ScriptBridge) Dialect() string {
	return b.dialect
}

// Interpreter returns the configured interpreter.
func (b *ScriptBridge) Interpreter() string {
	return b.interpreter
}

var _ ports.Scripter = (*ScriptBridge)(nil)
