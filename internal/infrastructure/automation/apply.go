package automation

import (
	"context"
	"strings"
	"time"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// OutputBridge delivers generated text to the foreground application via
// the clipboard and a simulated paste.
type OutputBridge struct {
	scripter  ports.Scripter
	clipboard ports.Clipboard
	timeout   time.Duration
	logger    ports.Logger
}

// NewOutputBridge builds the bridge.
func NewOutputBridge(scripter ports.Scripter, clipboard ports.Clipboard, timeout time.Duration, logger ports.Logger) *OutputBridge {
	return &OutputBridge{
		scripter:  scripter,
		clipboard: clipboard,
		timeout:   timeout,
		logger:    logger,
	}
}

// ApplyOutput implements ports.OutputApplier. Blank text is a no-op. The
// clipboard keeps the text even when the keystroke script fails so the user
// can still paste by hand. ActionCopy stops after the clipboard write.
func (b *OutputBridge) ApplyOutput(ctx context.Context, text string, mode domain.CopilotAction) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if err := b.clipboard.Copy(ctx, text); err != nil {
		b.logger.Warn("clipboard write failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	if mode == domain.ActionCopy {
		return true
	}

	result, err := b.scripter.RunScript(ctx, pasteScript(b.scripter.Dialect(), mode), b.timeout)
	if err == nil {
		err = result.Err()
	}
	if err != nil {
		b.logger.Warn("paste keystrokes failed", map[string]interface{}{
			"mode":  string(mode),
			"error": err.Error(),
		})
		return false
	}
	return true
}

var _ ports.OutputApplier = (*OutputBridge)(nil)
