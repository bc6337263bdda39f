package automation

import (
	"context"
	"strings"
	"time"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// ContextCapture reads the selection of the frontmost application.
type ContextCapture struct {
	scripter   ports.Scripter
	permission ports.PermissionChecker
	timeout    time.Duration
	logger     ports.Logger
}

// NewContextCapture builds a capturer.
func NewContextCapture(scripter ports.Scripter, permission ports.PermissionChecker, timeout time.Duration, logger ports.Logger) *ContextCapture {
	return &ContextCapture{
		scripter:   scripter,
		permission: permission,
		timeout:    timeout,
		logger:     logger,
	}
}

// CaptureSnapshot implements ports.ContextCapturer. Without accessibility
// trust no script runs. Every other failure yields an empty trusted snapshot.
// A panic in the permission query counts as no trust.
func (c *ContextCapture) CaptureSnapshot(ctx context.Context) (snapshot domain.ContextSnapshot) {
	trusted := false
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("selection capture panicked", map[string]interface{}{"panic": r, "trusted": trusted})
			snapshot = domain.UntrustedSnapshot()
			if trusted {
				snapshot = domain.EmptySnapshot()
			}
		}
	}()

	if trusted = c.permission.IsTrusted(ctx); !trusted {
		return domain.UntrustedSnapshot()
	}

	result, err := c.scripter.RunScript(ctx, captureScript(c.scripter.Dialect()), c.timeout)
	if err == nil {
		err = result.Err()
	}
	if err != nil {
		c.logger.Warn("selection capture failed", map[string]interface{}{"error": err.Error()})
		return domain.EmptySnapshot()
	}

	snapshot, ok := ParseCapture(result.Stdout)
	if !ok {
		c.logger.Warn("selection capture output missing delimiter", map[string]interface{}{
			"bytes": len(result.Stdout),
		})
		return domain.EmptySnapshot()
	}
	return snapshot
}

// ParseCapture splits capture output at the last delimiter and normalizes
// both halves. ok is false when the delimiter is absent.
func ParseCapture(output string) (domain.ContextSnapshot, bool) {
	idx := strings.LastIndex(output, domain.CaptureDelimiter)
	if idx < 0 {
		return domain.ContextSnapshot{}, false
	}
	rawText := output[:idx]
	rawFlag := output[idx+len(domain.CaptureDelimiter):]

	selected := domain.NormalizeSelection(rawText)
	editable := strings.EqualFold(strings.TrimSpace(rawFlag), "true")

	return domain.ContextSnapshot{
		SelectedText:         selected,
		HasEditableSelection: selected != nil && editable,
		AccessibilityTrusted: true,
	}, true
}

var _ ports.ContextCapturer = (*ContextCapture)(nil)
