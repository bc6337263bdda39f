package automation

import (
	"context"
	"strings"
	"time"

	"github.com/doeshing/shai-copilot/internal/ports"
)

// PermissionChecker asks the OS whether UI scripting is allowed. It never
// triggers a permission prompt and is safe to call repeatedly.
type PermissionChecker struct {
	scripter ports.Scripter
	timeout  time.Duration
	logger   ports.Logger
}

// NewPermissionChecker builds a checker on top of the scripting primitive.
func NewPermissionChecker(scripter ports.Scripter, timeout time.Duration, logger ports.Logger) *PermissionChecker {
	return &PermissionChecker{scripter: scripter, timeout: timeout, logger: logger}
}

// IsTrusted implements ports.PermissionChecker.
func (p *PermissionChecker) IsTrusted(ctx context.Context) bool {
	result, err := p.scripter.RunScript(ctx, permissionScript(p.scripter.Dialect()), p.timeout)
	if err == nil {
		err = result.Err()
	}
	if err != nil {
		p.logger.Debug("accessibility query failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return strings.EqualFold(strings.TrimSpace(result.Stdout), "true")
}

var _ ports.PermissionChecker = (*PermissionChecker)(nil)
