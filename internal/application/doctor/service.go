package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// SettingsInspector is the view of the settings store the doctor needs.
type SettingsInspector interface {
	ports.SettingsProvider
	FellBack() bool
	Path() string
}

// HistoryInspector is the view of the history engine the doctor needs.
type HistoryInspector interface {
	Snapshot() domain.HistorySnapshot
	Path() string
}

// ClipboardInspector reports which clipboard writer is in use.
type ClipboardInspector interface {
	ports.Clipboard
	Writer() string
}

// Service runs environment diagnostics.
type Service struct {
	Settings   SettingsInspector
	Permission ports.PermissionChecker
	Clipboard  ClipboardInspector
	History    HistoryInspector
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Run executes checks and returns a report. It never fails; problems are
// reported as warn or error checks.
func (s *Service) Run(ctx context.Context) domain.HealthReport {
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var checks []domain.HealthCheck
	settings := s.Settings.Current()

	if s.Settings.FellBack() {
		checks = append(checks, warn("Settings", fmt.Sprintf("%s was invalid and replaced with defaults", s.Settings.Path())))
	} else {
		checks = append(checks, ok("Settings", fmt.Sprintf("loaded %s", s.Settings.Path())))
	}

	interpreter := settings.GetInterpreter()
	if path, err := lookPath(interpreter); err != nil {
		checks = append(checks, fail("Script interpreter", fmt.Sprintf("%s not found", interpreter)))
	} else {
		checks = append(checks, ok("Script interpreter", path))
	}

	if s.Permission != nil {
		if s.Permission.IsTrusted(ctx) {
			checks = append(checks, ok("Accessibility", "trusted"))
		} else {
			checks = append(checks, warn("Accessibility", "permission not granted; selection capture is disabled"))
		}
	}

	if s.Clipboard != nil && s.Clipboard.Enabled() {
		checks = append(checks, ok("Clipboard", s.Clipboard.Writer()))
	} else {
		checks = append(checks, warn("Clipboard", "no clipboard writer found (pbcopy, wl-copy, xclip, xsel)"))
	}

	checks = append(checks, completionCheck(settings.Completion.Command, lookPath))

	if s.History != nil {
		snapshot := s.History.Snapshot()
		checks = append(checks, ok("History", fmt.Sprintf("%d entries, %d commands in %s",
			len(snapshot.Entries), len(snapshot.Commands), s.History.Path())))
	}

	return domain.HealthReport{Checks: checks}
}

func completionCheck(command string, lookPath func(string) (string, error)) domain.HealthCheck {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return warn("Completion", "completion.command is not set")
	}
	if _, err := lookPath(fields[0]); err != nil {
		return warn("Completion", fmt.Sprintf("%s not found in PATH", fields[0]))
	}
	return ok("Completion", command)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
