// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the automation core and the
// adapters that touch the outside world: helper processes, the OS
// accessibility service, the clipboard and durable storage. The application
// layer depends only on these abstractions so every adapter can be replaced
// by a fake in tests.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., ScriptRunner, HistoryStateStore)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/shai-copilot/internal/domain"
)

// ScriptRunner spawns one helper process and waits for it under a deadline.
// Failures are always a domain.ProcessFailure (*TimedOutError or *LaunchFailedError).
type ScriptRunner interface {
	Run(ctx context.Context, name string, args []string, stdin string, timeout time.Duration) (domain.ProcessResult, error)
}

// Scripter is the shared scripting primitive: it runs one automation script
// through the configured interpreter. Exit codes are not interpreted here;
// callers use ProcessResult.Err for the conventional failure signal.
type Scripter interface {
	RunScript(ctx context.Context, script string, timeout time.Duration) (domain.ProcessResult, error)
	Dialect() string
}

// PermissionChecker answers whether accessibility access is granted.
// The query is idempotent and never prompts the user.
type PermissionChecker interface {
	IsTrusted(ctx context.Context) bool
}

// Clipboard writes UTF-8 text to the system clipboard.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
	Enabled() bool
}

// ContextCapturer reads the selection context of the foreground application.
// It never fails; problems degrade to an empty snapshot.
type ContextCapturer interface {
	CaptureSnapshot(ctx context.Context) domain.ContextSnapshot
}

// OutputApplier places generated text into the foreground application.
// It never fails; problems are reported as false.
type OutputApplier interface {
	ApplyOutput(ctx context.Context, text string, mode domain.CopilotAction) bool
}

// HistoryStateStore persists the history record. Load returns the raw bytes
// so the engine owns normalization; ok is false when nothing was stored yet.
type HistoryStateStore interface {
	Load() (raw []byte, ok bool, err error)
	Save(state domain.PromptHistoryState) error
	Path() string
}

// HistoryRecorder is the write side of the history engine used by the orchestrator.
type HistoryRecorder interface {
	RecordExecution(params domain.RecordParams) (*domain.HistoryEntry, error)
}

// SettingsProvider supplies the current normalized settings.
type SettingsProvider interface {
	Current() domain.AppSettings
}

// SettingsRepository persists the settings record. ok is false when no
// record exists yet; a malformed record wraps domain.ErrInvalidSettings.
type SettingsRepository interface {
	Load() (settings domain.AppSettings, ok bool, err error)
	Save(settings domain.AppSettings) error
	Path() string
}

// CompletionEngine turns a command and captured context into output text.
type CompletionEngine interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
