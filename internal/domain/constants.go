package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultCaptureTimeout bounds the accessibility capture script
	DefaultCaptureTimeout = 2 * time.Second
	// DefaultApplyTimeout bounds the keystroke script
	DefaultApplyTimeout = 3 * time.Second
	// DefaultPermissionTimeout bounds the accessibility trust query
	DefaultPermissionTimeout = 2 * time.Second
	// DefaultCompletionTimeout bounds the external completion command
	DefaultCompletionTimeout = 60 * time.Second
	// DefaultKillGracePeriod is the wait between SIGTERM and SIGKILL on timeout
	DefaultKillGracePeriod = 500 * time.Millisecond
	// DefaultOutputDrainPeriod bounds reading output after the helper exits,
	// for descendants that keep its stdout or stderr open
	DefaultOutputDrainPeriod = 250 * time.Millisecond
)

// Selection constants
const (
	// MaxSelectionLength caps captured selected text, in characters
	MaxSelectionLength = 12000
	// LineBreakRecoveryThreshold is the minimum length before flattened text is re-broken
	LineBreakRecoveryThreshold = 100
	// CaptureDelimiter separates selected text from the editable flag in capture output
	CaptureDelimiter = "<<<SHAI_COPILOT_CAPTURE_7f3e9c2a>>>"
)

// History constants
const (
	// HistorySchemaVersion is written on every persist of the history record
	HistorySchemaVersion = 1
	// DefaultMaxHistoryEntries caps the entries collection
	DefaultMaxHistoryEntries = 120
	// DefaultMaxHistoryCommands caps the MRU command list
	DefaultMaxHistoryCommands = 20
	// DefaultHistoryRetainDays is the default max age of history entries
	DefaultHistoryRetainDays = 30
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)

// DefaultScriptTimeout applies when a caller passes a non-positive timeout
const DefaultScriptTimeout = 5 * time.Second
