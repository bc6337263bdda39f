package domain

import "errors"

// ErrInvalidSettings marks a settings record that violates the schema.
var ErrInvalidSettings = errors.New("invalid settings")

// AppSettings mirrors ~/.shai-copilot/settings.yaml.
type AppSettings struct {
	SettingsFormatVersion string             `yaml:"settings_format_version"`
	Model                 ModelSettings      `yaml:"model"`
	Shortcuts             Shortcuts          `yaml:"shortcuts"`
	SlashCommands         []SlashCommand     `yaml:"slash_commands"`
	Automation            AutomationSettings `yaml:"automation"`
	Completion            CompletionSettings `yaml:"completion"`
	History               HistorySettings    `yaml:"history"`
}

// ModelSettings selects the completion model.
type ModelSettings struct {
	ID              string `yaml:"id"`
	ReasoningEffort string `yaml:"reasoning_effort"`
}

// Shortcuts holds the three global key bindings.
type Shortcuts struct {
	OpenPalette  string `yaml:"open_palette"`
	QuickReplace string `yaml:"quick_replace"`
	QuickInsert  string `yaml:"quick_insert"`
}

// SlashCommand is a named prompt the user can invoke by command.
type SlashCommand struct {
	ID      string `yaml:"id"`
	Command string `yaml:"command"`
	Prompt  string `yaml:"prompt"`
}

// AutomationSettings configures the helper scripts.
type AutomationSettings struct {
	Interpreter         string `yaml:"interpreter"`
	CaptureTimeoutMS    int    `yaml:"capture_timeout_ms"`
	ApplyTimeoutMS      int    `yaml:"apply_timeout_ms"`
	PermissionTimeoutMS int    `yaml:"permission_timeout_ms"`
}

// CompletionSettings configures the external completion command.
type CompletionSettings struct {
	Command        string `yaml:"command"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// HistorySettings configures history persistence.
type HistorySettings struct {
	Backend     string `yaml:"backend"`
	MaxEntries  int    `yaml:"max_entries"`
	MaxCommands int    `yaml:"max_commands"`
}

// Reasoning effort levels accepted in settings.
const (
	ReasoningMinimal = "minimal"
	ReasoningLow     = "low"
	ReasoningMedium  = "medium"
	ReasoningHigh    = "high"
)

// History backends accepted in settings.
const (
	HistoryBackendFile   = "file"
	HistoryBackendSQLite = "sqlite"
)
