package domain

import (
	"runtime"
	"strings"
	"time"
)

// FindSlashCommand looks a slash command up by its command string.
// Matching ignores case and a leading slash.
func (s *AppSettings) FindSlashCommand(command string) (SlashCommand, bool) {
	key := slashKey(command)
	if key == "" {
		return SlashCommand{}, false
	}
	for _, sc := range s.SlashCommands {
		if slashKey(sc.Command) == key {
			return sc, true
		}
	}
	return SlashCommand{}, false
}

// ResolvePrompt returns the prompt for command: the slash command prompt
// when one matches, otherwise the command text itself.
func (s *AppSettings) ResolvePrompt(command string) string {
	if sc, ok := s.FindSlashCommand(command); ok {
		return sc.Prompt
	}
	return strings.TrimSpace(command)
}

// GetInterpreter returns the scripting interpreter, osascript on macOS and sh elsewhere.
func (s *AppSettings) GetInterpreter() string {
	if s.Automation.Interpreter != "" {
		return s.Automation.Interpreter
	}
	if runtime.GOOS == "darwin" {
		return "osascript"
	}
	return "sh"
}

// GetCaptureTimeout returns the capture script timeout
func (s *AppSettings) GetCaptureTimeout() time.Duration {
	return msOrDefault(s.Automation.CaptureTimeoutMS, DefaultCaptureTimeout)
}

// GetApplyTimeout returns the keystroke script timeout
func (s *AppSettings) GetApplyTimeout() time.Duration {
	return msOrDefault(s.Automation.ApplyTimeoutMS, DefaultApplyTimeout)
}

// GetPermissionTimeout returns the accessibility query timeout
func (s *AppSettings) GetPermissionTimeout() time.Duration {
	return msOrDefault(s.Automation.PermissionTimeoutMS, DefaultPermissionTimeout)
}

// GetCompletionTimeout returns the completion command timeout
func (s *AppSettings) GetCompletionTimeout() time.Duration {
	if s.Completion.TimeoutSeconds <= 0 {
		return DefaultCompletionTimeout
	}
	return time.Duration(s.Completion.TimeoutSeconds) * time.Second
}

// GetHistoryLimits returns the configured history caps with defaults applied
func (s *AppSettings) GetHistoryLimits() HistoryLimits {
	return HistoryLimits{
		MaxEntries:  s.History.MaxEntries,
		MaxCommands: s.History.MaxCommands,
	}.WithDefaults()
}

// GetHistoryBackend returns the history backend, file by default
func (s *AppSettings) GetHistoryBackend() string {
	if strings.EqualFold(s.History.Backend, HistoryBackendSQLite) {
		return HistoryBackendSQLite
	}
	return HistoryBackendFile
}

// Clone deep-copies the settings.
func (s AppSettings) Clone() AppSettings {
	out := s
	out.SlashCommands = append([]SlashCommand(nil), s.SlashCommands...)
	return out
}

func slashKey(command string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
}

func msOrDefault(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
