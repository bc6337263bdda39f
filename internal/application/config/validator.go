package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/doeshing/shai-copilot/internal/domain"
)

// Validate ensures the settings record matches the schema. Every violation
// wraps domain.ErrInvalidSettings.
func Validate(s domain.AppSettings) error {
	switch s.SettingsFormatVersion {
	case "", "1":
	default:
		return invalid("settings_format_version %q is not supported", s.SettingsFormatVersion)
	}
	if err := validateModel(s.Model); err != nil {
		return err
	}
	if err := validateShortcuts(s.Shortcuts); err != nil {
		return err
	}
	if err := validateSlashCommands(s.SlashCommands); err != nil {
		return err
	}
	if err := validateAutomation(s.Automation); err != nil {
		return err
	}
	if s.Completion.TimeoutSeconds < 0 {
		return invalid("completion.timeout must be >= 0")
	}
	return validateHistory(s.History)
}

func validateModel(model domain.ModelSettings) error {
	if strings.TrimSpace(model.ID) == "" {
		return invalid("model.id must be set")
	}
	switch model.ReasoningEffort {
	case domain.ReasoningMinimal, domain.ReasoningLow, domain.ReasoningMedium, domain.ReasoningHigh:
		return nil
	default:
		return invalid("model.reasoning_effort must be minimal|low|medium|high, got %q", model.ReasoningEffort)
	}
}

func validateShortcuts(sc domain.Shortcuts) error {
	fields := []struct{ name, value string }{
		{"open_palette", sc.OpenPalette},
		{"quick_replace", sc.QuickReplace},
		{"quick_insert", sc.QuickInsert},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return invalid("shortcuts.%s must be set", f.name)
		}
	}
	return nil
}

func validateSlashCommands(commands []domain.SlashCommand) error {
	ids := make(map[string]struct{}, len(commands))
	for i, sc := range commands {
		if _, err := uuid.Parse(sc.ID); err != nil {
			return invalid("slash_commands[%d].id %q is not a uuid", i, sc.ID)
		}
		if _, dup := ids[sc.ID]; dup {
			return invalid("slash_commands[%d].id %q is duplicated", i, sc.ID)
		}
		ids[sc.ID] = struct{}{}
		if strings.TrimSpace(sc.Command) == "" {
			return invalid("slash_commands[%d].command must be set", i)
		}
		if strings.TrimSpace(sc.Prompt) == "" {
			return invalid("slash_commands[%d].prompt must be set", i)
		}
	}
	return nil
}

func validateAutomation(a domain.AutomationSettings) error {
	if a.CaptureTimeoutMS < 0 || a.ApplyTimeoutMS < 0 || a.PermissionTimeoutMS < 0 {
		return invalid("automation timeouts must be >= 0")
	}
	return nil
}

func validateHistory(h domain.HistorySettings) error {
	switch strings.ToLower(h.Backend) {
	case "", domain.HistoryBackendFile, domain.HistoryBackendSQLite:
	default:
		return invalid("history.backend must be file|sqlite, got %q", h.Backend)
	}
	if h.MaxEntries < 0 {
		return invalid("history.max_entries must be >= 0")
	}
	if h.MaxCommands < 0 {
		return invalid("history.max_commands must be >= 0")
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidSettings, fmt.Sprintf(format, args...))
}
