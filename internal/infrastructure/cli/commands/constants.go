package commands

import "github.com/doeshing/shai-copilot/internal/domain"

// History listing defaults
const (
	DefaultHistoryLimit = domain.DefaultHistoryLimit
	DefaultTopCommands  = 5
)

// Error messages
const (
	ErrDoctorServiceUnavailable  = "doctor service unavailable"
	ErrHistoryUnavailable        = "history engine unavailable"
	ErrCopilotServiceUnavailable = "copilot service unavailable"
	ErrSettingsUnavailable       = "settings store unavailable"
	ErrTextRequired              = "text is required (pass it as arguments or on stdin)"
	ErrCommandRequired           = "command is required"
	ErrNoRetentionFlags          = "set --days, --max-entries or --unbounded"
)

// Success messages
const (
	MsgNoHistoryRecorded = "No history recorded yet."
	MsgNoCommands        = "No commands remembered yet."
	MsgHistoryCleared    = "History cleared."
	MsgCancelled         = "Cancelled."
	MsgSettingsValid     = "Settings valid"
)
