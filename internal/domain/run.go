package domain

import "context"

// RunRequest captures one copilot invocation from the CLI or a hotkey.
type RunRequest struct {
	Context    context.Context
	Command    string
	Action     CopilotAction
	UseContext bool
	// Input overrides the captured selection when set.
	Input string
}

// RunResponse is the outcome propagated back to the caller.
type RunResponse struct {
	Entry    *HistoryEntry
	Snapshot ContextSnapshot
	Output   string
	Applied  bool
}

// CompletionRequest is what the completion engine receives.
type CompletionRequest struct {
	Command  string
	Prompt   string
	Context  ContextSnapshot
	Settings AppSettings
}

// CompletionResult carries generated text and optional usage.
type CompletionResult struct {
	Text       string
	TokenUsage *TokenUsage
}
