// Package completion adapts an external command into a ports.CompletionEngine.
//
// The command receives a JSON request on stdin and answers on stdout, either
// with plain text or with a JSON object carrying "text" and optional "usage".
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/infrastructure/executor"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// ErrNotConfigured is returned when completion.command is empty.
var ErrNotConfigured = errors.New("completion.command is not configured")

// ErrEmptyOutput is returned when the command printed nothing usable.
var ErrEmptyOutput = errors.New("completion returned no text")

// Request is the JSON document written to the command's stdin.
type Request struct {
	Command         string  `json:"command"`
	Prompt          string  `json:"prompt"`
	SelectedText    *string `json:"selectedText"`
	EditableContext bool    `json:"hasEditableSelection"`
	Model           string  `json:"model"`
	ReasoningEffort string  `json:"reasoningEffort"`
}

type response struct {
	Text  *string `json:"text"`
	Usage *struct {
		InputTokens  int64 `json:"inputTokens"`
		OutputTokens int64 `json:"outputTokens"`
		TotalTokens  int64 `json:"totalTokens"`
	} `json:"usage"`
}

// CommandEngine runs completion.command through a shell for each request.
type CommandEngine struct {
	runner ports.ScriptRunner
	shell  string
	logger ports.Logger
}

// NewCommandEngine wires the engine to runner. shell may be empty for $SHELL.
func NewCommandEngine(runner ports.ScriptRunner, shell string, logger ports.Logger) *CommandEngine {
	return &CommandEngine{runner: runner, shell: shell, logger: logger}
}

// Complete implements ports.CompletionEngine.
func (e *CommandEngine) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	command := strings.TrimSpace(req.Settings.Completion.Command)
	if command == "" {
		return domain.CompletionResult{}, ErrNotConfigured
	}

	payload, err := json.Marshal(Request{
		Command:         req.Command,
		Prompt:          req.Prompt,
		SelectedText:    req.Context.SelectedText,
		EditableContext: req.Context.HasEditableSelection,
		Model:           req.Settings.Model.ID,
		ReasoningEffort: req.Settings.Model.ReasoningEffort,
	})
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("encode completion request: %w", err)
	}

	name, args := executor.ShellCommand(e.shell, command)
	e.logger.Debug("running completion command", map[string]interface{}{
		"command": command,
		"model":   req.Settings.Model.ID,
	})
	result, err := e.runner.Run(ctx, name, args, string(payload), req.Settings.GetCompletionTimeout())
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("completion command: %w", err)
	}
	if result.ExitCode != 0 {
		if scriptErr := result.Err(); scriptErr != nil {
			return domain.CompletionResult{}, fmt.Errorf("completion command: %w", scriptErr)
		}
		return domain.CompletionResult{}, fmt.Errorf("completion command exited with code %d", result.ExitCode)
	}
	return ParseOutput(result.Stdout)
}

// ParseOutput reads a completion answer. A JSON object with a "text" field
// is decoded; anything else is taken verbatim as the text.
func ParseOutput(stdout string) (domain.CompletionResult, error) {
	trimmed := strings.TrimSpace(stdout)
	if strings.HasPrefix(trimmed, "{") {
		var resp response
		if err := json.Unmarshal([]byte(trimmed), &resp); err == nil && resp.Text != nil {
			out := domain.CompletionResult{Text: strings.TrimSpace(*resp.Text)}
			if resp.Usage != nil {
				out.TokenUsage = domain.NormalizeTokenUsage(&domain.TokenUsage{
					InputTokens:  resp.Usage.InputTokens,
					OutputTokens: resp.Usage.OutputTokens,
					TotalTokens:  resp.Usage.TotalTokens,
				})
			}
			if out.Text == "" {
				return domain.CompletionResult{}, ErrEmptyOutput
			}
			return out, nil
		}
	}
	if trimmed == "" {
		return domain.CompletionResult{}, ErrEmptyOutput
	}
	return domain.CompletionResult{Text: trimmed}, nil
}

var _ ports.CompletionEngine = (*CommandEngine)(nil)
