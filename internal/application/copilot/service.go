package copilot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// Failure details recorded on history entries.
const (
	DetailNotTrusted   = "accessibility permission not granted"
	DetailNotApplied   = "output could not be applied; it is on the clipboard"
	DetailCopyFailed   = "output could not be copied to the clipboard"
	DetailCancelled    = "cancelled"
	detailTimedOut     = "completion timed out"
	detailLaunchFailed = "completion command could not be started"
)

// Service orchestrates one copilot run end-to-end: capture the selection,
// ask the completion engine, apply the output and record the outcome.
type Service struct {
	Settings   ports.SettingsProvider
	Capturer   ports.ContextCapturer
	Completion ports.CompletionEngine
	Applier    ports.OutputApplier
	History    ports.HistoryRecorder
	Logger     ports.Logger
}

// Run processes a single command. Automation failures are reported on the
// recorded entry, not as an error; the error return is reserved for missing
// wiring and history persistence failures. A blank command is a no-op.
func (s *Service) Run(req domain.RunRequest) (domain.RunResponse, error) {
	if s.Settings == nil || s.Capturer == nil || s.Completion == nil ||
		s.Applier == nil || s.History == nil || s.Logger == nil {
		return domain.RunResponse{}, errors.New("copilot.Service dependencies not satisfied")
	}

	command := strings.TrimSpace(req.Command)
	if command == "" {
		return domain.RunResponse{}, nil
	}
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	action := req.Action
	if !action.Valid() {
		action = domain.ActionReplace
	}
	settings := s.Settings.Current()

	resp := domain.RunResponse{Snapshot: s.snapshot(ctx, req)}
	params := domain.RecordParams{
		Command:              command,
		Action:               action,
		UsedSelectionContext: resp.Snapshot.HasSelection(),
	}

	if req.UseContext && req.Input == "" && !resp.Snapshot.AccessibilityTrusted {
		params.Status, params.Detail = domain.StatusError, DetailNotTrusted
		return s.record(resp, params)
	}

	s.Logger.Info("running completion", map[string]interface{}{
		"command":   command,
		"action":    string(action),
		"selection": params.UsedSelectionContext,
	})
	result, err := s.Completion.Complete(ctx, domain.CompletionRequest{
		Command:  command,
		Prompt:   settings.ResolvePrompt(command),
		Context:  resp.Snapshot,
		Settings: settings,
	})
	if err != nil {
		params.Status, params.Detail = failure(ctx, err)
		s.Logger.Warn("completion failed", map[string]interface{}{"command": command, "error": err.Error()})
		return s.record(resp, params)
	}

	resp.Output = result.Text
	params.ResponseText = &result.Text
	params.TokenUsage = result.TokenUsage

	if ctx.Err() != nil {
		params.Status, params.Detail = domain.StatusCancelled, DetailCancelled
		return s.record(resp, params)
	}

	resp.Applied = s.Applier.ApplyOutput(ctx, result.Text, action)
	switch {
	case resp.Applied:
		params.Status = domain.StatusSuccess
	case action == domain.ActionCopy:
		params.Status, params.Detail = domain.StatusError, DetailCopyFailed
	default:
		params.Status, params.Detail = domain.StatusError, DetailNotApplied
	}
	return s.record(resp, params)
}

func (s *Service) snapshot(ctx context.Context, req domain.RunRequest) domain.ContextSnapshot {
	if req.Input != "" {
		return domain.ContextSnapshot{
			SelectedText:         domain.NormalizeSelection(req.Input),
			AccessibilityTrusted: true,
		}
	}
	if !req.UseContext {
		return domain.ContextSnapshot{AccessibilityTrusted: true}
	}
	return s.Capturer.CaptureSnapshot(ctx)
}

func (s *Service) record(resp domain.RunResponse, params domain.RecordParams) (domain.RunResponse, error) {
	entry, err := s.History.RecordExecution(params)
	resp.Entry = entry
	if err != nil {
		return resp, fmt.Errorf("record history: %w", err)
	}
	return resp, nil
}

func failure(ctx context.Context, err error) (domain.ExecutionStatus, string) {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return domain.StatusCancelled, DetailCancelled
	case errors.Is(err, domain.ErrTimedOut):
		return domain.StatusError, detailTimedOut
	case errors.Is(err, domain.ErrLaunchFailed):
		return domain.StatusError, detailLaunchFailed
	default:
		return domain.StatusError, err.Error()
	}
}
