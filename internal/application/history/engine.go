// Package history owns the in-memory prompt history: the entries log, the
// MRU command list and the retention policy, persisted through a
// ports.HistoryStateStore after every mutation.
package history

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/pkg/observer"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// Engine is the history retention engine. One instance exists per process.
//
// Mutations are serialized: each one updates memory, persists, and only then
// notifies listeners. Listeners run synchronously and may call Snapshot, but
// must not call a mutating method from inside the callback.
type Engine struct {
	store  ports.HistoryStateStore
	logger ports.Logger
	limits domain.HistoryLimits
	now    func() time.Time
	newID  func() string

	writeMu   sync.Mutex
	mu        sync.RWMutex
	state     domain.PromptHistoryState
	listeners observer.Registry[domain.HistorySnapshot]
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine loads and normalizes the persisted record and writes the
// normalized form back. A missing or corrupted record starts empty.
func NewEngine(store ports.HistoryStateStore, limits domain.HistoryLimits, logger ports.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: logger,
		limits: limits.WithDefaults(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.state = e.load()
	if err := e.persist(e.state); err != nil {
		e.logger.Warn("history re-persist failed", map[string]interface{}{
			"path":  store.Path(),
			"error": err.Error(),
		})
	}
	return e
}

func (e *Engine) load() domain.PromptHistoryState {
	raw, ok, err := e.store.Load()
	switch {
	case err != nil:
		e.logger.Warn("history load failed, starting empty", map[string]interface{}{
			"path":  e.store.Path(),
			"error": err.Error(),
		})
		return domain.NormalizeHistoryState(domain.NewHistoryState(), e.limits)
	case !ok:
		return domain.NormalizeHistoryState(domain.NewHistoryState(), e.limits)
	default:
		state := domain.DecodeHistoryState(raw, e.limits)
		e.logger.Debug("history loaded", map[string]interface{}{
			"entries":  len(state.Entries),
			"commands": len(state.Commands),
		})
		return state
	}
}

// Snapshot returns a defensive copy of the visible history. Retention is
// applied on read so a policy change shows up before the next write.
func (e *Engine) Snapshot() domain.HistorySnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() domain.HistorySnapshot {
	entries := domain.ApplyRetention(e.state.Entries, e.state.RetentionPolicy, e.now())
	entries = domain.CloneEntries(entries)
	commands := make([]string, len(e.state.Commands))
	copy(commands, e.state.Commands)
	return domain.HistorySnapshot{
		Entries:         entries,
		Commands:        commands,
		RetentionPolicy: domain.ClonePolicy(e.state.RetentionPolicy),
		TokenSummary:    domain.SummarizeTokens(entries),
	}
}

// Entry looks up a visible entry by id.
func (e *Engine) Entry(id string) (domain.HistoryEntry, bool) {
	for _, entry := range e.Snapshot().Entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return domain.HistoryEntry{}, false
}

// Limits returns the caps the engine enforces.
func (e *Engine) Limits() domain.HistoryLimits {
	return e.limits
}

// Path returns where the record is persisted.
func (e *Engine) Path() string {
	return e.store.Path()
}

// SetRetentionPolicy stores policy, re-filters the existing entries and
// returns the stored (normalized) policy.
func (e *Engine) SetRetentionPolicy(policy domain.RetentionPolicy) (domain.RetentionPolicy, error) {
	var stored domain.RetentionPolicy
	err := e.mutate(func(state *domain.PromptHistoryState) bool {
		state.RetentionPolicy = policy.Normalize()
		state.Entries = domain.ApplyRetention(state.Entries, state.RetentionPolicy, e.now())
		stored = domain.ClonePolicy(state.RetentionPolicy)
		return true
	})
	return stored, err
}

// RememberCommand moves command to the front of the MRU list. Blank input is ignored.
func (e *Engine) RememberCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	return e.mutate(func(state *domain.PromptHistoryState) bool {
		state.Commands = domain.RememberCommand(state.Commands, command, e.limits.MaxCommands)
		return true
	})
}

// RecordExecution appends a new entry for a finished run and returns a copy
// of it. A blank command is a no-op and returns nil.
func (e *Engine) RecordExecution(params domain.RecordParams) (*domain.HistoryEntry, error) {
	command := strings.TrimSpace(params.Command)
	if command == "" {
		return nil, nil
	}

	entry := domain.HistoryEntry{
		ID:                   e.newID(),
		Command:              command,
		Action:               params.Action,
		UsedSelectionContext: params.UsedSelectionContext,
		Status:               params.Status,
		Detail:               params.Detail,
		TokenUsage:           domain.NormalizeTokenUsage(params.TokenUsage),
		CreatedAt:            e.now().UTC(),
	}
	if !entry.Action.Valid() {
		entry.Action = domain.ActionReplace
	}
	if !entry.Status.Valid() {
		entry.Status = domain.StatusError
	}
	if params.ResponseText != nil {
		text := *params.ResponseText
		entry.ResponseText = &text
	}

	err := e.mutate(func(state *domain.PromptHistoryState) bool {
		state.Commands = domain.RememberCommand(state.Commands, command, e.limits.MaxCommands)
		entries := make([]domain.HistoryEntry, 0, len(state.Entries)+1)
		entries = append(entries, entry)
		entries = append(entries, state.Entries...)
		if len(entries) > e.limits.MaxEntries {
			entries = entries[:e.limits.MaxEntries]
		}
		state.Entries = domain.ApplyRetention(entries, state.RetentionPolicy, e.now())
		return true
	})

	recorded := domain.CloneEntries([]domain.HistoryEntry{entry})[0]
	return &recorded, err
}

// DeleteEntry removes the entry with id. It reports whether anything was removed;
// an unknown id neither persists nor notifies.
func (e *Engine) DeleteEntry(id string) (bool, error) {
	removed := false
	err := e.mutate(func(state *domain.PromptHistoryState) bool {
		kept := make([]domain.HistoryEntry, 0, len(state.Entries))
		for _, entry := range state.Entries {
			if entry.ID != id {
				kept = append(kept, entry)
			}
		}
		if len(kept) == len(state.Entries) {
			return false
		}
		state.Entries = kept
		removed = true
		return true
	})
	return removed, err
}

// Clear empties the entries log and the MRU list. The retention policy is kept.
func (e *Engine) Clear() error {
	return e.mutate(func(state *domain.PromptHistoryState) bool {
		state.Entries = []domain.HistoryEntry{}
		state.Commands = []string{}
		return true
	})
}

// OnChanged registers listener for post-mutation snapshots and returns its
// unsubscribe function.
func (e *Engine) OnChanged(listener func(domain.HistorySnapshot)) func() {
	return e.listeners.Subscribe(listener)
}

// mutate applies fn to a working copy of the state. When fn reports a
// change, the normalized result replaces the in-memory state, is persisted,
// and listeners are notified. A persist failure keeps the in-memory change,
// skips notification and is returned.
func (e *Engine) mutate(fn func(state *domain.PromptHistoryState) bool) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.RLock()
	working := domain.PromptHistoryState{
		SchemaVersion:   e.state.SchemaVersion,
		RetentionPolicy: domain.ClonePolicy(e.state.RetentionPolicy),
		Entries:         domain.CloneEntries(e.state.Entries),
		Commands:        append([]string(nil), e.state.Commands...),
	}
	e.mu.RUnlock()

	if !fn(&working) {
		return nil
	}
	next := domain.NormalizeHistoryState(working, e.limits)

	e.mu.Lock()
	e.state = next
	e.mu.Unlock()

	if err := e.persist(next); err != nil {
		e.logger.Warn("history persist failed", map[string]interface{}{
			"path":  e.store.Path(),
			"error": err.Error(),
		})
		return err
	}

	e.listeners.Notify(e.Snapshot)
	return nil
}

func (e *Engine) persist(state domain.PromptHistoryState) error {
	if e.store == nil {
		return errors.New("history store not configured")
	}
	if err := e.store.Save(state); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

var _ ports.HistoryRecorder = (*Engine)(nil)
