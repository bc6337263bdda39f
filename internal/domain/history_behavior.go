package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRetentionPolicy keeps entries for DefaultHistoryRetainDays with no count bound.
func DefaultRetentionPolicy() RetentionPolicy {
	days := DefaultHistoryRetainDays
	return RetentionPolicy{MaxAgeDays: &days}
}

// DefaultHistoryLimits returns the stock caps.
func DefaultHistoryLimits() HistoryLimits {
	return HistoryLimits{
		MaxEntries:  DefaultMaxHistoryEntries,
		MaxCommands: DefaultMaxHistoryCommands,
	}
}

// WithDefaults replaces non-positive caps with the stock values.
func (l HistoryLimits) WithDefaults() HistoryLimits {
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxHistoryEntries
	}
	if l.MaxCommands <= 0 {
		l.MaxCommands = DefaultMaxHistoryCommands
	}
	return l
}

// Normalize drops negative bounds.
func (p RetentionPolicy) Normalize() RetentionPolicy {
	out := RetentionPolicy{}
	if p.MaxAgeDays != nil && *p.MaxAgeDays >= 0 {
		days := *p.MaxAgeDays
		out.MaxAgeDays = &days
	}
	if p.MaxEntries != nil && *p.MaxEntries >= 0 {
		n := *p.MaxEntries
		out.MaxEntries = &n
	}
	return out
}

// Equal compares two policies by value.
func (p RetentionPolicy) Equal(other RetentionPolicy) bool {
	return intPtrEqual(p.MaxAgeDays, other.MaxAgeDays) && intPtrEqual(p.MaxEntries, other.MaxEntries)
}

// ApplyRetention returns the entries that survive policy at instant now.
// entries must be ordered most-recent-first. The input is not modified and
// applying the result to the same policy again yields the same slice.
func ApplyRetention(entries []HistoryEntry, policy RetentionPolicy, now time.Time) []HistoryEntry {
	kept := make([]HistoryEntry, 0, len(entries))
	var cutoff time.Time
	if policy.MaxAgeDays != nil {
		cutoff = now.AddDate(0, 0, -*policy.MaxAgeDays)
	}
	for _, entry := range entries {
		if policy.MaxAgeDays != nil && entry.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, entry)
	}
	if policy.MaxEntries != nil && len(kept) > *policy.MaxEntries {
		kept = kept[:*policy.MaxEntries]
	}
	return kept
}

// RememberCommand moves command to the front of the MRU list and caps it at limit.
// Blank commands leave the list unchanged.
func RememberCommand(commands []string, command string, limit int) []string {
	command = strings.TrimSpace(command)
	if command == "" {
		return commands
	}
	out := make([]string, 0, len(commands)+1)
	out = append(out, command)
	for _, existing := range commands {
		if existing != command {
			out = append(out, existing)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SummarizeTokens totals token usage across entries.
func SummarizeTokens(entries []HistoryEntry) TokenSummary {
	var summary TokenSummary
	for _, entry := range entries {
		if entry.TokenUsage == nil {
			continue
		}
		summary.InputTokens += entry.TokenUsage.InputTokens
		summary.OutputTokens += entry.TokenUsage.OutputTokens
		summary.TotalTokens += entry.TokenUsage.TotalTokens
		summary.EntriesWithUsage++
	}
	return summary
}

// NormalizeTokenUsage clamps negative counters and derives a missing total.
func NormalizeTokenUsage(usage *TokenUsage) *TokenUsage {
	if usage == nil {
		return nil
	}
	out := TokenUsage{
		InputTokens:  max(usage.InputTokens, 0),
		OutputTokens: max(usage.OutputTokens, 0),
		TotalTokens:  max(usage.TotalTokens, 0),
	}
	if out.TotalTokens == 0 {
		out.TotalTokens = out.InputTokens + out.OutputTokens
	}
	return &out
}

// NewHistoryState returns an empty record with the default policy.
func NewHistoryState() PromptHistoryState {
	return PromptHistoryState{
		SchemaVersion:   HistorySchemaVersion,
		RetentionPolicy: DefaultRetentionPolicy(),
		Entries:         []HistoryEntry{},
		Commands:        []string{},
	}
}

// DecodeHistoryState parses a persisted record leniently. Each field that is
// missing or malformed falls back to its default on its own, and entries are
// dropped only when they cannot be used at all, so a corrupted record never
// prevents startup.
func DecodeHistoryState(raw []byte, limits HistoryLimits) PromptHistoryState {
	state := NewHistoryState()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return NormalizeHistoryState(state, limits)
	}

	if data, ok := fields["retentionPolicy"]; ok {
		state.RetentionPolicy = decodeRetentionPolicy(data)
	}

	if data, ok := fields["entries"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err == nil {
			for _, item := range items {
				if entry, ok := decodeEntry(item); ok {
					state.Entries = append(state.Entries, entry)
				}
			}
		}
	}

	if data, ok := fields["commands"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err == nil {
			for _, item := range items {
				var command string
				if err := json.Unmarshal(item, &command); err != nil {
					continue
				}
				state.Commands = append(state.Commands, command)
			}
		}
	}

	return NormalizeHistoryState(state, limits)
}

// decodeRetentionPolicy defaults each bound separately. An explicit null
// means unbounded; a missing, negative or mistyped bound takes the default.
func decodeRetentionPolicy(data json.RawMessage) RetentionPolicy {
	policy := DefaultRetentionPolicy()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return policy
	}
	policy.MaxAgeDays = decodeBound(fields, "maxAgeDays", policy.MaxAgeDays)
	policy.MaxEntries = decodeBound(fields, "maxEntries", policy.MaxEntries)
	return policy
}

func decodeBound(fields map[string]json.RawMessage, key string, fallback *int) *int {
	data, ok := fields[key]
	if !ok {
		return fallback
	}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil || n < 0 {
		return fallback
	}
	return &n
}

// decodeEntry reads an entry field by field. ok is false only when the item
// is not an object; unusable entries are dropped later by normalization.
func decodeEntry(data json.RawMessage) (HistoryEntry, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return HistoryEntry{}, false
	}
	var entry HistoryEntry
	decodeField(fields, "id", &entry.ID)
	decodeField(fields, "command", &entry.Command)
	decodeField(fields, "action", &entry.Action)
	decodeField(fields, "usedSelectionContext", &entry.UsedSelectionContext)
	decodeField(fields, "status", &entry.Status)
	decodeField(fields, "detail", &entry.Detail)
	decodeField(fields, "responseText", &entry.ResponseText)
	decodeField(fields, "tokenUsage", &entry.TokenUsage)
	decodeField(fields, "createdAt", &entry.CreatedAt)
	return entry, true
}

// decodeField leaves dst untouched when the field is absent or mistyped.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	data, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(data, &v); err == nil {
		*dst = v
	}
}

// NormalizeHistoryState is the single normalization path used on load and
// before every persist. The schema version is always the current one.
func NormalizeHistoryState(state PromptHistoryState, limits HistoryLimits) PromptHistoryState {
	limits = limits.WithDefaults()
	out := PromptHistoryState{
		SchemaVersion:   HistorySchemaVersion,
		RetentionPolicy: state.RetentionPolicy.Normalize(),
		Entries:         make([]HistoryEntry, 0, len(state.Entries)),
		Commands:        make([]string, 0, len(state.Commands)),
	}

	seenIDs := make(map[string]struct{}, len(state.Entries))
	for _, entry := range state.Entries {
		normalized, ok := normalizeEntry(entry)
		if !ok {
			continue
		}
		if _, dup := seenIDs[normalized.ID]; dup {
			continue
		}
		seenIDs[normalized.ID] = struct{}{}
		out.Entries = append(out.Entries, normalized)
	}
	sort.SliceStable(out.Entries, func(i, j int) bool {
		return out.Entries[i].CreatedAt.After(out.Entries[j].CreatedAt)
	})
	if len(out.Entries) > limits.MaxEntries {
		out.Entries = out.Entries[:limits.MaxEntries]
	}

	seenCommands := make(map[string]struct{}, len(state.Commands))
	for _, command := range state.Commands {
		command = strings.TrimSpace(command)
		if command == "" {
			continue
		}
		if _, dup := seenCommands[command]; dup {
			continue
		}
		seenCommands[command] = struct{}{}
		out.Commands = append(out.Commands, command)
	}
	if len(out.Commands) > limits.MaxCommands {
		out.Commands = out.Commands[:limits.MaxCommands]
	}

	return out
}

func normalizeEntry(entry HistoryEntry) (HistoryEntry, bool) {
	entry.Command = strings.TrimSpace(entry.Command)
	if entry.Command == "" || entry.CreatedAt.IsZero() {
		return HistoryEntry{}, false
	}
	if _, err := uuid.Parse(entry.ID); err != nil {
		entry.ID = uuid.NewString()
	}
	if !entry.Action.Valid() {
		entry.Action = ActionReplace
	}
	if !entry.Status.Valid() {
		entry.Status = StatusError
	}
	entry.TokenUsage = NormalizeTokenUsage(entry.TokenUsage)
	if entry.ResponseText != nil {
		text := *entry.ResponseText
		entry.ResponseText = &text
	}
	return entry, true
}

// CloneEntries deep-copies entries so callers cannot reach internal state.
func CloneEntries(entries []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(entries))
	for i, entry := range entries {
		if entry.ResponseText != nil {
			text := *entry.ResponseText
			entry.ResponseText = &text
		}
		if entry.TokenUsage != nil {
			usage := *entry.TokenUsage
			entry.TokenUsage = &usage
		}
		out[i] = entry
	}
	return out
}

// ClonePolicy deep-copies a retention policy.
func ClonePolicy(p RetentionPolicy) RetentionPolicy {
	out := RetentionPolicy{}
	if p.MaxAgeDays != nil {
		days := *p.MaxAgeDays
		out.MaxAgeDays = &days
	}
	if p.MaxEntries != nil {
		n := *p.MaxEntries
		out.MaxEntries = &n
	}
	return out
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
