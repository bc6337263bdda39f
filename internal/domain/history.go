package domain

import "time"

// CopilotAction is how a run's output was delivered.
type CopilotAction string

const (
	ActionReplace CopilotAction = "replace"
	ActionInsert  CopilotAction = "insert"
	ActionCopy    CopilotAction = "copy"
)

// Valid reports whether a is a known action.
func (a CopilotAction) Valid() bool {
	switch a {
	case ActionReplace, ActionInsert, ActionCopy:
		return true
	}
	return false
}

// ExecutionStatus is the outcome of an automation run.
type ExecutionStatus string

const (
	StatusSuccess   ExecutionStatus = "success"
	StatusError     ExecutionStatus = "error"
	StatusCancelled ExecutionStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusSuccess, StatusError, StatusCancelled:
		return true
	}
	return false
}

// TokenUsage counts model tokens for one run. Counters are never negative.
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// HistoryEntry records one automation run. Entries are immutable once created.
type HistoryEntry struct {
	ID                   string          `json:"id"`
	Command              string          `json:"command"`
	Action               CopilotAction   `json:"action"`
	UsedSelectionContext bool            `json:"usedSelectionContext"`
	Status               ExecutionStatus `json:"status"`
	Detail               string          `json:"detail"`
	ResponseText         *string         `json:"responseText"`
	TokenUsage           *TokenUsage     `json:"tokenUsage"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// RetentionPolicy bounds the entries collection. A nil bound is unbounded.
type RetentionPolicy struct {
	MaxAgeDays *int `json:"maxAgeDays" yaml:"max_age_days"`
	MaxEntries *int `json:"maxEntries" yaml:"max_entries"`
}

// PromptHistoryState is the persisted history record.
type PromptHistoryState struct {
	SchemaVersion   int             `json:"schemaVersion"`
	RetentionPolicy RetentionPolicy `json:"retentionPolicy"`
	Entries         []HistoryEntry  `json:"entries"`
	Commands        []string        `json:"commands"`
}

// TokenSummary aggregates usage over the visible entries.
type TokenSummary struct {
	InputTokens      int64 `json:"inputTokens"`
	OutputTokens     int64 `json:"outputTokens"`
	TotalTokens      int64 `json:"totalTokens"`
	EntriesWithUsage int   `json:"entriesWithUsage"`
}

// HistorySnapshot is a defensive copy of history state handed to callers.
type HistorySnapshot struct {
	Entries         []HistoryEntry  `json:"entries"`
	Commands        []string        `json:"commands"`
	RetentionPolicy RetentionPolicy `json:"retentionPolicy"`
	TokenSummary    TokenSummary    `json:"tokenSummary"`
}

// HistoryLimits caps the entries and MRU collections.
type HistoryLimits struct {
	MaxEntries  int
	MaxCommands int
}

// RecordParams describes a finished run to be recorded.
type RecordParams struct {
	Command              string
	Action               CopilotAction
	UsedSelectionContext bool
	Status               ExecutionStatus
	Detail               string
	ResponseText         *string
	TokenUsage           *TokenUsage
}
