package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/doeshing/shai-copilot/internal/domain"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func entryAt(command string, createdAt time.Time) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:        uuid.NewString(),
		Command:   command,
		Action:    domain.ActionReplace,
		Status:    domain.StatusSuccess,
		CreatedAt: createdAt,
	}
}

// TestApplyRetention tests age and count bounds and idempotence
func TestApplyRetention(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	entries := []domain.HistoryEntry{
		entryAt("a", now.Add(-1*time.Hour)),
		entryAt("b", now.AddDate(0, 0, -2)),
		entryAt("c", now.AddDate(0, 0, -10)),
		entryAt("d", now.AddDate(0, 0, -40)),
	}

	tests := []struct {
		name   string
		policy domain.RetentionPolicy
		want   []string
	}{
		{name: "unbounded", policy: domain.RetentionPolicy{}, want: []string{"a", "b", "c", "d"}},
		{name: "default 30 days", policy: domain.DefaultRetentionPolicy(), want: []string{"a", "b", "c"}},
		{name: "max age 3 days", policy: domain.RetentionPolicy{MaxAgeDays: intPtr(3)}, want: []string{"a", "b"}},
		{name: "max age 0 days", policy: domain.RetentionPolicy{MaxAgeDays: intPtr(0)}, want: []string{}},
		{name: "max entries", policy: domain.RetentionPolicy{MaxEntries: intPtr(2)}, want: []string{"a", "b"}},
		{name: "both bounds", policy: domain.RetentionPolicy{MaxAgeDays: intPtr(30), MaxEntries: intPtr(1)}, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := domain.ApplyRetention(entries, tt.policy, now)
			twice := domain.ApplyRetention(once, tt.policy, now)

			got := commandsOf(once)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("retention mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("retention not idempotent (-once +twice):\n%s", diff)
			}
			if len(entries) != 4 {
				t.Error("input slice was modified")
			}
		})
	}
}

// TestRememberCommand tests MRU ordering, uniqueness and cap
func TestRememberCommand(t *testing.T) {
	var commands []string
	sequence := []string{"fix grammar", "translate", "  ", "summarize", "fix grammar", "shorten", "translate"}
	for _, c := range sequence {
		commands = domain.RememberCommand(commands, c, 3)
	}

	want := []string{"translate", "shorten", "fix grammar"}
	if diff := cmp.Diff(want, commands); diff != "" {
		t.Errorf("MRU mismatch (-want +got):\n%s", diff)
	}

	seen := map[string]bool{}
	for _, c := range commands {
		if seen[c] {
			t.Errorf("duplicate command %q", c)
		}
		seen[c] = true
	}
}

// TestSummarizeTokens tests token aggregation
func TestSummarizeTokens(t *testing.T) {
	entries := []domain.HistoryEntry{
		{TokenUsage: &domain.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		{},
		{TokenUsage: &domain.TokenUsage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}},
	}
	want := domain.TokenSummary{InputTokens: 11, OutputTokens: 7, TotalTokens: 18, EntriesWithUsage: 2}
	if got := domain.SummarizeTokens(entries); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestNormalizeTokenUsage tests clamping of negative counters
func TestNormalizeTokenUsage(t *testing.T) {
	got := domain.NormalizeTokenUsage(&domain.TokenUsage{InputTokens: -4, OutputTokens: 6})
	want := &domain.TokenUsage{InputTokens: 0, OutputTokens: 6, TotalTokens: 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("usage mismatch (-want +got):\n%s", diff)
	}
	if domain.NormalizeTokenUsage(nil) != nil {
		t.Error("expected nil usage to stay nil")
	}
}

// TestDecodeHistoryState tests recovery from partial and corrupted records
func TestDecodeHistoryState(t *testing.T) {
	limits := domain.HistoryLimits{MaxEntries: 2, MaxCommands: 2}
	validID := uuid.NewString()

	tests := []struct {
		name         string
		raw          string
		wantEntries  int
		wantCommands []string
		wantPolicy   domain.RetentionPolicy
	}{
		{
			name:         "garbage",
			raw:          "{not json",
			wantCommands: []string{},
			wantPolicy:   domain.DefaultRetentionPolicy(),
		},
		{
			name:         "empty object",
			raw:          "{}",
			wantCommands: []string{},
			wantPolicy:   domain.DefaultRetentionPolicy(),
		},
		{
			name: "mixed valid and invalid",
			raw: fmt.Sprintf(`{
				"schemaVersion": 99,
				"retentionPolicy": {"maxAgeDays": -1, "maxEntries": 5},
				"entries": [
					{"id": %q, "command": "fix", "status": "success", "createdAt": "2026-10-01T10:00:00Z"},
					{"id": "not-a-uuid", "command": "translate", "status": "weird", "createdAt": "2026-10-02T10:00:00Z"},
					{"id": %q, "command": "dup", "createdAt": "2026-10-03T10:00:00Z"},
					{"command": "", "createdAt": "2026-10-04T10:00:00Z"},
					{"command": "no date"},
					42
				],
				"commands": ["a", " a ", "", 7, "b", "c"]
			}`, validID, validID),
			wantEntries:  2,
			wantCommands: []string{"a", "b"},
			wantPolicy:   domain.RetentionPolicy{MaxAgeDays: intPtr(domain.DefaultHistoryRetainDays), MaxEntries: intPtr(5)},
		},
		{
			name:         "partial policy keeps default age",
			raw:          `{"retentionPolicy": {}}`,
			wantCommands: []string{},
			wantPolicy:   domain.DefaultRetentionPolicy(),
		},
		{
			name:         "explicit null bound is unbounded",
			raw:          `{"retentionPolicy": {"maxAgeDays": null, "maxEntries": "ten"}}`,
			wantCommands: []string{},
			wantPolicy:   domain.RetentionPolicy{},
		},
		{
			name:         "wrong field types",
			raw:          `{"retentionPolicy": "forever", "entries": {}, "commands": "x"}`,
			wantCommands: []string{},
			wantPolicy:   domain.DefaultRetentionPolicy(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := domain.DecodeHistoryState([]byte(tt.raw), limits)

			if state.SchemaVersion != domain.HistorySchemaVersion {
				t.Errorf("schema version = %d, want %d", state.SchemaVersion, domain.HistorySchemaVersion)
			}
			if len(state.Entries) != tt.wantEntries {
				t.Errorf("entries = %d, want %d", len(state.Entries), tt.wantEntries)
			}
			if diff := cmp.Diff(tt.wantCommands, state.Commands); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
			if !state.RetentionPolicy.Equal(tt.wantPolicy) {
				t.Errorf("policy = %+v, want %+v", state.RetentionPolicy, tt.wantPolicy)
			}
			for i := 1; i < len(state.Entries); i++ {
				if state.Entries[i].CreatedAt.After(state.Entries[i-1].CreatedAt) {
					t.Error("entries are not ordered most-recent-first")
				}
			}
			for _, e := range state.Entries {
				if _, err := uuid.Parse(e.ID); err != nil {
					t.Errorf("entry id %q is not a uuid", e.ID)
				}
				if !e.Status.Valid() {
					t.Errorf("entry status %q is invalid", e.Status)
				}
			}
		})
	}
}

// TestNormalizeHistoryStateIsIdempotent tests that the persist path is stable
func TestDecodeHistoryStateDefaultsMalformedEntryFields(t *testing.T) {
	id := uuid.NewString()
	raw := fmt.Sprintf(`{"entries": [{
		"id": %q,
		"command": "fix",
		"action": 3,
		"usedSelectionContext": "yes",
		"status": "success",
		"detail": ["x"],
		"responseText": "Bonjour",
		"tokenUsage": "x",
		"createdAt": "2026-10-01T10:00:00Z"
	}]}`, id)

	state := domain.DecodeHistoryState([]byte(raw), domain.DefaultHistoryLimits())
	if len(state.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(state.Entries))
	}
	entry := state.Entries[0]
	want := domain.HistoryEntry{
		ID:           id,
		Command:      "fix",
		Action:       domain.ActionReplace,
		Status:       domain.StatusSuccess,
		ResponseText: strPtr("Bonjour"),
		CreatedAt:    time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeHistoryStateIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	state := domain.PromptHistoryState{
		SchemaVersion: 0,
		Entries: []domain.HistoryEntry{
			entryAt("older", now.Add(-time.Hour)),
			entryAt("newer", now),
		},
		Commands: []string{"x", "x", "y"},
	}
	once := domain.NormalizeHistoryState(state, domain.DefaultHistoryLimits())
	twice := domain.NormalizeHistoryState(once, domain.DefaultHistoryLimits())
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("normalization not idempotent (-once +twice):\n%s", diff)
	}
	if once.Entries[0].Command != "newer" {
		t.Errorf("expected newest first, got %q", once.Entries[0].Command)
	}
}

// TestCloneEntries tests that clones do not share pointers
func TestCloneEntries(t *testing.T) {
	text := "reply"
	original := []domain.HistoryEntry{{ResponseText: &text, TokenUsage: &domain.TokenUsage{TotalTokens: 1}}}
	clone := domain.CloneEntries(original)
	*clone[0].ResponseText = "mutated"
	clone[0].TokenUsage.TotalTokens = 99

	if *original[0].ResponseText != "reply" || original[0].TokenUsage.TotalTokens != 1 {
		t.Error("clone shares state with original")
	}
}

func commandsOf(entries []domain.HistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Command)
	}
	return out
}
