package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/pkg/logger"
)

type memoryStore struct {
	mu      sync.Mutex
	raw     []byte
	saves   int
	saveErr error
}

func (m *memoryStore) Load() ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw == nil {
		return nil, false, nil
	}
	return append([]byte(nil), m.raw...), true, nil
}

func (m *memoryStore) Save(state domain.PromptHistoryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.raw = data
	m.saves++
	return nil
}

func (m *memoryStore) Path() string { return "memory" }

func (m *memoryStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memoryStore) persisted(t *testing.T) domain.PromptHistoryState {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var state domain.PromptHistoryState
	require.NoError(t, json.Unmarshal(m.raw, &state))
	return state
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, store *memoryStore, limits domain.HistoryLimits) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	return NewEngine(store, limits, logger.NewNop(), WithClock(clock.Now)), clock
}

func intPtr(n int) *int { return &n }

func TestRecordExecutionCapsEntries(t *testing.T) {
	store := &memoryStore{}
	engine, clock := newTestEngine(t, store, domain.HistoryLimits{MaxEntries: 120, MaxCommands: 20})

	var first *domain.HistoryEntry
	for i := 0; i < 121; i++ {
		clock.Advance(time.Second)
		entry, err := engine.RecordExecution(domain.RecordParams{
			Command: "fix grammar",
			Action:  domain.ActionReplace,
			Status:  domain.StatusSuccess,
			Detail:  fmt.Sprintf("run %d", i),
		})
		require.NoError(t, err)
		require.NotNil(t, entry)
		if i == 0 {
			first = entry
		}
	}

	snapshot := engine.Snapshot()
	require.Len(t, snapshot.Entries, 120)
	assert.Equal(t, "run 120", snapshot.Entries[0].Detail)
	assert.Equal(t, "run 1", snapshot.Entries[119].Detail)
	for _, entry := range snapshot.Entries {
		assert.NotEqual(t, first.ID, entry.ID, "oldest entry should be evicted")
	}
	for i := 1; i < len(snapshot.Entries); i++ {
		assert.False(t, snapshot.Entries[i].CreatedAt.After(snapshot.Entries[i-1].CreatedAt))
	}
	assert.Equal(t, []string{"fix grammar"}, snapshot.Commands)
	assert.Len(t, store.persisted(t).Entries, 120)
}

func TestSetRetentionPolicyZeroDaysKeepsCommands(t *testing.T) {
	store := &memoryStore{}
	engine, clock := newTestEngine(t, store, domain.DefaultHistoryLimits())

	for _, command := range []string{"fix grammar", "translate"} {
		_, err := engine.RecordExecution(domain.RecordParams{Command: command, Status: domain.StatusSuccess})
		require.NoError(t, err)
	}
	clock.Advance(time.Minute)

	policy, err := engine.SetRetentionPolicy(domain.RetentionPolicy{MaxAgeDays: intPtr(0)})
	require.NoError(t, err)
	require.NotNil(t, policy.MaxAgeDays)
	assert.Equal(t, 0, *policy.MaxAgeDays)

	snapshot := engine.Snapshot()
	assert.Empty(t, snapshot.Entries)
	assert.Equal(t, []string{"translate", "fix grammar"}, snapshot.Commands)
	assert.Empty(t, store.persisted(t).Entries)
}

func TestSnapshotAppliesRetentionOnRead(t *testing.T) {
	store := &memoryStore{}
	engine, clock := newTestEngine(t, store, domain.DefaultHistoryLimits())

	_, err := engine.RecordExecution(domain.RecordParams{Command: "summarize", Status: domain.StatusSuccess})
	require.NoError(t, err)
	saves := store.saveCount()

	clock.Advance(31 * 24 * time.Hour)
	assert.Empty(t, engine.Snapshot().Entries)
	assert.Equal(t, saves, store.saveCount(), "reads must not persist")
}

func TestNewEngineHealsCorruptedRecord(t *testing.T) {
	store := &memoryStore{raw: []byte(`{"schemaVersion": 7, "entries": "nope", "commands": ["a", "a", ""]}`)}
	engine, _ := newTestEngine(t, store, domain.DefaultHistoryLimits())

	assert.Equal(t, 1, store.saveCount())
	persisted := store.persisted(t)
	assert.Equal(t, domain.HistorySchemaVersion, persisted.SchemaVersion)
	assert.Equal(t, []string{"a"}, persisted.Commands)
	assert.Empty(t, persisted.Entries)
	assert.True(t, persisted.RetentionPolicy.Equal(domain.DefaultRetentionPolicy()))
	assert.Equal(t, []string{"a"}, engine.Snapshot().Commands)
}

func TestNewEngineSurvivesLoadError(t *testing.T) {
	engine := NewEngine(failingStore{}, domain.DefaultHistoryLimits(), logger.NewNop())
	snapshot := engine.Snapshot()
	assert.Empty(t, snapshot.Entries)
	assert.Empty(t, snapshot.Commands)
}

type failingStore struct{}

func (failingStore) Load() ([]byte, bool, error)          { return nil, false, errors.New("disk gone") }
func (failingStore) Save(domain.PromptHistoryState) error { return errors.New("disk gone") }
func (failingStore) Path() string                         { return "nowhere" }

func TestDeleteEntry(t *testing.T) {
	store := &memoryStore{}
	engine, _ := newTestEngine(t, store, domain.DefaultHistoryLimits())
	entry, err := engine.RecordExecution(domain.RecordParams{Command: "shorten", Status: domain.StatusSuccess})
	require.NoError(t, err)

	notified := 0
	engine.OnChanged(func(domain.HistorySnapshot) { notified++ })
	saves := store.saveCount()

	removed, err := engine.DeleteEntry("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, notified)
	assert.Equal(t, saves, store.saveCount())

	removed, err = engine.DeleteEntry(entry.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, notified)
	assert.Empty(t, engine.Snapshot().Entries)
}

func TestListenersSeePersistedState(t *testing.T) {
	store := &memoryStore{}
	engine, _ := newTestEngine(t, store, domain.DefaultHistoryLimits())

	var seen []domain.HistorySnapshot
	unsubscribe := engine.OnChanged(func(snapshot domain.HistorySnapshot) {
		persisted := store.persisted(t)
		assert.Equal(t, len(snapshot.Commands), len(persisted.Commands), "listener ran before persist")
		seen = append(seen, snapshot)
	})

	require.NoError(t, engine.RememberCommand("explain"))
	require.NoError(t, engine.RememberCommand("   "))
	require.Len(t, seen, 1)
	assert.Equal(t, []string{"explain"}, seen[0].Commands)

	unsubscribe()
	require.NoError(t, engine.RememberCommand("rewrite"))
	assert.Len(t, seen, 1)
}

func TestPersistFailureSkipsNotification(t *testing.T) {
	store := &memoryStore{}
	engine, _ := newTestEngine(t, store, domain.DefaultHistoryLimits())
	notified := 0
	engine.OnChanged(func(domain.HistorySnapshot) { notified++ })

	store.saveErr = errors.New("read-only")
	err := engine.RememberCommand("translate")
	require.Error(t, err)
	assert.Zero(t, notified)
	assert.Equal(t, []string{"translate"}, engine.Snapshot().Commands)
}

func TestClearKeepsPolicy(t *testing.T) {
	store := &memoryStore{}
	engine, _ := newTestEngine(t, store, domain.DefaultHistoryLimits())
	_, err := engine.SetRetentionPolicy(domain.RetentionPolicy{MaxEntries: intPtr(5)})
	require.NoError(t, err)
	_, err = engine.RecordExecution(domain.RecordParams{Command: "fix", Status: domain.StatusSuccess})
	require.NoError(t, err)

	require.NoError(t, engine.Clear())
	snapshot := engine.Snapshot()
	assert.Empty(t, snapshot.Entries)
	assert.Empty(t, snapshot.Commands)
	require.NotNil(t, snapshot.RetentionPolicy.MaxEntries)
	assert.Equal(t, 5, *snapshot.RetentionPolicy.MaxEntries)
}

func TestRecordExecutionNormalizesParams(t *testing.T) {
	store := &memoryStore{}
	engine, _ := newTestEngine(t, store, domain.DefaultHistoryLimits())

	entry, err := engine.RecordExecution(domain.RecordParams{Command: "  "})
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, 1, store.saveCount(), "blank command must not persist")

	reply := "done"
	entry, err = engine.RecordExecution(domain.RecordParams{
		Command:      " translate ",
		Action:       "teleport",
		Status:       "",
		ResponseText: &reply,
		TokenUsage:   &domain.TokenUsage{InputTokens: 4, OutputTokens: -1},
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "translate", entry.Command)
	assert.Equal(t, domain.ActionReplace, entry.Action)
	assert.Equal(t, domain.StatusError, entry.Status)
	assert.Equal(t, &domain.TokenUsage{InputTokens: 4, TotalTokens: 4}, entry.TokenUsage)

	summary := engine.Snapshot().TokenSummary
	assert.Equal(t, domain.TokenSummary{InputTokens: 4, TotalTokens: 4, EntriesWithUsage: 1}, summary)
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	store := &memoryStore{}
	engine, _ := newTestEngine(t, store, domain.DefaultHistoryLimits())
	reply := "original"
	_, err := engine.RecordExecution(domain.RecordParams{Command: "fix", Status: domain.StatusSuccess, ResponseText: &reply})
	require.NoError(t, err)

	snapshot := engine.Snapshot()
	*snapshot.Entries[0].ResponseText = "mutated"
	snapshot.Commands[0] = "mutated"
	*snapshot.RetentionPolicy.MaxAgeDays = 999

	again := engine.Snapshot()
	assert.Equal(t, "original", *again.Entries[0].ResponseText)
	assert.Equal(t, "fix", again.Commands[0])
	assert.Equal(t, domain.DefaultHistoryRetainDays, *again.RetentionPolicy.MaxAgeDays)
}

func TestEntryLookup(t *testing.T) {
	engine, _ := newTestEngine(t, &memoryStore{}, domain.DefaultHistoryLimits())
	recorded, err := engine.RecordExecution(domain.RecordParams{Command: "fix", Status: domain.StatusCancelled})
	require.NoError(t, err)

	got, ok := engine.Entry(recorded.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelled, got.Status)

	_, ok = engine.Entry("missing")
	assert.False(t, ok)
}
