//go:build unix

package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-copilot/internal/app"
	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/infrastructure/automation"
)

const testSettings = `settings_format_version: "1"
model:
  id: test-model
  reasoning_effort: low
shortcuts:
  open_palette: a
  quick_replace: b
  quick_insert: c
slash_commands:
  - id: 5b0d6a56-8f0e-4c43-9a57-0f6a4e2b8c11
    command: /fix
    prompt: Fix it.
automation:
  interpreter: /bin/sh
completion:
  command: "cat >/dev/null; printf '{\"text\":\"Bonjour\",\"usage\":{\"inputTokens\":2,\"outputTokens\":1}}'"
  timeout: 5
history:
  backend: file
`

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) Copy(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *fakeClipboard) Enabled() bool { return true }

func newTestContainer(t *testing.T) (*app.Container, *fakeClipboard) {
	t.Helper()
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte(testSettings), 0o600))

	c, err := app.BuildContainer(context.Background(), app.Options{SettingsPath: settingsPath, DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	clipboard := &fakeClipboard{}
	c.Output = automation.NewOutputBridge(c.Scripter, clipboard, time.Second, c.Logger)
	c.CopilotService.Applier = c.Output
	return c, clipboard
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommandCopiesAndRecords(t *testing.T) {
	c, clipboard := newTestContainer(t)

	out, err := execute(t, NewRunCommand(c), "", "/fix", "--input", "bonjur", "--mode", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: SUCCESS")
	assert.Contains(t, out, "Bonjour")
	assert.Equal(t, "Bonjour", clipboard.text)

	snapshot := c.History.Snapshot()
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, domain.ActionCopy, snapshot.Entries[0].Action)
	assert.True(t, snapshot.Entries[0].UsedSelectionContext)
	assert.Equal(t, []string{"/fix"}, snapshot.Commands)
	assert.Equal(t, int64(3), snapshot.TokenSummary.TotalTokens)
}

func TestRunCommandRejectsUnknownMode(t *testing.T) {
	c, _ := newTestContainer(t)
	_, err := execute(t, NewRunCommand(c), "", "/fix", "--mode", "shout")
	assert.ErrorContains(t, err, "--mode")
}

func TestApplyCommandCopyReadsStdin(t *testing.T) {
	c, clipboard := newTestContainer(t)
	out, err := execute(t, NewApplyCommand(c), "from stdin\n", "--mode", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied (copy)")
	assert.Equal(t, "from stdin", clipboard.text)

	_, err = execute(t, NewApplyCommand(c), "   ", "--mode", "copy")
	assert.ErrorContains(t, err, "text is required")
}

func TestHistoryCommands(t *testing.T) {
	c, _ := newTestContainer(t)
	for _, command := range []string{"/fix", "translate", "/fix"} {
		_, err := c.History.RecordExecution(domain.RecordParams{Command: command, Status: domain.StatusSuccess, Action: domain.ActionInsert})
		require.NoError(t, err)
	}
	_, err := c.History.RecordExecution(domain.RecordParams{Command: "broken", Status: domain.StatusError, Detail: "boom"})
	require.NoError(t, err)

	out, err := execute(t, NewHistoryCommand(c), "", "list", "--status", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "broken")
	assert.NotContains(t, out, "translate")

	out, err = execute(t, NewHistoryCommand(c), "", "commands")
	require.NoError(t, err)
	assert.Equal(t, "broken\n/fix\ntranslate\n", out)

	out, err = execute(t, NewHistoryCommand(c), "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Entries: 4")
	assert.Contains(t, out, "Success rate: 75.0%")
	assert.Contains(t, out, "/fix (2)")

	id := c.History.Snapshot().Entries[0].ID
	out, err = execute(t, NewHistoryCommand(c), "", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Detail: boom")

	out, err = execute(t, NewHistoryCommand(c), "", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")
	assert.Len(t, c.History.Snapshot().Entries, 3)
}

func TestHistoryRetainAndClear(t *testing.T) {
	c, _ := newTestContainer(t)
	_, err := c.History.RecordExecution(domain.RecordParams{Command: "fix", Status: domain.StatusSuccess})
	require.NoError(t, err)

	out, err := execute(t, NewHistoryCommand(c), "", "retain")
	require.NoError(t, err)
	assert.Contains(t, out, "30 days, unbounded count")

	out, err = execute(t, NewHistoryCommand(c), "", "retain", "--unbounded", "--max-entries", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "unbounded age, 10 entries")

	out, err = execute(t, NewHistoryCommand(c), "n\n", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, MsgCancelled)
	assert.Len(t, c.History.Snapshot().Entries, 1)

	out, err = execute(t, NewHistoryCommand(c), "", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, MsgHistoryCleared)
	assert.Empty(t, c.History.Snapshot().Entries)
	assert.Empty(t, c.History.Snapshot().Commands)
}

func TestSettingsCommands(t *testing.T) {
	c, _ := newTestContainer(t)

	out, err := execute(t, NewSettingsCommand(c), "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "id: test-model")

	out, err = execute(t, NewSettingsCommand(c), "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, MsgSettingsValid)

	out, err = execute(t, NewSettingsCommand(c), "", "path")
	require.NoError(t, err)
	assert.Equal(t, c.Settings.Path()+"\n", out)

	require.NoError(t, os.WriteFile(c.Settings.Path(), []byte("model: [broken\n"), 0o600))
	_, err = execute(t, NewSettingsCommand(c), "", "validate")
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	out, err = execute(t, NewSettingsCommand(c), "", "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings reset")
	assert.NotEqual(t, "test-model", c.Settings.Current().Model.ID)
}

func TestDoctorCommandJSON(t *testing.T) {
	c, _ := newTestContainer(t)
	out, _ := execute(t, NewDoctorCommand(c), "", "--json")
	assert.Contains(t, out, `"checks"`)
	assert.Contains(t, out, `"Script interpreter"`)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "shai-copilot "))

	out, err = execute(t, NewVersionCommand(), "", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, `"platform"`)
}
