package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/doeshing/shai-copilot/internal/application/copilot"
	"github.com/doeshing/shai-copilot/internal/application/doctor"
	historyapp "github.com/doeshing/shai-copilot/internal/application/history"
	"github.com/doeshing/shai-copilot/internal/application/settings"
	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/infrastructure/automation"
	"github.com/doeshing/shai-copilot/internal/infrastructure/completion"
	"github.com/doeshing/shai-copilot/internal/infrastructure/config"
	"github.com/doeshing/shai-copilot/internal/infrastructure/executor"
	"github.com/doeshing/shai-copilot/internal/infrastructure/history"
	"github.com/doeshing/shai-copilot/internal/pkg/filesystem"
	"github.com/doeshing/shai-copilot/internal/pkg/logger"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// Options configures the dependency graph.
type Options struct {
	Verbose bool
	// SettingsPath overrides the settings file location.
	SettingsPath string
	// DataDir overrides where history is stored.
	DataDir string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Logger         *logger.ZapLogger
	Settings       *settings.Store
	History        *historyapp.Engine
	HistoryStore   ports.HistoryStateStore
	Runner         *executor.ProcessRunner
	Scripter       *automation.ScriptBridge
	Permission     *automation.PermissionChecker
	Capture        *automation.ContextCapture
	Output         *automation.OutputBridge
	Clipboard      *automation.Clipboard
	Completion     *completion.CommandEngine
	CopilotService *copilot.Service
	DoctorService  *doctor.Service

	watcher *config.Watcher
	closers []func() error
}

// BuildContainer constructs the dependency graph. Automation timeouts and the
// interpreter are read from settings once, at build time.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	log := logger.New(opts.Verbose)

	defaults, err := config.Defaults()
	if err != nil {
		return nil, err
	}
	settingsStore := settings.NewStore(config.NewFileRepository(opts.SettingsPath), defaults, log)
	current := settingsStore.Current()

	c := &Container{Logger: log, Settings: settingsStore}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = filesystem.DataDir()
	}
	c.HistoryStore = c.openHistoryStore(current.GetHistoryBackend(), dataDir)
	c.History = historyapp.NewEngine(c.HistoryStore, current.GetHistoryLimits(), log)

	c.Runner = executor.NewProcessRunner(log)
	c.Scripter = automation.NewScriptBridge(c.Runner, current.GetInterpreter())
	c.Clipboard = automation.NewClipboard(c.Runner, current.GetApplyTimeout())
	c.Permission = automation.NewPermissionChecker(c.Scripter, current.GetPermissionTimeout(), log)
	c.Capture = automation.NewContextCapture(c.Scripter, c.Permission, current.GetCaptureTimeout(), log)
	c.Output = automation.NewOutputBridge(c.Scripter, c.Clipboard, current.GetApplyTimeout(), log)
	c.Completion = completion.NewCommandEngine(c.Runner, "", log)

	c.CopilotService = &copilot.Service{
		Settings:   settingsStore,
		Capturer:   c.Capture,
		Completion: c.Completion,
		Applier:    c.Output,
		History:    c.History,
		Logger:     log,
	}
	c.DoctorService = &doctor.Service{
		Settings:   settingsStore,
		Permission: c.Permission,
		Clipboard:  c.Clipboard,
		History:    c.History,
	}

	settingsStore.OnChanged(func(next domain.AppSettings) {
		log.Info("settings changed", map[string]interface{}{
			"path":  settingsStore.Path(),
			"model": next.Model.ID,
		})
	})

	return c, nil
}

func (c *Container) openHistoryStore(backend, dataDir string) ports.HistoryStateStore {
	if backend == domain.HistoryBackendSQLite {
		store, err := history.NewSQLiteStore(filepath.Join(dataDir, "history.db"))
		if err == nil {
			c.closers = append(c.closers, store.Close)
			return store
		}
		c.Logger.Warn("sqlite history unavailable, using file store", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return history.NewFileStore(filepath.Join(dataDir, "history.json"))
}

// WatchSettings reloads settings whenever the file changes on disk until
// Close is called or ctx ends.
func (c *Container) WatchSettings(ctx context.Context) error {
	if c.watcher != nil {
		return nil
	}
	w := config.NewWatcher(c.Settings.Path(), func() { c.Settings.Reload() }, c.Logger)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	c.watcher = w
	return nil
}

// Close stops the watcher and releases stores.
func (c *Container) Close() error {
	if c.watcher != nil {
		c.watcher.Stop()
		c.watcher = nil
	}
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}
