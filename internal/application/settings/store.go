// Package settings keeps the current application settings in memory and
// fans changes out to subscribers.
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/doeshing/shai-copilot/internal/application/config"
	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/pkg/observer"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// Store is the settings store. A record that fails validation on load is
// replaced wholesale by the defaults, never partially merged.
type Store struct {
	repo     ports.SettingsRepository
	defaults domain.AppSettings
	logger   ports.Logger

	writeMu   sync.Mutex
	mu        sync.RWMutex
	current   domain.AppSettings
	fellBack  bool
	listeners observer.Registry[domain.AppSettings]
}

// NewStore loads settings from repo eagerly.
func NewStore(repo ports.SettingsRepository, defaults domain.AppSettings, logger ports.Logger) *Store {
	s := &Store{
		repo:     repo,
		defaults: defaults.Clone(),
		logger:   logger,
	}
	current, fellBack, err := s.load()
	if err != nil {
		current = s.defaults.Clone()
	}
	s.current, s.fellBack = current, fellBack
	return s
}

// load returns the persisted settings, or the defaults plus true when the
// record was invalid. Missing and invalid records get the defaults written
// back. A record that cannot be read is left alone and reported as an error.
func (s *Store) load() (domain.AppSettings, bool, error) {
	loaded, ok, err := s.repo.Load()
	if err == nil && ok {
		err = config.Validate(loaded)
	}
	switch {
	case err == nil && ok:
		return loaded, false, nil
	case err != nil && !errors.Is(err, domain.ErrInvalidSettings):
		s.logger.Warn("settings unreadable, file left untouched", map[string]interface{}{
			"path":  s.repo.Path(),
			"error": err.Error(),
		})
		return domain.AppSettings{}, false, err
	case err != nil:
		s.logger.Warn("settings invalid, using defaults", map[string]interface{}{
			"path":  s.repo.Path(),
			"error": err.Error(),
		})
	}

	if saveErr := s.repo.Save(s.defaults); saveErr != nil {
		s.logger.Warn("settings defaults not persisted", map[string]interface{}{
			"path":  s.repo.Path(),
			"error": saveErr.Error(),
		})
	}
	return s.defaults.Clone(), err != nil, nil
}

// Current implements ports.SettingsProvider.
func (s *Store) Current() domain.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// FellBack reports whether the last load replaced an invalid record with defaults.
func (s *Store) FellBack() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fellBack
}

// Path returns where settings are persisted.
func (s *Store) Path() string {
	return s.repo.Path()
}

// Update validates and persists next, then notifies listeners. Invalid
// settings are rejected and leave the current value untouched.
func (s *Store) Update(next domain.AppSettings) error {
	if err := config.Validate(next); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.Save(next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.swap(next, false)
	return nil
}

// Reset restores and persists the defaults.
func (s *Store) Reset() error {
	return s.Update(s.defaults)
}

// Reload re-reads the record, typically after the file changed on disk.
// It reports whether the effective settings changed. An unreadable record
// keeps the current settings.
func (s *Store) Reload() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	next, fellBack, err := s.load()
	if err != nil {
		return false
	}
	return s.swap(next, fellBack)
}

// OnChanged registers listener and returns its unsubscribe function.
func (s *Store) OnChanged(listener func(domain.AppSettings)) func() {
	return s.listeners.Subscribe(listener)
}

func (s *Store) swap(next domain.AppSettings, fellBack bool) bool {
	s.mu.Lock()
	changed := !reflect.DeepEqual(s.current, next)
	s.current = next.Clone()
	s.fellBack = fellBack
	s.mu.Unlock()

	if changed {
		s.listeners.Notify(s.Current)
	}
	return changed
}

// IsInvalid reports whether err is a settings schema violation.
func IsInvalid(err error) bool {
	return errors.Is(err, domain.ErrInvalidSettings)
}

var _ ports.SettingsProvider = (*Store)(nil)
