package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-copilot/assets"
	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/pkg/filesystem"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// SettingsFileName is the settings file inside the data directory.
const SettingsFileName = "settings.yaml"

// FileRepository reads and writes settings YAML at ~/.shai-copilot/settings.yaml
// (overridable via SHAI_COPILOT_SETTINGS).
type FileRepository struct {
	overridePath string
}

// NewFileRepository builds a repository. An empty path resolves the default location.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{overridePath: path}
}

// Load implements ports.SettingsRepository. A missing file reports ok=false.
// Malformed YAML or unknown keys wrap domain.ErrInvalidSettings.
func (r *FileRepository) Load() (domain.AppSettings, bool, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.AppSettings{}, false, nil
		}
		return domain.AppSettings{}, false, fmt.Errorf("read settings: %w", err)
	}
	settings, err := Decode(data)
	if err != nil {
		return domain.AppSettings{}, true, err
	}
	return settings, true, nil
}

// Save writes settings atomically.
func (r *FileRepository) Save(settings domain.AppSettings) error {
	path := r.Path()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("ensure settings dir: %w", err)
	}
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, domain.SecureFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Path returns the resolved settings file path.
func (r *FileRepository) Path() string {
	if r.overridePath != "" {
		return filesystem.ExpandPath(r.overridePath)
	}
	if custom := os.Getenv("SHAI_COPILOT_SETTINGS"); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.DataDir(), SettingsFileName)
}

// Decode parses settings YAML strictly: unknown keys and an empty document
// are schema violations.
func Decode(data []byte) (domain.AppSettings, error) {
	var settings domain.AppSettings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.AppSettings{}, fmt.Errorf("%w: empty document", domain.ErrInvalidSettings)
		}
		return domain.AppSettings{}, fmt.Errorf("%w: %v", domain.ErrInvalidSettings, err)
	}
	return settings, nil
}

// Defaults returns the embedded default settings.
func Defaults() (domain.AppSettings, error) {
	settings, err := Decode(assets.DefaultSettingsYAML)
	if err != nil {
		return domain.AppSettings{}, fmt.Errorf("embedded defaults: %w", err)
	}
	return settings, nil
}

var _ ports.SettingsRepository = (*FileRepository)(nil)
