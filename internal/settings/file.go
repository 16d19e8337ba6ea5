package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const settingsDirName = "flayyer-studio"

// DefaultFilePath is settings.json under the user configuration directory.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("settings: resolve config dir: %w", err)
	}
	return filepath.Join(dir, settingsDirName, "settings.json"), nil
}

// FileStore keeps ViewSettings in a JSON file for command line sessions.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the settings file. A missing or malformed file reports false
// and yields Default(); only unexpected read failures are returned as errors.
func (s *FileStore) Load() (ViewSettings, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return Default(), false, fmt.Errorf("settings: read %s: %w", s.path, err)
	}
	stored := Default()
	if err := json.Unmarshal(data, &stored); err != nil {
		return Default(), false, nil
	}
	return stored.Normalize(), true, nil
}

// Save writes v atomically, creating the parent directory when needed.
func (s *FileStore) Save(v ViewSettings) error {
	data, err := json.MarshalIndent(v.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}

// Reset removes the settings file.
func (s *FileStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("settings: remove %s: %w", s.path, err)
	}
	return nil
}
