package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const DefaultRotation = 90

var ErrInvalidConfig = errors.New("invalid config")

var validRotations = map[int]bool{0: true, 90: true, 180: true, 270: true}

// DefaultConfig is used whenever the config file is missing or unreadable.
func DefaultConfig() *DeviceConfig {
	return &DeviceConfig{
		CurrentImage: "",
		Interval:     0,
		Rotation:     DefaultRotation,
	}
}

// ConfigStore persists a DeviceConfig as a single JSON file. Every save fully
// overwrites the file; concurrent writers are not serialized.
type ConfigStore struct {
	path string
	now  func() time.Time
}

func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path, now: time.Now}
}

func (s *ConfigStore) Path() string {
	return s.path
}

// Load returns the stored config overlaid on the defaults.
func (s *ConfigStore) Load() (*DeviceConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		slog.Warn("config file unparseable, using defaults", "path", s.path, "error", err)
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// Save writes cfg through a temp file and rename.
func (s *ConfigStore) Save(cfg *DeviceConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Update overlays the provided fields onto the stored config, stamps
// last_updated and saves.
func (s *ConfigStore) Update(upd ConfigUpdate) (*DeviceConfig, error) {
	if upd.Interval != nil && *upd.Interval < 0 {
		return nil, fmt.Errorf("%w: interval must be non-negative, got %d", ErrInvalidConfig, *upd.Interval)
	}
	if upd.Rotation != nil && !validRotations[*upd.Rotation] {
		return nil, fmt.Errorf("%w: rotation must be one of 0, 90, 180, 270, got %d", ErrInvalidConfig, *upd.Rotation)
	}

	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}

	if upd.CurrentImage != nil {
		cfg.CurrentImage = *upd.CurrentImage
	}
	if upd.Interval != nil {
		cfg.Interval = *upd.Interval
	}
	if upd.Rotation != nil {
		cfg.Rotation = *upd.Rotation
	}
	now := s.now().UTC()
	cfg.LastUpdated = &now

	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetCurrentImage records name as the active image.
func (s *ConfigStore) SetCurrentImage(name string) (*DeviceConfig, error) {
	return s.Update(ConfigUpdate{CurrentImage: &name})
}

// RenameCurrentImage follows a rename when oldName is the active image.
// It reports whether the config changed.
func (s *ConfigStore) RenameCurrentImage(oldName, newName string) (bool, error) {
	cfg, err := s.Load()
	if err != nil {
		return false, err
	}
	if cfg.CurrentImage != oldName {
		return false, nil
	}
	if _, err := s.SetCurrentImage(newName); err != nil {
		return false, err
	}
	return true, nil
}

// ClearCurrentImage empties current_image when name is the active image.
// It reports whether the config changed.
func (s *ConfigStore) ClearCurrentImage(name string) (bool, error) {
	return s.RenameCurrentImage(name, "")
}
