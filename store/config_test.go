package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	s := NewConfigStore(filepath.Join(t.TempDir(), "local_config.json"))
	s.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return s
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s := newTestConfigStore(t)
	cfg, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentImage != "" || cfg.Interval != 0 || cfg.Rotation != DefaultRotation || cfg.LastUpdated != nil {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadUnparseableFileReturnsDefaults(t *testing.T) {
	s := newTestConfigStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rotation != DefaultRotation {
		t.Errorf("rotation = %d, want default", cfg.Rotation)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	s := newTestConfigStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"current_image":"a.jpg"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentImage != "a.jpg" || cfg.Rotation != DefaultRotation {
		t.Errorf("got %+v", cfg)
	}
}

func TestUpdateIsPartialMerge(t *testing.T) {
	s := newTestConfigStore(t)
	if err := s.Save(&DeviceConfig{CurrentImage: "a.jpg", Interval: 60, Rotation: 90}); err != nil {
		t.Fatal(err)
	}

	cfg, err := s.Update(ConfigUpdate{Interval: intPtr(10)})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentImage != "a.jpg" || cfg.Interval != 10 || cfg.Rotation != 90 {
		t.Errorf("merged config = %+v", cfg)
	}
	if cfg.LastUpdated == nil || !cfg.LastUpdated.Equal(s.now()) {
		t.Errorf("last_updated = %v", cfg.LastUpdated)
	}

	reloaded, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.CurrentImage != "a.jpg" || reloaded.Interval != 10 || reloaded.Rotation != 90 {
		t.Errorf("persisted config = %+v", reloaded)
	}
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	s := newTestConfigStore(t)
	if _, err := s.Update(ConfigUpdate{Interval: intPtr(-1)}); err == nil {
		t.Error("expected error for negative interval")
	}
	if _, err := s.Update(ConfigUpdate{Rotation: intPtr(45)}); err == nil {
		t.Error("expected error for rotation 45")
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("rejected update should not write the file")
	}
}

func TestClearCurrentImage(t *testing.T) {
	s := newTestConfigStore(t)
	if _, err := s.Update(ConfigUpdate{CurrentImage: strPtr("a.jpg")}); err != nil {
		t.Fatal(err)
	}

	changed, err := s.ClearCurrentImage("b.jpg")
	if err != nil || changed {
		t.Fatalf("clearing non-active image: changed=%v err=%v", changed, err)
	}
	cfg, _ := s.Load()
	if cfg.CurrentImage != "a.jpg" {
		t.Errorf("current_image = %q, want a.jpg", cfg.CurrentImage)
	}

	changed, err = s.ClearCurrentImage("a.jpg")
	if err != nil || !changed {
		t.Fatalf("clearing active image: changed=%v err=%v", changed, err)
	}
	cfg, _ = s.Load()
	if cfg.CurrentImage != "" {
		t.Errorf("current_image = %q, want empty", cfg.CurrentImage)
	}
}

func TestRenameCurrentImage(t *testing.T) {
	s := newTestConfigStore(t)
	if _, err := s.SetCurrentImage("a.jpg"); err != nil {
		t.Fatal(err)
	}

	if changed, _ := s.RenameCurrentImage("x.jpg", "y.jpg"); changed {
		t.Error("renaming a non-active image should not change config")
	}
	if changed, _ := s.RenameCurrentImage("a.jpg", "b.jpg"); !changed {
		t.Error("renaming the active image should change config")
	}
	cfg, _ := s.Load()
	if cfg.CurrentImage != "b.jpg" {
		t.Errorf("current_image = %q, want b.jpg", cfg.CurrentImage)
	}
}
