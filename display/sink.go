package display

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const spoolFile = "frame.png"

// Sink accepts fully rendered frames for a physical panel.
type Sink interface {
	Resolution() (width, height int)
	Show(ctx context.Context, img image.Image) error
}

// SpoolSink hands frames to the panel driver daemon by writing them as PNG
// into a spool directory the daemon watches.
type SpoolSink struct {
	dir           string
	width, height int
}

func NewSpoolSink(dir string, width, height int) *SpoolSink {
	return &SpoolSink{dir: dir, width: width, height: height}
}

func (s *SpoolSink) Resolution() (int, int) {
	return s.width, s.height
}

// Path is where the latest frame is written.
func (s *SpoolSink) Path() string {
	return filepath.Join(s.dir, spoolFile)
}

func (s *SpoolSink) Show(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".png")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("unable to create spool file: %w", err)
	}
	defer os.Remove(tmp)

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return fmt.Errorf("unable to encode frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to write spool file: %w", err)
	}

	// the daemon must never see a partial frame
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("unable to publish frame: %w", err)
	}
	return nil
}

// Detect returns a SpoolSink when panelPath is an existing directory and nil
// otherwise, which puts the adapter in simulation mode.
func Detect(panelPath string, width, height int) Sink {
	if panelPath == "" {
		slog.Info("no panel configured, simulating display")
		return nil
	}
	info, err := os.Stat(panelPath)
	if err != nil || !info.IsDir() {
		slog.Warn("panel path unavailable, simulating display", "path", panelPath, "error", err)
		return nil
	}
	slog.Info("panel detected", "path", panelPath, "width", width, "height", height)
	return NewSpoolSink(panelPath, width, height)
}
