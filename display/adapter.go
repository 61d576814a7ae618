// Package display turns image files into frames for the e-ink panel
package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrDisplay = errors.New("display failed")

// Confirmer records which image the panel actually shows.
type Confirmer interface {
	ConfirmImage(ctx context.Context, name string) error
}

type Adapter struct {
	sink      Sink
	confirmer Confirmer
}

// NewAdapter builds an adapter. A nil sink simulates the panel; a nil
// confirmer skips confirmation.
func NewAdapter(sink Sink, confirmer Confirmer) *Adapter {
	return &Adapter{sink: sink, confirmer: confirmer}
}

func (a *Adapter) Simulated() bool {
	return a.sink == nil
}

// Display renders the image at path with the given rotation. Failures wrap
// ErrDisplay. Confirmation runs after a successful render and never fails
// the call.
func (a *Adapter) Display(ctx context.Context, path, name string, rotation int) error {
	img, err := Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDisplay, err)
	}

	if a.sink == nil {
		slog.Info("simulated display", "name", name, "path", path, "rotation", rotation)
	} else {
		width, height := a.sink.Resolution()
		frame, err := Render(img, width, height, rotation)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDisplay, err)
		}
		if err := a.sink.Show(ctx, frame); err != nil {
			return fmt.Errorf("%w: %w", ErrDisplay, err)
		}
		slog.Info("display updated", "name", name, "rotation", rotation)
	}

	_ = a.Confirm(ctx, name)
	return nil
}

// Confirm reports name to the confirmer. It is best effort: the error is
// logged and returned for callers that care, and may be discarded.
func (a *Adapter) Confirm(ctx context.Context, name string) error {
	if a.confirmer == nil {
		return nil
	}
	if err := a.confirmer.ConfirmImage(ctx, name); err != nil {
		slog.Warn("unable to confirm display", "name", name, "error", err)
		return err
	}
	return nil
}
