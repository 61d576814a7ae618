package agent

import (
	"context"
	"log/slog"
	"time"
)

type HeartbeatReporter interface {
	ReportHeartbeat(ctx context.Context, at time.Time) error
}

// Heartbeat periodically marks the frame online in the remote store. A missed
// beat is only logged; monitors treat silence as offline.
type Heartbeat struct {
	reporter HeartbeatReporter
	interval time.Duration
	now      func() time.Time
}

func NewHeartbeat(reporter HeartbeatReporter, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		reporter: reporter,
		interval: interval,
		now:      time.Now,
	}
}

func (h *Heartbeat) Beat(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	at := h.now().UTC()
	if err := h.reporter.ReportHeartbeat(ctx, at); err != nil {
		slog.Warn("heartbeat failed", "error", err)
		return
	}
	slog.Debug("heartbeat sent", "at", at)
}

func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Beat(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Beat(ctx)
		}
	}
}
