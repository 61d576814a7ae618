package agent

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeReporter struct {
	err   error
	beats []time.Time
}

func (f *fakeReporter) ReportHeartbeat(_ context.Context, at time.Time) error {
	f.beats = append(f.beats, at)
	return f.err
}

func TestHeartbeatBeat(t *testing.T) {
	loc := time.FixedZone("PDT", -7*3600)
	reporter := &fakeReporter{}
	h := NewHeartbeat(reporter, 30*time.Second)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 5, 0, 0, 0, loc) }

	h.Beat(context.Background())

	if len(reporter.beats) != 1 {
		t.Fatalf("beats = %d, want 1", len(reporter.beats))
	}
	if got := reporter.beats[0]; got.Location() != time.UTC || got.Hour() != 12 {
		t.Errorf("beat at %v, want 12:00 UTC", got)
	}
}

func TestHeartbeatFailureIsSwallowed(t *testing.T) {
	reporter := &fakeReporter{err: errors.New("offline")}
	h := NewHeartbeat(reporter, 30*time.Second)

	h.Beat(context.Background())
	h.Beat(context.Background())

	if len(reporter.beats) != 2 {
		t.Errorf("beats = %d, want 2", len(reporter.beats))
	}
}

func TestHeartbeatRunStops(t *testing.T) {
	reporter := &fakeReporter{}
	h := NewHeartbeat(reporter, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
