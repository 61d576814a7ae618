// Package agent keeps the frame in sync with the remote store: it polls the
// remote config, rotates images on schedule, downloads and renders assigned
// images, and reports liveness.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/aouyang1/inkframe/firestore"
	"github.com/aouyang1/inkframe/store"
	mapset "github.com/deckarep/golang-set/v2"
)

const iterationTimeout = 2 * time.Minute

var ErrNoCandidates = errors.New("no images available for rotation")

// RemoteStore is the subset of the remote store the poll loop needs.
type RemoteStore interface {
	FetchConfig(ctx context.Context) (firestore.RemoteConfig, error)
	LookupImageURL(ctx context.Context, name string) (string, error)
	ListImageNames(ctx context.Context) ([]string, error)
	AssignImage(ctx context.Context, name string) error
}

// Fetcher downloads url into the image directory as name and returns the
// local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, name string) (string, error)
}

type Displayer interface {
	Display(ctx context.Context, path, name string, rotation int) error
}

type HistoryRecorder interface {
	RecordDisplay(name, source string, at time.Time) error
}

// State is the agent's process-local view of what is on the panel. It is
// passed into each poll and returned updated.
type State struct {
	CurrentImage    string
	LastRotation    time.Time
	IntervalMinutes int
}

type Agent struct {
	remote   RemoteStore
	fetcher  Fetcher
	display  Displayer
	history  HistoryRecorder
	rotation int
	interval time.Duration

	rng *rand.Rand
	now func() time.Time
}

type Option func(*Agent)

// WithHistory records every successful render.
func WithHistory(h HistoryRecorder) Option {
	return func(a *Agent) { a.history = h }
}

func WithRand(rng *rand.Rand) Option {
	return func(a *Agent) { a.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func New(remote RemoteStore, fetcher Fetcher, display Displayer, rotation int, pollInterval time.Duration, opts ...Option) *Agent {
	a := &Agent{
		remote:   remote,
		fetcher:  fetcher,
		display:  display,
		rotation: rotation,
		interval: pollInterval,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PollOnce runs a single sync cycle and returns the resulting state.
func (a *Agent) PollOnce(ctx context.Context, st State) State {
	cfg, err := a.remote.FetchConfig(ctx)
	if err != nil {
		slog.Warn("unable to fetch remote config", "error", err)
		return st
	}

	if cfg.Interval != st.IntervalMinutes {
		slog.Info("rotation interval changed", "from", st.IntervalMinutes, "to", cfg.Interval)
		st.IntervalMinutes = cfg.Interval
	}

	// only assigns; the download happens once the assignment is read back
	if st.IntervalMinutes > 0 && a.now().Sub(st.LastRotation) >= time.Duration(st.IntervalMinutes)*time.Minute {
		slog.Info("rotation due", "interval_minutes", st.IntervalMinutes, "last_rotation", st.LastRotation)
		st = a.TriggerRotation(ctx, st)
	}

	if cfg.CurrentImage == "" || cfg.CurrentImage == st.CurrentImage {
		if st.CurrentImage != "" && cfg.ConfirmedImage != st.CurrentImage {
			slog.Debug("remote confirmation lags panel", "confirmed", cfg.ConfirmedImage, "current", st.CurrentImage)
		}
		return st
	}

	slog.Info("new image assigned", "name", cfg.CurrentImage, "current", st.CurrentImage)
	path, err := a.download(ctx, cfg.CurrentImage)
	if err != nil {
		slog.Warn("assigned image unavailable, rotating", "name", cfg.CurrentImage, "error", err)
		return a.TriggerRotation(ctx, st)
	}

	if err := a.display.Display(ctx, path, cfg.CurrentImage, a.rotation); err != nil {
		slog.Error("unable to display assigned image, rotating", "name", cfg.CurrentImage, "error", err)
		return a.TriggerRotation(ctx, st)
	}

	now := a.now()
	st.CurrentImage = cfg.CurrentImage
	st.LastRotation = now
	if a.history != nil {
		if err := a.history.RecordDisplay(cfg.CurrentImage, store.SourceRemote, now); err != nil {
			slog.Warn("unable to record display", "name", cfg.CurrentImage, "error", err)
		}
	}
	return st
}

func (a *Agent) download(ctx context.Context, name string) (string, error) {
	url, err := a.remote.LookupImageURL(ctx, name)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", name, err)
	}
	return a.fetcher.Fetch(ctx, url, name)
}

// TriggerRotation assigns a random registry image other than the current one
// and resets the rotation clock. Failures are logged and leave st unchanged.
func (a *Agent) TriggerRotation(ctx context.Context, st State) State {
	name, err := a.pickNext(ctx, st.CurrentImage)
	if err != nil {
		slog.Warn("unable to pick next image", "error", err)
		return st
	}

	if err := a.remote.AssignImage(ctx, name); err != nil {
		slog.Warn("unable to assign next image", "name", name, "error", err)
		return st
	}

	slog.Info("rotated to next image", "name", name, "previous", st.CurrentImage)
	st.LastRotation = a.now()
	return st
}

func (a *Agent) pickNext(ctx context.Context, current string) (string, error) {
	names, err := a.remote.ListImageNames(ctx)
	if err != nil {
		return "", err
	}

	candidates := mapset.NewSet(names...)
	if candidates.Cardinality() > 1 {
		candidates.Remove(current)
	}
	if candidates.Cardinality() == 0 {
		return "", ErrNoCandidates
	}

	// sorted so the choice depends only on the rng
	pool := candidates.ToSlice()
	slices.Sort(pool)
	return pool[a.rng.IntN(len(pool))], nil
}

// Run polls until ctx is cancelled. The first poll runs immediately.
func (a *Agent) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	st := State{LastRotation: a.now()}
	st = a.safePoll(ctx, st)

	for {
		select {
		case <-ctx.Done():
			slog.Info("agent stopped")
			return
		case <-ticker.C:
			st = a.safePoll(ctx, st)
		}
	}
}

func (a *Agent) safePoll(ctx context.Context, st State) (next State) {
	next = st
	defer func() {
		if r := recover(); r != nil {
			slog.Error("poll panicked", "panic", r)
			next = st
		}
	}()

	pollCtx, cancel := context.WithTimeout(ctx, iterationTimeout)
	defer cancel()
	return a.PollOnce(pollCtx, st)
}
