package view

import (
	"context"
	"log/slog"
)

// Producer computes a complete dataset. It runs on a background goroutine,
// must honor ctx cancellation, and must not retain or mutate the returned
// slice after yielding it.
type Producer func(ctx context.Context) ([]Entry, error)

// Coordinator owns the background refresh task. It enforces single-flight:
// at most one producer runs at a time, a newer refresh request supersedes
// the running one, and a superseded result is discarded rather than
// installed. Successful results are handed to the store as one atomic
// Replace before the data-changed notification fires.
type Coordinator struct {
	store   *Store
	produce Producer

	onData  func(count int, version uint64)
	onError func(err error)

	gen    uint64 // bumped per launch; the run matching gen owns the result
	cancel context.CancelFunc
	done   chan struct{} // closed when the current run reaches a terminal state
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithOnData sets the data-changed notification, invoked after a refresh
// has been installed into the store.
func WithOnData(fn func(count int, version uint64)) Option {
	return func(c *Coordinator) { c.onData = fn }
}

// WithOnError sets the refresh-failed notification. The previous dataset is
// retained when it fires.
func WithOnError(fn func(err error)) Option {
	return func(c *Coordinator) { c.onError = fn }
}

// NewCoordinator builds a coordinator over store that refreshes it with
// produce. Refresh and Close must be called from the same goroutine; the
// producer itself runs in the background.
func NewCoordinator(store *Store, produce Producer, opts ...Option) *Coordinator {
	c := &Coordinator{store: store, produce: produce}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh launches a new producer run. If a run is still in flight it is
// cancelled and awaited first, so two producers are never live at once and
// the newest request always ends up running. The wait is bounded by the
// producer's time to observe cancellation; the producer never calls back
// into the coordinator, so there is no deadlock path.
func (c *Coordinator) Refresh() {
	c.awaitCurrent()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.gen++
	c.cancel = cancel
	c.done = done

	slog.Debug("refresh launched", "generation", c.gen)
	go c.run(ctx, c.gen, done)
}

// Wait blocks until the in-flight run, if any, reaches a terminal state,
// without cancelling it.
func (c *Coordinator) Wait() {
	if c.done != nil {
		<-c.done
	}
}

// Close cancels and awaits any in-flight run; a result arriving after the
// cancellation is discarded. The store keeps whatever dataset it last
// installed.
func (c *Coordinator) Close() {
	c.awaitCurrent()
}

// Running reports whether a producer run is currently live.
func (c *Coordinator) Running() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// awaitCurrent cancels the in-flight run, if any, and blocks until it has
// reached a terminal state.
func (c *Coordinator) awaitCurrent() {
	if c.done == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
}

func (c *Coordinator) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	entries, err := c.produce(ctx)

	// A superseded run terminates here: its result, success or failure,
	// is discarded without touching the store. Refresh awaits `done`
	// before bumping gen, so the check is ordered with the next launch.
	if ctx.Err() != nil || gen != c.gen {
		slog.Debug("refresh superseded", "generation", gen)
		return
	}
	if err != nil {
		slog.Warn("refresh failed", "generation", gen, "error", err)
		if c.onError != nil {
			c.onError(err)
		}
		return
	}

	c.store.Replace(entries)
	count, version := len(entries), c.store.Version()
	slog.Debug("refresh installed", "generation", gen, "entries", count, "version", version)
	if c.onData != nil {
		c.onData(count, version)
	}
}
