// Package refresh runs feed fetch cycles off the event loop and hands
// each cycle's outcome back through a one-slot channel.
package refresh

import (
	"context"
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/newsbox/internal/debuglog"
	"github.com/pders01/newsbox/internal/feed"
	"github.com/pders01/newsbox/internal/inbox"
)

// Outcome is the immutable result of one cycle. Exactly one of Batch and
// Err is set.
type Outcome struct {
	Batch *feed.Batch
	Err   error
	At    time.Time
}

// ReadyMsg wakes the event loop once an outcome is waiting.
type ReadyMsg struct{}

// TickMsg drives the periodic auto-refresh.
type TickMsg struct{}

// Orchestrator guarantees at most one cycle in flight, using the inbox's
// refreshing flag as the guard.
type Orchestrator struct {
	fetcher  Fetcher
	recorder Recorder
	sources  []feed.Source
	interval time.Duration
	outcomes chan Outcome
	now      func() time.Time

	// lastRefresh is only touched on the event loop, through Drain.
	lastRefresh time.Time
}

type Option func(*Orchestrator)

// WithRecorder records the completion time of every successful cycle.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithInterval enables auto-refresh. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.interval = d }
}

// WithLastRefresh seeds LastRefresh with a time recorded by an earlier
// session.
func WithLastRefresh(at time.Time) Option {
	return func(o *Orchestrator) { o.lastRefresh = at }
}

func withClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(fetcher Fetcher, sources []feed.Source, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:  fetcher,
		sources:  slices.Clone(sources),
		outcomes: make(chan Outcome, 1),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start begins a cycle unless one is already running, in which case the
// request is coalesced into it and nil is returned.
func (o *Orchestrator) Start(st *inbox.State) tea.Cmd {
	if st.Refreshing() {
		debuglog.Debug("refresh already in flight")
		return nil
	}
	st.SetRefreshing(true)
	st.SetStatus(inbox.StatusRefreshing)

	sources := slices.Clone(o.sources)
	return func() tea.Msg {
		o.outcomes <- o.run(sources)
		return ReadyMsg{}
	}
}

// run always completes. Cycles are not cancelled on navigation or quit.
func (o *Orchestrator) run(sources []feed.Source) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			debuglog.Error("refresh cycle panicked", "panic", r)
			out = Outcome{Err: fmt.Errorf("refresh panicked: %v", r), At: o.now()}
		}
	}()

	started := o.now()
	batch, err := o.fetcher.FetchAll(context.Background(), sources)
	out = Outcome{At: o.now()}
	if err != nil {
		out.Err = err
		debuglog.Warn("refresh failed", "error", err, "took", out.At.Sub(started))
		return out
	}
	if batch == nil {
		batch = &feed.Batch{}
	}
	out.Batch = batch
	debuglog.Info("refresh finished",
		"items", len(batch.Items),
		"failed", batch.Failed(),
		"took", out.At.Sub(started))
	return out
}

// Drain applies a pending outcome to st without blocking. It reports
// whether one was applied.
func (o *Orchestrator) Drain(st *inbox.State) bool {
	select {
	case out := <-o.outcomes:
		o.apply(st, out)
		return true
	default:
		return false
	}
}

func (o *Orchestrator) apply(st *inbox.State, out Outcome) {
	st.SetRefreshing(false)

	if out.Err != nil {
		// Stale items are kept on screen.
		st.SetStatus("Refresh failed: " + out.Err.Error())
		return
	}

	st.SetItems(out.Batch.Items)
	o.lastRefresh = out.At
	if n := out.Batch.Failed(); n > 0 {
		st.SetStatus(fmt.Sprintf("%s • %d feeds failed", st.Status(), n))
	}

	if o.recorder != nil {
		if err := o.recorder.MarkRefreshed(out.At); err != nil {
			debuglog.Warn("recording refresh time", "error", err)
		}
	}
}

// LastRefresh reports when the last successful cycle finished. It is zero
// until one has.
func (o *Orchestrator) LastRefresh() time.Time {
	return o.lastRefresh
}

// Tick schedules the next auto-refresh, or returns nil when disabled.
func (o *Orchestrator) Tick() tea.Cmd {
	if o.interval <= 0 {
		return nil
	}
	return tea.Tick(o.interval, func(time.Time) tea.Msg { return TickMsg{} })
}

// Sources returns a copy of the feed list cycles run against.
func (o *Orchestrator) Sources() []feed.Source {
	return slices.Clone(o.sources)
}
