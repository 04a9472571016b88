package simz

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
)

// Observability constants for the Reactor.
const (
	// Metrics.
	ReactorAdvancesTotal   = metricz.Key("reactor.advances.total")
	ReactorWaitsTotal      = metricz.Key("reactor.waits.total")
	ReactorPendingCurrent  = metricz.Key("reactor.pending.current")
	ReactorAdvancedMSTotal = metricz.Key("reactor.advanced.total.ms")

	// Hook event keys.
	ReactorEventAdvance = hookz.Key("reactor.advance")
)

// AdvanceEvent describes one reactor advance: the chosen minimum
// duration and the virtual instant the clock reached by applying it.
type AdvanceEvent struct {
	Duration time.Duration // The fired entry's registered duration
	Now      time.Time     // Virtual time after the advance
	Pending  int           // Entries still waiting after the advance
}

// reactorEntry is one pending wake-up. The duration is stored exactly
// as registered — it is never recomputed against the current virtual
// time. See AdvanceSimulation for the consequence.
type reactorEntry struct {
	duration time.Duration
	waker    Waker
}

// Reactor owns every pending timed wake-up of a simulation and is the
// only component that advances the virtual clock. When the executor
// has no ready task, it asks the reactor to pick the nearest wake-up,
// advance virtual time by exactly that entry's registered duration,
// and fire its waker.
//
// There is exactly one Reactor per simulation; it is shared by pointer
// between the executor, timers, and the platform. All mutation happens
// under an internal mutex, which in the single-threaded model is
// uncontended.
type Reactor struct {
	clock   *Clock
	mu      sync.Mutex
	waits   []reactorEntry
	journal *Journal
	metrics *metricz.Registry
	hooks   *hookz.Hooks[AdvanceEvent]
}

// NewReactor creates a Reactor driving a fresh virtual clock based at
// the current wall instant.
func NewReactor() *Reactor {
	return NewReactorWithClock(NewClock())
}

// NewReactorWithClock creates a Reactor driving the given clock.
func NewReactorWithClock(clock *Clock) *Reactor {
	metrics := metricz.New()
	metrics.Counter(ReactorAdvancesTotal)
	metrics.Counter(ReactorWaitsTotal)
	metrics.Counter(ReactorAdvancedMSTotal)
	metrics.Gauge(ReactorPendingCurrent)

	return &Reactor{
		clock:   clock,
		metrics: metrics,
		hooks:   hookz.New[AdvanceEvent](),
	}
}

// Clock returns the virtual clock this reactor advances. Shared
// read-only observers hold this.
func (r *Reactor) Clock() *Clock {
	return r.clock
}

// RegisterWait records a wake-up to fire after duration of virtual
// time. Durations are relative to the moment of registration.
func (r *Reactor) RegisterWait(duration time.Duration, waker Waker) {
	r.mu.Lock()
	r.waits = append(r.waits, reactorEntry{duration: duration, waker: waker})
	pending := len(r.waits)
	r.mu.Unlock()

	r.metrics.Counter(ReactorWaitsTotal).Inc()
	r.metrics.Gauge(ReactorPendingCurrent).Set(float64(pending))
}

// AdvanceSimulation picks the entry with the smallest registered
// duration (ties dispatched in insertion order), advances the virtual
// clock by exactly that duration, fires the entry's waker, and returns
// the duration. It returns ok == false when no wake-ups are pending.
//
// Remaining entries keep their registered durations: firing an 800ms
// entry does not shrink a pending 1200ms entry to 400ms. Relative
// delays therefore compose by addition of the chosen minima — a coarse
// but fully deterministic model of time, and the one the seeded test
// anchors depend on.
func (r *Reactor) AdvanceSimulation() (time.Duration, bool) {
	r.mu.Lock()
	if len(r.waits) == 0 {
		r.mu.Unlock()
		return 0, false
	}
	sort.SliceStable(r.waits, func(i, j int) bool {
		return r.waits[i].duration < r.waits[j].duration
	})
	next := r.waits[0]
	r.waits = append(r.waits[:0], r.waits[1:]...)
	pending := len(r.waits)
	r.mu.Unlock()

	r.clock.Advance(next.duration)
	now := r.clock.Now()

	r.metrics.Counter(ReactorAdvancesTotal).Inc()
	r.metrics.Counter(ReactorAdvancedMSTotal).Add(float64(next.duration.Milliseconds()))
	r.metrics.Gauge(ReactorPendingCurrent).Set(float64(pending))

	r.journal.Record("reactor.advanced", next.duration.String())

	capitan.Emit(context.Background(), SignalReactorAdvanced,
		FieldAdvanceMS.Field(float64(next.duration.Milliseconds())),
		FieldPending.Field(pending),
		FieldVirtualMS.Field(float64(r.clock.Elapsed().Milliseconds())),
	)

	_ = r.hooks.Emit(context.Background(), ReactorEventAdvance, AdvanceEvent{ //nolint:errcheck
		Duration: next.duration,
		Now:      now,
		Pending:  pending,
	})

	next.waker.Wake()
	return next.duration, true
}

// Pending returns the number of registered wake-ups.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waits)
}

// WithJournal attaches a synchronous event journal.
func (r *Reactor) WithJournal(j *Journal) *Reactor {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = j
	return r
}

// OnAdvance registers a handler called asynchronously after each
// simulation advance.
func (r *Reactor) OnAdvance(handler func(context.Context, AdvanceEvent) error) error {
	_, err := r.hooks.Hook(ReactorEventAdvance, handler)
	return err
}

// Metrics returns the metrics registry for this reactor.
func (r *Reactor) Metrics() *metricz.Registry {
	return r.metrics
}

// Close gracefully shuts down observability components.
func (r *Reactor) Close() error {
	r.hooks.Close()
	return nil
}
