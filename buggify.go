package simz

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
)

// DefaultBuggifyProbability is the firing probability used by Buggify.
// FoundationDB-style simulations conventionally run fault points at 5%.
const DefaultBuggifyProbability = 0.05

// Observability constants for the Buggifier.
const (
	// Metrics.
	BuggifyQueriesTotal = metricz.Key("buggify.queries.total")
	BuggifyFiresTotal   = metricz.Key("buggify.fires.total")
	BuggifySitesCurrent = metricz.Key("buggify.sites.current")

	// Hook event keys.
	BuggifyEventFired = hookz.Key("buggify.fired")
)

// BuggifyEvent describes one buggify firing.
type BuggifyEvent struct {
	Site        string  // Call-site "file:line" that fired
	Probability float64 // Probability the query ran with
}

// Buggifier is an at-most-once-per-call-site fault oracle. Each query
// names a lexical call-site; while enabled, a query at a site that has
// not fired yet draws from the seeded RNG and, on success, marks the
// site so it never fires again for the lifetime of this enable state.
//
// The RNG is consumed on every query at a not-yet-fired site whether
// or not the draw succeeds — the draw stream is observable through
// later behavior, so skipping draws would change every downstream
// random choice.
//
// Disable clears the fired set; re-enabling without an intervening
// Disable preserves it. (Some ancestors of this design never cleared,
// which forces a process restart to isolate test suites.)
type Buggifier struct {
	mu      sync.Mutex
	random  *Rand
	fired   map[string]bool
	journal *Journal
	metrics *metricz.Registry
	hooks   *hookz.Hooks[BuggifyEvent]
}

// NewBuggifier creates a disabled buggifier.
func NewBuggifier() *Buggifier {
	metrics := metricz.New()
	metrics.Counter(BuggifyQueriesTotal)
	metrics.Counter(BuggifyFiresTotal)
	metrics.Gauge(BuggifySitesCurrent)

	return &Buggifier{
		fired:   make(map[string]bool),
		metrics: metrics,
		hooks:   hookz.New[BuggifyEvent](),
	}
}

// NewEnabledBuggifier creates a buggifier already enabled with r.
func NewEnabledBuggifier(r *Rand) *Buggifier {
	b := NewBuggifier()
	b.Enable(r)
	return b
}

// Enable turns the oracle on with the given random source. Sites that
// fired under a previous enable state remain fired.
func (b *Buggifier) Enable(r *Rand) {
	b.mu.Lock()
	b.random = r
	b.mu.Unlock()

	capitan.Info(context.Background(), SignalBuggifyEnabled)
}

// Disable turns the oracle off and clears the fired set.
func (b *Buggifier) Disable() {
	b.mu.Lock()
	b.random = nil
	b.fired = make(map[string]bool)
	b.mu.Unlock()

	b.metrics.Gauge(BuggifySitesCurrent).Set(0)
	capitan.Info(context.Background(), SignalBuggifyDisabled)
}

// IsEnabled reports whether queries can fire.
func (b *Buggifier) IsEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.random != nil
}

// Buggify queries the oracle at the caller's source location with the
// default probability.
func (b *Buggifier) Buggify() bool {
	return b.query(callSite(1), DefaultBuggifyProbability)
}

// BuggifyWithProbability queries the oracle at the caller's source
// location with probability p.
func (b *Buggifier) BuggifyWithProbability(p float64) bool {
	return b.query(callSite(1), p)
}

func (b *Buggifier) query(site string, p float64) bool {
	b.mu.Lock()
	if b.random == nil {
		b.mu.Unlock()
		return false
	}

	b.metrics.Counter(BuggifyQueriesTotal).Inc()

	if b.fired[site] {
		b.mu.Unlock()
		return false
	}
	hit := b.random.Bool(p)
	if !hit {
		b.mu.Unlock()
		return false
	}
	b.fired[site] = true
	sites := len(b.fired)
	b.mu.Unlock()

	b.metrics.Counter(BuggifyFiresTotal).Inc()
	b.metrics.Gauge(BuggifySitesCurrent).Set(float64(sites))

	b.journal.Record("buggify.fired", site)

	capitan.Warn(context.Background(), SignalBuggifyFired,
		FieldSite.Field(site),
		FieldProbability.Field(p),
	)

	_ = b.hooks.Emit(context.Background(), BuggifyEventFired, BuggifyEvent{ //nolint:errcheck
		Site:        site,
		Probability: p,
	})

	return true
}

// WithJournal attaches a synchronous event journal.
func (b *Buggifier) WithJournal(j *Journal) *Buggifier {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.journal = j
	return b
}

// OnFire registers a handler called asynchronously for each firing.
func (b *Buggifier) OnFire(handler func(context.Context, BuggifyEvent) error) error {
	_, err := b.hooks.Hook(BuggifyEventFired, handler)
	return err
}

// Metrics returns the metrics registry for this buggifier.
func (b *Buggifier) Metrics() *metricz.Registry {
	return b.metrics
}

// Close gracefully shuts down observability components.
func (b *Buggifier) Close() error {
	b.hooks.Close()
	return nil
}

// firedSites returns a copy of the fired set. Test introspection.
func (b *Buggifier) firedSites() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]bool, len(b.fired))
	for k, v := range b.fired {
		out[k] = v
	}
	return out
}

// callSite renders the caller's lexical location as "file:line". The
// skip count is relative to callSite's caller, so public entry points
// pass 1 to record the location of the code that invoked them, not
// their own.
func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// The process-wide buggifier, for code that prefers a global fault
// oracle over threading an instance through call chains. Constructed
// on first use; Disable is the only way to clear its fired set.
var defaultBuggifier = sync.OnceValue(NewBuggifier)

// EnableBuggify enables the process-wide buggifier with r.
func EnableBuggify(r *Rand) {
	defaultBuggifier().Enable(r)
}

// DisableBuggify disables the process-wide buggifier and clears its
// fired set. Test suites needing isolation call this at setup.
func DisableBuggify() {
	defaultBuggifier().Disable()
}

// IsBuggifyEnabled reports whether the process-wide buggifier is on.
func IsBuggifyEnabled() bool {
	return defaultBuggifier().IsEnabled()
}

// Buggify queries the process-wide buggifier at the caller's source
// location with the default probability.
func Buggify() bool {
	return defaultBuggifier().query(callSite(1), DefaultBuggifyProbability)
}

// BuggifyWithProbability queries the process-wide buggifier at the
// caller's source location with probability p.
func BuggifyWithProbability(p float64) bool {
	return defaultBuggifier().query(callSite(1), p)
}
