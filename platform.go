package simz

import (
	"context"
	"os"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Simulated open latency bounds, uniform over [OpenLatencyMin,
// OpenLatencyMax).
const (
	OpenLatencyMin = 300 * time.Millisecond
	OpenLatencyMax = 2000 * time.Millisecond
)

// Observability constants for platforms.
const (
	// Metrics.
	PlatformOpensTotal    = metricz.Key("platform.opens.total")
	PlatformFaultsTotal   = metricz.Key("platform.faults.total")
	PlatformErrorsTotal   = metricz.Key("platform.errors.total")
	PlatformOpenLatencyMS = metricz.Key("platform.open.latency.ms")

	// Spans.
	PlatformOpenSpan = tracez.Key("platform.open")

	// Tags.
	PlatformTagPath      = tracez.Tag("platform.path")
	PlatformTagLatency   = tracez.Tag("platform.latency")
	PlatformTagFaultKind = tracez.Tag("platform.fault_kind")
	PlatformTagBuggified = tracez.Tag("platform.buggified")

	// Hook event keys.
	PlatformEventOpen  = hookz.Key("platform.open")
	PlatformEventFault = hookz.Key("platform.fault")
)

// IOEvent describes one platform open, successful or not.
type IOEvent struct {
	Path      string        // Path passed to Open
	Latency   time.Duration // Simulated latency (zero for injected faults)
	FaultKind FaultKind     // Set when the buggifier injected the failure
	Err       error         // Outcome error, nil on success
	Buggified bool          // True when the failure was injected
}

// Platform is the surface distributed-system code runs against: a
// clock and a filesystem. Production and simulation implement the same
// two operations, so swapping one for the other requires no changes to
// user code.
type Platform interface {
	// Open resolves to an open file or an error. The returned future
	// suspends for simulated latency on the simulated platform and is
	// immediate on the host platform.
	Open(path string) Future[*File]

	// Now returns the platform's current time: virtual in simulation,
	// monotonic wall time in production.
	Now() time.Time
}

// SimPlatform is the simulated platform. Every operation is
// deterministic in the simulation seed: whether an open faults, which
// fault it gets, and how long a successful open takes are all draws
// from seeded streams, and waiting happens on the virtual clock.
//
// The platform owns a seeded RNG for latency and fault-kind draws and
// a buggifier whose RNG is seeded with the same seed — two independent
// streams, one seed, exactly one reproducible behavior per seed.
type SimPlatform struct {
	clock     *Clock
	random    *Rand
	reactor   *Reactor
	buggifier *Buggifier
	journal   *Journal
	metrics   *metricz.Registry
	tracer    *tracez.Tracer
	hooks     *hookz.Hooks[IOEvent]
}

var _ Platform = (*SimPlatform)(nil)

// NewSimPlatform creates a simulated platform on the given reactor,
// with buggify enabled.
func NewSimPlatform(seed uint64, reactor *Reactor) *SimPlatform {
	metrics := metricz.New()
	metrics.Counter(PlatformOpensTotal)
	metrics.Counter(PlatformFaultsTotal)
	metrics.Counter(PlatformErrorsTotal)
	metrics.Gauge(PlatformOpenLatencyMS)

	return &SimPlatform{
		clock:     reactor.Clock(),
		random:    NewRand(seed),
		reactor:   reactor,
		buggifier: NewEnabledBuggifier(NewRand(seed)),
		metrics:   metrics,
		tracer:    tracez.New(),
		hooks:     hookz.New[IOEvent](),
	}
}

// Now returns the virtual time.
func (p *SimPlatform) Now() time.Time {
	return p.clock.Now()
}

// Open opens path under simulation.
//
// The fault decision happens here, at call time: the buggifier is
// queried at this call-site with the default probability, and a firing
// produces an injected failure with no simulated latency — u < 0.1
// unexpected EOF, u < 0.2 permission denied, otherwise os error 2.
// A non-firing call opens the host file, draws a latency uniform in
// [300ms, 2000ms), and resolves with the host result only after a
// timer for that latency has expired on the virtual clock.
func (p *SimPlatform) Open(path string) Future[*File] {
	_, span := p.tracer.StartSpan(context.Background(), PlatformOpenSpan)
	span.SetTag(PlatformTagPath, path)

	p.metrics.Counter(PlatformOpensTotal).Inc()

	if p.buggifier.BuggifyWithProbability(DefaultBuggifyProbability) {
		u := p.random.Float64()
		var kind FaultKind
		switch {
		case u < 0.1:
			kind = FaultUnexpectedEOF
		case u < 0.2:
			kind = FaultPermissionDenied
		default:
			kind = FaultNotFound
		}
		err := &Error{
			At:        p.clock.Elapsed(),
			Op:        "open",
			Path:      path,
			Err:       kind.cause(),
			Buggified: true,
		}

		span.SetTag(PlatformTagBuggified, "true")
		span.SetTag(PlatformTagFaultKind, string(kind))
		span.Finish()

		p.metrics.Counter(PlatformFaultsTotal).Inc()
		p.metrics.Counter(PlatformErrorsTotal).Inc()

		p.journal.Record("platform.fault", path+": "+string(kind))

		capitan.Error(context.Background(), SignalFaultInjected,
			FieldPath.Field(path),
			FieldFaultKind.Field(string(kind)),
			FieldVirtualMS.Field(float64(p.clock.Elapsed().Milliseconds())),
		)

		_ = p.hooks.Emit(context.Background(), PlatformEventFault, IOEvent{ //nolint:errcheck
			Path:      path,
			FaultKind: kind,
			Err:       err,
			Buggified: true,
		})

		return ReadyError[*File](err)
	}

	// Still a host-filesystem call; only timing and failures are
	// simulated.
	f, hostErr := os.Open(path)

	latency := p.random.DurationBetween(OpenLatencyMin, OpenLatencyMax)
	span.SetTag(PlatformTagLatency, latency.String())

	timer := Wait(p.reactor, latency)
	return Then[struct{}, *File](timer, func(_ struct{}, _ error) Future[*File] {
		defer span.Finish()

		p.metrics.Gauge(PlatformOpenLatencyMS).Set(float64(latency.Milliseconds()))

		if hostErr != nil {
			err := &Error{
				At:   p.clock.Elapsed(),
				Op:   "open",
				Path: path,
				Err:  hostErr,
			}

			p.metrics.Counter(PlatformErrorsTotal).Inc()
			p.journal.Record("platform.error", path+": "+hostErr.Error())

			_ = p.hooks.Emit(context.Background(), PlatformEventOpen, IOEvent{ //nolint:errcheck
				Path:    path,
				Latency: latency,
				Err:     err,
			})

			return ReadyError[*File](err)
		}

		p.journal.Record("platform.opened", path)

		capitan.Info(context.Background(), SignalPlatformOpened,
			FieldPath.Field(path),
			FieldLatencyMS.Field(float64(latency.Milliseconds())),
			FieldVirtualMS.Field(float64(p.clock.Elapsed().Milliseconds())),
		)

		_ = p.hooks.Emit(context.Background(), PlatformEventOpen, IOEvent{ //nolint:errcheck
			Path:    path,
			Latency: latency,
		})

		return Ready(newFile(f, path))
	})
}

// Buggifier returns the platform's fault oracle, so callers can
// disable it or hook its firings.
func (p *SimPlatform) Buggifier() *Buggifier {
	return p.buggifier
}

// WithJournal attaches a synchronous event journal.
func (p *SimPlatform) WithJournal(j *Journal) *SimPlatform {
	p.journal = j
	return p
}

// OnOpen registers a handler called asynchronously after each resolved
// open (success or host error).
func (p *SimPlatform) OnOpen(handler func(context.Context, IOEvent) error) error {
	_, err := p.hooks.Hook(PlatformEventOpen, handler)
	return err
}

// OnFault registers a handler called asynchronously for each injected
// fault.
func (p *SimPlatform) OnFault(handler func(context.Context, IOEvent) error) error {
	_, err := p.hooks.Hook(PlatformEventFault, handler)
	return err
}

// Metrics returns the metrics registry for this platform.
func (p *SimPlatform) Metrics() *metricz.Registry {
	return p.metrics
}

// Tracer returns the tracer for this platform.
func (p *SimPlatform) Tracer() *tracez.Tracer {
	return p.tracer
}

// Close gracefully shuts down observability components.
func (p *SimPlatform) Close() error {
	if p.tracer != nil {
		p.tracer.Close()
	}
	p.hooks.Close()
	return nil
}

// HostPlatform is the production platform: real clock, real
// filesystem, no injected faults, no simulated latency. It exists so
// code written against Platform runs unchanged outside simulation.
type HostPlatform struct {
	clock clockz.Clock
}

var _ Platform = (*HostPlatform)(nil)

// NewHostPlatform creates a platform backed by the real clock and
// filesystem.
func NewHostPlatform() *HostPlatform {
	return &HostPlatform{clock: clockz.RealClock}
}

// WithClock sets a custom clock for testing.
func (p *HostPlatform) WithClock(clock clockz.Clock) *HostPlatform {
	p.clock = clock
	return p
}

// Now returns the wall time.
func (p *HostPlatform) Now() time.Time {
	return p.clock.Now()
}

// Open opens path on the host filesystem, resolving immediately.
func (p *HostPlatform) Open(path string) Future[*File] {
	f, err := os.Open(path)
	if err != nil {
		return ReadyError[*File](&Error{Op: "open", Path: path, Err: err})
	}
	return Ready(newFile(f, path))
}
