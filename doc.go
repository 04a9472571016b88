// Package simz provides a deterministic simulation kernel for testing
// distributed-system code without real concurrency non-determinism.
//
// # Overview
//
// simz replaces the three sources of non-determinism that make
// distributed-system tests flaky — time, scheduling, and failure — with
// seeded, virtual equivalents. For a given seed, every run produces the
// same task interleaving, the same virtual timestamps, the same injected
// faults, bit for bit, on every machine running the same build. A bug
// found once is a bug found forever: export the printed seed and replay.
//
// # Core Concepts
//
// The kernel is five cooperating pieces:
//
//   - Rand: a seeded generator (xoshiro256**) behind every random choice
//   - Clock: a virtual instant that advances only when the reactor says so
//   - Reactor: the owner of pending timed wake-ups; each advance fires the
//     nearest one and moves the clock by exactly its registered duration
//   - Executor: a single-threaded cooperative scheduler polling Future
//     values to their next suspension point
//   - Buggifier: a call-site-scoped fault oracle that fires at most once
//     per site, under seeded control
//
// On top of these, SimPlatform exposes the surface user code runs
// against — Open and Now — with seeded latency and buggify-driven fault
// injection. HostPlatform implements the same surface against the real
// clock and filesystem, so swapping simulation in and out requires no
// changes to user code.
//
// # Usage Example
//
// A task that opens a file under simulation:
//
//	reactor := simz.NewReactor()
//	executor := simz.NewExecutor(reactor)
//	platform := simz.NewSimPlatform(42, reactor)
//
//	executor.Spawn(simz.NewTask(simz.Then(
//	    platform.Open("/etc/hosts"),
//	    func(f *simz.File, err error) simz.Future[struct{}] {
//	        if err != nil {
//	            log.Printf("open failed: %v", err)
//	            return simz.Ready(struct{}{})
//	        }
//	        defer f.Close()
//	        log.Printf("opened %s at virtual time %v", f.Path(), platform.Now())
//	        return simz.Ready(struct{}{})
//	    },
//	)))
//	executor.Run()
//
// Run returns when every task has completed. Virtual time has advanced
// by the open's simulated latency; no wall-clock time was spent waiting.
//
// # Fault Injection
//
// Buggify cooperates with the simulator to inject failures. A use
// evaluates to true at most once per call-site per enable state, with
// 5% probability per query:
//
//	simz.EnableBuggify(simz.NewRand(seed))
//	if simz.Buggify() {
//	    return errors.New("injected failure")
//	}
//
// # Determinism Rules
//
// Reproducibility holds as long as the inputs are fixed: the seed, the
// task spawn order, and the sequence of random draws. The reactor
// dispatches stored relative durations — firing the nearest wake-up
// never recomputes the others against absolute deadlines — so relative
// delays compose by addition of chosen minima. Tests assert exact
// virtual timestamps against this model.
//
// # Observability
//
// Every component emits diagnostic events at well-defined points:
// capitan signals on the global bus, typed hookz events per instance,
// metricz counters and gauges, and tracez spans around Run and Open.
// For byte-exact comparison of two runs, attach a Journal: a
// synchronous record of (virtual offset, kind, payload) with a msgpack
// snapshot.
package simz
