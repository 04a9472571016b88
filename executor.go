package simz

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Executor.
const (
	// Metrics.
	ExecutorPollsTotal     = metricz.Key("executor.polls.total")
	ExecutorSpawnsTotal    = metricz.Key("executor.spawns.total")
	ExecutorCompletedTotal = metricz.Key("executor.completed.total")
	ExecutorTasksCurrent   = metricz.Key("executor.tasks.current")

	// Spans.
	ExecutorRunSpan = tracez.Key("executor.run")

	// Tags.
	ExecutorTagTasks    = tracez.Tag("executor.tasks")
	ExecutorTagAdvances = tracez.Tag("executor.advances")
)

// Executor is a deterministic, single-threaded cooperative scheduler.
// It polls every spawned task to its next suspension point and, when
// no task is ready but tasks remain, asks the reactor to advance
// virtual time until a wake-up makes one ready again.
//
// Determinism comes from three ordering rules: the ready queue is
// drained FIFO, the reactor fires the stable-sorted minimum duration,
// and task IDs are handed out in task-creation order. For a fixed seed and a
// fixed spawn sequence every run interleaves identically.
//
// Executor is not safe for concurrent use; the whole point is that
// there is no concurrency.
type Executor struct {
	reactor *Reactor
	tasks   map[TaskID]*Task
	ready   *readyRing
	wakers  map[TaskID]Waker
	metrics *metricz.Registry
	tracer  *tracez.Tracer
}

// NewExecutor creates an executor driving the given reactor, with the
// default ready-queue capacity.
func NewExecutor(reactor *Reactor) *Executor {
	return NewExecutorWithCapacity(reactor, DefaultQueueCapacity)
}

// NewExecutorWithCapacity creates an executor with an explicit
// ready-queue capacity. Queue overflow is fatal, so the capacity
// bounds how many wakes may be outstanding at once.
func NewExecutorWithCapacity(reactor *Reactor, capacity int) *Executor {
	if capacity < 1 {
		capacity = 1
	}

	metrics := metricz.New()
	metrics.Counter(ExecutorPollsTotal)
	metrics.Counter(ExecutorSpawnsTotal)
	metrics.Counter(ExecutorCompletedTotal)
	metrics.Gauge(ExecutorTasksCurrent)

	return &Executor{
		reactor: reactor,
		tasks:   make(map[TaskID]*Task),
		ready:   newReadyRing(capacity),
		wakers:  make(map[TaskID]Waker),
		metrics: metrics,
		tracer:  tracez.New(),
	}
}

// Spawn registers a task and queues it for its first poll. Spawning a
// task whose ID is already registered, or spawning when the ready
// queue is full, is a programming error and panics.
func (e *Executor) Spawn(task *Task) {
	if _, exists := e.tasks[task.id]; exists {
		panic(fmt.Sprintf("simz: task %d already spawned", task.id))
	}
	e.tasks[task.id] = task
	if !e.ready.push(task.id) {
		panic("simz: executor ready queue full")
	}

	e.metrics.Counter(ExecutorSpawnsTotal).Inc()
	e.metrics.Gauge(ExecutorTasksCurrent).Set(float64(len(e.tasks)))

	capitan.Info(context.Background(), SignalTaskSpawned,
		FieldTaskID.Field(int(task.id)),
	)
}

// Run drives the simulation until the executor is quiescent: no
// registered tasks, no cached wakers, nothing queued. If tasks remain
// but neither the ready queue nor the reactor can make progress, the
// simulation can never finish; Run panics with a deadlock diagnosis.
func (e *Executor) Run() {
	ctx, span := e.tracer.StartSpan(context.Background(), ExecutorRunSpan)
	span.SetTag(ExecutorTagTasks, fmt.Sprintf("%d", len(e.tasks)))
	defer span.Finish()

	advances := 0
	for {
		e.runReadyTasks()

		if len(e.tasks) == 0 && e.ready.empty() && len(e.wakers) == 0 {
			span.SetTag(ExecutorTagAdvances, fmt.Sprintf("%d", advances))
			return
		}

		if e.ready.empty() {
			// Nothing is ready: let the reactor advance virtual time
			// to the nearest wake-up.
			if _, ok := e.reactor.AdvanceSimulation(); !ok {
				capitan.Error(ctx, SignalDeadlock,
					FieldPending.Field(len(e.tasks)),
				)
				panic(fmt.Sprintf(
					"simz: simulation deadlock: %d tasks pending but no wake-ups registered",
					len(e.tasks)))
			}
			advances++
		}
	}
}

// runReadyTasks drains the ready queue in FIFO order, polling each
// task once per queued wake.
func (e *Executor) runReadyTasks() {
	for {
		id, ok := e.ready.pop()
		if !ok {
			return
		}
		task, ok := e.tasks[id]
		if !ok {
			// Stale wake for a task that already completed.
			continue
		}

		waker, ok := e.wakers[id]
		if !ok {
			waker = e.newTaskWaker(id)
			e.wakers[id] = waker
		}

		e.metrics.Counter(ExecutorPollsTotal).Inc()

		_, err, done := task.future.Poll(waker)
		if !done {
			// The future registered its own wake-up before suspending.
			continue
		}

		delete(e.tasks, id)
		delete(e.wakers, id)

		e.metrics.Counter(ExecutorCompletedTotal).Inc()
		e.metrics.Gauge(ExecutorTasksCurrent).Set(float64(len(e.tasks)))

		if err != nil {
			capitan.Warn(context.Background(), SignalTaskCompleted,
				FieldTaskID.Field(int(id)),
				FieldError.Field(err.Error()),
			)
		} else {
			capitan.Info(context.Background(), SignalTaskCompleted,
				FieldTaskID.Field(int(id)),
			)
		}
	}
}

// newTaskWaker builds the waker cached for a task: waking enqueues the
// task ID on the ready queue. A wake that finds the queue full is
// fatal, matching Spawn.
func (e *Executor) newTaskWaker(id TaskID) Waker {
	return WakerFunc(func() {
		if !e.ready.push(id) {
			panic("simz: executor ready queue full")
		}
	})
}

// Reactor returns the reactor this executor advances when stalled.
func (e *Executor) Reactor() *Reactor {
	return e.reactor
}

// Metrics returns the metrics registry for this executor.
func (e *Executor) Metrics() *metricz.Registry {
	return e.metrics
}

// Tracer returns the tracer for this executor.
func (e *Executor) Tracer() *tracez.Tracer {
	return e.tracer
}

// Close gracefully shuts down observability components.
func (e *Executor) Close() error {
	if e.tracer != nil {
		e.tracer.Close()
	}
	return nil
}
