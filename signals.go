package simz

import "github.com/zoobzio/capitan"

// Signal values for simz diagnostic events.
// Signals follow the pattern: <component>.<event>.
var (
	// Buggifier signals.
	SignalBuggifyEnabled  = capitan.NewSignal("buggify.enabled", "Buggifier enabled")
	SignalBuggifyDisabled = capitan.NewSignal("buggify.disabled", "Buggifier disabled")
	SignalBuggifyFired    = capitan.NewSignal("buggify.fired", "Buggify fault fired")

	// Reactor signals.
	SignalReactorAdvanced = capitan.NewSignal("reactor.advanced", "Reactor advanced virtual clock")

	// Executor signals.
	SignalTaskSpawned   = capitan.NewSignal("executor.task-spawned", "Task spawned")
	SignalTaskCompleted = capitan.NewSignal("executor.task-completed", "Task completed")
	SignalDeadlock      = capitan.NewSignal("executor.deadlock", "Executor detected deadlock")

	// Platform signals.
	SignalPlatformOpened = capitan.NewSignal("platform.opened", "Platform file opened")
	SignalFaultInjected  = capitan.NewSignal("platform.fault-injected", "Platform fault injected")
)

// Common field keys using capitan primitive types.
// All keys use primitive types to avoid custom struct serialization.
var (
	// Common fields.
	FieldError     = capitan.NewStringKey("error")       // Error message
	FieldVirtualMS = capitan.NewFloat64Key("virtual_ms") // Virtual clock offset in milliseconds

	// Buggifier fields.
	FieldSite        = capitan.NewStringKey("site")         // Call-site "file:line"
	FieldProbability = capitan.NewFloat64Key("probability") // Query probability

	// Reactor fields.
	FieldAdvanceMS = capitan.NewFloat64Key("advance_ms") // Chosen advance in milliseconds
	FieldPending   = capitan.NewIntKey("pending")        // Entries remaining after the advance

	// Executor fields.
	FieldTaskID = capitan.NewIntKey("task_id") // Task identity

	// Platform fields.
	FieldPath      = capitan.NewStringKey("path")        // File path
	FieldFaultKind = capitan.NewStringKey("fault_kind")  // Injected fault kind
	FieldLatencyMS = capitan.NewFloat64Key("latency_ms") // Simulated open latency in milliseconds
)
