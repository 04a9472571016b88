package simz

import "sync/atomic"

// TaskID identifies a task. IDs are handed out by NewTask from a
// process-wide monotonically increasing counter, so task-creation
// order and ID order agree.
type TaskID uint64

var nextTaskID atomic.Uint64

// A Task pairs a unit future with its identity. The executor owns a
// task from Spawn until the future completes, then drops it along with
// its cached waker.
type Task struct {
	id     TaskID
	future Future[struct{}]
}

// NewTask wraps a unit future as a spawnable task with a fresh ID.
func NewTask(future Future[struct{}]) *Task {
	return &Task{id: TaskID(nextTaskID.Add(1)), future: future}
}

// ID returns the task's identity.
func (t *Task) ID() TaskID { return t.id }
