package simz

// A Waker is a handle that marks a specific task ready for re-polling.
// Invoking it enqueues the owning task on its executor's ready queue.
// That is the entire contract: futures hold a Waker while suspended
// and invoke it when the event they wait for has happened.
type Waker interface {
	Wake()
}

// The WakerFunc type is an adapter to allow the use of ordinary
// functions as a Waker.
type WakerFunc func()

// Wake calls f().
func (f WakerFunc) Wake() { f() }

type nopWaker struct{}

func (nopWaker) Wake() {}

// NopWaker is a Waker that does nothing. Useful as an initial value
// and for polling futures outside an executor.
var NopWaker Waker = nopWaker{}
