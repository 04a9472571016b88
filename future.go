package simz

// A Future is a suspendable computation producing a value of type T.
//
// Futures are inert: they make progress only when polled. Poll either
// completes — returning the value and error with done == true — or
// suspends by returning done == false, in which case the future is
// responsible for having arranged a wake-up (typically by handing the
// Waker to the reactor) before it suspended. A completed future must
// not be polled again.
//
// Poll must never block: a future that cannot finish registers for a
// wake-up and returns. This is what keeps the executor cooperative and
// the whole simulation single-threaded.
type Future[T any] interface {
	Poll(w Waker) (value T, err error, done bool)
}

// The FutureFunc type is an adapter to allow the use of ordinary
// functions as a Future.
type FutureFunc[T any] func(w Waker) (T, error, bool)

// Poll calls f(w).
func (f FutureFunc[T]) Poll(w Waker) (T, error, bool) { return f(w) }

type resolved[T any] struct {
	value T
	err   error
}

func (r resolved[T]) Poll(Waker) (T, error, bool) { return r.value, r.err, true }

// Ready returns a Future that completes immediately with value.
func Ready[T any](value T) Future[T] {
	return resolved[T]{value: value}
}

// ReadyError returns a Future that completes immediately with err.
func ReadyError[T any](err error) Future[T] {
	return resolved[T]{err: err}
}

// Then sequences two suspendable steps: it drives first to completion,
// feeds its outcome to next, and then drives the future next returned.
// This is the composition primitive tasks are written with in the
// absence of language-level await.
func Then[A, B any](first Future[A], next func(A, error) Future[B]) Future[B] {
	t := &then[A, B]{first: first, next: next}
	return t
}

type then[A, B any] struct {
	first  Future[A]
	next   func(A, error) Future[B]
	second Future[B]
}

func (t *then[A, B]) Poll(w Waker) (B, error, bool) {
	if t.second == nil {
		a, err, done := t.first.Poll(w)
		if !done {
			var zero B
			return zero, nil, false
		}
		t.second = t.next(a, err)
		t.first = nil
	}
	return t.second.Poll(w)
}

// All joins unit futures into one that completes when every member has
// completed. Each poll drives only the members still pending; a member
// that has reported completion is not polled again.
func All(futures ...Future[struct{}]) Future[struct{}] {
	pending := make([]Future[struct{}], len(futures))
	copy(pending, futures)
	return &join{pending: pending}
}

type join struct {
	pending []Future[struct{}]
}

func (j *join) Poll(w Waker) (struct{}, error, bool) {
	remaining := j.pending[:0]
	for _, f := range j.pending {
		if _, _, done := f.Poll(w); !done {
			remaining = append(remaining, f)
		}
	}
	j.pending = remaining
	return struct{}{}, nil, len(j.pending) == 0
}
