package simz

import "time"

// Timer is a future that completes once virtual time has advanced past
// its expiry. It is the only suspension primitive in the kernel:
// everything that "blocks" in simulation ultimately waits on one.
//
// A Timer registers with the reactor exactly once, on its first poll,
// using the duration it was created with. A spurious wake before
// expiry re-suspends without re-registering. Combined with the
// reactor's dispatch of stored relative durations, this produces the
// additive time-advancement behavior the seeded assertions rely on.
type Timer struct {
	reactor    *Reactor
	duration   time.Duration
	expiredAt  time.Time
	registered bool
}

// Wait creates a timer for duration of virtual time on the given
// reactor. The expiry is snapshotted from the reactor's clock at
// creation.
func Wait(reactor *Reactor, duration time.Duration) *Timer {
	return &Timer{
		reactor:   reactor,
		duration:  duration,
		expiredAt: reactor.Clock().Now().Add(duration),
	}
}

// Poll implements Future[struct{}].
func (t *Timer) Poll(w Waker) (struct{}, error, bool) {
	if !t.registered {
		t.reactor.RegisterWait(t.duration, w)
		t.registered = true
	}

	now := t.reactor.Clock().Now()
	if !now.Before(t.expiredAt) {
		return struct{}{}, nil, true
	}
	return struct{}{}, nil, false
}
