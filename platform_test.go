package simz

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	if err := os.WriteFile(path, []byte("127.0.0.1 localhost\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

// openTask opens path and records the outcome and completion time.
func openTask(p *SimPlatform, path string, record func(*File, error)) *Task {
	return NewTask(Then(p.Open(path), func(f *File, err error) Future[struct{}] {
		record(f, err)
		return Ready(struct{}{})
	}))
}

func TestSimPlatform(t *testing.T) {
	t.Run("Seed 42 First Open Takes 602558742ns", func(t *testing.T) {
		reactor := NewReactor()
		executor := NewExecutor(reactor)
		platform := NewSimPlatform(42, reactor)
		path := tempFile(t)

		start := platform.Now()
		var end time.Time
		var openErr error
		executor.Spawn(openTask(platform, path, func(f *File, err error) {
			end = platform.Now()
			openErr = err
			if f != nil {
				f.Close()
			}
		}))
		executor.Run()

		if openErr != nil {
			t.Fatalf("open failed: %v", openErr)
		}
		if !start.Before(end) {
			t.Fatalf("virtual time did not move: start=%v end=%v", start, end)
		}
		// 300ms + (first seed-42 draw % 1.7s), the latency DurationBetween
		// produces from the nanosecond-scaled bounds.
		if got := end.Sub(start); got != 602558742*time.Nanosecond {
			t.Fatalf("latency %v, want 602.558742ms — determinism broke", got)
		}
	})

	t.Run("Seed 22 Loop Faults Exactly At Iteration 4", func(t *testing.T) {
		// For seed 22 the buggifier's fifth draw is the first
		// bernoulli(0.05) success: open 4 faults with unexpected EOF
		// and no latency, the other nine succeed, and the virtual
		// clock accumulates exactly their drawn latencies.
		reactor := NewReactor()
		executor := NewExecutor(reactor)
		platform := NewSimPlatform(22, reactor)
		path := tempFile(t)

		var errs []error
		var task func(i int) Future[struct{}]
		task = func(i int) Future[struct{}] {
			if i == 10 {
				return Ready(struct{}{})
			}
			return Then(platform.Open(path), func(f *File, err error) Future[struct{}] {
				errs = append(errs, err)
				if f != nil {
					f.Close()
				}
				return task(i + 1)
			})
		}
		executor.Spawn(NewTask(task(0)))
		executor.Run()

		if len(errs) != 10 {
			t.Fatalf("%d opens completed, want 10", len(errs))
		}
		for i, err := range errs {
			if i == 4 {
				if err == nil {
					t.Fatal("open 4 did not fault")
				}
				if !errors.Is(err, io.ErrUnexpectedEOF) {
					t.Fatalf("open 4 fault: %v, want unexpected EOF", err)
				}
				var simErr *Error
				if !errors.As(err, &simErr) || !simErr.Buggified {
					t.Fatalf("open 4 error is not an injected *Error: %v", err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("open %d failed: %v", i, err)
			}
		}

		// Nine latency draws from the platform stream (the fault
		// iteration spends its draw on the fault kind instead).
		if got := reactor.Clock().Elapsed(); got != 9865322210*time.Nanosecond {
			t.Fatalf("virtual elapsed %v, want 9865.32221ms", got)
		}
		if got := platform.Metrics().Counter(PlatformFaultsTotal).Value(); got != 1 {
			t.Fatalf("fault counter %v, want 1", got)
		}
	})

	t.Run("Same Seed Same Outcomes", func(t *testing.T) {
		path := tempFile(t)
		run := func() (time.Duration, error) {
			reactor := NewReactor()
			executor := NewExecutor(reactor)
			platform := NewSimPlatform(1234, reactor)
			var openErr error
			executor.Spawn(openTask(platform, path, func(f *File, err error) {
				openErr = err
				if f != nil {
					f.Close()
				}
			}))
			executor.Run()
			return reactor.Clock().Elapsed(), openErr
		}

		d1, e1 := run()
		d2, e2 := run()
		if d1 != d2 {
			t.Fatalf("latencies diverged: %v vs %v", d1, d2)
		}
		if (e1 == nil) != (e2 == nil) {
			t.Fatalf("outcomes diverged: %v vs %v", e1, e2)
		}
	})

	t.Run("Host Errors Pass Through After Latency", func(t *testing.T) {
		reactor := NewReactor()
		executor := NewExecutor(reactor)
		platform := NewSimPlatform(42, reactor)

		var openErr error
		executor.Spawn(openTask(platform, "/does/not/exist", func(_ *File, err error) {
			openErr = err
		}))
		executor.Run()

		if openErr == nil {
			t.Fatal("open of missing path succeeded")
		}
		var simErr *Error
		if !errors.As(openErr, &simErr) {
			t.Fatalf("error is not *Error: %v", openErr)
		}
		if simErr.Buggified {
			t.Fatal("genuine host miss marked as injected")
		}
		if !simErr.IsNotFound() {
			t.Fatalf("host miss not reported as not-found: %v", simErr)
		}
		// The non-buggified branch still pays simulated latency —
		// the same first seed-42 draw as a successful open.
		if got := reactor.Clock().Elapsed(); got != 602558742*time.Nanosecond {
			t.Fatalf("virtual elapsed %v, want 602.558742ms", got)
		}
	})

	t.Run("Disabled Buggifier Never Faults", func(t *testing.T) {
		reactor := NewReactor()
		executor := NewExecutor(reactor)
		platform := NewSimPlatform(22, reactor)
		platform.Buggifier().Disable()
		path := tempFile(t)

		var errs []error
		var task func(i int) Future[struct{}]
		task = func(i int) Future[struct{}] {
			if i == 20 {
				return Ready(struct{}{})
			}
			return Then(platform.Open(path), func(f *File, err error) Future[struct{}] {
				errs = append(errs, err)
				if f != nil {
					f.Close()
				}
				return task(i + 1)
			})
		}
		executor.Spawn(NewTask(task(0)))
		executor.Run()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("open %d failed with buggify disabled: %v", i, err)
			}
		}
	})

	t.Run("Now Reads The Virtual Clock", func(t *testing.T) {
		reactor := NewReactor()
		platform := NewSimPlatform(42, reactor)
		before := platform.Now()
		reactor.Clock().Advance(time.Hour)
		if got := platform.Now().Sub(before); got != time.Hour {
			t.Fatalf("Now moved by %v, want 1h", got)
		}
	})

	t.Run("Opened File Is Readable", func(t *testing.T) {
		reactor := NewReactor()
		executor := NewExecutor(reactor)
		platform := NewSimPlatform(42, reactor)
		path := tempFile(t)

		var content []byte
		executor.Spawn(openTask(platform, path, func(f *File, err error) {
			if err != nil {
				t.Errorf("open failed: %v", err)
				return
			}
			defer f.Close()
			content, _ = io.ReadAll(f)
		}))
		executor.Run()

		if string(content) != "127.0.0.1 localhost\n" {
			t.Fatalf("read %q", content)
		}
	})
}

func TestHostPlatform(t *testing.T) {
	t.Run("Open Resolves Immediately", func(t *testing.T) {
		platform := NewHostPlatform()
		path := tempFile(t)

		f, err, done := platform.Open(path).Poll(NopWaker)
		if !done {
			t.Fatal("host open suspended")
		}
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer f.Close()
		if f.Path() != path {
			t.Fatalf("path %q, want %q", f.Path(), path)
		}
	})

	t.Run("Missing Path Errors", func(t *testing.T) {
		platform := NewHostPlatform()
		_, err, done := platform.Open("/does/not/exist").Poll(NopWaker)
		if !done || err == nil {
			t.Fatalf("got %v/%v", err, done)
		}
		var simErr *Error
		if !errors.As(err, &simErr) || !simErr.IsNotFound() {
			t.Fatalf("unexpected error shape: %v", err)
		}
	})

	t.Run("Now Tracks Wall Time", func(t *testing.T) {
		platform := NewHostPlatform()
		wall := time.Now()
		if got := platform.Now(); got.Before(wall.Add(-time.Minute)) || got.After(wall.Add(time.Minute)) {
			t.Fatalf("host Now %v far from wall %v", got, wall)
		}
	})
}
