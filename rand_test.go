package simz

import (
	"math"
	"testing"
	"time"
)

func TestRand(t *testing.T) {
	t.Run("Same Seed Same Stream", func(t *testing.T) {
		for seed := uint64(0); seed < 500; seed++ {
			a := NewRand(seed)
			b := NewRand(seed)
			for i := 0; i < 200; i++ {
				if av, bv := a.Uint64(), b.Uint64(); av != bv {
					t.Fatalf("seed %d draw %d: %d != %d", seed, i, av, bv)
				}
				if av, bv := a.Float64(), b.Float64(); av != bv {
					t.Fatalf("seed %d float draw %d: %v != %v", seed, i, av, bv)
				}
				if av, bv := a.Bool(0.5), b.Bool(0.5); av != bv {
					t.Fatalf("seed %d bool draw %d: %v != %v", seed, i, av, bv)
				}
				if av, bv := a.IntBetween(0, 1000), b.IntBetween(0, 1000); av != bv {
					t.Fatalf("seed %d int draw %d: %d != %d", seed, i, av, bv)
				}
			}
		}
	})

	t.Run("Mixed Method Sequences Stay Aligned", func(t *testing.T) {
		a := NewRand(99)
		b := NewRand(99)
		for i := 0; i < 100; i++ {
			af := a.Float64()
			bf := b.Float64()
			if math.Abs(af-bf) > 0 {
				t.Fatalf("draw %d diverged", i)
			}
			if a.IntBetween(300, 2000) != b.IntBetween(300, 2000) {
				t.Fatalf("draw %d diverged", i)
			}
		}
	})

	t.Run("Seed 42 Anchor Values", func(t *testing.T) {
		// Pinned outputs of the generator. If these move, every seeded
		// assertion in the package moves with them.
		r := NewRand(42)
		want := []uint64{
			1546998764402558742,
			6990951692964543102,
			12544586762248559009,
			17057574109182124193,
			18295552978065317476,
		}
		for i, w := range want {
			if got := r.Uint64(); got != w {
				t.Fatalf("draw %d: got %d, want %d", i, got, w)
			}
		}

		r = NewRand(42)
		wantInts := []int64{1542, 1402, 1909, 893, 1276}
		for i, w := range wantInts {
			if got := r.IntBetween(300, 2000); got != w {
				t.Fatalf("int draw %d: got %d, want %d", i, got, w)
			}
		}
	})

	t.Run("Float64 Range", func(t *testing.T) {
		r := NewRand(7)
		for i := 0; i < 10000; i++ {
			f := r.Float64()
			if f < 0 || f >= 1 {
				t.Fatalf("draw %d out of [0,1): %v", i, f)
			}
		}
	})

	t.Run("IntBetween Range", func(t *testing.T) {
		r := NewRand(7)
		for i := 0; i < 10000; i++ {
			n := r.IntBetween(300, 2000)
			if n < 300 || n >= 2000 {
				t.Fatalf("draw %d out of [300,2000): %d", i, n)
			}
		}
	})

	t.Run("IntBetween Invalid Range Panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		NewRand(1).IntBetween(10, 10)
	})

	t.Run("DurationBetween", func(t *testing.T) {
		a := NewRand(42)
		b := NewRand(42)
		for i := 0; i < 100; i++ {
			ad := a.DurationBetween(300*time.Millisecond, 2*time.Second)
			bd := time.Duration(b.IntBetween(int64(300*time.Millisecond), int64(2*time.Second)))
			if ad != bd {
				t.Fatalf("draw %d: %v != %v", i, ad, bd)
			}
			if ad < 300*time.Millisecond || ad >= 2*time.Second {
				t.Fatalf("draw %d out of range: %v", i, ad)
			}
		}
	})

	t.Run("Bernoulli Extremes", func(t *testing.T) {
		r := NewRand(3)
		for i := 0; i < 1000; i++ {
			if r.Bool(0.0) {
				t.Fatal("p=0 fired")
			}
		}
		for i := 0; i < 1000; i++ {
			if !r.Bool(1.0) {
				t.Fatal("p=1 did not fire")
			}
		}
	})

	t.Run("Zero Seed Is Usable", func(t *testing.T) {
		r := NewRand(0)
		seen := make(map[uint64]bool)
		for i := 0; i < 100; i++ {
			seen[r.Uint64()] = true
		}
		if len(seen) < 90 {
			t.Fatalf("zero-seeded stream looks degenerate: %d distinct of 100", len(seen))
		}
	})
}
