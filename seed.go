package simz

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
)

// SeedEnvVar names the environment variable test harnesses read to
// replay a specific simulation. Its value is a base-10 unsigned 64-bit
// integer.
const SeedEnvVar = "DETERMINISTIC_SEED"

// SeedFromEnv reads SeedEnvVar. ok reports whether the variable was
// set; a set-but-unparseable value returns an error, which harnesses
// must treat as fatal.
func SeedFromEnv() (seed uint64, ok bool, err error) {
	v, set := os.LookupEnv(SeedEnvVar)
	if !set {
		return 0, false, nil
	}
	seed, err = strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("simz: invalid %s %q: %w", SeedEnvVar, v, err)
	}
	return seed, true, nil
}

// RandomSeed draws a seed from the OS entropy source. Harnesses print
// it so a failing run can be reproduced by exporting SeedEnvVar.
func RandomSeed() uint64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("simz: reading OS entropy: %v", err))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// TB is the subset of testing.TB the seed harness needs. Declared here
// so importing simz does not drag the testing package into production
// binaries.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// WithRandomSeed runs fn with a seed bound: the value of SeedEnvVar
// when set (a parse error fails the test), otherwise a fresh seed from
// OS entropy, logged so the run can be replayed.
func WithRandomSeed(t TB, fn func(seed uint64)) {
	t.Helper()
	seed, ok, err := SeedFromEnv()
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !ok {
		seed = RandomSeed()
		t.Logf("seed %d (export %s=%d to reproduce)", seed, SeedEnvVar, seed)
	}
	fn(seed)
}

// WithSeed runs fn with the given literal seed.
func WithSeed(t TB, seed uint64, fn func(seed uint64)) {
	t.Helper()
	fn(seed)
}
