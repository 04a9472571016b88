package simz

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// A Record is one entry of the diagnostic stream: what happened, its
// payload, and the virtual clock offset at which it happened.
type Record struct {
	VirtualNS int64  `msgpack:"virtual_ns"`
	Kind      string `msgpack:"kind"`
	Detail    string `msgpack:"detail"`
}

// Journal is a synchronous recorder of diagnostic records. Components
// that accept one via WithJournal write to it inline, in program
// order — unlike the hook and signal layers, which deliver
// asynchronously. That makes the journal the artifact to compare when
// asserting that two runs of the same seed are bit-for-bit identical:
// same seed, same spawn order, same Snapshot bytes.
//
// A nil *Journal is valid and records nothing, so components journal
// unconditionally.
type Journal struct {
	mu      sync.Mutex
	clock   *Clock
	records []Record
}

// NewJournal creates a journal stamping records with the given virtual
// clock. A nil clock stamps every record at offset zero.
func NewJournal(clock *Clock) *Journal {
	return &Journal{clock: clock}
}

// Record appends an entry stamped with the current virtual offset.
func (j *Journal) Record(kind, detail string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	var ns int64
	if j.clock != nil {
		ns = int64(j.clock.Elapsed())
	}
	j.records = append(j.records, Record{VirtualNS: ns, Kind: kind, Detail: detail})
}

// Records returns a copy of the recorded stream.
func (j *Journal) Records() []Record {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Record, len(j.records))
	copy(out, j.records)
	return out
}

// Len returns the number of records.
func (j *Journal) Len() int {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}

// Snapshot serializes the stream to bytes. Two runs with the same seed
// and spawn order produce identical snapshots.
func (j *Journal) Snapshot() ([]byte, error) {
	if j == nil {
		return Encode([]Record(nil))
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return Encode(j.records)
}

// Encode serializes a value to bytes using msgpack encoding.
// This is the standard encoding method used by simz journals.
func Encode[T any](value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

// Decode deserializes bytes into a value of type T using msgpack
// decoding.
func Decode[T any](data []byte) (T, error) {
	var value T
	err := msgpack.Unmarshal(data, &value)
	return value, err
}
