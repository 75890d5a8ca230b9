package id

import (
	"encoding/binary"
	"sync"
	"time"
)

// RunID is a 128-bit, lexicographically sortable identifier encoded as
// 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence]. Collection
// runs are tagged with one so that file-sink output sorts chronologically
// and log lines correlate to a run.
type RunID [16]byte

// Bytes returns the raw 16-byte representation.
func (r RunID) Bytes() []byte { b := make([]byte, 16); copy(b, r[:]); return b }

// String returns a lowercase hex string.
func (r RunID) String() string { return fmtHex(r[:]) }

// Generator produces monotonically increasing RunIDs per process.
type Generator struct {
	mu       sync.Mutex
	lastMs   int64
	sequence uint64
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator { return &Generator{} }

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns a new RunID. If the clock goes backwards, it reuses the last
// observed millisecond and increments the sequence instead.
func (g *Generator) Next() RunID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	if ms == g.lastMs {
		g.sequence++
	} else {
		g.sequence = 0
	}
	g.lastMs = ms

	var id RunID
	binary.BigEndian.PutUint64(id[0:8], uint64(ms))
	binary.BigEndian.PutUint64(id[8:16], g.sequence)
	return id
}

var defaultGen = NewGenerator()

// NewRunID returns a RunID from the process-wide generator.
func NewRunID() RunID { return defaultGen.Next() }

// fmtHex is a small, allocation-lean hex encoder for fixed-size IDs.
func fmtHex(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexdigits[v>>4]
		out[i*2+1] = hexdigits[v&0x0f]
	}
	return string(out)
}
