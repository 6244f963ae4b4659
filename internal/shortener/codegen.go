package shortener

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// CodeGenerator produces a new, never reused short code.
type CodeGenerator func() Code

// ULIDGenerator issues ULID codes: a 48-bit millisecond timestamp followed by
// 80 bits of monotonic entropy, rendered as 26 Crockford base32 characters.
// Codes from one generator sort lexicographically in issue order.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
	lastMS  uint64
}

// NewULIDGenerator creates a generator backed by crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return newULIDGenerator(time.Now)
}

func newULIDGenerator(now func() time.Time) *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     now,
	}
}

// Next returns the next code. It is safe for concurrent use.
func (g *ULIDGenerator) Next() Code {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Never step back in time, otherwise ordering breaks when the clock is adjusted.
	ms := ulid.Timestamp(g.now())
	if ms < g.lastMS {
		ms = g.lastMS
	}

	for {
		id, err := ulid.New(ms, g.entropy)
		if err == nil {
			g.lastMS = ms

			return Code(id.String())
		}

		if !errors.Is(err, ulid.ErrMonotonicOverflow) {
			// crypto/rand failing is unrecoverable.
			panic(err)
		}

		ms++
	}
}

// Generator returns Next as a CodeGenerator.
func (g *ULIDGenerator) Generator() CodeGenerator {
	return g.Next
}
