package terrain

import (
	"math/rand/v2"

	"github.com/segmentio/fasthash/fnv1a"
)

// Random is a deterministic stream derived from a world seed. A Random is not
// safe for concurrent use; concurrent generation derives its own sub-stream
// per feature with Derive instead of sharing one.
type Random struct {
	seed uint64
	r    *rand.Rand
}

// NewRandom creates a stream for the given seed.
func NewRandom(seed int64) *Random {
	s := uint64(seed)
	return &Random{seed: s, r: rand.New(rand.NewPCG(s, fnv1a.HashUint64(s)))}
}

// Seed returns the seed the stream was created from.
func (r *Random) Seed() int64 { return int64(r.seed) }

// Derive returns an independent stream keyed by salt and a world column. The
// same seed, salt and coordinates always produce the same stream.
func (r *Random) Derive(salt string, x, z int) *Random {
	h := fnv1a.AddUint64(fnv1a.Init64, r.seed)
	h = fnv1a.AddString64(h, salt)
	h = fnv1a.AddUint64(h, uint64(int64(x)))
	h = fnv1a.AddUint64(h, uint64(int64(z)))
	return NewRandom(int64(h))
}

// Intn returns a value in [0, n). n <= 0 yields 0.
func (r *Random) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// IntRange returns a value in [lo, hi].
func (r *Random) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Float returns a value in [0, 1).
func (r *Random) Float() float64 {
	return r.r.Float64()
}

// FloatRange returns a value in [lo, hi).
func (r *Random) FloatRange(lo, hi float64) float64 {
	return lo + r.r.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func (r *Random) Chance(p float64) bool {
	return r.r.Float64() < p
}
