package generate

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stream is one deterministic random sub-stream. Every entity type owns
// a stream of its own, so the values it yields depend only on the run
// seed and the stream name, never on goroutine scheduling.
type Stream struct {
	rng *rand.Rand
}

// NewStream derives a sub-stream from the run seed and a stream name
func NewStream(seed int64, name string) *Stream {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	mixed := uint64(seed)*0x9E3779B97F4A7C15 ^ h.Sum64()
	return &Stream{rng: rand.New(rand.NewSource(int64(mixed)))}
}

// UUID returns a random UUID drawn from this stream
func (s *Stream) UUID() string {
	u, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		// rand.Rand.Read never fails
		panic(err)
	}
	return u.String()
}

// Intn returns a uniform int in [0, n)
func (s *Stream) Intn(n int) int {
	return s.rng.Intn(n)
}

// IntBetween returns a uniform int in [lo, hi]
func (s *Stream) IntBetween(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

// Float64 returns a uniform float in [0, 1)
func (s *Stream) Float64() float64 {
	return s.rng.Float64()
}

// Uniform returns a uniform float in [lo, hi)
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Normal returns a normally distributed float with the given mean and
// standard deviation.
func (s *Stream) Normal(mean, stddev float64) float64 {
	return s.rng.NormFloat64()*stddev + mean
}

// LogNormal returns exp(Normal(mu, sigma))
func (s *Stream) LogNormal(mu, sigma float64) float64 {
	return math.Exp(s.rng.NormFloat64()*sigma + mu)
}

// Chance returns true with probability p
func (s *Stream) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// Pick returns a uniformly chosen element
func (s *Stream) Pick(items []string) string {
	return items[s.rng.Intn(len(items))]
}

// WeightedIndex returns an index chosen proportionally to weights.
// Non-positive total weight degrades to a uniform pick.
func (s *Stream) WeightedIndex(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return s.rng.Intn(len(weights))
	}

	target := s.rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}

// Weighted returns an element chosen proportionally to weights
func (s *Stream) Weighted(items []string, weights []float64) string {
	return items[s.WeightedIndex(weights)]
}

// round1 rounds to one decimal place, the precision ratings carry
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// cents converts a float amount to an exact two-decimal value
func cents(v float64) decimal.Decimal {
	return decimal.New(int64(math.Round(v*100)), -2)
}
