// Package rng provides the reproducible random source used for question selection.
// Results must match across runs and platforms, so it uses a fixed-constant LCG
// rather than math/rand.
package rng

import (
	"strconv"
	"time"
	"unicode/utf16"
)

const (
	modulus    = 1 << 31
	multiplier = 1103515245
	increment  = 12345

	// zeroSeed replaces a zero seed, which would otherwise start every sequence at c.
	zeroSeed = 0x2545F491
)

// Source yields floats in [0,1].
type Source interface {
	Next() float64
}

// LCG is a linear congruential generator: state = (a*state + c) mod 2^31.
// It is not safe for concurrent use; build one per selection.
type LCG struct {
	state uint64
}

// New seeds a generator. Generators built from the same seed produce identical sequences.
func New(seed int64) *LCG {
	s := seed % modulus
	if s < 0 {
		s += modulus
	}
	if s == 0 {
		s = zeroSeed
	}
	return &LCG{state: uint64(s)}
}

// Next advances the generator and returns state/(m-1).
func (g *LCG) Next() float64 {
	g.state = (multiplier*g.state + increment) % modulus
	return float64(g.state) / float64(modulus-1)
}

// Intn returns a value in [0,n). It panics if n <= 0.
func (g *LCG) Intn(n int) int {
	return intn(g, n)
}

func intn(src Source, n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	j := int(src.Next() * float64(n))
	// state == m-1 maps to exactly 1.0
	if j >= n {
		j = n - 1
	}
	return j
}

// Shuffle permutes items in place with a Fisher-Yates pass driven by src.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := intn(src, i+1)
		items[i], items[j] = items[j], items[i]
	}
}

// Hash is a 31-multiplier string hash accumulated in a signed 32-bit integer
// over UTF-16 code units, returned as an absolute value.
func Hash(s string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(unit)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// DeriveSeed builds the selection seed for a (user, day, category) triple.
// Without a user id the current time stands in, so anonymous selections differ run to run.
func DeriveSeed(userID, dayKey, categoryID string, now func() time.Time) int64 {
	identity := userID
	if identity == "" {
		if now == nil {
			now = time.Now
		}
		identity = strconv.FormatInt(now().UnixMilli(), 10)
	}
	return Hash(identity + dayKey + categoryID)
}
