package snapshot

import (
	"math/rand/v2"
	"sync"
)

// Sampler picks which records of a collection get checked.
type Sampler interface {
	// Pick returns indices into a collection of length n.
	Pick(n int) []int
	String() string
}

type allSampler struct{}

// SampleAll checks every record.
func SampleAll() Sampler {
	return allSampler{}
}

func (allSampler) Pick(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (allSampler) String() string {
	return "all"
}

type firstSampler struct {
	count int
}

// SampleFirst checks the first `count` records, a count below zero checks none.
func SampleFirst(count int) Sampler {
	return firstSampler{count: max(count, 0)}
}

func (s firstSampler) Pick(n int) []int {
	return allSampler{}.Pick(min(n, s.count))
}

func (s firstSampler) String() string {
	return "first"
}

type randomSampler struct {
	count int
	mu    *sync.Mutex
	rng   *rand.Rand
}

// SampleRandom checks `count` distinct records chosen by rng, a count below
// zero checks none.
func SampleRandom(count int, rng *rand.Rand) Sampler {
	if rng == nil {
		rng = NewRandomSource(nil)
	}
	return randomSampler{count: max(count, 0), mu: &sync.Mutex{}, rng: rng}
}

func (s randomSampler) Pick(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	perm := s.rng.Perm(n)
	return perm[:min(n, s.count)]
}

func (s randomSampler) String() string {
	return "random"
}

// NewRandomSource returns a seeded generator when seed is set, and a randomly
// seeded one otherwise.
func NewRandomSource(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(uint64(*seed), uint64(*seed)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
