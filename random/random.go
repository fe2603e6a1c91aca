// Package random is the single source of randomness of a simulation run.
//
// Every draw goes through one seeded PCG stream so that a run is reproducible
// bit-for-bit given the same seed and the same sequence of calls.
package random

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source wraps a seeded PCG generator and the gonum distributions drawn from it.
type Source struct {
	src *rand.PCG
	rnd *rand.Rand
}

// New returns a Source seeded with seed.
func New(seed uint64) *Source {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Source{src: src, rnd: rand.New(src)}
}

// Float64 returns a uniform value in [0,1).
func (s *Source) Float64() float64 {
	return s.rnd.Float64()
}

// IntN returns a uniform value in [0,n). Non-positive n yields 0.
func (s *Source) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rnd.IntN(n)
}

// Bernoulli reports true with probability p.
func (s *Source) Bernoulli(p float64) bool {
	return s.rnd.Float64() < p
}

// Percent reports true with probability p/100.
func (s *Source) Percent(p float64) bool {
	return s.rnd.Float64()*100 < p
}

// Poisson draws a Poisson variate with mean lambda.
func (s *Source) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	d := distuv.Poisson{Lambda: lambda, Src: s.src}
	return int(d.Rand())
}

// Normal draws from N(mu, sigma). A zero sigma returns mu.
func (s *Source) Normal(mu, sigma float64) float64 {
	if sigma <= 0 {
		return mu
	}
	d := distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}
	return d.Rand()
}

// Tickets returns n fresh uniform values in [0,1).
func (s *Source) Tickets(n int) []float64 {
	if n <= 0 {
		return nil
	}
	tickets := make([]float64, n)
	for i := range tickets {
		tickets[i] = s.rnd.Float64()
	}
	return tickets
}
