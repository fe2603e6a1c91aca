// Package analysis computes the closed-form probabilities that a beacon group
// is compromised, fails to sign or is lynchpinned by the adversary.
package analysis

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"

	"beacon-sim/models"
)

// Params describes the network and the signing threshold. SharesRequired is
// t+1 for a scheme tolerating t malicious members; AdversaryPower is the
// fraction of virtual stakers held by the adversary.
type Params struct {
	VirtualStakers     int     `mapstructure:"virtual_stakers" json:"virtual_stakers"`
	AdversaryPower     float64 `mapstructure:"adversary_power" json:"adversary_power"`
	GroupSize          int     `mapstructure:"group_size" json:"group_size"`
	SharesRequired     int     `mapstructure:"shares_required" json:"shares_required"`
	FailureProbability float64 `mapstructure:"failure_probability" json:"failure_probability"`
	DeathProbability   float64 `mapstructure:"death_probability" json:"death_probability"`
}

// Validate checks that the parameters describe a possible group.
func (p Params) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}
	if p.VirtualStakers <= 0 {
		fail("virtual_stakers must be positive, got %d", p.VirtualStakers)
	}
	if p.AdversaryPower < 0 || p.AdversaryPower > 1 {
		fail("adversary_power must be within [0,1], got %.3f", p.AdversaryPower)
	}
	if p.GroupSize <= 0 || p.GroupSize > p.VirtualStakers {
		fail("group_size must be within [1,%d], got %d", p.VirtualStakers, p.GroupSize)
	}
	if p.SharesRequired <= 0 || p.SharesRequired > p.GroupSize {
		fail("shares_required must be within [1,%d], got %d", p.GroupSize, p.SharesRequired)
	}
	if p.FailureProbability < 0 || p.FailureProbability > 1 {
		fail("failure_probability must be within [0,1], got %.3f", p.FailureProbability)
	}
	if p.DeathProbability < 0 || p.DeathProbability > 1 {
		fail("death_probability must be within [0,1], got %.3f", p.DeathProbability)
	}
	return result.ErrorOrNil()
}

// Model holds the distributions derived from one parameter set.
type Model struct {
	params           Params
	maliciousStakers int
	maxMalicious     int
	maliciousPMF     []float64
	inactivePMF      []float64
}

// New validates p and precomputes the malicious and inactive distributions.
func New(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		params:           p,
		maliciousStakers: int(math.Floor(float64(p.VirtualStakers) * p.AdversaryPower)),
		maxMalicious:     p.SharesRequired - 1,
	}
	m.maliciousPMF = hypergeometricPMF(p.VirtualStakers, m.maliciousStakers, p.GroupSize)
	m.inactivePMF = m.convolveInactive()
	return m, nil
}

// Params returns the model's parameters.
func (m *Model) Params() Params { return m.params }

// MaliciousStakers is the number of virtual stakers held by the adversary.
func (m *Model) MaliciousStakers() int { return m.maliciousStakers }

// MaliciousPMF is P(n malicious members) for n in [0, group size].
func (m *Model) MaliciousPMF() []float64 {
	return append([]float64(nil), m.maliciousPMF...)
}

// AttritionPMF is P(n dead members) for n in [0, group size].
func (m *Model) AttritionPMF() []float64 {
	return binomialPMF(m.params.GroupSize, m.params.DeathProbability)
}

// OfflinePMF is P(n offline members) among remaining surviving members.
func (m *Model) OfflinePMF(remaining int) []float64 {
	return binomialPMF(remaining, m.params.FailureProbability)
}

// InactivePMF is P(n dead or offline members) for n in [0, group size].
func (m *Model) InactivePMF() []float64 {
	return append([]float64(nil), m.inactivePMF...)
}

// Offline members are drawn from the survivors of attrition, so the two
// distributions are combined pairwise rather than summed.
func (m *Model) convolveInactive() []float64 {
	g := m.params.GroupSize
	dead := m.AttritionPMF()
	inactive := make([]float64, g+1)
	for nDead := 0; nDead <= g; nDead++ {
		offline := m.OfflinePMF(g - nDead)
		for nOffline, p := range offline {
			inactive[nDead+nOffline] += dead[nDead] * p
		}
	}
	return inactive
}

// failureThreshold is the most inactive members a group can lose and still sign.
func (m *Model) failureThreshold() int {
	return m.params.GroupSize - m.params.SharesRequired
}

// Compromised is P(malicious members > shares required - 1).
func (m *Model) Compromised() float64 {
	return survival(m.maliciousPMF, m.maxMalicious)
}

// SigFail is P(inactive members > group size - shares required).
func (m *Model) SigFail() float64 {
	return survival(m.inactivePMF, m.failureThreshold())
}

// Lynchpinned is the probability that a group can sign, but only with the
// adversary's shares: inactive <= t and inactive + malicious > t.
func (m *Model) Lynchpinned() float64 {
	g, t := m.params.GroupSize, m.failureThreshold()
	p := 0.0
	// inactive and malicious counts are independent draws, so the malicious
	// count ranges over the whole group
	for nInactive := 0; nInactive <= t; nInactive++ {
		for nMalicious := t - nInactive + 1; nMalicious <= g; nMalicious++ {
			p += m.inactivePMF[nInactive] * m.maliciousPMF[nMalicious]
		}
	}
	return p
}

// CleanSuccess is the probability that the honest, active members alone can
// sign: inactive + malicious <= t.
func (m *Model) CleanSuccess() float64 {
	t := m.failureThreshold()
	p := 0.0
	for nInactive := 0; nInactive <= t; nInactive++ {
		for nMalicious := 0; nMalicious <= t-nInactive; nMalicious++ {
			p += m.inactivePMF[nInactive] * m.maliciousPMF[nMalicious]
		}
	}
	return p
}

// Report evaluates every outcome probability.
func (m *Model) Report() models.AnalysisReport {
	return models.AnalysisReport{
		VirtualStakers:          m.params.VirtualStakers,
		MaliciousVirtualStakers: m.maliciousStakers,
		GroupSize:               m.params.GroupSize,
		SharesRequired:          m.params.SharesRequired,
		Compromised:             m.Compromised(),
		SigFail:                 m.SigFail(),
		Lynchpinned:             m.Lynchpinned(),
		CleanSuccess:            m.CleanSuccess(),
	}
}

// hypergeometricPMF is P(k successes) for k in [0,draws] when drawing without
// replacement from population items of which successes are marked.
func hypergeometricPMF(population, successes, draws int) []float64 {
	pmf := make([]float64, draws+1)
	lo := max(0, draws-(population-successes))
	hi := min(draws, successes)
	total := combin.LogGeneralizedBinomial(float64(population), float64(draws))
	for k := lo; k <= hi; k++ {
		lp := combin.LogGeneralizedBinomial(float64(successes), float64(k)) +
			combin.LogGeneralizedBinomial(float64(population-successes), float64(draws-k)) -
			total
		pmf[k] = math.Exp(lp)
	}
	return pmf
}

func binomialPMF(n int, p float64) []float64 {
	pmf := make([]float64, n+1)
	switch {
	case p <= 0:
		pmf[0] = 1
	case p >= 1:
		pmf[n] = 1
	default:
		d := distuv.Binomial{N: float64(n), P: p}
		for k := range pmf {
			pmf[k] = d.Prob(float64(k))
		}
	}
	return pmf
}

// survival is P(X > x).
func survival(pmf []float64, x int) float64 {
	p := 0.0
	for k := x + 1; k < len(pmf); k++ {
		p += pmf[k]
	}
	return p
}
