package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
)

func smallParams() Params {
	return Params{
		VirtualStakers:     100,
		AdversaryPower:     0.2,
		GroupSize:          10,
		SharesRequired:     6,
		FailureProbability: 0.1,
		DeathProbability:   0.05,
	}
}

func TestCompromisedMatchesHypergeometricReference(t *testing.T) {
	m, err := New(Params{
		VirtualStakers: 1000,
		AdversaryPower: 0.3,
		GroupSize:      50,
		SharesRequired: 26,
	})
	require.NoError(t, err)

	assert.Equal(t, 300, m.MaliciousStakers())
	// P(X > 25) for X ~ Hypergeom(N=1000, K=300, n=50)
	assert.InDelta(t, 0.0006916565866439678, m.Compromised(), 1e-12)
	assert.InDelta(t, 0.1255231605941311, m.MaliciousPMF()[15], 1e-12)
}

func TestMaliciousPMFMatchesExactBinomials(t *testing.T) {
	m, err := New(smallParams())
	require.NoError(t, err)

	total := float64(combin.Binomial(100, 10))
	for k, p := range m.MaliciousPMF() {
		want := float64(combin.Binomial(20, k)*combin.Binomial(80, 10-k)) / total
		assert.InDelta(t, want, p, 1e-12, "k=%d", k)
	}
}

func TestMaliciousPMFRespectsSupport(t *testing.T) {
	m, err := New(Params{VirtualStakers: 12, AdversaryPower: 0.25, GroupSize: 10, SharesRequired: 6})
	require.NoError(t, err)

	pmf := m.MaliciousPMF()
	// 3 malicious and 9 honest stakers: at least 1 and at most 3 malicious members
	assert.Zero(t, pmf[0])
	assert.Zero(t, pmf[4])
	assert.InDelta(t, 1.0, floats.Sum(pmf), 1e-12)
}

func TestInactivePMFSumsToOne(t *testing.T) {
	for _, p := range []Params{
		smallParams(),
		{VirtualStakers: 1000, GroupSize: 64, SharesRequired: 33, FailureProbability: 0.3, DeathProbability: 0.2},
		{VirtualStakers: 10, GroupSize: 1, SharesRequired: 1, FailureProbability: 0.5},
		{VirtualStakers: 50, GroupSize: 20, SharesRequired: 11, FailureProbability: 1, DeathProbability: 0},
		{VirtualStakers: 50, GroupSize: 20, SharesRequired: 11, FailureProbability: 0, DeathProbability: 1},
	} {
		m, err := New(p)
		require.NoError(t, err)
		pmf := m.InactivePMF()
		require.Len(t, pmf, p.GroupSize+1)
		assert.InDelta(t, 1.0, floats.Sum(pmf), 1e-9, "%+v", p)
	}
}

func TestInactiveIsBinomialOfCombinedLoss(t *testing.T) {
	m, err := New(smallParams())
	require.NoError(t, err)

	// a member is inactive unless it both survives and stays online
	q := 1 - (1-0.1)*(1-0.05)
	want := binomialPMF(10, q)
	assert.InDeltaSlice(t, want, m.InactivePMF(), 1e-12)
	assert.InDelta(t, 0.2087666620038864, m.InactivePMF()[0], 1e-12)
}

func TestOutcomeReferenceValues(t *testing.T) {
	m, err := New(smallParams())
	require.NoError(t, err)

	assert.InDelta(t, 0.00853102111560823, m.SigFail(), 1e-12)
	assert.InDelta(t, 0.2408895347921545, m.Lynchpinned(), 1e-12)
	assert.InDelta(t, 0.003933076466791354, m.Compromised(), 1e-12)
}

func TestOutcomesPartition(t *testing.T) {
	for _, p := range []Params{
		smallParams(),
		{VirtualStakers: 1000, AdversaryPower: 0.3, GroupSize: 50, SharesRequired: 26, FailureProbability: 0.05, DeathProbability: 0.01},
		{VirtualStakers: 200, AdversaryPower: 0.5, GroupSize: 30, SharesRequired: 30, FailureProbability: 0.2},
		{VirtualStakers: 200, AdversaryPower: 0, GroupSize: 30, SharesRequired: 1},
	} {
		m, err := New(p)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, m.SigFail()+m.Lynchpinned()+m.CleanSuccess(), 1e-9, "%+v", p)
		assert.InDelta(t, 1.0, m.Compromised()+(1-m.Compromised()), 1e-12)
		for _, v := range []float64{m.SigFail(), m.Lynchpinned(), m.CleanSuccess(), m.Compromised()} {
			assert.GreaterOrEqual(t, v, -1e-12)
			assert.LessOrEqual(t, v, 1+1e-12)
		}
	}
}

func TestFullAdversaryLynchpinsEverySignableGroup(t *testing.T) {
	p := smallParams()
	p.AdversaryPower = 1
	m, err := New(p)
	require.NoError(t, err)

	// every member is malicious, so any group that can sign needs them
	assert.InDelta(t, 1-m.SigFail(), m.Lynchpinned(), 1e-12)
	assert.Zero(t, m.CleanSuccess())
}

func TestNoAdversaryNeverLynchpins(t *testing.T) {
	p := smallParams()
	p.AdversaryPower = 0
	m, err := New(p)
	require.NoError(t, err)

	assert.Zero(t, m.Lynchpinned())
	assert.Zero(t, m.Compromised())
	assert.InDelta(t, 1-m.SigFail(), m.CleanSuccess(), 1e-12)
}

func TestReport(t *testing.T) {
	m, err := New(smallParams())
	require.NoError(t, err)

	r := m.Report()
	assert.Equal(t, 20, r.MaliciousVirtualStakers)
	assert.Equal(t, m.SigFail(), r.SigFail)
	assert.Equal(t, m.Lynchpinned(), r.Lynchpinned)
}

func TestValidateRejectsImpossibleParams(t *testing.T) {
	_, err := New(Params{VirtualStakers: 10, GroupSize: 11, SharesRequired: 12, AdversaryPower: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group_size")
	assert.Contains(t, err.Error(), "adversary_power")
}
