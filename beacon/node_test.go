package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon-sim/random"
)

func stepNode(n *Node, rng *random.Source, p nodeParams) {
	n.commit(n.next(rng, p))
}

func TestGenerateTicketsOverwrites(t *testing.T) {
	rng := random.New(1)
	n := newNode(0, 0, 5, false, 0)

	n.GenerateTickets(rng, 5)
	first := n.Tickets()
	require.Len(t, first, 5)

	n.GenerateTickets(rng, 3)
	second := n.Tickets()
	require.Len(t, second, 3)
	for _, v := range second {
		assert.NotContains(t, first, v)
	}
}

func TestNodeConnectsAfterDelay(t *testing.T) {
	rng := random.New(1)
	n := newNode(0, 0, 1, false, 2)

	stepNode(n, rng, nodeParams{})
	stepNode(n, rng, nodeParams{})
	assert.False(t, n.Connected())

	stepNode(n, rng, nodeParams{})
	assert.True(t, n.Connected())
}

func TestDeathIsPermanent(t *testing.T) {
	rng := random.New(1)
	n := newNode(0, 0, 1, false, 0)
	stepNode(n, rng, nodeParams{})
	require.True(t, n.Connected())

	stepNode(n, rng, nodeParams{deathPercent: 100})
	assert.False(t, n.Connected())
	assert.True(t, n.Dead())

	for i := 0; i < 20; i++ {
		stepNode(n, rng, nodeParams{})
		assert.False(t, n.Connected())
	}
}

func TestDeathBeforeConnecting(t *testing.T) {
	rng := random.New(1)
	n := newNode(0, 0, 1, false, 3)
	stepNode(n, rng, nodeParams{deathPercent: 100})
	for i := 0; i < 10; i++ {
		stepNode(n, rng, nodeParams{})
	}
	assert.False(t, n.Connected())
}

func TestFailureIsTransient(t *testing.T) {
	rng := random.New(1)
	n := newNode(0, 0, 1, false, 0)
	stepNode(n, rng, nodeParams{})
	require.True(t, n.Connected())

	stepNode(n, rng, nodeParams{failurePercent: 100})
	assert.False(t, n.Connected())
	assert.False(t, n.Dead())

	// reconnect delay is zero, so the next tick reconnects
	stepNode(n, rng, nodeParams{})
	assert.True(t, n.Connected())
}

func TestFailureDoesNotStallCountdown(t *testing.T) {
	rng := random.New(1)
	n := newNode(0, 0, 1, false, 2)
	failing := nodeParams{failurePercent: 100}

	stepNode(n, rng, failing)
	stepNode(n, rng, failing)
	require.False(t, n.Connected())
	assert.Equal(t, 0, n.connectionDelay)

	stepNode(n, rng, failing)
	assert.True(t, n.Connected())

	// connected now, so the next failure takes it down again
	stepNode(n, rng, failing)
	assert.False(t, n.Connected())
}

func TestNodeReport(t *testing.T) {
	n := newNode(4, 2, 10, true, 0)
	r := n.Report()
	assert.Equal(t, 4, r.ID)
	assert.Equal(t, "disconnected", r.Status)
	assert.Equal(t, 2, *r.Owner)
	assert.Equal(t, 10, *r.Tickets)
	assert.True(t, *r.Malicious)
	assert.Nil(t, r.MaliciousPercent)
}
