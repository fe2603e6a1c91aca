package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepGroup(g *Group, v *tickView) {
	g.commit(g.next(v))
}

func TestGroupMaliciousPercent(t *testing.T) {
	nodes := scenarioNodes()
	g := newGroup(10, nodes, len(nodes), 5, 10)

	assert.InDelta(t, 0.2, g.MaliciousPercent(), 1e-12)
	assert.Equal(t, 10, g.Size())

	sum := 0
	for _, n := range g.Ownership() {
		sum += n
	}
	assert.Equal(t, g.Size(), sum)
}

func TestGroupCountsRepeatedSeats(t *testing.T) {
	nodes := scenarioNodes()
	members := []*Node{nodes[0], nodes[0], nodes[0], nodes[5]}
	g := newGroup(10, members, len(nodes), 0, 1)

	assert.Equal(t, 3, g.Ownership()[0])
	assert.Equal(t, 1, g.Ownership()[5])
	assert.InDelta(t, 0.75, g.MaliciousPercent(), 1e-12)
	assert.Equal(t, []int{0, 0, 0, 5}, g.Members())
}

func TestGroupLifecycle(t *testing.T) {
	nodes := scenarioNodes()
	g := newGroup(10, nodes, len(nodes), 5, 2)
	v := connectedView(nodes)

	for i := 0; i < 6; i++ {
		stepGroup(g, v)
		require.Equal(t, GroupDKG, g.Status(), "tick %d", i)
	}
	stepGroup(g, v)
	require.Equal(t, GroupActive, g.Status())

	stepGroup(g, v)
	require.Equal(t, GroupActive, g.Status())
	stepGroup(g, v)
	require.Equal(t, GroupExpired, g.Status())

	// terminal
	stepGroup(g, v)
	assert.Equal(t, GroupExpired, g.Status())
}

func TestGroupSnapshotsAtLookahead(t *testing.T) {
	nodes := scenarioNodes()
	g := newGroup(10, nodes, len(nodes), 5, 2)

	stepGroup(g, connectedView(nodes))
	assert.Zero(t, g.CompromisedPercent())

	// counter reaches the lookahead on this tick; two seats are down
	stepGroup(g, connectedView(nodes, 3, 4))
	assert.InDelta(t, 0.2, g.CompromisedPercent(), 1e-12)
	assert.InDelta(t, 0.2, g.OfflinePercent(), 1e-12)

	// later disconnections do not move the snapshot
	stepGroup(g, connectedView(nodes, 3, 4, 5, 6, 7))
	assert.InDelta(t, 0.2, g.OfflinePercent(), 1e-12)
}

func TestGroupShortDelayStillSnapshots(t *testing.T) {
	nodes := scenarioNodes()
	g := newGroup(10, nodes, len(nodes), 1, 2)

	stepGroup(g, connectedView(nodes, 9))
	assert.InDelta(t, 0.1, g.OfflinePercent(), 1e-12)
	assert.InDelta(t, 0.2, g.CompromisedPercent(), 1e-12)
}

func TestGroupReport(t *testing.T) {
	nodes := scenarioNodes()
	g := newGroup(10, []*Node{nodes[0], nodes[0], nodes[2]}, len(nodes), 4, 2)
	r := g.Report()

	assert.Equal(t, "dkg", r.Status)
	assert.Equal(t, map[int]int{0: 2, 2: 1}, r.Ownership)
	assert.Equal(t, 4, *r.DKGBlockDelay)
	assert.Nil(t, r.Owner)
}
