package beacon

import "beacon-sim/models"

// GroupStatus is the DKG lifecycle of a group: dkg -> active -> expired.
type GroupStatus int

const (
	GroupDKG GroupStatus = iota
	GroupActive
	GroupExpired
)

func (s GroupStatus) String() string {
	switch s {
	case GroupDKG:
		return "dkg"
	case GroupActive:
		return "active"
	default:
		return "expired"
	}
}

// dkgLookahead is the number of blocks before DKG completion after which
// absent or malicious members can no longer be excluded.
const dkgLookahead = 3

type groupState struct {
	status        GroupStatus
	dkgBlockDelay int
	expiry        int

	snapshotTaken      bool
	compromisedPercent float64
	offlinePercent     float64
}

// Group is a signing committee selected by the lottery. Membership is fixed at
// formation; a node appears once per ticket it won.
type Group struct {
	id               int
	members          []*Node
	ownership        []int // tickets per node id
	maliciousPercent float64

	groupState
}

func newGroup(id int, members []*Node, numNodes, dkgBlockDelay, expiry int) *Group {
	ownership := make([]int, numNodes)
	malicious := 0
	for _, m := range members {
		ownership[m.id]++
		if m.malicious {
			malicious++
		}
	}
	g := &Group{
		id:        id,
		members:   members,
		ownership: ownership,
		groupState: groupState{
			status:        GroupDKG,
			dkgBlockDelay: dkgBlockDelay,
			expiry:        expiry,
		},
	}
	if len(members) > 0 {
		g.maliciousPercent = float64(malicious) / float64(len(members))
	}
	return g
}

func (g *Group) ID() int                 { return g.id }
func (g *Group) Kind() models.EntityKind { return models.KindGroup }
func (g *Group) Status() GroupStatus     { return g.status }
func (g *Group) Size() int               { return len(g.members) }

// MaliciousPercent is the share of seats held by malicious owners' nodes.
func (g *Group) MaliciousPercent() float64 { return g.maliciousPercent }

// CompromisedPercent is the malicious share locked in at the DKG lookahead.
func (g *Group) CompromisedPercent() float64 { return g.compromisedPercent }

// OfflinePercent is the share of seats disconnected at the DKG lookahead.
func (g *Group) OfflinePercent() float64 { return g.offlinePercent }

// Ownership returns the number of seats each node id holds.
func (g *Group) Ownership() []int {
	return append([]int(nil), g.ownership...)
}

// Members returns the ids of the group's seats in lottery order.
func (g *Group) Members() []int {
	ids := make([]int, len(g.members))
	for i, m := range g.members {
		ids[i] = m.id
	}
	return ids
}

func (g *Group) offlineSeats(v *tickView) int {
	offline := 0
	for _, m := range g.members {
		if !v.isConnected(m.id) {
			offline++
		}
	}
	return offline
}

func (g *Group) next(v *tickView) groupState {
	s := g.groupState
	switch s.status {
	case GroupDKG:
		if s.dkgBlockDelay < 0 {
			s.status = GroupActive
			break
		}
		s.dkgBlockDelay--
		if !s.snapshotTaken && s.dkgBlockDelay <= dkgLookahead {
			s.snapshotTaken = true
			s.compromisedPercent = g.maliciousPercent
			if len(g.members) > 0 {
				s.offlinePercent = float64(g.offlineSeats(v)) / float64(len(g.members))
			}
		}
	case GroupActive:
		s.expiry--
		if s.expiry <= 0 {
			s.status = GroupExpired
		}
	}
	return s
}

func (g *Group) commit(s groupState) {
	g.groupState = s
}

func (g *Group) Report() models.EntityReport {
	return models.EntityReport{
		ID:               g.id,
		Kind:             models.KindGroup,
		Status:           g.status.String(),
		Ownership:        sparse(g.ownership),
		DKGBlockDelay:    ptr(g.dkgBlockDelay),
		MaliciousPercent: ptr(g.maliciousPercent),
		OfflinePercent:   ptr(g.offlinePercent),
	}
}

func sparse(histogram []int) map[int]int {
	out := make(map[int]int)
	for id, n := range histogram {
		if n > 0 {
			out[id] = n
		}
	}
	return out
}
