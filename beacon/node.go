package beacon

import (
	"beacon-sim/models"
	"beacon-sim/random"
)

// ConnectionStatus is a node's connectivity.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connected
)

func (s ConnectionStatus) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

type nodeState struct {
	status          ConnectionStatus
	connectionDelay int
	failed          bool
	dead            bool
}

// Node is one staking device. It holds a fixed number of virtual stakers and
// draws one lottery ticket per staker each group formation round.
type Node struct {
	id        int
	owner     int
	tickets   int
	malicious bool

	ticketList []float64

	nodeState
}

func newNode(id, owner, tickets int, malicious bool, connectionDelay int) *Node {
	return &Node{
		id:        id,
		owner:     owner,
		tickets:   tickets,
		malicious: malicious,
		nodeState: nodeState{status: Disconnected, connectionDelay: connectionDelay},
	}
}

func (n *Node) ID() int                 { return n.id }
func (n *Node) Kind() models.EntityKind { return models.KindNode }
func (n *Node) Owner() int              { return n.owner }
func (n *Node) TicketCount() int        { return n.tickets }
func (n *Node) Malicious() bool         { return n.malicious }
func (n *Node) Connected() bool         { return n.status == Connected }
func (n *Node) Dead() bool              { return n.dead }

// Tickets returns the ticket set drawn in the last lottery round.
func (n *Node) Tickets() []float64 {
	return append([]float64(nil), n.ticketList...)
}

// GenerateTickets replaces the node's ticket set with count fresh draws.
func (n *Node) GenerateTickets(rng *random.Source, count int) {
	n.ticketList = rng.Tickets(count)
}

type nodeParams struct {
	failurePercent float64
	deathPercent   float64
	reconnectDelay int
}

// next computes the node's state for the following tick. Death is permanent.
// A failure disconnects a connected node; a disconnected node counts down its
// delay and connects at zero whatever it draws.
func (n *Node) next(rng *random.Source, p nodeParams) nodeState {
	s := n.nodeState
	s.failed = rng.Percent(p.failurePercent)
	if rng.Percent(p.deathPercent) {
		s.dead = true
	}

	switch {
	case s.dead:
		s.status = Disconnected
	case s.status == Connected:
		if s.failed {
			s.status = Disconnected
			s.connectionDelay = rng.IntN(p.reconnectDelay + 1)
		}
	default:
		if s.connectionDelay > 0 {
			s.connectionDelay--
		} else {
			s.status = Connected
		}
	}
	return s
}

func (n *Node) commit(s nodeState) {
	n.nodeState = s
}

func (n *Node) Report() models.EntityReport {
	return models.EntityReport{
		ID:        n.id,
		Kind:      models.KindNode,
		Status:    n.status.String(),
		Owner:     ptr(n.owner),
		Tickets:   ptr(n.tickets),
		Malicious: ptr(n.malicious),
		Dead:      ptr(n.dead),
	}
}
