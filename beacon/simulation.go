package beacon

import (
	"context"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"beacon-sim/models"
	"beacon-sim/random"
)

// Reporter receives the metrics of every completed tick.
type Reporter interface {
	TickCompleted(m models.TickMetrics)
}

type noopReporter struct{}

func (noopReporter) TickCompleted(models.TickMetrics) {}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used for simulation diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(s *Simulation) {
		if log != nil {
			s.log = log
		}
	}
}

// WithReporter registers r to receive per-tick metrics.
func WithReporter(r Reporter) Option {
	return func(s *Simulation) {
		if r != nil {
			s.reporter = r
		}
	}
}

// Simulation owns the random source, the clock and every entity of one run.
// It is not safe for concurrent use.
type Simulation struct {
	cfg      Config
	rng      *random.Source
	log      *zap.Logger
	reporter Reporter

	nodeParams nodeParams

	clock  int
	nextID int

	nodes      []*Node
	groups     []*Group
	signatures []*Signature

	activeNodes  *registry[*Node]
	activeGroups *registry[*Group]

	bootstrapComplete bool
	skippedSignatures int
}

// New validates cfg and creates the node population.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s := &Simulation{
		cfg:      cfg,
		rng:      random.New(cfg.Seed),
		log:      zap.NewNop(),
		reporter: noopReporter{},
		nodeParams: nodeParams{
			failurePercent: cfg.NodeFailurePercent,
			deathPercent:   cfg.NodeDeathPercent,
			reconnectDelay: cfg.NodeReconnectDelay,
		},
		activeNodes:  newRegistry[*Node](),
		activeGroups: newRegistry[*Group](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.populate()

	s.log.Info("simulation created",
		zap.Uint64("seed", cfg.Seed),
		zap.String("owner_mode", string(cfg.OwnerMode)),
		zap.Int("nodes", len(s.nodes)),
		zap.Int("owners", len(cfg.OwnerStakes)))
	return s, nil
}

func (s *Simulation) populate() {
	owners := len(s.cfg.OwnerStakes)
	malicious := make([]bool, owners)
	for i := range malicious {
		malicious[i] = s.rng.Percent(s.cfg.MaliciousOwnerPercent)
	}

	for _, spec := range s.cfg.nodeSpecs() {
		owner := spec.owner
		if owner < 0 {
			owner = s.drawOwner(owners)
		}
		delay := s.rng.IntN(s.cfg.NodeConnectionDelay)
		s.nodes = append(s.nodes, newNode(s.allocID(), owner, spec.tickets, malicious[owner], delay))
	}
}

func (s *Simulation) drawOwner(owners int) int {
	v := math.Round(s.rng.Normal(s.cfg.OwnerMean, s.cfg.OwnerStdDev))
	return int(math.Max(0, math.Min(float64(owners-1), v)))
}

func (s *Simulation) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

// Tick returns the number of ticks stepped so far.
func (s *Simulation) Tick() int { return s.clock }

// Nodes returns the node population ordered by id.
func (s *Simulation) Nodes() []*Node { return slices.Clone(s.nodes) }

// Groups returns every group ever formed, ordered by id.
func (s *Simulation) Groups() []*Group { return slices.Clone(s.groups) }

// Signatures returns every signature ever requested, ordered by id.
func (s *Simulation) Signatures() []*Signature { return slices.Clone(s.signatures) }

// ActiveNodeCount returns the size of the connected node registry.
func (s *Simulation) ActiveNodeCount() int { return s.activeNodes.len() }

// ActiveGroupCount returns the size of the active group registry.
func (s *Simulation) ActiveGroupCount() int { return s.activeGroups.len() }

// Entities returns every node, group and signature ordered by id.
func (s *Simulation) Entities() []Entity {
	out := make([]Entity, 0, len(s.nodes)+len(s.groups)+len(s.signatures))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	for _, g := range s.groups {
		out = append(out, g)
	}
	for _, sig := range s.signatures {
		out = append(out, sig)
	}
	slices.SortFunc(out, func(a, b Entity) int { return a.ID() - b.ID() })
	return out
}

// Run steps the simulation ticks times, calling fn after every tick. It stops
// early when ctx is cancelled or fn returns an error.
func (s *Simulation) Run(ctx context.Context, ticks int, fn func(models.TickMetrics) error) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := s.Step()
		if fn == nil {
			continue
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the simulation by one tick and returns its metrics.
func (s *Simulation) Step() models.TickMetrics {
	if !s.bootstrapComplete && s.activeNodes.len() >= s.cfg.GroupFormationThreshold {
		for i := 0; i < s.cfg.ActiveGroupThreshold; i++ {
			s.formGroup()
		}
		s.bootstrapComplete = true
		s.log.Info("bootstrapped groups",
			zap.Int("tick", s.clock),
			zap.Int("groups", len(s.groups)),
			zap.Int("active_nodes", s.activeNodes.len()))
	}

	relay := s.rng.Bernoulli(s.cfg.RelayRequestProbability)
	if relay {
		s.requestSignature()
		s.formGroup()
	}

	m := s.aggregate()
	m.Tick = s.clock
	m.RelayRequest = relay

	s.advance()
	s.refresh()
	s.clock++

	m.ActiveNodes = s.activeNodes.len()
	m.ActiveGroups = s.activeGroups.len()
	s.reporter.TickCompleted(m)
	return m
}

// formGroup runs one lottery round over the active nodes and registers the
// winning group in DKG state.
func (s *Simulation) formGroup() (*Group, bool) {
	active := s.activeNodeList()
	if len(active) < s.cfg.GroupFormationThreshold {
		s.log.Debug("not enough active nodes to register a group",
			zap.Int("tick", s.clock),
			zap.Int("active_nodes", len(active)))
		return nil, false
	}

	var entries []TicketEntry
	for _, n := range active {
		n.GenerateTickets(s.rng, n.tickets)
		for i, v := range n.ticketList {
			entries = append(entries, TicketEntry{Value: v, NodeID: n.id, Index: i})
		}
	}

	ids := Lottery(entries, s.cfg.GroupSize)
	if len(ids) < s.cfg.GroupSize {
		s.log.Warn("lottery could not fill a group",
			zap.Int("tick", s.clock),
			zap.Int("tickets", len(entries)))
		return nil, false
	}

	members := make([]*Node, len(ids))
	for i, id := range ids {
		members[i] = s.nodes[id]
	}
	g := newGroup(s.allocID(), members, len(s.nodes), s.cfg.DKGBlockDelay, s.cfg.GroupExpiry)
	s.groups = append(s.groups, g)
	s.log.Debug("registered group",
		zap.Int("tick", s.clock),
		zap.Int("group_id", g.id),
		zap.Float64("malicious_percent", g.maliciousPercent))
	return g, true
}

func (s *Simulation) requestSignature() (*Signature, bool) {
	groups := s.activeGroupList()
	if len(groups) == 0 {
		s.skippedSignatures++
		s.log.Debug("no active groups available for relay request", zap.Int("tick", s.clock))
		return nil, false
	}
	g := groups[s.rng.IntN(len(groups))]
	sig := newSignature(s.allocID(), g, s.rng.Poisson(s.cfg.SignatureDelay))
	s.signatures = append(s.signatures, sig)
	return sig, true
}

func (s *Simulation) activeNodeList() []*Node {
	out := make([]*Node, 0, s.activeNodes.len())
	for _, n := range s.nodes {
		if s.activeNodes.has(n.id) {
			out = append(out, n)
		}
	}
	return out
}

func (s *Simulation) activeGroupList() []*Group {
	out := make([]*Group, 0, s.activeGroups.len())
	for _, g := range s.groups {
		if s.activeGroups.has(g.id) {
			out = append(out, g)
		}
	}
	return out
}

func (s *Simulation) view() *tickView {
	connected := make([]bool, len(s.nodes))
	for i, n := range s.nodes {
		connected[i] = n.Connected()
	}
	return &tickView{nodes: s.nodes, connected: connected}
}

// advance moves every entity one tick. All next states are computed from the
// same start-of-tick view before any of them is committed.
func (s *Simulation) advance() {
	v := s.view()

	nodeStates := make([]nodeState, len(s.nodes))
	for i, n := range s.nodes {
		nodeStates[i] = n.next(s.rng, s.nodeParams)
	}
	groupStates := make([]groupState, len(s.groups))
	for i, g := range s.groups {
		groupStates[i] = g.next(v)
	}
	signatureStates := make([]signatureState, len(s.signatures))
	for i, sig := range s.signatures {
		signatureStates[i] = sig.next(v)
	}

	for i, n := range s.nodes {
		n.commit(nodeStates[i])
	}
	for i, g := range s.groups {
		g.commit(groupStates[i])
	}
	for i, sig := range s.signatures {
		sig.commit(signatureStates[i])
	}
}

// refresh rebuilds the derived registries from entity state.
func (s *Simulation) refresh() {
	for _, n := range s.nodes {
		if n.Connected() {
			s.activeNodes.add(n)
		} else {
			s.activeNodes.remove(n.id)
		}
	}
	for _, g := range s.groups {
		if g.status == GroupActive {
			s.activeGroups.add(g)
		} else {
			s.activeGroups.remove(g.id)
		}
	}
}
