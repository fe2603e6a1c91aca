package beacon

import "beacon-sim/models"

// Entity is the reporting view shared by nodes, groups and signatures.
type Entity interface {
	ID() int
	Kind() models.EntityKind
	Report() models.EntityReport
}

var (
	_ Entity = (*Node)(nil)
	_ Entity = (*Group)(nil)
	_ Entity = (*Signature)(nil)
)

// tickView is the state every entity observes while computing its next state.
// It is captured once per tick before any entity moves.
type tickView struct {
	nodes     []*Node
	connected []bool // by node id
}

func (v *tickView) isConnected(nodeID int) bool {
	return nodeID >= 0 && nodeID < len(v.connected) && v.connected[nodeID]
}

func (v *tickView) owner(nodeID int) int {
	return v.nodes[nodeID].owner
}

// registry is an id-keyed index over one entity arena. Add and remove are
// idempotent.
type registry[T Entity] struct {
	items map[int]T
}

func newRegistry[T Entity]() *registry[T] {
	return &registry[T]{items: make(map[int]T)}
}

func (r *registry[T]) add(e T) {
	r.items[e.ID()] = e
}

func (r *registry[T]) remove(id int) {
	delete(r.items, id)
}

func (r *registry[T]) has(id int) bool {
	_, ok := r.items[id]
	return ok
}

func (r *registry[T]) len() int {
	return len(r.items)
}

func ptr[T any](v T) *T {
	return &v
}
