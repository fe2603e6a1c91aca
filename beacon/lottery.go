package beacon

import (
	"cmp"
	"slices"
)

// TicketEntry is one ticket in a lottery round.
type TicketEntry struct {
	Value  float64
	NodeID int
	Index  int // position in the node's ticket set
}

func compareEntries(a, b TicketEntry) int {
	if c := cmp.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	if c := cmp.Compare(a.NodeID, b.NodeID); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// Lottery returns the node ids owning the groupSize smallest tickets, in
// ticket order. Equal values are ordered by node id and then ticket index, so
// the result does not depend on the order of entries. Fewer ids are returned
// when there are not enough tickets.
func Lottery(entries []TicketEntry, groupSize int) []int {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, compareEntries)
	if groupSize > len(sorted) {
		groupSize = len(sorted)
	}
	ids := make([]int, groupSize)
	for i := range ids {
		ids[i] = sorted[i].NodeID
	}
	return ids
}
