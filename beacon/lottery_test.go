package beacon

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon-sim/random"
)

func lotteryEntries(rng *random.Source, nodes, tickets int) []TicketEntry {
	var entries []TicketEntry
	for id := 0; id < nodes; id++ {
		for i, v := range rng.Tickets(tickets) {
			entries = append(entries, TicketEntry{Value: v, NodeID: id, Index: i})
		}
	}
	return entries
}

func TestLotterySelectsGroupSize(t *testing.T) {
	entries := lotteryEntries(random.New(3), 30, 10)
	ids := Lottery(entries, 25)
	assert.Len(t, ids, 25)
}

func TestLotteryPicksSmallestTickets(t *testing.T) {
	entries := []TicketEntry{
		{Value: 0.9, NodeID: 0},
		{Value: 0.1, NodeID: 1},
		{Value: 0.5, NodeID: 2},
		{Value: 0.2, NodeID: 1, Index: 1},
	}
	assert.Equal(t, []int{1, 1, 2}, Lottery(entries, 3))
}

func TestLotteryIndependentOfOrder(t *testing.T) {
	entries := lotteryEntries(random.New(5), 40, 8)
	want := Lottery(entries, 30)

	shuffler := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10; i++ {
		shuffled := append([]TicketEntry(nil), entries...)
		shuffler.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		require.Equal(t, want, Lottery(shuffled, 30))
	}
}

func TestLotteryBreaksTiesDeterministically(t *testing.T) {
	entries := []TicketEntry{
		{Value: 0.3, NodeID: 7},
		{Value: 0.3, NodeID: 2, Index: 1},
		{Value: 0.3, NodeID: 2},
		{Value: 0.3, NodeID: 4},
	}
	assert.Equal(t, []int{2, 2, 4}, Lottery(entries, 3))
}

func TestLotteryDeterministicForSeed(t *testing.T) {
	a := Lottery(lotteryEntries(random.New(11), 20, 5), 10)
	b := Lottery(lotteryEntries(random.New(11), 20, 5), 10)
	assert.Equal(t, a, b)
}

func TestLotteryShortOfTickets(t *testing.T) {
	entries := lotteryEntries(random.New(1), 2, 2)
	assert.Len(t, Lottery(entries, 10), 4)
}
