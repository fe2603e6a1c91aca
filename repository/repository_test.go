package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon-sim/db"
	"beacon-sim/models"
)

func newTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	l, err := db.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return NewRunRepository(l)
}

func f(v float64) *float64 { return &v }

func TestPutAndGetRun(t *testing.T) {
	repo := newTestRepo(t)

	run := &models.RunRecord{ID: "abc", Seed: 3, Ticks: 12, CreatedAt: 10}
	ticks := make([]models.TickMetrics, 12)
	for i := range ticks {
		ticks[i] = models.TickMetrics{Tick: i, ActiveNodes: i * 2}
	}
	ticks[11].CompromisedGroupsPercent = f(0.25)
	owner := 1
	entities := []models.EntityReport{
		{ID: 0, Kind: models.KindNode, Status: "connected", Owner: &owner},
		{ID: 1, Kind: models.KindGroup, Status: "active", Ownership: map[int]int{0: 3}},
		{ID: 2, Kind: models.KindSignature, Status: "complete"},
	}
	require.NoError(t, repo.PutRun(run, ticks, entities))

	got, err := repo.GetRun("abc")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	gotTicks, err := repo.GetTicks("abc")
	require.NoError(t, err)
	require.Len(t, gotTicks, 12)
	for i, m := range gotTicks {
		assert.Equal(t, i, m.Tick)
	}
	assert.Equal(t, 0.25, *gotTicks[11].CompromisedGroupsPercent)
	assert.Nil(t, gotTicks[0].CompromisedGroupsPercent)

	groups, err := repo.GetEntities("abc", models.KindGroup)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, map[int]int{0: 3}, groups[0].Ownership)

	all, err := repo.GetEntities("abc", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUnknownRun(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetRun("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetTicks("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetEntities("missing", models.KindNode)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunsDoNotLeakIntoEachOther(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.PutRun(&models.RunRecord{ID: "a", CreatedAt: 2}, []models.TickMetrics{{Tick: 0}}, nil))
	require.NoError(t, repo.PutRun(&models.RunRecord{ID: "ab", CreatedAt: 1}, []models.TickMetrics{{Tick: 0}, {Tick: 1}}, nil))

	ticks, err := repo.GetTicks("a")
	require.NoError(t, err)
	assert.Len(t, ticks, 1)

	runs, err := repo.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "ab", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)
}
