package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"beacon-sim/db"
	"beacon-sim/models"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

const (
	runPrefix    = "run:"
	tickPrefix   = "tick:"
	entityPrefix = "entity:"
)

// It abstracts the storage layer from the simulation and the HTTP handlers
type RunRepositoryInterface interface {
	PutRun(run *models.RunRecord, ticks []models.TickMetrics, entities []models.EntityReport) error
	GetRun(id string) (*models.RunRecord, error)
	GetAllRuns() ([]*models.RunRecord, error)
	GetTicks(id string) ([]models.TickMetrics, error)
	GetEntities(id string, kind models.EntityKind) ([]models.EntityReport, error)
}

// RunRepository implements the RunRepositoryInterface using LevelDB as the storage backend
type RunRepository struct {
	db *db.LevelDB
}

// NewRunRepository creates and returns a new RunRepository instance
func NewRunRepository(db *db.LevelDB) *RunRepository {
	return &RunRepository{db: db}
}

func tickKey(id string, tick int) string {
	return fmt.Sprintf("%s%s:%010d", tickPrefix, id, tick)
}

func entityKey(id string, entityID int) string {
	return fmt.Sprintf("%s%s:%010d", entityPrefix, id, entityID)
}

// PutRun stores a run record with its tick series and entity reports in one batch
func (r *RunRepository) PutRun(run *models.RunRecord, ticks []models.TickMetrics, entities []models.EntityReport) error {
	pairs := make(map[string][]byte, 1+len(ticks)+len(entities))

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	pairs[runPrefix+run.ID] = data

	for _, m := range ticks {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		pairs[tickKey(run.ID, m.Tick)] = data
	}
	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		pairs[entityKey(run.ID, e.ID)] = data
	}
	return r.db.WriteBatch(pairs)
}

// GetRun retrieves a run record by its ID
func (r *RunRepository) GetRun(id string) (*models.RunRecord, error) {
	data, err := r.db.Get([]byte(runPrefix + id))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var run models.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetAllRuns retrieves every run record, oldest first
func (r *RunRepository) GetAllRuns() ([]*models.RunRecord, error) {
	iter := r.db.NewIterator([]byte(runPrefix))
	defer iter.Release()

	var runs []*models.RunRecord
	for iter.Next() {
		var run models.RunRecord
		if err := json.Unmarshal(iter.Value(), &run); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAt != runs[j].CreatedAt {
			return runs[i].CreatedAt < runs[j].CreatedAt
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

// GetTicks retrieves the metric series of a run in tick order
func (r *RunRepository) GetTicks(id string) ([]models.TickMetrics, error) {
	if err := r.ensureRun(id); err != nil {
		return nil, err
	}
	iter := r.db.NewIterator([]byte(tickPrefix + id + ":"))
	defer iter.Release()

	ticks := []models.TickMetrics{}
	for iter.Next() {
		var m models.TickMetrics
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, err
		}
		ticks = append(ticks, m)
	}
	return ticks, iter.Error()
}

// GetEntities retrieves the final entity reports of a run in id order. An
// empty kind returns every entity.
func (r *RunRepository) GetEntities(id string, kind models.EntityKind) ([]models.EntityReport, error) {
	if err := r.ensureRun(id); err != nil {
		return nil, err
	}
	iter := r.db.NewIterator([]byte(entityPrefix + id + ":"))
	defer iter.Release()

	entities := []models.EntityReport{}
	for iter.Next() {
		var e models.EntityReport
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, err
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		entities = append(entities, e)
	}
	return entities, iter.Error()
}

func (r *RunRepository) ensureRun(id string) error {
	ok, err := r.db.Has([]byte(runPrefix + id))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
