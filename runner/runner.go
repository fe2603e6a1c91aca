// Package runner executes simulation runs and stores their reports.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"beacon-sim/analysis"
	"beacon-sim/beacon"
	"beacon-sim/models"
	"beacon-sim/repository"
)

// ErrInvalidRequest is returned for run requests that cannot be executed.
var ErrInvalidRequest = errors.New("invalid run request")

// RunRequest overrides the base configuration for one run.
type RunRequest struct {
	Seed  *uint64 `json:"seed,omitempty"`
	Ticks int     `json:"ticks,omitempty"`
}

// Runner runs simulations against a base configuration and stores the results.
type Runner struct {
	repo         repository.RunRepositoryInterface
	base         beacon.Config
	defaultTicks int
	analysis     analysis.Params
	reporter     beacon.Reporter
	log          *zap.Logger
}

// NewRunner creates a Runner. reporter may be nil.
func NewRunner(repo repository.RunRepositoryInterface, base beacon.Config, defaultTicks int, params analysis.Params, reporter beacon.Reporter, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		repo:         repo,
		base:         base,
		defaultTicks: defaultTicks,
		analysis:     params,
		reporter:     reporter,
		log:          log,
	}
}

// AnalysisParams returns the default analytical parameters.
func (r *Runner) AnalysisParams() analysis.Params {
	return r.analysis
}

// Run executes one simulation, stores its tick series and final entity
// reports and returns the run record. onTick, if set, sees every tick.
func (r *Runner) Run(ctx context.Context, req RunRequest, onTick func(models.TickMetrics)) (*models.RunRecord, error) {
	cfg := r.base
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	ticks := req.Ticks
	if ticks == 0 {
		ticks = r.defaultTicks
	}
	if ticks < 0 {
		return nil, fmt.Errorf("%w: ticks must be positive, got %d", ErrInvalidRequest, ticks)
	}

	sim, err := beacon.New(cfg, beacon.WithLogger(r.log), beacon.WithReporter(r.reporter))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	series := make([]models.TickMetrics, 0, ticks)
	err = sim.Run(ctx, ticks, func(m models.TickMetrics) error {
		series = append(series, m)
		if onTick != nil {
			onTick(m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	run := &models.RunRecord{
		ID:        uuid.NewString(),
		Seed:      cfg.Seed,
		Ticks:     ticks,
		CreatedAt: time.Now().UnixMilli(),
	}
	if len(series) > 0 {
		run.Final = series[len(series)-1]
	}

	entities := sim.Entities()
	reports := make([]models.EntityReport, len(entities))
	for i, e := range entities {
		reports[i] = e.Report()
	}

	if err := r.repo.PutRun(run, series, reports); err != nil {
		return nil, fmt.Errorf("store run %s: %w", run.ID, err)
	}
	r.log.Info("run stored",
		zap.String("run_id", run.ID),
		zap.Uint64("seed", run.Seed),
		zap.Int("ticks", ticks),
		zap.Int("groups", run.Final.TotalGroups),
		zap.Int("signatures", run.Final.TotalSignatures))
	return run, nil
}

// GetRun returns a stored run record.
func (r *Runner) GetRun(id string) (*models.RunRecord, error) {
	return r.repo.GetRun(id)
}

// GetAllRuns returns every stored run record.
func (r *Runner) GetAllRuns() ([]*models.RunRecord, error) {
	return r.repo.GetAllRuns()
}

// GetTicks returns the tick series of a run.
func (r *Runner) GetTicks(id string) ([]models.TickMetrics, error) {
	return r.repo.GetTicks(id)
}

// GetEntities returns the final entity reports of a run, optionally filtered by kind.
func (r *Runner) GetEntities(id string, kind models.EntityKind) ([]models.EntityReport, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entity kind %q", ErrInvalidRequest, kind)
	}
	return r.repo.GetEntities(id, kind)
}

// Analyze evaluates the analytical model for p.
func (r *Runner) Analyze(p analysis.Params) (models.AnalysisReport, error) {
	m, err := analysis.New(p)
	if err != nil {
		return models.AnalysisReport{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return m.Report(), nil
}
