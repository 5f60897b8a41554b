// Package pipeline orchestrates forklift runs. A run walks three stages
// in order: generate the raw dataset, transform it into the star schema,
// and load the star tables into a warehouse destination. Each stage
// consumes the complete output of the one before it, so a failure stops
// the run at a well-defined point.
//
// Stages are callable individually, which is what the CLI subcommands
// do; Run chains all three and reports the furthest stage reached
// together with the first error.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/dataset"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/generate"
	"github.com/ajitpratap0/forklift/pkg/logger"
	"github.com/ajitpratap0/forklift/pkg/metrics"
	"github.com/ajitpratap0/forklift/pkg/models"
	"github.com/ajitpratap0/forklift/pkg/star"
	"github.com/ajitpratap0/forklift/pkg/warehouse"
)

// Stage identifies a pipeline stage
type Stage string

const (
	// StageGenerate produces the raw dataset and writes it to disk
	StageGenerate Stage = "generate"
	// StageTransform builds the star schema from the raw dataset
	StageTransform Stage = "transform"
	// StageLoad writes star tables into the warehouse destination
	StageLoad Stage = "load"
)

// StarSubdir is the directory under the dataset dir that holds the
// transformed star tables.
const StarSubdir = "star"

// Result describes one pipeline run: the furthest stage reached, the
// first error encountered, and what each stage produced. On failure the
// artifacts of completed stages remain set.
type Result struct {
	RunID     string
	Stage     Stage
	Err       error
	Durations map[Stage]time.Duration

	Dataset    *models.Dataset
	Star       *models.StarSet
	LoadReport *warehouse.LoadReport
}

// Failed reports whether the run stopped on an error
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Runner executes pipeline stages over one configuration
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRunner creates a pipeline runner
func NewRunner(cfg *config.Config, log *zap.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: log.With(zap.String("component", "pipeline")),
	}
}

// StarDir returns the directory star tables are written to
func (r *Runner) StarDir() string {
	return filepath.Join(r.cfg.Dataset.Dir, StarSubdir)
}

// Run executes generate, transform and load in order, stopping at the
// first failure. The returned result always names the stage the run
// ended in.
func (r *Runner) Run(ctx context.Context) *Result {
	res := &Result{
		RunID:     uuid.NewString(),
		Durations: make(map[Stage]time.Duration),
	}
	ctx = context.WithValue(ctx, logger.RunIDKey, res.RunID)

	log := r.logger.With(zap.String("run_id", res.RunID))
	log.Info("pipeline starting",
		zap.Int64("seed", r.cfg.Generation.Seed),
		zap.Int("orders", r.cfg.Generation.Orders),
		zap.String("destination", r.cfg.Load.Destination))
	start := time.Now()

	res.Stage = StageGenerate
	stageStart := time.Now()
	ds, _, err := r.Generate(ctx)
	res.Durations[StageGenerate] = time.Since(stageStart)
	if err != nil {
		res.Err = err
		return res
	}
	res.Dataset = ds

	res.Stage = StageTransform
	stageStart = time.Now()
	set, err := r.Transform(ctx, ds)
	res.Durations[StageTransform] = time.Since(stageStart)
	if err != nil {
		res.Err = err
		return res
	}
	res.Star = set

	res.Stage = StageLoad
	stageStart = time.Now()
	report, err := r.Load(ctx, set)
	res.Durations[StageLoad] = time.Since(stageStart)
	res.LoadReport = report
	if err != nil {
		res.Err = err
		return res
	}

	log.Info("pipeline complete",
		zap.Int("rows_loaded", report.TotalRows()),
		zap.Duration("duration", time.Since(start)))
	return res
}

// Generate produces the raw dataset and persists it to the dataset dir
func (r *Runner) Generate(ctx context.Context) (*models.Dataset, *dataset.Manifest, error) {
	ctx = context.WithValue(ctx, logger.StageKey, string(StageGenerate))
	log := logger.WithContext(ctx)
	timer := metrics.NewStageTimer(string(StageGenerate))

	ds, err := generate.NewEntityGenerator(r.cfg.Generation, log).Generate(ctx)
	if err != nil {
		timer.ObserveDuration()
		return nil, nil, r.fail(StageGenerate, err)
	}
	if err := generate.NewTransactionGenerator(r.cfg.Generation, log).Generate(ctx, ds); err != nil {
		timer.ObserveDuration()
		return nil, nil, r.fail(StageGenerate, err)
	}

	manifest, err := dataset.NewWriter(r.cfg.Dataset, log).WriteDataset(ctx, ds, r.cfg.Generation.Seed)
	if err != nil {
		timer.ObserveDuration()
		return nil, nil, r.fail(StageGenerate, err)
	}

	log.Info("generate stage complete",
		zap.Int("orders", len(ds.Orders)),
		zap.Int("deliveries", len(ds.Deliveries)),
		zap.Duration("duration", timer.ObserveDuration()))
	return ds, manifest, nil
}

// Transform builds the star schema from a dataset and writes the star
// tables under the dataset dir.
func (r *Runner) Transform(ctx context.Context, ds *models.Dataset) (*models.StarSet, error) {
	ctx = context.WithValue(ctx, logger.StageKey, string(StageTransform))
	log := logger.WithContext(ctx)
	timer := metrics.NewStageTimer(string(StageTransform))

	set, err := star.NewTransformer(log).Transform(ctx, ds)
	if err != nil {
		timer.ObserveDuration()
		return nil, r.fail(StageTransform, err)
	}

	starCfg := r.cfg.Dataset
	starCfg.Dir = r.StarDir()
	if _, err := dataset.NewWriter(starCfg, log).WriteStarSet(ctx, set, r.cfg.Generation.Seed); err != nil {
		timer.ObserveDuration()
		return nil, r.fail(StageTransform, err)
	}

	log.Info("transform stage complete",
		zap.Int("facts", len(set.OrderFacts)),
		zap.Duration("duration", timer.ObserveDuration()))
	return set, nil
}

// TransformFromFiles reads the raw dataset back from the dataset dir
// before transforming, for runs where generation happened earlier.
func (r *Runner) TransformFromFiles(ctx context.Context) (*models.StarSet, error) {
	log := logger.WithContext(context.WithValue(ctx, logger.StageKey, string(StageTransform)))

	ds, err := dataset.NewReader(r.cfg.Dataset.Dir, log).ReadDataset()
	if err != nil {
		return nil, r.fail(StageTransform, err)
	}
	return r.Transform(ctx, ds)
}

// Load writes star tables into the configured warehouse destination
func (r *Runner) Load(ctx context.Context, set *models.StarSet) (*warehouse.LoadReport, error) {
	tables := make([]models.TableData, 0, len(models.StarTableNames))
	for _, name := range models.StarTableNames {
		td, err := set.TableData(name)
		if err != nil {
			return nil, r.fail(StageLoad, err)
		}
		tables = append(tables, td)
	}
	return r.load(ctx, tables)
}

// LoadFromFiles reads previously transformed star tables from disk and
// loads them, for runs where transformation happened earlier.
func (r *Runner) LoadFromFiles(ctx context.Context) (*warehouse.LoadReport, error) {
	log := logger.WithContext(context.WithValue(ctx, logger.StageKey, string(StageLoad)))

	tables, err := dataset.NewReader(r.StarDir(), log).ReadTables(models.StarTableNames)
	if err != nil {
		return nil, r.fail(StageLoad, err)
	}
	return r.load(ctx, tables)
}

func (r *Runner) load(ctx context.Context, tables []models.TableData) (*warehouse.LoadReport, error) {
	ctx = context.WithValue(ctx, logger.StageKey, string(StageLoad))
	log := logger.WithContext(ctx)
	timer := metrics.NewStageTimer(string(StageLoad))

	dest, err := warehouse.CreateDestination(r.cfg.Load.Destination, r.cfg.Load)
	if err != nil {
		timer.ObserveDuration()
		return nil, r.fail(StageLoad, err)
	}

	report, err := warehouse.NewCoordinator(r.cfg.Load, dest, log).Load(ctx, tables)
	elapsed := timer.ObserveDuration()
	if err != nil {
		return report, r.fail(StageLoad, err)
	}

	log.Info("load stage complete",
		zap.String("destination", r.cfg.Load.Destination),
		zap.Int("tables", len(report.Tables)),
		zap.Int("rows", report.TotalRows()),
		zap.Duration("duration", elapsed))
	return report, nil
}

// fail records the error metric for a stage. The error itself passes
// through unchanged so callers see the first failure verbatim.
func (r *Runner) fail(stage Stage, err error) error {
	errType := errors.ErrorTypeInternal
	if e, ok := err.(*errors.Error); ok {
		errType = e.Type
	}
	metrics.RecordError(string(stage), string(errType))
	return err
}
