package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/metrics"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// Coordinator drives a destination through a load run. Tables are applied
// in the order given, which places dimensions before the facts that
// reference them. The first table failure aborts the run; the returned
// report covers only the tables that finished.
type Coordinator struct {
	cfg    config.LoadConfig
	dest   Destination
	logger *zap.Logger
}

// NewCoordinator creates a coordinator for the given destination
func NewCoordinator(cfg config.LoadConfig, dest Destination, log *zap.Logger) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		dest:   dest,
		logger: log.With(zap.String("component", "load_coordinator")),
	}
}

// Load initializes the destination, applies every table in order, and
// closes the destination before returning.
func (c *Coordinator) Load(ctx context.Context, tables []models.TableData) (*LoadReport, error) {
	start := time.Now()
	report := &LoadReport{Destination: c.cfg.Destination}

	if err := c.dest.Initialize(ctx); err != nil {
		return report, errors.Wrap(err, errors.ErrorTypeWrite,
			fmt.Sprintf("failed to initialize destination: %s", c.cfg.Destination))
	}
	defer func() {
		if cerr := c.dest.Close(ctx); cerr != nil {
			c.logger.Warn("failed to close destination", zap.Error(cerr))
		}
	}()

	for _, td := range tables {
		tr, err := c.loadTable(ctx, td)
		if err != nil {
			return report, err
		}
		report.Tables = append(report.Tables, tr)
	}

	c.logger.Info("load complete",
		zap.String("destination", c.cfg.Destination),
		zap.Int("tables", len(report.Tables)),
		zap.Int("rows", report.TotalRows()),
		zap.Duration("duration", time.Since(start)))

	return report, nil
}

// loadTable applies one table under the per-table deadline
func (c *Coordinator) loadTable(ctx context.Context, td models.TableData) (TableReport, error) {
	name := td.Schema.Name
	mode := c.cfg.ModeFor(name)

	tctx := ctx
	if c.cfg.TableTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, c.cfg.TableTimeout)
		defer cancel()
	}

	timer := metrics.NewTableLoadTimer(name, mode)
	rows, err := c.applyTable(tctx, td, mode)
	elapsed := timer.ObserveDuration()

	if err != nil {
		metrics.RowsLoaded.WithLabelValues(name, mode, "failure").Add(float64(rows))
		return TableReport{}, c.classifyTableError(err, tctx, td, mode)
	}

	metrics.RowsLoaded.WithLabelValues(name, mode, "success").Add(float64(rows))
	c.logger.Info("table loaded",
		zap.String("table", name),
		zap.String("mode", mode),
		zap.Int("rows", rows),
		zap.Duration("duration", elapsed))

	return TableReport{Table: name, Mode: mode, Rows: rows, Duration: elapsed}, nil
}

func (c *Coordinator) applyTable(ctx context.Context, td models.TableData, mode string) (int, error) {
	if err := c.dest.EnsureTable(ctx, td.Schema); err != nil {
		return 0, err
	}

	switch mode {
	case config.ModeUpsert:
		return c.dest.Upsert(ctx, td)
	default:
		return c.dest.FullRefresh(ctx, td)
	}
}

// classifyTableError wraps a destination failure with the table name and
// the row range being applied. Expiry of the per-table deadline maps to
// the timeout class; everything else from a destination is a write error.
func (c *Coordinator) classifyTableError(err error, tctx context.Context, td models.TableData, mode string) error {
	errType := errors.ErrorTypeWrite
	if tctx.Err() == context.DeadlineExceeded {
		errType = errors.ErrorTypeTimeout
	}

	e := errors.Wrap(err, errType, fmt.Sprintf("failed to load table: %s", td.Schema.Name)).
		WithTable(td.Schema.Name).
		WithDetail("mode", mode)
	if _, ok := e.Details["row_range"]; !ok {
		e = e.WithRowRange(0, td.RowCount())
	}
	return e
}
