// Package forklift generates deterministic synthetic food-delivery datasets
// and loads them into analytical warehouses as a star schema.
//
// A single seed fully determines every byte of output: two runs with the same
// configuration produce identical raw tables, identical star tables, and
// identical load batches. This makes Forklift suitable for warehouse
// benchmarking, ETL regression testing, and BI demo environments where
// reproducibility matters more than realism.
//
// # Architecture
//
// Forklift is a three-stage pipeline:
//
// 1. Generate: seeded entity and transaction generation producing seven raw
// tables (customers, restaurants, menu items, drivers, orders, order items,
// deliveries) with referential integrity across all foreign keys.
//
// 2. Transform: star-schema construction deriving five dimensions and two
// fact tables from the raw dataset, including a calendar dimension spanning
// the configured date window and surrogate keys assigned in deterministic
// order.
//
// 3. Load: destination-agnostic warehouse loading through a plugin registry,
// with per-table batching, load modes (replace or append), and a structured
// report of rows written per table.
//
// Stages communicate through files: the generate stage writes a manifest plus
// one file per table, and the transform and load stages can resume from those
// files in a separate process.
//
// # Quick Start
//
// Run the full pipeline against the bundled CSV destination:
//
//	import (
//	    "context"
//
//	    "github.com/ajitpratap0/forklift/internal/pipeline"
//	    "github.com/ajitpratap0/forklift/pkg/config"
//	    "github.com/ajitpratap0/forklift/pkg/logger"
//	    _ "github.com/ajitpratap0/forklift/pkg/warehouse/csvdir"
//	)
//
//	cfg := config.Default()
//	cfg.Generation.Seed = 42
//	cfg.Generation.Orders = 10000
//	cfg.Load.Destination = "csv"
//
//	runner := pipeline.NewRunner(cfg, logger.Get())
//	res := runner.Run(context.Background())
//	if res.Failed() {
//	    // res.Stage names the stage that failed
//	}
//
// # Key Packages
//
//	pkg/generate     - Seeded entity and transaction generation
//	pkg/star         - Star-schema transform (dimensions and facts)
//	pkg/dataset      - Table file formats, manifest, compression
//	pkg/warehouse    - Destination registry and load coordinator
//	pkg/config       - Configuration loading and validation
//	pkg/models       - Raw and star table row types
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics collection
//
// # Destinations
//
// Destinations self-register through pkg/warehouse. Bundled destinations:
//
//   - csv: one CSV file per star table in a local directory
//   - postgres: batched inserts through pgx with replace or append modes
//   - snowflake: stage-and-merge loading through gosnowflake
//
// New destinations implement warehouse.Destination and register a factory in
// an init function; see pkg/warehouse/csvdir for the smallest example.
//
// # Configuration
//
// Configuration loads from YAML with FORKLIFT_-prefixed environment variable
// overrides:
//
//	FORKLIFT_GENERATION_SEED=7 forklift run -c forklift.yaml
//
// Validation collects every problem in one pass, so a broken config reports
// all of its issues at once rather than one per run.
//
// # Development
//
//	git clone https://github.com/ajitpratap0/forklift.git
//	cd forklift
//	go build ./cmd/forklift
//	./forklift run --orders 1000 --out ./data
package forklift
