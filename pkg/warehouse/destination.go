// Package warehouse loads star schema tables into registered destinations.
//
// A Destination is a pluggable warehouse sink (local CSV directory,
// PostgreSQL, Snowflake). Destinations register themselves by name in an
// init function, so importing a destination package is all it takes to make
// it available:
//
//	import _ "github.com/ajitpratap0/forklift/pkg/warehouse/csvdir"
//
//	dest, err := warehouse.CreateDestination("csv", cfg.Load)
//
// The Coordinator drives a Destination table by table, dimensions before
// facts, and reports how many rows each table received.
package warehouse

import (
	"context"
	"time"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// Destination is a warehouse sink that accepts star schema tables.
// Implementations must be safe to drive sequentially: Initialize once,
// then any number of EnsureTable/FullRefresh/Upsert calls, then Close.
type Destination interface {
	// Initialize opens connections or prepares directories.
	Initialize(ctx context.Context) error

	// EnsureTable makes the destination ready to accept rows for the
	// given schema, creating the table when it does not exist.
	EnsureTable(ctx context.Context, schema models.Schema) error

	// FullRefresh replaces the table contents with the given rows and
	// returns the number of rows written. An empty table truncates the
	// destination table and returns zero.
	FullRefresh(ctx context.Context, table models.TableData) (int, error)

	// Upsert merges rows into the table on its surrogate key column,
	// updating matches and inserting the rest. Returns the number of
	// rows applied.
	Upsert(ctx context.Context, table models.TableData) (int, error)

	// Close releases connections and file handles.
	Close(ctx context.Context) error
}

// Factory creates a Destination from load settings
type Factory func(cfg config.LoadConfig) (Destination, error)

// TableReport records the outcome of a single table load
type TableReport struct {
	Table    string        `json:"table"`
	Mode     string        `json:"mode"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
}

// LoadReport aggregates table outcomes for one load run. On failure it
// covers only the tables that finished before the failing one.
type LoadReport struct {
	Destination string        `json:"destination"`
	Tables      []TableReport `json:"tables"`
}

// TotalRows returns the number of rows written across all tables
func (r *LoadReport) TotalRows() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Rows
	}
	return total
}
