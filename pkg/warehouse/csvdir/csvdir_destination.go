// Package csvdir implements a warehouse destination backed by a local
// directory of CSV files, one file per table. It serves development and
// test runs where no database is reachable; the directory holds the same
// star schema layout a real warehouse would.
package csvdir

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/dataset"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/logger"
	"github.com/ajitpratap0/forklift/pkg/models"
	"github.com/ajitpratap0/forklift/pkg/warehouse"
)

// Destination writes star schema tables as CSV files under one directory
type Destination struct {
	dir    string
	logger *zap.Logger
}

// New creates a csv directory destination. The target directory comes
// from the dir option, falling back to the DSN field.
func New(cfg config.LoadConfig) (warehouse.Destination, error) {
	dir := cfg.Option("dir", cfg.DSN)
	if dir == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "csv destination requires a dir option")
	}

	return &Destination{
		dir:    dir,
		logger: logger.Get().With(zap.String("component", "csv_destination")),
	}, nil
}

// Initialize creates the target directory
func (d *Destination) Initialize(_ context.Context) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create destination directory").
			WithDetail("dir", d.dir)
	}
	d.logger.Debug("destination directory ready", zap.String("dir", d.dir))
	return nil
}

// EnsureTable creates an empty table file with a header row when the
// table file does not exist yet.
func (d *Destination) EnsureTable(_ context.Context, schema models.Schema) error {
	path := d.tablePath(schema.Name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to stat table file").
			WithTable(schema.Name)
	}
	return d.writeFile(schema, nil)
}

// FullRefresh replaces the table file with the given rows. An empty
// table leaves a header-only file behind.
func (d *Destination) FullRefresh(_ context.Context, table models.TableData) (int, error) {
	records, err := d.encodeRows(table)
	if err != nil {
		return 0, err
	}
	if err := d.writeFile(table.Schema, records); err != nil {
		return 0, err
	}

	d.logger.Debug("table refreshed",
		zap.String("table", table.Schema.Name),
		zap.Int("rows", len(records)))
	return len(records), nil
}

// Upsert merges rows into the table file on the schema key column.
// Matched rows are replaced in place, the rest are appended in input
// order, so repeated loads keep a stable row order.
func (d *Destination) Upsert(_ context.Context, table models.TableData) (int, error) {
	keyIdx := table.Schema.KeyIndex()
	if keyIdx < 0 {
		return 0, errors.Newf(errors.ErrorTypeInternal, "table %s has no key column", table.Schema.Name).
			WithTable(table.Schema.Name)
	}

	existing, err := d.readRows(table.Schema)
	if err != nil {
		return 0, err
	}
	incoming, err := d.encodeRows(table)
	if err != nil {
		return 0, err
	}

	index := make(map[string]int, len(existing))
	for i, rec := range existing {
		index[rec[keyIdx]] = i
	}

	merged := existing
	for _, rec := range incoming {
		if at, ok := index[rec[keyIdx]]; ok {
			merged[at] = rec
		} else {
			index[rec[keyIdx]] = len(merged)
			merged = append(merged, rec)
		}
	}

	if err := d.writeFile(table.Schema, merged); err != nil {
		return 0, err
	}

	d.logger.Debug("table upserted",
		zap.String("table", table.Schema.Name),
		zap.Int("rows", len(incoming)),
		zap.Int("total", len(merged)))
	return len(incoming), nil
}

// Close implements Destination; file handles are not held between calls
func (d *Destination) Close(_ context.Context) error {
	return nil
}

func (d *Destination) tablePath(table string) string {
	return filepath.Join(d.dir, table+".csv")
}

// encodeRows renders table rows to CSV records in schema column order
func (d *Destination) encodeRows(table models.TableData) ([][]string, error) {
	cols := table.Schema.Columns
	records := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		if len(row) != len(cols) {
			return nil, errors.Newf(errors.ErrorTypeIntegrity, "row has %d values, schema has %d columns",
				len(row), len(cols)).
				WithTable(table.Schema.Name).
				WithRowRange(i, i+1)
		}

		rec := make([]string, len(cols))
		for j, col := range cols {
			s, err := dataset.EncodeValue(col, row[j])
			if err != nil {
				if e, ok := err.(*errors.Error); ok {
					return nil, e.WithTable(table.Schema.Name).WithRowRange(i, i+1)
				}
				return nil, err
			}
			rec[j] = s
		}
		records[i] = rec
	}
	return records, nil
}

// writeFile replaces the table file with a header row plus records
func (d *Destination) writeFile(schema models.Schema, records [][]string) error {
	path := d.tablePath(schema.Name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create table file").
			WithTable(schema.Name)
	}

	w := csv.NewWriter(f)
	if err := w.Write(schema.ColumnNames()); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write table header").
			WithTable(schema.Name)
	}
	for i, rec := range records {
		if err := w.Write(rec); err != nil {
			f.Close()
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write table row").
				WithTable(schema.Name).
				WithRowRange(i, i+1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to flush table file").
			WithTable(schema.Name)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to close table file").
			WithTable(schema.Name)
	}
	return nil
}

// readRows loads the current table records, without the header row.
// A missing file reads as an empty table.
func (d *Destination) readRows(schema models.Schema) ([][]string, error) {
	path := d.tablePath(schema.Name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to open table file").
			WithTable(schema.Name)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIntegrity, "failed to parse table file").
			WithTable(schema.Name)
	}
	if len(records) == 0 {
		return nil, nil
	}

	want := schema.ColumnNames()
	header := records[0]
	if len(header) != len(want) {
		return nil, errors.Newf(errors.ErrorTypeIntegrity, "table file has %d columns, schema has %d",
			len(header), len(want)).
			WithTable(schema.Name)
	}
	for i := range want {
		if header[i] != want[i] {
			return nil, errors.Newf(errors.ErrorTypeIntegrity, "table file column %q does not match schema column %q",
				header[i], want[i]).
				WithTable(schema.Name)
		}
	}
	return records[1:], nil
}
