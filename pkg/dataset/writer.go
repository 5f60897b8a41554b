package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/compression"
	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/json"
	"github.com/ajitpratap0/forklift/pkg/metrics"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// Writer persists tables into a dataset directory, one file per table
// plus a manifest. CSV files carry a header row; NDJSON files encode
// one keyed object per row. The configured compression codec wraps
// each table file.
type Writer struct {
	cfg    config.DatasetConfig
	logger *zap.Logger
}

// NewWriter creates a dataset writer for the configured directory
func NewWriter(cfg config.DatasetConfig, logger *zap.Logger) *Writer {
	return &Writer{cfg: cfg, logger: logger}
}

// WriteDataset writes all raw tables and the manifest
func (w *Writer) WriteDataset(ctx context.Context, ds *models.Dataset, seed int64) (*Manifest, error) {
	tables := make([]models.TableData, 0, len(models.RawTableNames))
	for _, name := range models.RawTableNames {
		td, err := ds.TableData(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, td)
	}
	return w.WriteTables(ctx, tables, seed)
}

// WriteStarSet writes all warehouse tables and the manifest
func (w *Writer) WriteStarSet(ctx context.Context, star *models.StarSet, seed int64) (*Manifest, error) {
	tables := make([]models.TableData, 0, len(models.StarTableNames))
	for _, name := range models.StarTableNames {
		td, err := star.TableData(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, td)
	}
	return w.WriteTables(ctx, tables, seed)
}

// WriteTables writes the given tables in order and records them in the
// manifest. The write stops at the first failing table.
func (w *Writer) WriteTables(ctx context.Context, tables []models.TableData, seed int64) (*Manifest, error) {
	if w.cfg.Dir == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "dataset directory is not configured")
	}
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create dataset directory").
			WithDetail("dir", w.cfg.Dir)
	}

	codec, err := compression.ForName(w.cfg.Compression)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	m := &Manifest{
		FormatVersion: FormatVersion,
		Seed:          seed,
		Format:        w.cfg.Format,
		Compression:   codec.Name(),
	}

	for _, td := range tables {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "dataset write cancelled")
		}

		fileName, bytesWritten, err := w.writeTable(td, codec)
		if err != nil {
			return nil, err
		}
		metrics.DatasetBytes.WithLabelValues(td.Schema.Name, w.cfg.Format).Add(float64(bytesWritten))

		m.Tables = append(m.Tables, TableManifest{
			Name:   td.Schema.Name,
			File:   fileName,
			Rows:   td.RowCount(),
			Schema: td.Schema,
		})
		w.logger.Debug("wrote dataset table",
			zap.String("table", td.Schema.Name),
			zap.String("file", fileName),
			zap.Int("rows", td.RowCount()),
			zap.Int64("bytes", bytesWritten),
		)
	}

	if err := WriteManifest(w.cfg.Dir, m); err != nil {
		return nil, err
	}

	w.logger.Info("dataset written",
		zap.String("dir", w.cfg.Dir),
		zap.Int("tables", len(m.Tables)),
		zap.String("format", w.cfg.Format),
		zap.String("compression", codec.Name()),
		zap.Duration("duration", time.Since(start)),
	)
	return m, nil
}

func (w *Writer) writeTable(td models.TableData, codec compression.Codec) (string, int64, error) {
	name := td.Schema.Name
	fileName := name + "." + w.cfg.Format + codec.Ext()

	f, err := os.Create(filepath.Join(w.cfg.Dir, fileName))
	if err != nil {
		return "", 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create dataset file").
			WithTable(name).WithDetail("file", fileName)
	}

	counting := &countingWriter{w: f}
	out, err := codec.WrapWriter(counting)
	if err != nil {
		_ = f.Close()
		return "", 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to initialize compression").
			WithTable(name).WithDetail("codec", codec.Name())
	}

	switch w.cfg.Format {
	case config.FormatNDJSON:
		err = writeNDJSON(out, td)
	default:
		err = writeCSV(out, td)
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, errors.ErrorTypeWrite, "failed to flush compression").WithTable(name)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, errors.ErrorTypeWrite, "failed to close dataset file").WithTable(name)
	}
	if err != nil {
		return "", 0, err
	}
	return fileName, counting.n, nil
}

func writeCSV(out io.Writer, td models.TableData) error {
	name := td.Schema.Name
	cw := csv.NewWriter(out)

	if err := cw.Write(td.Schema.ColumnNames()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write csv header").WithTable(name)
	}

	cells := make([]string, len(td.Schema.Columns))
	for i, row := range td.Rows {
		if len(row) != len(td.Schema.Columns) {
			return errors.Newf(errors.ErrorTypeIntegrity,
				"row has %d values, schema has %d columns", len(row), len(td.Schema.Columns)).
				WithTable(name).WithRowRange(i, i+1)
		}
		for j, col := range td.Schema.Columns {
			cell, err := EncodeValue(col, row[j])
			if err != nil {
				return err
			}
			cells[j] = cell
		}
		if err := cw.Write(cells); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write csv row").
				WithTable(name).WithRowRange(i, i+1)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to flush csv").WithTable(name)
	}
	return nil
}

func writeNDJSON(out io.Writer, td models.TableData) error {
	name := td.Schema.Name
	enc := json.NewLineEncoder(out)
	defer enc.Close()

	// One object reused per row; Encode serializes before the next fill.
	obj := make(map[string]interface{}, len(td.Schema.Columns))
	for i, row := range td.Rows {
		if len(row) != len(td.Schema.Columns) {
			return errors.Newf(errors.ErrorTypeIntegrity,
				"row has %d values, schema has %d columns", len(row), len(td.Schema.Columns)).
				WithTable(name).WithRowRange(i, i+1)
		}
		for j, col := range td.Schema.Columns {
			v, err := JSONValue(col, row[j])
			if err != nil {
				return err
			}
			obj[col.Name] = v
		}
		if err := enc.Encode(obj); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write ndjson row").
				WithTable(name).WithRowRange(i, i+1)
		}
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
