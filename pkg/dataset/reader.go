package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/compression"
	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/json"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// Reader loads dataset directories written by Writer. The manifest is
// the source of truth for format, compression and per-table schemas;
// any divergence between it and the files classifies as an integrity
// error.
type Reader struct {
	dir      string
	logger   *zap.Logger
	manifest *Manifest
}

// NewReader creates a reader over a dataset directory
func NewReader(dir string, logger *zap.Logger) *Reader {
	return &Reader{dir: dir, logger: logger}
}

// Manifest returns the directory's manifest, loading it on first use
func (r *Reader) Manifest() (*Manifest, error) {
	if r.manifest == nil {
		m, err := ReadManifest(r.dir)
		if err != nil {
			return nil, err
		}
		r.manifest = m
	}
	return r.manifest, nil
}

// ReadTable loads one table by name
func (r *Reader) ReadTable(name string) (models.TableData, error) {
	m, err := r.Manifest()
	if err != nil {
		return models.TableData{}, err
	}
	entry, ok := m.Table(name)
	if !ok {
		return models.TableData{}, errors.Newf(errors.ErrorTypeIntegrity,
			"dataset has no table %q", name).WithTable(name)
	}

	codec, err := compression.ForName(m.Compression)
	if err != nil {
		return models.TableData{}, errors.Wrap(err, errors.ErrorTypeIntegrity,
			"manifest names an unsupported compression codec").WithTable(name)
	}

	f, err := os.Open(filepath.Join(r.dir, entry.File))
	if err != nil {
		return models.TableData{}, errors.Wrap(err, errors.ErrorTypeIntegrity,
			"manifest references a missing table file").
			WithTable(name).WithDetail("file", entry.File)
	}
	defer f.Close()

	in, err := codec.WrapReader(f)
	if err != nil {
		return models.TableData{}, errors.Wrap(err, errors.ErrorTypeIntegrity,
			fmt.Sprintf("table file is not valid %s", codec.Name())).
			WithTable(name).WithDetail("file", entry.File)
	}
	defer in.Close()

	var rows [][]interface{}
	switch m.Format {
	case config.FormatNDJSON:
		rows, err = readNDJSON(in, entry.Schema)
	default:
		rows, err = readCSV(in, entry.Schema)
	}
	if err != nil {
		return models.TableData{}, err
	}

	if len(rows) != entry.Rows {
		return models.TableData{}, errors.Newf(errors.ErrorTypeIntegrity,
			"table file holds %d rows, manifest records %d", len(rows), entry.Rows).
			WithTable(name).WithDetail("file", entry.File)
	}

	r.logger.Debug("read dataset table",
		zap.String("table", name),
		zap.Int("rows", len(rows)),
	)
	return models.TableData{Schema: entry.Schema, Rows: rows}, nil
}

// ReadTables loads several tables in the given order
func (r *Reader) ReadTables(names []string) ([]models.TableData, error) {
	tables := make([]models.TableData, 0, len(names))
	for _, name := range names {
		td, err := r.ReadTable(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, td)
	}
	return tables, nil
}

// ReadDataset loads all raw tables and rebuilds the typed dataset
func (r *Reader) ReadDataset() (*models.Dataset, error) {
	tables := make(map[string]models.TableData, len(models.RawTableNames))
	for _, name := range models.RawTableNames {
		td, err := r.ReadTable(name)
		if err != nil {
			return nil, err
		}
		tables[name] = td
	}
	return models.DatasetFromTables(tables)
}

func readCSV(in io.Reader, schema models.Schema) ([][]interface{}, error) {
	name := schema.Name
	cr := csv.NewReader(in)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeIntegrity, "csv file is missing its header").WithTable(name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIntegrity, "failed to read csv header").WithTable(name)
	}
	want := schema.ColumnNames()
	if len(header) != len(want) {
		return nil, errors.Newf(errors.ErrorTypeIntegrity,
			"csv header has %d columns, schema has %d", len(header), len(want)).WithTable(name)
	}
	for i := range want {
		if header[i] != want[i] {
			return nil, errors.Newf(errors.ErrorTypeIntegrity,
				"csv column %d is %q, schema says %q", i, header[i], want[i]).WithTable(name)
		}
	}

	var rows [][]interface{}
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIntegrity, "failed to read csv row").
				WithTable(name).WithRowRange(i, i+1)
		}

		row := make([]interface{}, len(schema.Columns))
		for j, col := range schema.Columns {
			v, err := DecodeValue(col, rec[j])
			if err != nil {
				return nil, withRow(err, name, i)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readNDJSON(in io.Reader, schema models.Schema) ([][]interface{}, error) {
	name := schema.Name
	dec := json.GetDecoder(in)
	defer json.PutDecoder(dec)

	var rows [][]interface{}
	for i := 0; ; i++ {
		var raw map[string]interface{}
		if err := dec.Decode(&raw); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIntegrity, "failed to decode ndjson row").
				WithTable(name).WithRowRange(i, i+1)
		}

		row := make([]interface{}, len(schema.Columns))
		for j, col := range schema.Columns {
			v, err := DecodeJSONValue(col, raw[col.Name])
			if err != nil {
				return nil, withRow(err, name, i)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// withRow attaches table and row context to codec errors, which only
// know their column.
func withRow(err error, table string, row int) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithTable(table).WithRowRange(row, row+1)
	}
	return err
}
