// Package snowflake implements a Snowflake warehouse destination over
// database/sql. Full refresh truncates and reloads inside a transaction;
// upsert issues MERGE statements sourced from VALUES batches. Temporal
// and decimal values are bound as text and cast server-side, which keeps
// them exact.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/dataset"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/logger"
	"github.com/ajitpratap0/forklift/pkg/models"
	"github.com/ajitpratap0/forklift/pkg/warehouse"

	// Snowflake driver
	_ "github.com/snowflakedb/gosnowflake"
)

// maxStatementBinds caps binds per statement to keep generated VALUES
// lists at a size the driver handles comfortably.
const maxStatementBinds = 16000

// Destination writes star schema tables into a Snowflake database
type Destination struct {
	cfg      config.LoadConfig
	db       *sql.DB
	database string
	schema   string
	logger   *zap.Logger
}

// New creates a snowflake destination from load settings. The DSN uses
// the driver format user:pass@account/database/schema?warehouse=wh; the
// database and schema options add explicit qualification when set.
func New(cfg config.LoadConfig) (warehouse.Destination, error) {
	if cfg.DSN == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "snowflake destination requires a dsn")
	}

	return &Destination{
		cfg:      cfg,
		database: cfg.Option("database", ""),
		schema:   cfg.Option("schema", ""),
		logger:   logger.Get().With(zap.String("component", "snowflake_destination")),
	}, nil
}

// Initialize opens the connection pool and verifies the warehouse is
// reachable.
func (d *Destination) Initialize(ctx context.Context) error {
	db, err := sql.Open("snowflake", d.cfg.DSN)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse snowflake dsn")
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to reach snowflake")
	}

	d.db = db
	d.logger.Info("connected to snowflake",
		zap.String("database", d.database),
		zap.String("schema", d.schema))
	return nil
}

// EnsureTable creates the table when it does not exist
func (d *Destination) EnsureTable(ctx context.Context, schema models.Schema) error {
	if _, err := d.db.ExecContext(ctx, d.createTableSQL(schema)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create table").
			WithTable(schema.Name)
	}
	return nil
}

// FullRefresh truncates the table and reloads all rows in one
// transaction.
func (d *Destination) FullRefresh(ctx context.Context, table models.TableData) (int, error) {
	rows, err := d.bindRows(table)
	if err != nil {
		return 0, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to begin transaction").
			WithTable(table.Schema.Name)
	}
	defer func() { _ = tx.Rollback() }()

	truncate := fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s", d.qualify(table.Schema.Name))
	if _, err := tx.ExecContext(ctx, truncate); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to truncate table").
			WithTable(table.Schema.Name)
	}

	batch := d.batchRows(len(table.Schema.Columns))
	total := 0
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}

		stmt := d.insertSQL(table.Schema, end-start)
		if _, err := tx.ExecContext(ctx, stmt, flatten(rows[start:end])...); err != nil {
			return total, errors.Wrap(err, errors.ErrorTypeWrite, "failed to insert batch").
				WithTable(table.Schema.Name).
				WithRowRange(start, end)
		}
		total += end - start
	}

	if err := tx.Commit(); err != nil {
		return total, errors.Wrap(err, errors.ErrorTypeWrite, "failed to commit refresh").
			WithTable(table.Schema.Name)
	}

	d.logger.Debug("table refreshed",
		zap.String("table", table.Schema.Name),
		zap.Int("rows", total))
	return total, nil
}

// Upsert merges rows on the schema key column in batches
func (d *Destination) Upsert(ctx context.Context, table models.TableData) (int, error) {
	if table.Schema.KeyIndex() < 0 {
		return 0, errors.Newf(errors.ErrorTypeInternal, "table %s has no key column", table.Schema.Name).
			WithTable(table.Schema.Name)
	}

	rows, err := d.bindRows(table)
	if err != nil {
		return 0, err
	}

	batch := d.batchRows(len(table.Schema.Columns))
	total := 0
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}

		stmt := d.mergeSQL(table.Schema, end-start)
		if _, err := d.db.ExecContext(ctx, stmt, flatten(rows[start:end])...); err != nil {
			return total, errors.Wrap(err, errors.ErrorTypeWrite, "failed to merge batch").
				WithTable(table.Schema.Name).
				WithRowRange(start, end)
		}
		total += end - start
	}

	d.logger.Debug("table upserted",
		zap.String("table", table.Schema.Name),
		zap.Int("rows", total))
	return total, nil
}

// Close releases the connection pool
func (d *Destination) Close(_ context.Context) error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to close snowflake connection")
	}
	return nil
}

// batchRows caps rows per statement by the bind budget
func (d *Destination) batchRows(cols int) int {
	batch := d.cfg.BatchSize
	if batch <= 0 {
		batch = 5000
	}
	if cols > 0 && batch > maxStatementBinds/cols {
		batch = maxStatementBinds / cols
	}
	if batch < 1 {
		batch = 1
	}
	return batch
}

// bindRows converts table rows into driver bind values. Ints, floats,
// bools and strings bind natively; timestamps, dates and decimals bind
// as their text encodings and are cast by the server.
func (d *Destination) bindRows(table models.TableData) ([][]interface{}, error) {
	cols := table.Schema.Columns
	out := make([][]interface{}, len(table.Rows))
	for i, row := range table.Rows {
		if len(row) != len(cols) {
			return nil, errors.Newf(errors.ErrorTypeIntegrity, "row has %d values, schema has %d columns",
				len(row), len(cols)).
				WithTable(table.Schema.Name).
				WithRowRange(i, i+1)
		}

		bound := make([]interface{}, len(row))
		for j, col := range cols {
			switch col.Type {
			case models.TypeTimestamp, models.TypeDate, models.TypeDecimal:
				s, err := dataset.EncodeValue(col, row[j])
				if err != nil {
					if e, ok := err.(*errors.Error); ok {
						return nil, e.WithTable(table.Schema.Name).WithRowRange(i, i+1)
					}
					return nil, err
				}
				bound[j] = s
			default:
				bound[j] = row[j]
			}
		}
		out[i] = bound
	}
	return out, nil
}

func flatten(rows [][]interface{}) []interface{} {
	if len(rows) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		args = append(args, row...)
	}
	return args
}

func (d *Destination) createTableSQL(schema models.Schema) string {
	defs := make([]string, 0, len(schema.Columns)+1)
	for _, c := range schema.Columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c.Name), snowflakeType(c.Type)))
	}
	if schema.Key != "" {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdent(schema.Key)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		d.qualify(schema.Name), strings.Join(defs, ", "))
}

// insertSQL builds a multi-row INSERT statement with ? placeholders
func (d *Destination) insertSQL(schema models.Schema, n int) string {
	names := schema.ColumnNames()
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + ")"
	values := make([]string, n)
	for i := range values {
		values[i] = row
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.qualify(schema.Name), strings.Join(quoted, ", "), strings.Join(values, ", "))
}

// mergeSQL builds a MERGE statement sourced from a VALUES batch. The
// source columns arrive as column1..columnN and are aliased back to the
// schema names.
func (d *Destination) mergeSQL(schema models.Schema, n int) string {
	names := schema.ColumnNames()

	selects := make([]string, len(names))
	for i, name := range names {
		selects[i] = fmt.Sprintf("column%d AS %s", i+1, quoteIdent(name))
	}

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + ")"
	values := make([]string, n)
	for i := range values {
		values[i] = row
	}

	key := quoteIdent(schema.Key)
	sets := make([]string, 0, len(names))
	inserts := make([]string, len(names))
	sources := make([]string, len(names))
	for i, name := range names {
		q := quoteIdent(name)
		inserts[i] = q
		sources[i] = "src." + q
		if name != schema.Key {
			sets = append(sets, fmt.Sprintf("dst.%s = src.%s", q, q))
		}
	}

	var sb strings.Builder
	sb.WriteString("MERGE INTO ")
	sb.WriteString(d.qualify(schema.Name))
	sb.WriteString(" AS dst USING (SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM VALUES ")
	sb.WriteString(strings.Join(values, ", "))
	sb.WriteString(") AS src ON dst.")
	sb.WriteString(key)
	sb.WriteString(" = src.")
	sb.WriteString(key)
	if len(sets) > 0 {
		sb.WriteString(" WHEN MATCHED THEN UPDATE SET ")
		sb.WriteString(strings.Join(sets, ", "))
	}
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	sb.WriteString(strings.Join(inserts, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(sources, ", "))
	sb.WriteString(")")
	return sb.String()
}

func (d *Destination) qualify(table string) string {
	parts := make([]string, 0, 3)
	if d.database != "" {
		parts = append(parts, quoteIdent(d.database))
	}
	if d.schema != "" {
		parts = append(parts, quoteIdent(d.schema))
	}
	parts = append(parts, quoteIdent(table))
	return strings.Join(parts, ".")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func snowflakeType(t models.FieldType) string {
	switch t {
	case models.TypeInt:
		return "NUMBER"
	case models.TypeFloat:
		return "FLOAT"
	case models.TypeBool:
		return "BOOLEAN"
	case models.TypeTimestamp:
		return "TIMESTAMP_TZ"
	case models.TypeDate:
		return "DATE"
	case models.TypeDecimal:
		return "NUMBER(12,2)"
	default:
		return "VARCHAR"
	}
}
