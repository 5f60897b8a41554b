// Package postgres implements a PostgreSQL warehouse destination on a
// pgx connection pool. Full refresh truncates the table and bulk-loads
// rows with COPY; upsert uses INSERT ... ON CONFLICT against the
// surrogate key, batched to stay under the bind parameter limit.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/logger"
	"github.com/ajitpratap0/forklift/pkg/models"
	"github.com/ajitpratap0/forklift/pkg/warehouse"
)

// maxBindParams caps bind parameters per statement; postgres rejects
// statements past 65535.
const maxBindParams = 65000

// Destination writes star schema tables into a PostgreSQL database
type Destination struct {
	cfg    config.LoadConfig
	pool   *pgxpool.Pool
	schema string
	logger *zap.Logger
}

// New creates a postgres destination from load settings. The target
// schema comes from the schema option and defaults to public.
func New(cfg config.LoadConfig) (warehouse.Destination, error) {
	if cfg.DSN == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "postgres destination requires a dsn")
	}

	return &Destination{
		cfg:    cfg,
		schema: cfg.Option("schema", "public"),
		logger: logger.Get().With(zap.String("component", "postgres_destination")),
	}, nil
}

// Initialize parses the DSN, opens the connection pool, and verifies the
// database is reachable.
func (d *Destination) Initialize(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(d.cfg.DSN)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse postgres dsn")
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to reach postgres")
	}

	d.pool = pool
	d.logger.Info("connected to postgres",
		zap.String("schema", d.schema),
		zap.Int32("max_connections", poolCfg.MaxConns))
	return nil
}

// EnsureTable creates the table when it does not exist
func (d *Destination) EnsureTable(ctx context.Context, schema models.Schema) error {
	if _, err := d.pool.Exec(ctx, d.createTableSQL(schema)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to create table").
			WithTable(schema.Name)
	}
	return nil
}

// FullRefresh truncates the table and bulk-loads all rows in one
// transaction, so readers never observe a half-loaded table.
func (d *Destination) FullRefresh(ctx context.Context, table models.TableData) (int, error) {
	rows, err := d.bindRows(table)
	if err != nil {
		return 0, err
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to begin transaction").
			WithTable(table.Schema.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	truncate := fmt.Sprintf("TRUNCATE TABLE %s", d.qualify(table.Schema.Name))
	if _, err := tx.Exec(ctx, truncate); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to truncate table").
			WithTable(table.Schema.Name)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{d.schema, table.Schema.Name},
		table.Schema.ColumnNames(),
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to copy rows").
			WithTable(table.Schema.Name).
			WithRowRange(0, table.RowCount())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to commit refresh").
			WithTable(table.Schema.Name)
	}

	d.logger.Debug("table refreshed",
		zap.String("table", table.Schema.Name),
		zap.Int64("rows", copied))
	return int(copied), nil
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

		if err := d.upsertBatch(ctx, table.Schema, rows[start:end]); err != nil {
			if e, ok := err.(*errors.Error); ok {
				return total, e.WithRowRange(start, end)
			}
			return total, err
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
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	return nil
}

func (d *Destination) upsertBatch(ctx context.Context, schema models.Schema, rows [][]interface{}) error {
	args := make([]interface{}, 0, len(rows)*len(schema.Columns))
	for _, row := range rows {
		args = append(args, row...)
	}

	if _, err := d.pool.Exec(ctx, d.upsertSQL(schema, len(rows)), args...); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to upsert batch").
			WithTable(schema.Name)
	}
	return nil
}

// batchRows caps rows per statement so the bind parameter count stays
// under the postgres limit.
func (d *Destination) batchRows(cols int) int {
	batch := d.cfg.BatchSize
	if batch <= 0 {
		batch = 5000
	}
	if cols > 0 && batch > maxBindParams/cols {
		batch = maxBindParams / cols
	}
	if batch < 1 {
		batch = 1
	}
	return batch
}

// bindRows converts table rows into values pgx encodes natively.
// Decimals travel as pgtype.Numeric so NUMERIC columns stay exact.
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
		for j, v := range row {
			b, err := bindValue(v)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to bind row value").
					WithTable(table.Schema.Name).
					WithRowRange(i, i+1)
			}
			bound[j] = b
		}
		out[i] = bound
	}
	return out, nil
}

func bindValue(v interface{}) (interface{}, error) {
	dec, ok := v.(decimal.Decimal)
	if !ok {
		return v, nil
	}

	var n pgtype.Numeric
	if err := n.Scan(dec.String()); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *Destination) createTableSQL(schema models.Schema) string {
	defs := make([]string, 0, len(schema.Columns)+1)
	for _, c := range schema.Columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c.Name), pgType(c.Type)))
	}
	if schema.Key != "" {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteIdent(schema.Key)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		d.qualify(schema.Name), strings.Join(defs, ", "))
}

// upsertSQL builds a multi-row INSERT ... ON CONFLICT statement
func (d *Destination) upsertSQL(schema models.Schema, n int) string {
	names := schema.ColumnNames()
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.qualify(schema.Name))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	arg := 1
	for r := 0; r < n; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := range names {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(arg))
			arg++
		}
		sb.WriteString(")")
	}

	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(quoteIdent(schema.Key))
	sb.WriteString(")")

	sets := make([]string, 0, len(names))
	for _, name := range names {
		if name == schema.Key {
			continue
		}
		q := quoteIdent(name)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}
	if len(sets) == 0 {
		sb.WriteString(" DO NOTHING")
	} else {
		sb.WriteString(" DO UPDATE SET ")
		sb.WriteString(strings.Join(sets, ", "))
	}
	return sb.String()
}

func (d *Destination) qualify(table string) string {
	return pgx.Identifier{d.schema, table}.Sanitize()
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func pgType(t models.FieldType) string {
	switch t {
	case models.TypeInt:
		return "BIGINT"
	case models.TypeFloat:
		return "DOUBLE PRECISION"
	case models.TypeBool:
		return "BOOLEAN"
	case models.TypeTimestamp:
		return "TIMESTAMPTZ"
	case models.TypeDate:
		return "DATE"
	case models.TypeDecimal:
		return "NUMERIC(12,2)"
	default:
		return "TEXT"
	}
}
