// Package warehouse executes generated SQL against the analytics warehouse
// over database/sql and formats results for terminal display.
//
// The driver is selected at wiring time; the postgres (pgx stdlib) and
// sqlserver drivers are registered by the command package.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	analyst "github.com/ledgerline/analyst"
)

// DefaultMaxRows caps how many result rows are kept for display.
const DefaultMaxRows = 500

// Interface compliance check.
var _ analyst.Querier = (*DB)(nil)

// DB implements [analyst.Querier] on top of a database/sql connection pool.
type DB struct {
	db      *sql.DB
	maxRows int
	logger  *log.Logger
}

// Option configures a [DB].
type Option func(*DB)

// WithMaxRows overrides the row cap. Values below 1 keep the default.
func WithMaxRows(n int) Option {
	return func(d *DB) {
		if n > 0 {
			d.maxRows = n
		}
	}
}

// WithLogger sets a debug logger. The default discards everything: the
// terminal UI owns stdout.
func WithLogger(l *log.Logger) Option {
	return func(d *DB) { d.logger = l }
}

// Open opens a warehouse connection pool for the given registered driver
// and DSN. The connection is not verified here; call Ping.
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("warehouse: open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	d := &DB{
		db:      db,
		maxRows: DefaultMaxRows,
		logger:  log.New(io.Discard),
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Ping verifies the connection is usable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("warehouse: ping: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Query runs one statement and collects the result into a TableBlock.
// Rows beyond the cap are counted but not kept, so TotalRows always
// reflects the full result size.
func (d *DB) Query(ctx context.Context, statement string) (analyst.TableBlock, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, statement)
	if err != nil {
		return analyst.TableBlock{}, fmt.Errorf("warehouse: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return analyst.TableBlock{}, fmt.Errorf("warehouse: columns: %w", err)
	}

	block := analyst.TableBlock{
		SQL:     statement,
		Columns: cols,
	}

	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}

	for rows.Next() {
		block.TotalRows++
		if block.TotalRows > d.maxRows {
			block.Truncated = true
			continue
		}
		if err := rows.Scan(scan...); err != nil {
			return analyst.TableBlock{}, fmt.Errorf("warehouse: scan row %d: %w", block.TotalRows, err)
		}
		row := make([]string, len(cols))
		for i, v := range scan {
			row[i] = Sanitize(formatValue(*v.(*any)))
		}
		block.Rows = append(block.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return analyst.TableBlock{}, fmt.Errorf("warehouse: rows: %w", err)
	}

	d.logger.Debug("query executed",
		"rows", block.TotalRows,
		"truncated", block.Truncated,
		"elapsed", time.Since(start),
	)
	return block, nil
}

// formatValue renders one scanned cell for display. NULL becomes an empty
// string; byte slices are assumed to be UTF-8 text (drivers return text
// columns this way).
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
