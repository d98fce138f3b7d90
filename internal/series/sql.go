package series

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/chrissnell/changepoints/pkg/config"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads one ordered numeric column out of a PostgreSQL/TimescaleDB
// or SQLite table
type SQLSource struct {
	db     *sql.DB
	cfg    config.DatabaseSourceData
	query  string
	args   []any
	logger *zap.SugaredLogger
}

// NewSQLSource opens the database described by cfg. Table and column names
// are checked against a strict identifier pattern since they cannot be bound
// as query parameters.
func NewSQLSource(cfg config.DatabaseSourceData, logger *zap.SugaredLogger) (*SQLSource, error) {
	query, args, err := buildQuery(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", cfg.Driver, err)
	}

	return &SQLSource{
		db:     db,
		cfg:    cfg,
		query:  query,
		args:   args,
		logger: logger,
	}, nil
}

// Fetch runs the configured query and returns the column values in order.
// NULL values are skipped.
func (s *SQLSource) Fetch(ctx context.Context) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	x := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if err := checkFinite(v); err != nil {
			return nil, fmt.Errorf("row %d: %w", len(x)+1, err)
		}
		x = append(x, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if s.logger != nil {
		s.logger.Debugf("fetched %d values from %s.%s (driver=%s)", len(x), s.cfg.Table, s.cfg.Column, s.cfg.Driver)
	}
	return x, nil
}

// Close releases the database handle
func (s *SQLSource) Close() error {
	return s.db.Close()
}

func buildQuery(cfg config.DatabaseSourceData) (string, []any, error) {
	var placeholder string
	switch cfg.Driver {
	case "postgres":
		placeholder = "$1"
	case "sqlite":
		placeholder = "?"
	default:
		return "", nil, fmt.Errorf("unsupported source driver %q", cfg.Driver)
	}

	for name, ident := range map[string]string{
		"table":         cfg.Table,
		"column":        cfg.Column,
		"order-by":      cfg.OrderBy,
		"filter-column": cfg.FilterColumn,
	} {
		if ident == "" && (name == "table" || name == "column") {
			return "", nil, fmt.Errorf("source %s is required", name)
		}
		if ident != "" && !identifierPattern.MatchString(ident) {
			return "", nil, fmt.Errorf("source %s %q is not a valid identifier", name, ident)
		}
	}
	if cfg.Limit < 0 {
		return "", nil, fmt.Errorf("source limit must not be negative, got %d", cfg.Limit)
	}

	var b strings.Builder
	var args []any

	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s IS NOT NULL", cfg.Column, cfg.Table, cfg.Column)
	if cfg.FilterColumn != "" {
		fmt.Fprintf(&b, " AND %s = %s", cfg.FilterColumn, placeholder)
		args = append(args, cfg.FilterValue)
	}
	if cfg.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", cfg.OrderBy)
	}
	if cfg.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", cfg.Limit)
	}

	return b.String(), args, nil
}
