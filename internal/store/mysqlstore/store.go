// Package mysqlstore samples documents stored one per row in a MySQL JSON
// (or text) column.
package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dbsmedya/docschema/internal/logger"
	"github.com/dbsmedya/docschema/internal/schema"
	"github.com/dbsmedya/docschema/internal/sqlutil"
	"github.com/dbsmedya/docschema/internal/store/docjson"
)

// Store is a schema.DocumentSource over one table column.
type Store struct {
	db     *sql.DB
	schema string // empty means the connection's default database
	table  string
	column string

	quotedTable  string
	quotedColumn string
	logger       *logger.Logger
}

var _ schema.DocumentSource = (*Store)(nil)

// New returns a store reading documents from table.column. table may be
// qualified as "database.table".
func New(db *sql.DB, table, column string, log *logger.Logger) (*Store, error) {
	quotedTable, err := sqlutil.QuoteQualifiedSafe(table)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	quotedColumn, err := sqlutil.QuoteIdentifierSafe(column)
	if err != nil {
		return nil, fmt.Errorf("document column: %w", err)
	}
	if log == nil {
		log = logger.NewDefault()
	}

	dbName, tableName := sqlutil.SplitQualified(table)
	return &Store{
		db:           db,
		schema:       dbName,
		table:        tableName,
		column:       column,
		quotedTable:  quotedTable,
		quotedColumn: quotedColumn,
		logger:       log.WithCollection(table),
	}, nil
}

// EstimateCount reads TABLE_ROWS from information_schema, which InnoDB keeps
// approximately. When the table reports no statistic it falls back to COUNT(*).
func (s *Store) EstimateCount(ctx context.Context) (int64, error) {
	query := "SELECT TABLE_ROWS FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?"
	args := []any{s.table}
	if s.schema != "" {
		query = "SELECT TABLE_ROWS FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?"
		args = []any{s.schema, s.table}
	}

	var rows sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&rows)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("table %s not found", s.quotedTable)
	case err != nil:
		return 0, fmt.Errorf("failed to read table statistics: %w", err)
	case rows.Valid:
		return rows.Int64, nil
	}

	s.logger.Warnw("No table statistics, counting rows")
	var count int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.quotedTable)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// Sample streams size random rows. ORDER BY RAND() scans the table, which
// is acceptable at the sample sizes the sampler asks for.
func (s *Store) Sample(ctx context.Context, size int64) (schema.Stream[schema.RawDocument], error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY RAND() LIMIT ?", s.quotedColumn, s.quotedTable)
	rows, err := s.db.QueryContext(ctx, query, size)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", s.quotedTable, err)
	}
	return &rowStream{rows: rows}, nil
}

// rowStream decodes one Extended JSON document per row.
type rowStream struct {
	rows *sql.Rows
	err  error
}

func (r *rowStream) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		r.err = err
		return false
	}
	return r.rows.Next()
}

func (r *rowStream) Decode() (schema.RawDocument, error) {
	var raw sql.RawBytes
	if err := r.rows.Scan(&raw); err != nil {
		return nil, err
	}
	return docjson.Decode(raw)
}

func (r *rowStream) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *rowStream) Close(context.Context) error {
	return r.rows.Close()
}
