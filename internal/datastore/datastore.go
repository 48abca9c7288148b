// Package datastore executes validated read-only SQL against the business
// tables and exposes their schema for prompt construction.
package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supportql/supportql/internal/store"
)

// Row is one result record keyed by column name.
type Row map[string]any

type TableSchema struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Querier is the read surface the pipeline depends on.
type Querier interface {
	Query(ctx context.Context, sqlText string) ([]Row, error)
	Schema(ctx context.Context) ([]TableSchema, error)
}

type Datastore struct {
	db      *sql.DB
	dialect store.Dialect
}

func New(db *sql.DB, dialect store.Dialect) *Datastore {
	return &Datastore{db: db, dialect: dialect}
}

// Query runs the statement verbatim and zips every row into a column-keyed
// map. The safety gate has already run by the time a statement reaches here.
func (d *Datastore) Query(ctx context.Context, sqlText string) ([]Row, error) {
	rows, err := d.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	results := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		record := make(Row, len(columns))
		for i, column := range columns {
			value := values[i]
			if raw, ok := value.([]byte); ok {
				value = string(raw)
			}
			record[column] = value
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return results, nil
}

const (
	sqliteSchemaQuery = `SELECT m.name AS table_name, p.name AS column_name
FROM sqlite_master m
JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name IN ('orders', 'products', 'returns')
ORDER BY m.name, p.cid`

	postgresSchemaQuery = `SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = 'public' AND table_name IN ('orders', 'products', 'returns')
ORDER BY table_name, ordinal_position`
)

// Schema introspects the business tables. Column order follows the table
// definition so prompts stay stable across runs.
func (d *Datastore) Schema(ctx context.Context) ([]TableSchema, error) {
	var query string
	switch d.dialect {
	case store.DialectSQLite:
		query = sqliteSchemaQuery
	case store.DialectPostgres:
		query = postgresSchemaQuery
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d.dialect)
	}

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		tables  []TableSchema
		current *TableSchema
	)
	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		if current == nil || current.Name != tableName {
			tables = append(tables, TableSchema{Name: tableName})
			current = &tables[len(tables)-1]
		}
		current.Columns = append(current.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema rows: %w", err)
	}
	return tables, nil
}
