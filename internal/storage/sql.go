// Package storage implements the table client on top of a relational
// database. SQLite serves single-node deployments, PostgreSQL the hosted
// one.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"conservadora/internal/table"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// SQLClient is a table.Client backed by database/sql.
type SQLClient struct {
	db      *sql.DB
	dialect Dialect
	newID   func() string
}

// Open connects to the database, applies migrations and returns a client.
// For SQLite dsn is a file path.
func Open(ctx context.Context, dialect Dialect, dsn string) (*SQLClient, error) {
	if dialect == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = sqliteDSN(dsn)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewSQLClient(db, dialect), nil
}

// sqliteDSN turns on foreign keys so deleting a parent clears references.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLClient wraps an open database.
func NewSQLClient(db *sql.DB, dialect Dialect) *SQLClient {
	return &SQLClient{db: db, dialect: dialect, newID: uuid.NewString}
}

func (c *SQLClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *SQLClient) Select(ctx context.Context, name, orderBy string) ([]table.Fields, error) {
	schema, err := lookup(table.OpSelect, name)
	if err != nil {
		return nil, err
	}
	if _, ok := schema.Column(orderBy); !ok {
		return nil, table.Failf(table.OpSelect, name, "column %q does not exist", orderBy)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC NULLS LAST, id ASC",
		strings.Join(schema.AllColumns(), ", "), name, orderBy)
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, table.Fail(table.OpSelect, name, err)
	}
	defer rows.Close()

	out := []table.Fields{}
	for rows.Next() {
		f, err := c.scan(schema, rows)
		if err != nil {
			return nil, table.Fail(table.OpSelect, name, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, table.Fail(table.OpSelect, name, err)
	}
	return out, nil
}

func (c *SQLClient) Insert(ctx context.Context, name string, fields table.Fields) (table.Fields, error) {
	schema, err := lookup(table.OpInsert, name)
	if err != nil {
		return nil, err
	}

	fields = fields.Clone()
	if fields.ID() == "" {
		fields[table.IDColumn] = c.newID()
	}

	cols, args, err := c.bind(table.OpInsert, schema, fields, true)
	if err != nil {
		return nil, err
	}
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = c.dialect.placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		name, strings.Join(cols, ", "), strings.Join(marks, ", "), strings.Join(schema.AllColumns(), ", "))
	row, err := c.scan(schema, c.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, table.Fail(table.OpInsert, name, err)
	}
	return row, nil
}

func (c *SQLClient) Update(ctx context.Context, name, id string, fields table.Fields) (table.Fields, error) {
	schema, err := lookup(table.OpUpdate, name)
	if err != nil {
		return nil, err
	}

	patch := fields.Clone()
	delete(patch, table.IDColumn)
	if len(patch) == 0 {
		return c.get(ctx, schema, id)
	}

	cols, args, err := c.bind(table.OpUpdate, schema, patch, false)
	if err != nil {
		return nil, err
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = " + c.dialect.placeholder(i+1)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s RETURNING %s",
		name, strings.Join(sets, ", "), c.dialect.placeholder(len(args)), strings.Join(schema.AllColumns(), ", "))
	row, err := c.scan(schema, c.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, table.Fail(table.OpUpdate, name, table.ErrNotFound)
	}
	if err != nil {
		return nil, table.Fail(table.OpUpdate, name, err)
	}
	return row, nil
}

func (c *SQLClient) Delete(ctx context.Context, name, id string) error {
	if _, err := lookup(table.OpDelete, name); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", name, c.dialect.placeholder(1))
	if _, err := c.db.ExecContext(ctx, query, id); err != nil {
		return table.Fail(table.OpDelete, name, err)
	}
	return nil
}

func (c *SQLClient) get(ctx context.Context, schema table.Schema, id string) (table.Fields, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s",
		strings.Join(schema.AllColumns(), ", "), schema.Name, c.dialect.placeholder(1))
	row, err := c.scan(schema, c.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, table.Fail(table.OpUpdate, schema.Name, table.ErrNotFound)
	}
	if err != nil {
		return nil, table.Fail(table.OpUpdate, schema.Name, err)
	}
	return row, nil
}

func lookup(op, name string) (table.Schema, error) {
	schema, ok := table.Lookup(name)
	if !ok {
		return table.Schema{}, table.Failf(op, name, "relation %q does not exist", name)
	}
	return schema, nil
}

// bind validates column names and encodes values. Columns are sorted so
// the generated statement is stable.
func (c *SQLClient) bind(op string, schema table.Schema, fields table.Fields, withID bool) ([]string, []any, error) {
	cols := make([]string, 0, len(fields))
	for k := range fields {
		if k == table.IDColumn && !withID {
			continue
		}
		if _, ok := schema.Column(k); !ok {
			return nil, nil, table.Failf(op, schema.Name, "column %q of relation %q does not exist", k, schema.Name)
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, k := range cols {
		col, _ := schema.Column(k)
		v, err := encode(col, fields[k])
		if err != nil {
			return nil, nil, table.Fail(op, schema.Name, err)
		}
		args[i] = v
	}
	return cols, args, nil
}

func encode(col table.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if col.Kind == table.KindJSON {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", col.Name, err)
		}
		return string(b), nil
	}
	return v, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (c *SQLClient) scan(schema table.Schema, s scanner) (table.Fields, error) {
	names := schema.AllColumns()
	values := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	f := make(table.Fields, len(names))
	for i, n := range names {
		col, _ := schema.Column(n)
		f[n] = normalize(col.Kind, values[i])
	}
	return f, nil
}

// normalize maps driver values onto the JSON shapes the rest of the system
// works with: strings, float64, bool and decoded JSON.
func normalize(kind table.Kind, v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch kind {
	case table.KindNumber:
		switch n := v.(type) {
		case int64:
			return float64(n)
		case float64:
			return n
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	case table.KindBool:
		switch b := v.(type) {
		case bool:
			return b
		case int64:
			return b != 0
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed
			}
		}
	case table.KindDate:
		switch d := v.(type) {
		case time.Time:
			return d.Format(time.DateOnly)
		case string:
			if len(d) > len(time.DateOnly) && d[len(time.DateOnly)] == 'T' {
				return d[:len(time.DateOnly)]
			}
			return d
		}
	case table.KindJSON:
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err == nil {
				return out
			}
			return s
		}
	case table.KindText:
		if t, ok := v.(time.Time); ok {
			return t.Format(time.RFC3339)
		}
	}
	return v
}
