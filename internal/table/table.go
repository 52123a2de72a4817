// Package table defines the contract of the hosted relational store the
// entity stores synchronise with. Tables are addressed by name and rows
// travel as loosely typed field maps, the same shape the backend's JSON
// API returns.
package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Operation names used in errors and logs.
const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// IDColumn is the primary key column of every table.
const IDColumn = "id"

var ErrNotFound = errors.New("record not found")

// Fields is one row, or a subset of a row, keyed by column name.
type Fields map[string]any

// Client is the remote table capability surface.
type Client interface {
	// Select returns every row of the table ordered ascending by orderBy.
	Select(ctx context.Context, table, orderBy string) ([]Fields, error)
	// Insert stores a row without id and returns the full stored row.
	Insert(ctx context.Context, table string, fields Fields) (Fields, error)
	// Update changes the given columns of row id and returns the full row.
	Update(ctx context.Context, table, id string, fields Fields) (Fields, error)
	// Delete removes row id. Deleting a missing row is not an error.
	Delete(ctx context.Context, table, id string) error
}

// Error is the only failure kind of a Client: the remote operation failed.
// Message is the human readable text shown to users.
type Error struct {
	Op      string
	Table   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fail wraps err as a remote failure of op on table.
func Fail(op, table string, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Op: op, Table: table, Message: err.Error(), Err: err}
}

// Failf builds a remote failure from a formatted message.
func Failf(op, table, format string, args ...any) *Error {
	return &Error{Op: op, Table: table, Message: fmt.Sprintf(format, args...)}
}

// Message returns the user facing text of err.
func Message(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// FieldsOf converts a record or patch value to Fields through its JSON
// representation.
func FieldsOf(v any) (Fields, error) {
	if f, ok := v.(Fields); ok {
		return f.Clone(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return f, nil
}

// Decode converts a row into a typed record.
func Decode[T any](f Fields) (T, error) {
	var out T
	b, err := json.Marshal(f)
	if err != nil {
		return out, fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode row: %w", err)
	}
	return out, nil
}

// ID returns the row identifier, or "" when absent.
func (f Fields) ID() string {
	id, _ := f[IDColumn].(string)
	return id
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Missing lists the columns not present in f.
func (f Fields) Missing(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if _, ok := f[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
