// Package memory provides an in-process table client used for local runs,
// demos and tests. It behaves like the SQL client: ids are generated on
// insert, lists are ordered with NULLs last and deleting a row clears the
// references that point at it.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"conservadora/internal/table"

	"github.com/google/uuid"
)

// Mangle rewrites a row before it is returned from a mutation.
type Mangle func(op, name string, row table.Fields) table.Fields

type Store struct {
	mu     sync.Mutex
	tables map[string][]table.Fields
	fail   map[string]string
	calls  map[string]int
	mangle Mangle
	onCall func(ctx context.Context, op, name string)
	newID  func() string
}

// New returns an empty store knowing every table.
func New() *Store {
	s := &Store{
		tables: map[string][]table.Fields{},
		fail:   map[string]string{},
		calls:  map[string]int{},
		newID:  uuid.NewString,
	}
	for _, name := range []string{table.Staff, table.Condominiums, table.Schedules, table.Absences, table.Payroll} {
		s.tables[name] = nil
	}
	return s
}

// NewFromDir seeds a store from <table>.json files in dir. Missing files
// leave the table empty.
func NewFromDir(dir string) (*Store, error) {
	s := New()
	for name := range s.tables {
		b, err := os.ReadFile(filepath.Join(dir, name+".json"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", name, err)
		}
		var rows []table.Fields
		if err := json.Unmarshal(b, &rows); err != nil {
			return nil, fmt.Errorf("parse seed %s: %w", name, err)
		}
		if err := s.Seed(name, rows...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Seed stores rows as they are, generating ids where missing.
func (s *Store) Seed(name string, rows ...table.Fields) error {
	schema, ok := table.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown table %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		row, err := s.prepare(table.OpInsert, schema, r)
		if err != nil {
			return err
		}
		if row.ID() == "" {
			row[table.IDColumn] = s.newID()
		}
		s.tables[name] = append(s.tables[name], row)
	}
	return nil
}

// FailNext makes the next call of op fail with message.
func (s *Store) FailNext(op, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = message
}

// SetMangle installs a rewrite applied to rows returned by mutations.
func (s *Store) SetMangle(m Mangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mangle = m
}

// OnCall registers a hook run at the start of every call.
func (s *Store) OnCall(fn func(ctx context.Context, op, name string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCall = fn
}

// Calls reports how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Rows returns a copy of the stored rows in insertion order.
func (s *Store) Rows(name string) []table.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]table.Fields, len(s.tables[name]))
	for i, r := range s.tables[name] {
		out[i] = copyFields(r)
	}
	return out
}

func (s *Store) Select(ctx context.Context, name, orderBy string) ([]table.Fields, error) {
	schema, err := s.begin(ctx, table.OpSelect, name)
	if err != nil {
		return nil, err
	}
	if _, ok := schema.Column(orderBy); !ok {
		return nil, table.Failf(table.OpSelect, name, "column %q does not exist", orderBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]table.Fields, len(s.tables[name]))
	for i, r := range s.tables[name] {
		out[i] = copyFields(r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i][orderBy], out[j][orderBy])
	})
	return out, nil
}

func (s *Store) Insert(ctx context.Context, name string, fields table.Fields) (table.Fields, error) {
	schema, err := s.begin(ctx, table.OpInsert, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row, err := s.prepare(table.OpInsert, schema, fields)
	if err != nil {
		return nil, err
	}
	if row.ID() == "" {
		row[table.IDColumn] = s.newID()
	}
	s.tables[name] = append(s.tables[name], row)
	return s.result(table.OpInsert, name, row), nil
}

func (s *Store) Update(ctx context.Context, name, id string, fields table.Fields) (table.Fields, error) {
	schema, err := s.begin(ctx, table.OpUpdate, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	patch, err := s.prepare(table.OpUpdate, schema, fields)
	if err != nil {
		return nil, err
	}
	for _, row := range s.tables[name] {
		if row.ID() != id {
			continue
		}
		for k, v := range patch {
			if k != table.IDColumn {
				row[k] = v
			}
		}
		return s.result(table.OpUpdate, name, row), nil
	}
	return nil, table.Fail(table.OpUpdate, name, table.ErrNotFound)
}

func (s *Store) Delete(ctx context.Context, name, id string) error {
	if _, err := s.begin(ctx, table.OpDelete, name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[name]
	for i, row := range rows {
		if row.ID() == id {
			s.tables[name] = append(rows[:i:i], rows[i+1:]...)
			s.clearReferences(name, id)
			break
		}
	}
	return nil
}

// begin counts the call, runs the hook and consumes an injected failure.
func (s *Store) begin(ctx context.Context, op, name string) (table.Schema, error) {
	s.mu.Lock()
	s.calls[op]++
	hook := s.onCall
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, op, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.fail[op]; ok {
		delete(s.fail, op)
		return table.Schema{}, table.Failf(op, name, "%s", msg)
	}
	if err := ctx.Err(); err != nil {
		return table.Schema{}, table.Fail(op, name, err)
	}
	schema, ok := table.Lookup(name)
	if !ok {
		return table.Schema{}, table.Failf(op, name, "relation %q does not exist", name)
	}
	return schema, nil
}

// prepare validates columns and converts values to their JSON shapes.
// For inserts every schema column is present afterwards.
func (s *Store) prepare(op string, schema table.Schema, fields table.Fields) (table.Fields, error) {
	for k := range fields {
		if _, ok := schema.Column(k); !ok {
			return nil, table.Failf(op, schema.Name, "column %q of relation %q does not exist", k, schema.Name)
		}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, table.Fail(op, schema.Name, err)
	}
	row := table.Fields{}
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, table.Fail(op, schema.Name, err)
	}
	if op == table.OpInsert {
		for _, c := range schema.ColumnNames() {
			if _, ok := row[c]; !ok {
				row[c] = nil
			}
		}
	}
	return row, nil
}

func (s *Store) result(op, name string, row table.Fields) table.Fields {
	out := copyFields(row)
	if s.mangle != nil {
		out = s.mangle(op, name, out)
	}
	return out
}

var references = map[string][]struct{ table, column string }{
	table.Staff: {
		{table.Schedules, "id_funcionaria"},
		{table.Absences, "id_funcionaria"},
		{table.Payroll, "id_funcionaria"},
	},
	table.Condominiums: {
		{table.Schedules, "id_condominio"},
	},
}

func (s *Store) clearReferences(name, id string) {
	for _, ref := range references[name] {
		for _, row := range s.tables[ref.table] {
			if v, _ := row[ref.column].(string); v == id {
				row[ref.column] = nil
			}
		}
	}
}

// less orders values ascending with nil last. Values of different kinds
// compare by their formatted text.
func less(a, b any) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case bool:
		if y, ok := b.(bool); ok {
			return !x && y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func copyFields(f table.Fields) table.Fields {
	out := make(table.Fields, len(f))
	for k, v := range f {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
