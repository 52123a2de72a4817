// Package entity keeps one cached, ordered record list per table and routes
// every read and write through a table.Client. Each outcome is reported to a
// notify.Sink exactly once.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"conservadora/internal/log"
	"conservadora/internal/notify"
	"conservadora/internal/table"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrIncompleteRecord means the backend returned a row lacking columns
	// the cache needs. The cache is left untouched.
	ErrIncompleteRecord = errors.New("incomplete record returned by backend")
	ErrReadOnly         = errors.New("entity is read-only")
)

// Record is a cached entity.
type Record interface {
	Key() string
}

// Messages are the user facing notification texts of one entity.
type Messages struct {
	LoadFailed   string
	Created      string
	CreatedDesc  string
	CreateFailed string
	Updated      string
	UpdatedDesc  string
	UpdateFailed string
	Deleted      string
	DeletedDesc  string
	DeleteFailed string
}

// Definition binds a record type to its table.
type Definition[T Record] struct {
	Table    string
	OrderBy  string
	ReadOnly bool
	Messages Messages
}

type Store[T Record] struct {
	def      Definition[T]
	columns  []string
	client   table.Client
	sink     notify.Sink
	logger   *log.Logger
	onChange func()

	mu      sync.RWMutex
	items   []T
	loading bool
	loadErr error

	once   sync.Once
	flight singleflight.Group
}

type Option func(*options)

type options struct {
	onChange func()
}

// OnChange registers fn to run after every successful cache change.
func OnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// New builds a store. It starts in the loading state; call Load to fetch.
func New[T Record](def Definition[T], client table.Client, sink notify.Sink, logger *log.Logger, opts ...Option) *Store[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if sink == nil {
		sink = notify.Discard
	}

	columns := []string{table.IDColumn}
	if schema, ok := table.Lookup(def.Table); ok {
		columns = schema.AllColumns()
	}

	return &Store[T]{
		def:      def,
		columns:  columns,
		client:   client,
		sink:     sink,
		logger:   logger.WithComponent(log.ComponentEntity).With(log.FieldTable, def.Table),
		onChange: o.onChange,
		loading:  true,
	}
}

func (s *Store[T]) Table() string { return s.def.Table }

// List returns a copy of the cached records in backend order. It is empty
// until the first load succeeds.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the cached record with id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.Key() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Loading is true until the first fetch has resolved, whatever its outcome.
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LoadErr is the failure of the most recent fetch, nil after a successful one.
func (s *Store[T]) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Load performs the initial fetch. Only the first call does any work; later
// calls wait for it and return. Failures are notified and recorded in
// LoadErr, never returned.
func (s *Store[T]) Load(ctx context.Context) {
	s.once.Do(func() {
		items, err := s.fetch(ctx, log.OpLoad)

		s.mu.Lock()
		if err == nil {
			s.items = items
		}
		s.loadErr = err
		s.loading = false
		s.mu.Unlock()

		if err != nil {
			s.fail(ctx, s.def.Messages.LoadFailed, err)
			return
		}
		s.changed()
	})
}

// Refresh re-fetches the table. The loading flag is not touched and on
// failure the cache is kept.
func (s *Store[T]) Refresh(ctx context.Context) error {
	items, err := s.fetch(ctx, log.OpRefresh)

	s.mu.Lock()
	if err == nil {
		s.items = items
	}
	s.loadErr = err
	s.mu.Unlock()

	if err != nil {
		s.fail(ctx, s.def.Messages.LoadFailed, err)
		return err
	}
	s.changed()
	return nil
}

func (s *Store[T]) fetch(ctx context.Context, op string) ([]T, error) {
	start := time.Now()
	rows, err := s.client.Select(ctx, s.def.Table, s.def.OrderBy)
	if err != nil {
		s.logger.WarnContext(ctx, "Fetch failed",
			log.FieldOperation, op,
			log.FieldError, err)
		return nil, err
	}

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := s.decode(row)
		if err != nil {
			s.logger.WarnContext(ctx, "Fetch returned unusable row",
				log.FieldOperation, op,
				log.FieldRecordID, row.ID(),
				log.FieldError, err)
			return nil, err
		}
		items = append(items, rec)
	}

	s.logger.DebugContext(ctx, "Fetched records",
		log.FieldOperation, op,
		log.FieldCount, len(items),
		log.FieldDuration, time.Since(start).Milliseconds())
	return items, nil
}

// Create inserts rec, ignoring its id, and appends the stored record.
func (s *Store[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if s.def.ReadOnly {
		return zero, ErrReadOnly
	}

	fields, err := table.FieldsOf(rec)
	if err != nil {
		return zero, err
	}
	delete(fields, table.IDColumn)

	return s.do(ctx, log.OpCreate, "", fields, func() (T, error) {
		row, err := s.client.Insert(ctx, s.def.Table, fields)
		if err != nil {
			return zero, err
		}
		created, err := s.decode(row)
		if err != nil {
			return zero, err
		}

		s.mu.Lock()
		s.items = append(s.items, created)
		s.mu.Unlock()
		return created, nil
	})
}

// Update sends patch for id and replaces the cached record with the
// returned one. patch may be table.Fields or any value encoding to a JSON
// object; only its keys are sent.
func (s *Store[T]) Update(ctx context.Context, id string, patch any) (T, error) {
	var zero T
	if s.def.ReadOnly {
		return zero, ErrReadOnly
	}

	fields, err := table.FieldsOf(patch)
	if err != nil {
		return zero, err
	}
	delete(fields, table.IDColumn)

	return s.do(ctx, log.OpUpdate, id, fields, func() (T, error) {
		row, err := s.client.Update(ctx, s.def.Table, id, fields)
		if err != nil {
			return zero, err
		}
		updated, err := s.decode(row)
		if err != nil {
			return zero, err
		}

		s.mu.Lock()
		next := make([]T, len(s.items))
		for i, it := range s.items {
			if it.Key() == id {
				next[i] = updated
			} else {
				next[i] = it
			}
		}
		s.items = next
		s.mu.Unlock()
		return updated, nil
	})
}

// Delete removes id remotely and from the cache. Deleting an id that is not
// cached still reaches the backend.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if s.def.ReadOnly {
		return ErrReadOnly
	}

	var zero T
	_, err := s.do(ctx, log.OpDelete, id, nil, func() (T, error) {
		if err := s.client.Delete(ctx, s.def.Table, id); err != nil {
			return zero, err
		}

		s.mu.Lock()
		next := make([]T, 0, len(s.items))
		for _, it := range s.items {
			if it.Key() != id {
				next = append(next, it)
			}
		}
		s.items = next
		s.mu.Unlock()
		return zero, nil
	})
	return err
}

// do runs one mutation. Identical mutations already in flight share its
// single remote call, cache change and notification.
func (s *Store[T]) do(ctx context.Context, op, id string, fields table.Fields, call func() (T, error)) (T, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("encode %s payload: %w", op, err)
	}
	key := op + "\x00" + id + "\x00" + string(payload)

	v, err, shared := s.flight.Do(key, func() (any, error) {
		start := time.Now()
		rec, err := call()
		lf := log.NewFields().
			WithOperation(op).
			WithRecord(s.def.Table, firstNonEmpty(id, rec.Key()))
		lf[log.FieldDuration] = time.Since(start).Milliseconds()

		title, desc := s.messages(op, err == nil)
		if err != nil {
			s.logger.WarnContext(ctx, "Mutation failed", lf.WithError(err).ToSlice()...)
			s.fail(ctx, title, err)
			return rec, err
		}

		s.logger.InfoContext(ctx, "Mutation applied", lf.ToSlice()...)
		s.sink.Notify(ctx, notify.Notification{
			Title:       title,
			Description: desc,
			Severity:    notify.SeverityDefault,
			Entity:      s.def.Table,
			Time:        time.Now(),
		})
		s.changed()
		return rec, nil
	})
	if shared {
		s.logger.DebugContext(ctx, "Duplicate mutation joined in-flight call", log.FieldOperation, op)
	}

	rec, _ := v.(T)
	return rec, err
}

func (s *Store[T]) messages(op string, ok bool) (string, string) {
	m := s.def.Messages
	switch op {
	case log.OpCreate:
		if ok {
			return m.Created, m.CreatedDesc
		}
		return m.CreateFailed, ""
	case log.OpUpdate:
		if ok {
			return m.Updated, m.UpdatedDesc
		}
		return m.UpdateFailed, ""
	default:
		if ok {
			return m.Deleted, m.DeletedDesc
		}
		return m.DeleteFailed, ""
	}
}

func (s *Store[T]) fail(ctx context.Context, title string, err error) {
	s.sink.Notify(ctx, notify.Notification{
		Title:       title,
		Description: table.Message(err),
		Severity:    notify.SeverityDestructive,
		Entity:      s.def.Table,
		Time:        time.Now(),
	})
}

// decode checks the row carries every column before converting it.
func (s *Store[T]) decode(row table.Fields) (T, error) {
	var zero T
	if missing := row.Missing(s.columns); len(missing) > 0 {
		return zero, fmt.Errorf("%w: %s lacks %s", ErrIncompleteRecord, s.def.Table, strings.Join(missing, ", "))
	}
	if row.ID() == "" {
		return zero, fmt.Errorf("%w: %s row without id", ErrIncompleteRecord, s.def.Table)
	}
	rec, err := table.Decode[T](row)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrIncompleteRecord, err)
	}
	return rec, nil
}

func (s *Store[T]) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
