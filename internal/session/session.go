// Package session owns the entity caches of one back-office session. The
// caches are built once and handed to every view that needs them.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"conservadora/internal/core"
	"conservadora/internal/entity"
	"conservadora/internal/log"
	"conservadora/internal/notify"
	"conservadora/internal/report"
	"conservadora/internal/table"

	"golang.org/x/sync/errgroup"
)

type Session struct {
	Staff        *entity.Store[core.Staff]
	Condominiums *entity.Store[core.Condominium]
	Schedules    *entity.Store[core.Schedule]
	Absences     *entity.Store[core.Absence]
	Payroll      entity.Reader[core.Payroll]

	logger   *log.Logger
	revision atomic.Uint64
}

func New(client table.Client, sink notify.Sink, logger *log.Logger) *Session {
	s := &Session{logger: logger.WithComponent(log.ComponentSession)}
	bump := entity.OnChange(func() { s.revision.Add(1) })

	s.Staff = entity.New(entity.StaffDefinition, client, sink, logger, bump)
	s.Condominiums = entity.New(entity.CondominiumDefinition, client, sink, logger, bump)
	s.Schedules = entity.New(entity.ScheduleDefinition, client, sink, logger, bump)
	s.Absences = entity.New(entity.AbsenceDefinition, client, sink, logger, bump)
	s.Payroll = entity.New(entity.PayrollDefinition, client, sink, logger, bump)
	return s
}

// Load fetches every table concurrently. Fetch failures stay with their
// store; the only error returned is the context's.
func (s *Session) Load(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, load := range s.loaders() {
		g.Go(func() error {
			load(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Session loaded",
		log.FieldDuration, time.Since(start).Milliseconds(),
		"failed_tables", s.failedTables())
	return ctx.Err()
}

// Refresh re-fetches every table and returns the first failure. A failing
// table does not cancel the others.
func (s *Session) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Staff.Refresh(ctx) })
	g.Go(func() error { return s.Condominiums.Refresh(ctx) })
	g.Go(func() error { return s.Schedules.Refresh(ctx) })
	g.Go(func() error { return s.Absences.Refresh(ctx) })
	g.Go(func() error { return s.Payroll.Refresh(ctx) })
	return g.Wait()
}

func (s *Session) loaders() []func(context.Context) {
	return []func(context.Context){
		s.Staff.Load,
		s.Condominiums.Load,
		s.Schedules.Load,
		s.Absences.Load,
		s.Payroll.Load,
	}
}

// Loading reports whether any table is still on its first fetch.
func (s *Session) Loading() bool {
	return s.Staff.Loading() || s.Condominiums.Loading() || s.Schedules.Loading() ||
		s.Absences.Loading() || s.Payroll.Loading()
}

// LoadErrors maps table name to the failure of its last fetch.
func (s *Session) LoadErrors() map[string]error {
	out := map[string]error{}
	add := func(name string, err error) {
		if err != nil {
			out[name] = err
		}
	}
	add(table.Staff, s.Staff.LoadErr())
	add(table.Condominiums, s.Condominiums.LoadErr())
	add(table.Schedules, s.Schedules.LoadErr())
	add(table.Absences, s.Absences.LoadErr())
	add(table.Payroll, s.Payroll.LoadErr())
	return out
}

func (s *Session) failedTables() []string {
	var names []string
	for name := range s.LoadErrors() {
		names = append(names, name)
	}
	return names
}

// Revision increases after every successful load, refresh or mutation.
func (s *Session) Revision() uint64 {
	return s.revision.Load()
}

// Data is a point in time copy of every cache.
func (s *Session) Data() report.Data {
	return report.Data{
		Staff:        s.Staff.List(),
		Condominiums: s.Condominiums.List(),
		Schedules:    s.Schedules.List(),
		Absences:     s.Absences.List(),
		Payroll:      s.Payroll.List(),
	}
}
