package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"conservadora/internal/amqp"
	"conservadora/internal/core"
	"conservadora/internal/log"
	"conservadora/internal/notify"
	"conservadora/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	refreshes int
	err       error
	data      report.Data
}

func (s *fakeSource) Refresh(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.err
}

func (s *fakeSource) Data() report.Data { return s.data }

type fakePublisher struct {
	mu      sync.Mutex
	reports []report.Report
	err     error
	sent    chan struct{}
}

func (p *fakePublisher) Publish(_ context.Context, r report.Report) error {
	p.mu.Lock()
	p.reports = append(p.reports, r)
	p.mu.Unlock()
	if p.sent != nil {
		p.sent <- struct{}{}
	}
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reports)
}

func fixedNow() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }

func TestExportOnceUsesCurrentMonth(t *testing.T) {
	staff := "s1"
	src := &fakeSource{data: report.Data{
		Absences: []core.Absence{
			{ID: "may", Date: core.NewDate(2024, 5, 31), StaffID: &staff},
			{ID: "jun", Date: core.NewDate(2024, 6, 1), StaffID: &staff},
		},
	}}
	pub := &fakePublisher{}
	w := NewExportWorker(src, pub, log.Discard())
	w.now = fixedNow

	require.NoError(t, w.ExportOnce(context.Background()))

	assert.Equal(t, 1, src.refreshes)
	require.Equal(t, 1, pub.count())
	r := pub.reports[0]
	assert.Equal(t, "2024-06", r.Filter.Month.String())
	require.Len(t, r.Absences, 1)
	assert.Equal(t, "jun", r.Absences[0].ID)
}

func TestExportOnceStopsOnRefreshFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	pub := &fakePublisher{}
	w := NewExportWorker(src, pub, nil)

	err := w.ExportOnce(context.Background())
	assert.ErrorContains(t, err, "refresh data")
	assert.Equal(t, 0, pub.count())
}

func TestExportOncePublishFailure(t *testing.T) {
	w := NewExportWorker(&fakeSource{}, &fakePublisher{err: errors.New("quota exceeded")}, nil)
	assert.ErrorContains(t, w.ExportOnce(context.Background()), "publish report: quota exceeded")
}

func TestHandleNotificationTriggersOnChanges(t *testing.T) {
	w := NewExportWorker(&fakeSource{}, &fakePublisher{}, nil)
	ctx := context.Background()

	failure := amqp.NewNotificationMessage(notify.Notification{
		Title: "Erro ao cadastrar funcionária", Severity: notify.SeverityDestructive, Entity: "funcionarias",
	})
	require.NoError(t, w.HandleNotification(ctx, failure))
	assert.Len(t, w.trigger, 0)

	created := amqp.NewNotificationMessage(notify.Notification{
		Title: "Funcionária cadastrada", Severity: notify.SeverityDefault, Entity: "funcionarias",
	})
	require.NoError(t, w.HandleNotification(ctx, created))
	require.NoError(t, w.HandleNotification(ctx, created))
	assert.Len(t, w.trigger, 1, "pending triggers are merged")
}

func TestRunExportsOnStartAndTrigger(t *testing.T) {
	pub := &fakePublisher{sent: make(chan struct{}, 4)}
	w := NewExportWorker(&fakeSource{}, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, time.Hour) }()

	wait := func() {
		t.Helper()
		select {
		case <-pub.sent:
		case <-time.After(2 * time.Second):
			t.Fatal("export did not happen")
		}
	}
	wait()
	w.Trigger()
	wait()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, 2, pub.count())
}
