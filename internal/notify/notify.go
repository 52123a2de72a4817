// Package notify carries user facing outcome messages ("toasts") from the
// entity stores to whatever presents them.
package notify

import (
	"context"
	"sync"
	"time"

	"conservadora/internal/log"
)

type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Severity    Severity  `json:"severity"`
	Entity      string    `json:"entity,omitempty"`
	Time        time.Time `json:"time"`
}

// Sink receives notifications. Delivery is fire and forget.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification)

func (f SinkFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(context.Context, Notification) {})

// LogSink writes notifications to the structured log. Destructive ones are
// logged as warnings.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.WithComponent(log.ComponentNotify)}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) {
	args := []any{
		log.FieldTitle, n.Title,
		log.FieldSeverity, string(n.Severity),
	}
	if n.Entity != "" {
		args = append(args, log.FieldEntity, n.Entity)
	}
	if n.Description != "" {
		args = append(args, "description", n.Description)
	}
	if n.Severity == SeverityDestructive {
		s.logger.WarnContext(ctx, "Notification", args...)
		return
	}
	s.logger.InfoContext(ctx, "Notification", args...)
}

// Fanout delivers to every sink in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, s := range f {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
