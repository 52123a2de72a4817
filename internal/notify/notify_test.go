package notify

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"conservadora/internal/log"
)

func TestFanoutDeliversToAll(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	f := Fanout{a, nil, b}
	f.Notify(context.Background(), Notification{Title: "x"})

	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("expected one notification each, got %d and %d", a.Len(), b.Len())
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	if _, ok := r.Last(); ok {
		t.Fatal("empty recorder should have no last notification")
	}
	r.Notify(context.Background(), Notification{Title: "a"})
	r.Notify(context.Background(), Notification{Title: "b", Severity: SeverityDestructive})

	last, ok := r.Last()
	if !ok || last.Title != "b" || last.Severity != SeverityDestructive {
		t.Fatalf("unexpected last: %+v", last)
	}
	all := r.All()
	all[0].Title = "changed"
	if r.All()[0].Title != "a" {
		t.Fatal("All must return a copy")
	}
	r.Reset()
	if r.Len() != 0 {
		t.Fatal("reset should clear")
	}
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{
		Level:   slog.LevelInfo,
		Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	})
	s := NewLogSink(logger)

	s.Notify(context.Background(), Notification{Title: "Funcionária cadastrada", Severity: SeverityDefault})
	s.Notify(context.Background(), Notification{Title: "Erro ao cadastrar funcionária", Description: "boom", Severity: SeverityDestructive})

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), out)
	}
	if !strings.Contains(lines[0], "level=INFO") || !strings.Contains(lines[1], "level=WARN") {
		t.Fatalf("unexpected levels: %s", out)
	}
	if !strings.Contains(lines[1], "description=boom") || !strings.Contains(lines[1], "component=notify") {
		t.Fatalf("missing fields: %s", lines[1])
	}
}
