package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"conservadora/internal/log"
	"conservadora/internal/notify"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "x", queueName: "q", logger: log.Discard()}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should go half-open after timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatal("state should be half-open")
	}

	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("a failure while half-open reopens the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should close the circuit and reset failures")
	}
}

func TestPublishNotification_Guards(t *testing.T) {
	client := &Client{exchangeName: "x", queueName: "q", logger: log.Discard()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishNotification(ctx, notify.Notification{Title: "t"}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishNotification(context.Background(), notify.Notification{Title: "t"})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
}

type fakePublisher struct {
	err   error
	calls int
}

func (f *fakePublisher) PublishNotification(context.Context, notify.Notification) error {
	f.calls++
	return f.err
}

func TestPublisherSwallowsErrors(t *testing.T) {
	fake := &fakePublisher{err: errors.New("connection refused")}
	p := &Publisher{client: fake, logger: log.Discard()}

	p.Notify(context.Background(), notify.Notification{Title: "Falta registrada"})
	if fake.calls != 1 {
		t.Fatalf("expected one publish, got %d", fake.calls)
	}
}

func TestNotificationMessage(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	n := notify.Notification{
		Title:    "Erro ao cadastrar funcionária",
		Severity: notify.SeverityDestructive,
		Entity:   "funcionarias",
		Time:     ts,
	}

	msg := NewNotificationMessage(n)
	if msg.ID == "" {
		t.Fatal("message id should be set")
	}
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(body), `"severity":"destructive"`) {
		t.Fatalf("unexpected body: %s", body)
	}

	parsed, err := NotificationMessageFromJSON(body)
	if err != nil {
		t.Fatalf("NotificationMessageFromJSON() error = %v", err)
	}
	back := parsed.Notification()
	if back.Title != n.Title || back.Severity != n.Severity || !back.Time.Equal(ts) {
		t.Fatalf("unexpected notification: %+v", back)
	}

	if _, err := NotificationMessageFromJSON([]byte(`{"title": 3}`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestNewNotificationMessageStampsTime(t *testing.T) {
	msg := NewNotificationMessage(notify.Notification{Title: "x"})
	if time.Since(msg.Timestamp) > time.Second {
		t.Fatal("timestamp should be recent")
	}
}
