package amqp

import (
	"encoding/json"
	"time"

	"conservadora/internal/notify"

	"github.com/google/uuid"
)

// NotificationMessage is the wire form of a notification published to the
// exchange.
type NotificationMessage struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Severity    notify.Severity `json:"severity"`
	Entity      string          `json:"entity,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewNotificationMessage wraps n with a fresh message id.
func NewNotificationMessage(n notify.Notification) *NotificationMessage {
	ts := n.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return &NotificationMessage{
		ID:          uuid.NewString(),
		Title:       n.Title,
		Description: n.Description,
		Severity:    n.Severity,
		Entity:      n.Entity,
		Timestamp:   ts,
	}
}

// Notification converts the message back.
func (m *NotificationMessage) Notification() notify.Notification {
	return notify.Notification{
		Title:       m.Title,
		Description: m.Description,
		Severity:    m.Severity,
		Entity:      m.Entity,
		Time:        m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON parses a message body.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
