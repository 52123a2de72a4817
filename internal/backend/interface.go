// Package backend wires the table client and notification sink selected by
// configuration.
package backend

import (
	"context"
	"slices"

	"conservadora/internal/amqp"
	"conservadora/internal/notify"
	"conservadora/internal/table"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is what a session needs to talk to the outside world.
type Result struct {
	Client table.Client
	Sink   notify.Sink
	// Broker is nil when AMQP is disabled or unreachable.
	Broker  *amqp.Client
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	SQLiteDBPath string
	DatabaseURL  string
	SeedDir      string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type names a table client implementation.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	return slices.Contains(Types(), t)
}
