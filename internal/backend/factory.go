package backend

import (
	"context"
	"fmt"

	"conservadora/internal/amqp"
	"conservadora/internal/log"
	"conservadora/internal/notify"
	"conservadora/internal/storage"
	"conservadora/internal/storage/memory"
	"conservadora/internal/table"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the table client for config.Type and builds the sink. The
// sink always logs; when AMQP is configured and reachable it also
// publishes to the broker.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, closeClient, err := f.openClient(ctx, config)
	if err != nil {
		return nil, err
	}

	res := &Result{Client: client}
	sinks := notify.Fanout{notify.NewLogSink(f.logger)}

	if config.AMQPURL != "" {
		broker, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without broker",
				log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Broker = broker
			sinks = append(sinks, amqp.NewPublisher(broker, f.logger))
		}
	}
	res.Sink = sinks

	res.Cleanup = func() error {
		var firstErr error
		if res.Broker != nil {
			if err := res.Broker.Close(); err != nil {
				firstErr = err
			}
		}
		if closeClient != nil {
			if err := closeClient(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	f.logger.Info("Initialized backend",
		log.FieldBackend, config.Type.String(),
		"amqp_enabled", res.Broker != nil)
	return res, nil
}

func (f *DefaultFactory) openClient(ctx context.Context, config Config) (table.Client, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		c, err := storage.Open(ctx, storage.DialectSQLite, config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite database: %w", err)
		}
		f.logger.Info("Opened SQLite database",
			log.FieldDialect, string(storage.DialectSQLite),
			"db_path", config.SQLiteDBPath)
		return c, c.Close, nil

	case PostgresBackend:
		c, err := storage.Open(ctx, storage.DialectPostgres, config.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Postgres database: %w", err)
		}
		f.logger.Info("Opened Postgres database", log.FieldDialect, string(storage.DialectPostgres))
		return c, c.Close, nil

	case MemoryBackend:
		if config.SeedDir == "" {
			return memory.New(), nil, nil
		}
		store, err := memory.NewFromDir(config.SeedDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		f.logger.Info("Seeded memory backend", "seed_dir", config.SeedDir)
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
