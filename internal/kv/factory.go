package kv

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverSQLite   Driver = "sqlite"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
)

type Options struct {
	Driver      Driver
	Path        string
	RedisAddr   string
	PostgresDSN string
}

// NewStore builds the backend selected by opts.Driver and checks that it is
// reachable.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil

	case DriverFile:
		return NewFileStore(opts.Path)

	case DriverSQLite:
		return NewSQLiteStore(ctx, opts.Path)

	case DriverRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis address is empty", ErrInvalidConfig)
		}
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStore(client), nil

	case DriverPostgres:
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: postgres dsn is empty", ErrInvalidConfig)
		}
		db, err := sql.Open("postgres", opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db ping failed: %w", err)
		}
		return NewPostgresStore(ctx, db, defaultTable)

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, opts.Driver)
	}
}
