package session

import (
	"context"
	"fmt"
)

// Open builds the backend named by cfg.Backend. The sqlite backend lives in
// the event store and is opened there.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.Capacity, cfg.TTL)
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis session backend requires an address")
		}
		rs := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres session backend requires a DSN")
		}
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case BackendSQLite:
		return nil, fmt.Errorf("sqlite session backend must be opened from the event store")
	default:
		return nil, fmt.Errorf("unknown session backend: %q", cfg.Backend)
	}
}
