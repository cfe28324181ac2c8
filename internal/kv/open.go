package kv

import (
	"fmt"
	"io"

	"github.com/xtding233/potential-simulator/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured driver, instrumented. The closer releases its connections.
func Open(cfg config.StorageConfig) (Store, io.Closer, error) {
	switch cfg.Driver {
	case "memory":
		return Instrument(NewMemory(), cfg.Driver), nopCloser{}, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.SQLitePath, cfg.OpTimeout)
		if err != nil {
			return nil, nil, err
		}
		return Instrument(s, cfg.Driver), s, nil
	case "redis":
		r, err := OpenRedis(cfg.RedisURL, cfg.RedisPrefix, cfg.OpTimeout)
		if err != nil {
			return nil, nil, err
		}
		return Instrument(r, cfg.Driver), r, nil
	case "postgres":
		p, err := OpenPostgres(cfg.PostgresURL, cfg.OpTimeout)
		if err != nil {
			return nil, nil, err
		}
		return Instrument(p, cfg.Driver), p, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
