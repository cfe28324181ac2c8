package kv

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS potential_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres is a Store on a single table, for running the simulator against a shared database.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(url string, timeout time.Duration) (*Postgres, error) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "migrate postgres")
	}
	return &Postgres{pool: pool, timeout: timeout}, nil
}

func (p *Postgres) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), p.timeout)
}

func (p *Postgres) Get(key string) (string, bool, error) {
	if p == nil || p.pool == nil {
		return "", false, ErrNotConfigured
	}
	ctx, cancel := p.ctx()
	defer cancel()

	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM potential_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "postgres get %s", key)
	}
	return value, true, nil
}

func (p *Postgres) Set(key, value string) error {
	if p == nil || p.pool == nil {
		return ErrNotConfigured
	}
	ctx, cancel := p.ctx()
	defer cancel()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO potential_kv (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value,
	)
	if err != nil {
		return errors.Wrapf(err, "postgres set %s", key)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}
