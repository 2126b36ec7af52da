package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is one connection checked out of a Pool. It must be handed back
// with Release exactly once.
//
// *pgxpool.Conn satisfies it.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Release()
}

// Pool hands out connections. Implementations must be safe for
// concurrent use; Acquire blocks according to the pool's own policy.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

type pgxPool struct {
	pool *pgxpool.Pool
}

// NewPgxPool adapts a pgx pool to Pool.
func NewPgxPool(pool *pgxpool.Pool) Pool {
	return pgxPool{pool: pool}
}

func (p pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		// avoid a non-nil interface holding a nil *pgxpool.Conn
		return nil, err
	}
	return conn, nil
}

// ConnectionScope acquires one pooled connection per operation and
// guarantees it goes back to the pool on every exit path.
type ConnectionScope struct {
	pool Pool
}

// NewConnectionScope returns a scope over pool.
func NewConnectionScope(pool Pool) ConnectionScope {
	return ConnectionScope{pool: pool}
}

// Do runs fn with a freshly acquired connection and releases it when fn
// returns, fails or panics.
//
// Acquisition errors are returned unchanged and fn is not called. There is
// no retry.
func (s ConnectionScope) Do(ctx context.Context, fn func(conn Conn) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(conn)
}
