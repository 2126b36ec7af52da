// Package databasetest provides an in-memory Pool for tests that need to
// observe the SQL sent through a database.ConnectionScope without a
// running PostgreSQL.
package databasetest

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	"github.com/deppfellow/go-books/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Result is what the fake database answers to one statement.
type Result struct {
	Rows [][]any
	Tag  string
	Err  error
}

// Call records one statement.
type Call struct {
	SQL  string
	Args []any
	InTx bool
}

// Pool is a database.Pool that answers every statement with Handler.
// The zero value answers with empty results.
type Pool struct {
	Handler    func(sql string, args []any) Result
	AcquireErr error
	BeginErr   error
	CommitErr  error

	mu         sync.Mutex
	calls      []Call
	acquired   int
	released   int
	commits    int
	rollbacks  int
	doubleFree bool
}

var _ database.Pool = (*Pool)(nil)

func (p *Pool) Acquire(ctx context.Context) (database.Conn, error) {
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired++

	return &conn{pool: p}, nil
}

// Calls returns a copy of the recorded statements.
func (p *Pool) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Acquired is the number of successful acquisitions.
func (p *Pool) Acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// Outstanding is the number of connections not yet released.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired - p.released
}

// DoubleReleased reports whether any connection was released twice.
func (p *Pool) DoubleReleased() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doubleFree
}

// Commits is the number of committed transactions.
func (p *Pool) Commits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commits
}

// Rollbacks is the number of transactions rolled back before commit.
func (p *Pool) Rollbacks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rollbacks
}

func (p *Pool) answer(sql string, args []any, inTx bool) Result {
	p.mu.Lock()
	p.calls = append(p.calls, Call{SQL: sql, Args: append([]any(nil), args...), InTx: inTx})
	handler := p.Handler
	p.mu.Unlock()

	if handler == nil {
		return Result{}
	}
	return handler(sql, args)
}

type conn struct {
	pool     *Pool
	released bool
}

func (c *conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return exec(c.pool.answer(sql, args, false))
}

func (c *conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return query(c.pool.answer(sql, args, false))
}

func (c *conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return queryRow(c.pool.answer(sql, args, false))
}

func (c *conn) Begin(ctx context.Context) (pgx.Tx, error) {
	if c.pool.BeginErr != nil {
		return nil, c.pool.BeginErr
	}
	return &tx{conn: c}, nil
}

func (c *conn) Release() {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()

	if c.released {
		c.pool.doubleFree = true
		return
	}
	c.released = true
	c.pool.released++
}

// tx implements the parts of pgx.Tx used by pgx.BeginFunc; everything
// else panics through the nil embedded interface.
type tx struct {
	pgx.Tx
	conn   *conn
	closed bool
}

func (t *tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return exec(t.conn.pool.answer(sql, args, true))
}

func (t *tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return query(t.conn.pool.answer(sql, args, true))
}

func (t *tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return queryRow(t.conn.pool.answer(sql, args, true))
}

func (t *tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true

	if err := t.conn.pool.CommitErr; err != nil {
		return err
	}

	t.conn.pool.mu.Lock()
	t.conn.pool.commits++
	t.conn.pool.mu.Unlock()
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true

	t.conn.pool.mu.Lock()
	t.conn.pool.rollbacks++
	t.conn.pool.mu.Unlock()
	return nil
}

func exec(res Result) (pgconn.CommandTag, error) {
	if res.Err != nil {
		return pgconn.CommandTag{}, res.Err
	}
	return pgconn.NewCommandTag(res.Tag), nil
}

func query(res Result) (pgx.Rows, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	return &rows{values: res.Rows, pos: -1, tag: res.Tag}, nil
}

func queryRow(res Result) pgx.Row {
	return &row{res: res}
}

type row struct {
	res Result
}

func (r *row) Scan(dest ...any) error {
	if r.res.Err != nil {
		return r.res.Err
	}
	if len(r.res.Rows) == 0 {
		return pgx.ErrNoRows
	}
	return scanInto(r.res.Rows[0], dest)
}

type rows struct {
	values [][]any
	pos    int
	tag    string
	closed bool
	err    error
}

func (r *rows) Close() { r.closed = true }

func (r *rows) Err() error { return r.err }

func (r *rows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag(r.tag) }

func (r *rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *rows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	if r.pos >= len(r.values) {
		r.closed = true
		return false
	}
	return true
}

func (r *rows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.values) {
		return fmt.Errorf("databasetest: Scan called without a current row")
	}
	if err := scanInto(r.values[r.pos], dest); err != nil {
		r.err = err
		r.closed = true
		return err
	}
	return nil
}

func (r *rows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.values) {
		return nil, fmt.Errorf("databasetest: Values called without a current row")
	}
	return r.values[r.pos], nil
}

func (r *rows) RawValues() [][]byte { return nil }

func (r *rows) Conn() *pgx.Conn { return nil }

// scanInto assigns a fake row to scan destinations. sql.Scanner targets
// (the pgtype types) receive the raw value, other pointers are set by
// conversion.
func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("databasetest: row has %d values, %d destinations", len(values), len(dest))
	}

	for i := range dest {
		if err := assign(dest[i], values[i]); err != nil {
			return fmt.Errorf("databasetest: column %d: %w", i, err)
		}
	}
	return nil
}

func assign(dest any, src any) error {
	src = normalize(src)

	if scanner, ok := dest.(sql.Scanner); ok {
		return scanner.Scan(src)
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination %T is not a pointer", dest)
	}
	target := dv.Elem()

	if src == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	sv := reflect.ValueOf(src)
	if !sv.Type().ConvertibleTo(target.Type()) {
		return fmt.Errorf("cannot assign %T to %s", src, target.Type())
	}
	target.Set(sv.Convert(target.Type()))
	return nil
}

func normalize(src any) any {
	switch v := src.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return src
	}
}
