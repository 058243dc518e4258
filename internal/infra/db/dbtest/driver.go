// Package dbtest provides an in-process database/sql driver that records
// statements, for testing repositories whose real servers are not at hand.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
)

// Call is one statement received by the fake database.
type Call struct {
	Query string
	Args  []any
}

// Recorder captures every Exec and Query and answers queries with Rows.
type Recorder struct {
	Columns []string
	Rows    [][]driver.Value
	// Err, when set, fails every statement.
	Err error

	mu    sync.Mutex
	calls []Call
}

// Open returns a *sql.DB backed by r, closed when the test ends.
func Open(t testing.TB, r *Recorder) *sql.DB {
	t.Helper()
	db := sql.OpenDB(connector{r})
	t.Cleanup(func() { db.Close() })
	return db
}

// Calls returns the statements received so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Recorder) record(query string, args []driver.NamedValue) error {
	c := Call{Query: query, Args: make([]any, len(args))}
	for i, a := range args {
		c.Args[i] = a.Value
	}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	return r.Err
}

type connector struct{ r *Recorder }

func (c connector) Connect(context.Context) (driver.Conn, error) { return conn{c.r}, nil }
func (c connector) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("dbtest: use Open")
}

type conn struct{ r *Recorder }

var errUnsupported = errors.New("dbtest: prepared statements and transactions are not supported")

func (c conn) Prepare(string) (driver.Stmt, error) { return nil, errUnsupported }
func (c conn) Close() error                        { return nil }
func (c conn) Begin() (driver.Tx, error)           { return nil, errUnsupported }

func (c conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := c.r.record(query, args); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

func (c conn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := c.r.record(query, args); err != nil {
		return nil, err
	}
	return &rows{cols: c.r.Columns, data: c.r.Rows}, nil
}

type rows struct {
	cols []string
	data [][]driver.Value
	pos  int
}

func (r *rows) Columns() []string { return r.cols }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}
