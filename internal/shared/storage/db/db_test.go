package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                    { return nil }
func (nopStmt) NumInput() int                                   { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

// flakyDriver fails the first failures pings.
type flakyDriver struct {
	failures int32
	pings    atomic.Int32
}

func (d *flakyDriver) Open(name string) (driver.Conn, error) {
	return flakyConn{d: d}, nil
}

type flakyConn struct {
	nopConn
	d *flakyDriver
}

func (c flakyConn) Ping(ctx context.Context) error {
	if c.d.pings.Add(1) <= c.d.failures {
		return errors.New("connection refused")
	}
	return nil
}

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func TestConnectAppliesOptions(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	db, err := Connect(context.Background(), "postgres://ignored", Options{MaxOpenConns: 3, PingTimeout: time.Second})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	if got := db.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("expected max open 3, got %d", got)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_PING_TIMEOUT", "2s")
	t.Setenv("DB_MAX_IDLE_CONNS", "nope")

	opts := OptionsFromEnv(DefaultCLIOptions())
	if opts.MaxOpenConns != 7 {
		t.Fatalf("expected 7, got %d", opts.MaxOpenConns)
	}
	if opts.PingTimeout != 2*time.Second {
		t.Fatalf("expected 2s, got %s", opts.PingTimeout)
	}
	if opts.MaxIdleConns != 1 {
		t.Fatalf("invalid env should keep default, got %d", opts.MaxIdleConns)
	}
}

func TestConnectRetriesPing(t *testing.T) {
	flaky := &flakyDriver{failures: 2}
	sql.Register("dbflaky", flaky)
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) { return sql.Open("dbflaky", dsn) }
	defer func() { openDB = prev }()

	db, err := Connect(context.Background(), "postgres://ignored", Options{PingTimeout: time.Second, ConnectAttempts: 3})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	if got := flaky.pings.Load(); got != 3 {
		t.Fatalf("expected 3 pings, got %d", got)
	}

	flaky.pings.Store(0)
	flaky.failures = 5
	if _, err := Connect(context.Background(), "postgres://ignored", Options{PingTimeout: time.Second, ConnectAttempts: 2}); err == nil {
		t.Fatalf("expected error once attempts are exhausted")
	}
}
