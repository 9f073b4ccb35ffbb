package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type txState struct {
	commits    int64
	rollbacks  int64
	failCommit string
	isolation  driver.IsolationLevel
}

type trackingDriver struct {
	state *txState
}

func (d *trackingDriver) Open(name string) (driver.Conn, error) {
	return &trackingConn{state: d.state}, nil
}

type trackingConn struct {
	state *txState
}

func (c *trackingConn) Prepare(query string) (driver.Stmt, error) {
	return &trackingStmt{}, nil
}

func (c *trackingConn) Close() error {
	return nil
}

func (c *trackingConn) Begin() (driver.Tx, error) {
	return &trackingTx{state: c.state}, nil
}

func (c *trackingConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.state.isolation = opts.Isolation
	return &trackingTx{state: c.state}, nil
}

type trackingTx struct {
	state *txState
}

func (t *trackingTx) Commit() error {
	atomic.AddInt64(&t.state.commits, 1)
	if t.state.failCommit != "" {
		return &pq.Error{Code: pq.ErrorCode(t.state.failCommit)}
	}
	return nil
}

func (t *trackingTx) Rollback() error {
	atomic.AddInt64(&t.state.rollbacks, 1)
	return nil
}

type trackingStmt struct{}

func (s *trackingStmt) Close() error {
	return nil
}

func (s *trackingStmt) NumInput() int {
	return -1
}

func (s *trackingStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, nil
}

func (s *trackingStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, nil
}

var driverCounter uint64

func registerTrackingDriver(state *txState) string {
	name := fmt.Sprintf("tracking-%d", atomic.AddUint64(&driverCounter, 1))
	sql.Register(name, &trackingDriver{state: state})
	return name
}

func TestWithTxCommits(t *testing.T) {
	state := &txState{}
	driverName := registerTrackingDriver(state)
	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer sqlDB.Close()

	xdb := sqlx.NewDb(sqlDB, driverName)
	if err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.commits != 1 || state.rollbacks != 0 {
		t.Fatalf("expected commit=1 rollback=0, got %d/%d", state.commits, state.rollbacks)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	state := &txState{}
	driverName := registerTrackingDriver(state)
	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer sqlDB.Close()

	xdb := sqlx.NewDb(sqlDB, driverName)
	if err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error { return errors.New("boom") }); err == nil {
		t.Fatalf("expected error")
	}
	if state.rollbacks != 1 {
		t.Fatalf("expected rollback=1, got %d", state.rollbacks)
	}
}

func TestWithTxUsesReadCommitted(t *testing.T) {
	state := &txState{}
	driverName := registerTrackingDriver(state)
	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer sqlDB.Close()

	xdb := sqlx.NewDb(sqlDB, driverName)
	if err := WithTx(context.Background(), xdb, func(*sqlx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.isolation != driver.IsolationLevel(sql.LevelReadCommitted) {
		t.Fatalf("expected read committed, got %d", state.isolation)
	}
}

func TestWithTxDoesNotRetryCommitFailure(t *testing.T) {
	state := &txState{failCommit: "40001"}
	driverName := registerTrackingDriver(state)
	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer sqlDB.Close()

	xdb := sqlx.NewDb(sqlDB, driverName)
	calls := 0
	err = WithTx(context.Background(), xdb, func(*sqlx.Tx) error {
		calls++
		return nil
	})
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "40001" {
		t.Fatalf("expected commit error, got %v", err)
	}
	if calls != 1 || state.commits != 1 {
		t.Fatalf("expected a single attempt, got calls=%d commits=%d", calls, state.commits)
	}
}
