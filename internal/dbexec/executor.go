package dbexec

import (
	"context"
	"database/sql"
	"fmt"
	"wastenot-e2e/internal/components/assert"
	"wastenot-e2e/internal/components/telemetry"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	report_executor_query = "executor.query"
	report_executor_exec  = "executor.exec"
	report_pool_close     = "pool.close"
)

// Executor runs parameterized statements against a database.
//
// note: fault injection point
type Executor interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (ExecResult, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func runQuery(ctx context.Context, q querier, query string, args []any) (Rows, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return Rows{}, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func runExec(ctx context.Context, q querier, query string, args []any) (ExecResult, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, err
	}
	return toExecResult(res)
}

// Connector opens a fresh connection for every statement and closes it
// unconditionally afterwards.
type Connector struct {
	driver string
	dsn    string
	tel    telemetry.API
}

func NewConnector(profile Profile, tel telemetry.API) (Connector, error) {
	assert.NotNil(tel, "tel")
	driver, dsn, err := profile.DataSource()
	if err != nil {
		return Connector{}, err
	}
	return Connector{
		driver: driver,
		dsn:    dsn,
		tel:    telemetry.NewScopedAPI("dbexec", tel),
	}, nil
}

func (c Connector) open() (*sql.DB, error) {
	db, err := sql.Open(c.driver, c.dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (c Connector) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	db, err := c.open()
	if err != nil {
		c.tel.ReportBroken(report_executor_query, err)
		return Rows{}, fmt.Errorf("open %s: %w", c.driver, err)
	}
	defer db.Close()

	rows, err := runQuery(ctx, db, query, args)
	if err != nil {
		c.tel.ReportBroken(report_executor_query, err, query)
		return Rows{}, err
	}
	c.tel.ReportDebug("query", query, rows.Len())
	return rows, nil
}

func (c Connector) Exec(ctx context.Context, query string, args ...any) (ExecResult, error) {
	db, err := c.open()
	if err != nil {
		c.tel.ReportBroken(report_executor_exec, err)
		return ExecResult{}, fmt.Errorf("open %s: %w", c.driver, err)
	}
	defer db.Close()

	res, err := runExec(ctx, db, query, args)
	if err != nil {
		c.tel.ReportBroken(report_executor_exec, err, query)
		return ExecResult{}, err
	}
	c.tel.ReportDebug("exec", query, res.RowsAffected)
	return res, nil
}

// Pool is a bounded connection pool scoped to the lifetime of a command, it
// must be closed at teardown.
type Pool struct {
	db  *sql.DB
	tel telemetry.API
}

const DefaultMaxOpenConns = 4

func NewPool(ctx context.Context, profile Profile, tel telemetry.API) (*Pool, error) {
	assert.NotNil(tel, "tel")
	driver, dsn, err := profile.DataSource()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	maxOpen := profile.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Pool{db: db, tel: telemetry.NewScopedAPI("dbexec", tel)}, nil
}

// NewPoolFromDB wraps an already opened database.
func NewPoolFromDB(db *sql.DB, tel telemetry.API) *Pool {
	assert.NotNil(db, "db")
	assert.NotNil(tel, "tel")
	return &Pool{db: db, tel: telemetry.NewScopedAPI("dbexec", tel)}
}

func (p *Pool) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := runQuery(ctx, p.db, query, args)
	if err != nil {
		p.tel.ReportBroken(report_executor_query, err, query)
		return Rows{}, err
	}
	p.tel.ReportDebug("query", query, rows.Len())
	return rows, nil
}

func (p *Pool) Exec(ctx context.Context, query string, args ...any) (ExecResult, error) {
	res, err := runExec(ctx, p.db, query, args)
	if err != nil {
		p.tel.ReportBroken(report_executor_exec, err, query)
		return ExecResult{}, err
	}
	p.tel.ReportDebug("exec", query, res.RowsAffected)
	return res, nil
}

func (p *Pool) Close() error {
	err := p.db.Close()
	if err != nil {
		p.tel.ReportWarning(report_pool_close, err)
	}
	return err
}

// Open returns the executor for a profile and a teardown func, pooled
// profiles get a Pool and the rest get a Connector.
func Open(ctx context.Context, profile Profile, tel telemetry.API) (Executor, func() error, error) {
	if profile.Pooled {
		pool, err := NewPool(ctx, profile, tel)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}
	conn, err := NewConnector(profile, tel)
	if err != nil {
		return nil, nil, err
	}
	return conn, func() error { return nil }, nil
}
