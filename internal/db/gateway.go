package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Querier is the statement surface shared by the Gateway and a transaction.
type Querier interface {
	Query(ctx context.Context, stmt string, args ...any) ([]Record, error)
	QueryOne(ctx context.Context, stmt string, args ...any) (Record, error)
	Exec(ctx context.Context, stmt string, args ...any) (int64, error)
	Call(ctx context.Context, proc string, args ...any) ([]Record, error)
	CallOne(ctx context.Context, proc string, args ...any) (Record, error)
	CallExec(ctx context.Context, proc string, args ...any) (int64, error)
}

// execer is implemented by both *sql.DB and *sql.Tx.
type execer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Gateway runs parameterized statements and named procedures against the store.
// Every call outside InTx commits on its own.
type Gateway struct {
	sql    *sql.DB
	driver Driver
	log    *slog.Logger

	mu    sync.RWMutex
	procs map[string]string
}

func New(sqldb *sql.DB, driver Driver, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{sql: sqldb, driver: driver, log: log, procs: map[string]string{}}
}

func (g *Gateway) Driver() Driver { return g.driver }

func (g *Gateway) Close() error {
	if g == nil || g.sql == nil {
		return nil
	}
	return g.sql.Close()
}

func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.sql.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Register binds a procedure name to a statement. Re-registering replaces it.
func (g *Gateway) Register(name, stmt string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.procs[name] = stmt
}

// RegisterAll binds every entry of procs.
func (g *Gateway) RegisterAll(procs map[string]string) {
	for name, stmt := range procs {
		g.Register(name, stmt)
	}
}

func (g *Gateway) lookup(name string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	stmt, ok := g.procs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}
	return stmt, nil
}

func (g *Gateway) runner() runner { return runner{ex: g.sql, gw: g} }

func (g *Gateway) Query(ctx context.Context, stmt string, args ...any) ([]Record, error) {
	return g.runner().Query(ctx, stmt, args...)
}

func (g *Gateway) QueryOne(ctx context.Context, stmt string, args ...any) (Record, error) {
	return g.runner().QueryOne(ctx, stmt, args...)
}

func (g *Gateway) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	return g.runner().Exec(ctx, stmt, args...)
}

func (g *Gateway) Call(ctx context.Context, proc string, args ...any) ([]Record, error) {
	return g.runner().Call(ctx, proc, args...)
}

func (g *Gateway) CallOne(ctx context.Context, proc string, args ...any) (Record, error) {
	return g.runner().CallOne(ctx, proc, args...)
}

func (g *Gateway) CallExec(ctx context.Context, proc string, args ...any) (int64, error) {
	return g.runner().CallExec(ctx, proc, args...)
}

// InTx starts a transaction, runs fn, and commits if fn returns nil.
// If fn returns an error or panics, the transaction is rolled back.
func (g *Gateway) InTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := g.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", classify(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				g.log.Warn("rollback failed", "err", rbErr)
			}
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("db: commit: %w", classify(e))
		}
	}()
	err = fn(runner{ex: tx, gw: g})
	return
}

// runner executes against either the pool or a transaction.
type runner struct {
	ex execer
	gw *Gateway
}

func (r runner) Query(ctx context.Context, stmt string, args ...any) ([]Record, error) {
	rows, err := r.ex.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classify(err)
	}
	var out []Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(err)
		}
		out = append(out, Record{cols: cols, vals: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r runner) QueryOne(ctx context.Context, stmt string, args ...any) (Record, error) {
	recs, err := r.Query(ctx, stmt, args...)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, ErrNoRows
	}
	return recs[0], nil
}

func (r runner) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := r.ex.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (r runner) Call(ctx context.Context, proc string, args ...any) ([]Record, error) {
	stmt, err := r.gw.lookup(proc)
	if err != nil {
		return nil, err
	}
	recs, err := r.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", proc, err)
	}
	return recs, nil
}

func (r runner) CallOne(ctx context.Context, proc string, args ...any) (Record, error) {
	stmt, err := r.gw.lookup(proc)
	if err != nil {
		return Record{}, err
	}
	rec, err := r.QueryOne(ctx, stmt, args...)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", proc, err)
	}
	return rec, nil
}

func (r runner) CallExec(ctx context.Context, proc string, args ...any) (int64, error) {
	stmt, err := r.gw.lookup(proc)
	if err != nil {
		return 0, err
	}
	n, err := r.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", proc, err)
	}
	return n, nil
}
