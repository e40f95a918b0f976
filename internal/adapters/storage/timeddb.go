package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cedric28/spinbet-frontend/internal/adapters/http/perf"
	"github.com/cedric28/spinbet-frontend/internal/platform/requestctx"
)

// SQLDB is the subset of *sql.DB the session store runs its statements on.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

// maxConns bounds the pool; SQLite serializes writers anyway.
const maxConns = 25

// TimedDB is the session database. Every statement is timed, tagged with the
// request id of ctx and recorded under its verb, e.g. "sql.DELETE session".
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	threshold float64
}

// Open opens the SQLite file at path, checks it answers and creates the
// session schema. slowMs <= 0 uses DefaultSlowQueryMs.
// PRE: path names a writable file or ":memory:"
// POST: Returns a ready TimedDB the caller must Close
func Open(ctx context.Context, path string, collector *perf.Collector, slowMs int) (*TimedDB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewTimedDB(db, collector, slowMs), nil
}

// NewTimedDB wraps an open database. slowMs <= 0 uses DefaultSlowQueryMs.
func NewTimedDB(db *sql.DB, collector *perf.Collector, slowMs int) *TimedDB {
	if slowMs <= 0 {
		slowMs = DefaultSlowQueryMs
	}
	return &TimedDB{db: db, collector: collector, threshold: float64(slowMs)}
}

// Close releases the pool.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// ExecContext runs a write and records it. A failed statement is logged.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe(ctx, query, start, err)
	return result, err
}

// QueryRowContext runs a single-row read and records it. Errors surface on Scan.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe(ctx, query, start, nil)
	return row
}

func (t *TimedDB) observe(ctx context.Context, query string, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	label := statementLabel(query)

	attrs := []any{
		"request_id", requestctx.RequestIDFromContext(ctx),
		"statement", label,
		"duration_ms", durationMs,
	}
	switch {
	case err != nil:
		slog.Warn("query_failed", append(attrs, "error", err)...)
	case durationMs >= t.threshold:
		slog.Warn("slow_query", attrs...)
	default:
		slog.Debug("query", attrs...)
	}

	t.collector.Record(perf.Entry{
		Kind:       perf.KindQuery,
		Path:       label,
		DurationMs: durationMs,
		Timestamp:  start,
	})
}

// statementLabel reduces a statement to "sql.<VERB> <table>" so every call
// site of one statement shape aggregates under one perf entry.
func statementLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "sql"
	}
	verb := strings.ToUpper(fields[0])
	for i, f := range fields[:len(fields)-1] {
		switch strings.ToUpper(f) {
		case "FROM", "INTO", "UPDATE":
			return "sql." + verb + " " + strings.Trim(fields[i+1], "(")
		}
	}
	return "sql." + verb
}
