package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

// instrumentedDB wraps a Database and records the duration of every call in
// a histogram labelled by call kind.
type instrumentedDB struct {
	Database
	queries *prometheus.HistogramVec
}

// Instrument decorates db with query timing. The returned Database is what
// the production pool is wrapped with before being handed to New.
func Instrument(db Database, queries *prometheus.HistogramVec) Database {
	return &instrumentedDB{Database: db, queries: queries}
}

func (d *instrumentedDB) observe(kind string, start time.Time) {
	d.queries.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (d *instrumentedDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	defer d.observe("exec", time.Now())
	return d.Database.Exec(ctx, sql, arguments...)
}

func (d *instrumentedDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	defer d.observe("query", time.Now())
	return d.Database.Query(ctx, sql, args...)
}

func (d *instrumentedDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	defer d.observe("query_row", time.Now())
	return d.Database.QueryRow(ctx, sql, args...)
}
