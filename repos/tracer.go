package repos

import (
	"context"
	"github.com/DataDog/go-sqllexer"
	"github.com/jackc/pgx/v5"
	"log/slog"
	"time"
)

// tracer logs failed and slow statements with their normalized SQL.
type tracer struct{}

var normalizer = sqllexer.NewNormalizer()

type ctxKey int

const (
	_ ctxKey = iota
	traceQueryCtxKey
	traceBatchCtxKey
	traceConnectCtxKey
)

const slowQueryThreshold = 200 * time.Millisecond

type traceQueryData struct {
	startTime time.Time
	sql       string
	tables    []string
}

func normalize(sql string) (string, []string) {
	normalized, meta, err := normalizer.Normalize(sql)
	if err != nil {
		slog.Warn("cannot normalize sql", "err", err)
		return sql, nil
	}
	var tables []string
	if meta != nil {
		tables = meta.Tables
	}
	return normalized, tables
}

func (tl *tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	sql, tables := normalize(data.SQL)
	return context.WithValue(ctx, traceQueryCtxKey, &traceQueryData{
		startTime: time.Now(),
		sql:       sql,
		tables:    tables,
	})
}

func (tl *tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	queryData, ok := ctx.Value(traceQueryCtxKey).(*traceQueryData)
	if !ok {
		return
	}
	interval := time.Since(queryData.startTime)

	if data.Err != nil {
		slog.Error("query failed", "sql", queryData.sql, "tables", queryData.tables, "err", data.Err, "time", interval)
		return
	}

	if interval > slowQueryThreshold {
		slog.Warn("slow query", "sql", queryData.sql, "tables", queryData.tables, "time", interval, "commandTag", data.CommandTag.String())
	}
}

type traceBatchData struct {
	startTime time.Time
	sql       map[string]int
}

func (tl *tracer) TraceBatchStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchStartData) context.Context {
	sql := make(map[string]int)
	for _, q := range data.Batch.QueuedQueries {
		s, _ := normalize(q.SQL)
		sql[s] += 1
	}

	return context.WithValue(ctx, traceBatchCtxKey, &traceBatchData{
		startTime: time.Now(),
		sql:       sql,
	})
}

func (tl *tracer) TraceBatchQuery(_ context.Context, _ *pgx.Conn, data pgx.TraceBatchQueryData) {
	if data.Err != nil {
		slog.Error("batch query failed", "sql", data.SQL, "err", data.Err)
	}
}

func (tl *tracer) TraceBatchEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchEndData) {
	batchData, ok := ctx.Value(traceBatchCtxKey).(*traceBatchData)
	if !ok {
		return
	}
	interval := time.Since(batchData.startTime)

	if data.Err != nil {
		slog.Error("batch failed", "err", data.Err, "time", interval)
		return
	}

	if interval > slowQueryThreshold {
		slog.Warn("slow batch", "sql", batchData.sql, "time", interval)
	}
}

type traceConnectData struct {
	startTime  time.Time
	connConfig *pgx.ConnConfig
}

func (tl *tracer) TraceConnectStart(ctx context.Context, data pgx.TraceConnectStartData) context.Context {
	return context.WithValue(ctx, traceConnectCtxKey, &traceConnectData{
		startTime:  time.Now(),
		connConfig: data.ConnConfig,
	})
}

func (tl *tracer) TraceConnectEnd(ctx context.Context, data pgx.TraceConnectEndData) {
	connectData, ok := ctx.Value(traceConnectCtxKey).(*traceConnectData)
	if !ok {
		return
	}

	if data.Err != nil {
		slog.Error("connect failed",
			"host", connectData.connConfig.Host,
			"port", connectData.connConfig.Port,
			"database", connectData.connConfig.Database,
			"err", data.Err,
			"time", time.Since(connectData.startTime))
	}
}
