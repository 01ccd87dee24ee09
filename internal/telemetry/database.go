package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	dbSystemKey    = "db.system"
	dbTableKey     = "db.table"
	dbOperationKey = "db.operation"
	dbStatementKey = "db.statement"

	spanKey  = "otel:span"
	startKey = "otel:startTime"

	maxStatementLen = 500
)

// GORMTracingPlugin returns a GORM plugin that opens a span around every
// query, create, update and delete. system is the db.system attribute,
// e.g. "postgresql" or "sqlite".
func GORMTracingPlugin(system string) gorm.Plugin {
	return &tracingPlugin{tracer: otel.Tracer("gorm"), system: system}
}

type tracingPlugin struct {
	tracer trace.Tracer
	system string
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	register := func(err error, name string) error {
		if err != nil {
			return fmt.Errorf("failed to register %s callback: %w", name, err)
		}
		return nil
	}

	if err := register(cb.Query().Before("gorm:query").Register("telemetry:before_query", p.before("SELECT")), "before_query"); err != nil {
		return err
	}
	if err := register(cb.Create().Before("gorm:create").Register("telemetry:before_create", p.before("INSERT")), "before_create"); err != nil {
		return err
	}
	if err := register(cb.Update().Before("gorm:update").Register("telemetry:before_update", p.before("UPDATE")), "before_update"); err != nil {
		return err
	}
	if err := register(cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.before("DELETE")), "before_delete"); err != nil {
		return err
	}

	if err := register(cb.Query().After("gorm:query").Register("telemetry:after_query", p.endSpan), "after_query"); err != nil {
		return err
	}
	if err := register(cb.Create().After("gorm:create").Register("telemetry:after_create", p.endSpan), "after_create"); err != nil {
		return err
	}
	if err := register(cb.Update().After("gorm:update").Register("telemetry:after_update", p.endSpan), "after_update"); err != nil {
		return err
	}
	return register(cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.endSpan), "after_delete")
}

func (p *tracingPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) { p.startSpan(db, operation) }
}

func (p *tracingPlugin) startSpan(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}

	_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(dbSystemKey, p.system),
			attribute.String(dbTableKey, table),
			attribute.String(dbOperationKey, operation),
		),
	)

	db.InstanceSet(spanKey, span)
	db.InstanceSet(startKey, time.Now())
}

func (p *tracingPlugin) endSpan(db *gorm.DB) {
	raw, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if raw, ok := db.InstanceGet(startKey); ok {
		if start, ok := raw.(time.Time); ok {
			span.SetAttributes(attribute.Int64("db.duration_ms", time.Since(start).Milliseconds()))
		}
	}

	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatementLen {
			sql = sql[:maxStatementLen] + "... (truncated)"
		}
		span.SetAttributes(attribute.String(dbStatementKey, sql))
	}
	if db.RowsAffected > 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}

	// Not-found lookups are answered as 404s, not failures.
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}
