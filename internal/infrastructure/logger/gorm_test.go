package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-9")

	t.Run("errors are logged with request id", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)

		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), errors.New("syntax"))
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "Query failed", entry.Message)
		assert.Equal(t, "req-9", entry.ContextMap()["request_id"])
		assert.Equal(t, "gorm", entry.LoggerName)
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)

		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("slow queries warn and SQL can be hidden", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond), WithSQL(false))

		gl.Trace(ctx, time.Now().Add(-time.Second), sqlFn("SELECT * FROM sales_transactions", 10), nil)
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
		assert.Equal(t, "Slow query", entry.Message)
		assert.NotContains(t, entry.ContextMap(), "sql")
	})

	t.Run("unit scope is attached", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info)
		unitCtx, _ := WithUnitID(ctx, zap.NewNop(), "BU7")

		gl.Trace(unitCtx, time.Now(), sqlFn("SELECT 1", 1), nil)
		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "BU7", fields["unit_id"])
		assert.Equal(t, "req-9", fields["request_id"])
	})

	t.Run("warn level skips fast queries", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(0))

		gl.Trace(ctx, time.Now().Add(-time.Hour), sqlFn("SELECT 1", 1), nil)
		assert.Zero(t, logs.Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info).LogMode(gormlogger.Silent)

		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), errors.New("x"))
		assert.Zero(t, logs.Len())
	})

	t.Run("info level logs queries at debug", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info)

		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "SELECT 1", logs.All()[0].ContextMap()["sql"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel(" INFO "))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
