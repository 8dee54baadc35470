package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type receiptRow struct {
	ID        uint   `gorm:"primaryKey"`
	ReceiptID string `gorm:"size:100"`
	CreatedAt time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&receiptRow{}))
	return db
}

func setupRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func hasAttr(span sdktrace.ReadOnlySpan, key string) bool {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return true
		}
	}
	return false
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestNewDBTracingPlugin(t *testing.T) {
	t.Run("keeps configured threshold", func(t *testing.T) {
		p := NewDBTracingPlugin(DBTracingConfig{SlowQueryThresh: time.Second, DBSystem: "sqlite"}, zap.NewNop())
		assert.Equal(t, time.Second, p.config.SlowQueryThresh)
		assert.Equal(t, "hpl:db_tracing", p.Name())
	})

	t.Run("zero threshold falls back to default", func(t *testing.T) {
		p := NewDBTracingPlugin(DBTracingConfig{DBSystem: "sqlite"}, zap.NewNop())
		assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	})
}

func TestDBTracingPlugin_Initialize(t *testing.T) {
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{DBSystem: "sqlite"}, zap.NewNop())

	require.NoError(t, db.Use(p))

	err := db.Use(p)
	assert.ErrorIs(t, err, gorm.ErrRegistered)
}

func TestDBTracingPlugin_EmitsStatementSpans(t *testing.T) {
	tp, sr := setupRecorder(t)
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(original)

	db := setupTestDB(t)
	require.NoError(t, db.Use(NewDBTracingPlugin(DBTracingConfig{DBSystem: "sqlite"}, zap.NewNop())))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "payment_ledger.record_payment")
	require.NoError(t, db.WithContext(ctx).Create(&receiptRow{ReceiptID: "R-1"}).Error)
	parent.End()

	spans := sr.Ended()
	require.GreaterOrEqual(t, len(spans), 2)

	var child sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			child = s
		}
	}
	require.NotNil(t, child, "statement span should be a child of the service span")
	assert.True(t, hasAttr(child, "db.rows_affected"))
}

func TestDBTracingPlugin_AfterQuery(t *testing.T) {
	db := setupTestDB(t)
	tp, sr := setupRecorder(t)
	p := NewDBTracingPlugin(DBTracingConfig{SlowQueryThresh: time.Millisecond, DBSystem: "sqlite"}, zap.NewNop())

	t.Run("marks slow statements", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "slow")
		tx := db.WithContext(context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second)))
		tx.Statement.Table = "payments"
		tx.Statement.RowsAffected = 3

		p.afterQuery(tx)
		span.End()

		got := sr.Ended()[len(sr.Ended())-1]
		assert.True(t, hasAttr(got, "db.slow_query"))
		assert.True(t, hasAttr(got, "db.sql.table"))
		require.Len(t, got.Events(), 1)
		assert.Equal(t, "slow_query_warning", got.Events()[0].Name)
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "lookup")
		tx := db.WithContext(ctx)
		tx.Error = gorm.ErrRecordNotFound

		p.afterQuery(tx)
		span.End()

		got := sr.Ended()[len(sr.Ended())-1]
		assert.NotEqual(t, codes.Error, got.Status().Code)
	})

	t.Run("other errors mark the span", func(t *testing.T) {
		ctx, span := tp.Tracer("test").Start(context.Background(), "failing")
		tx := db.WithContext(ctx)
		tx.Error = errors.New("deadlock detected")

		p.afterQuery(tx)
		span.End()

		got := sr.Ended()[len(sr.Ended())-1]
		assert.Equal(t, codes.Error, got.Status().Code)
	})

	t.Run("no recording span is a no-op", func(t *testing.T) {
		tx := db.WithContext(context.Background())
		tx.Error = errors.New("ignored")
		assert.NotPanics(t, func() { p.afterQuery(tx) })
	})
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := WithQueryStartTime(context.Background())

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), startTime, time.Second)
}
