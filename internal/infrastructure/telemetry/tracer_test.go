package telemetry_test

import (
	"context"
	"testing"

	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{ServiceName: "hp-ledger"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_InProcess(t *testing.T) {
	ctx := context.Background()
	original := otel.GetTracerProvider()
	defer otel.SetTracerProvider(original)

	sr := tracetest.NewSpanRecorder()
	cfg := telemetry.Config{Enabled: true, ServiceName: "hp-ledger", SamplingRatio: 1}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t), sdktrace.WithSpanProcessor(sr))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	_, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "record_payment")
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "payment_ledger.record_payment", spans[0].Name())

	var service string
	for _, kv := range spans[0].Resource().Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "hp-ledger", service)
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_NeverSample(t *testing.T) {
	ctx := context.Background()
	original := otel.GetTracerProvider()
	defer otel.SetTracerProvider(original)

	sr := tracetest.NewSpanRecorder()
	cfg := telemetry.Config{Enabled: true, ServiceName: "hp-ledger", SamplingRatio: 0}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t), sdktrace.WithSpanProcessor(sr))
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(ctx) }()

	_, span := tp.Tracer("test").Start(ctx, "dropped")
	span.End()

	assert.Empty(t, sr.Ended())
}

func TestNewMeterProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled uses the global meter", func(t *testing.T) {
		mp, err := telemetry.NewMeterProvider(ctx, telemetry.Config{}, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.NotNil(t, mp.Meter(telemetry.MeterName))
		assert.NoError(t, mp.Shutdown(ctx))
	})

	t.Run("enabled feeds extra readers", func(t *testing.T) {
		original := otel.GetMeterProvider()
		defer otel.SetMeterProvider(original)

		reader := sdkmetric.NewManualReader()
		cfg := telemetry.Config{Enabled: true, ServiceName: "hp-ledger"}
		mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t), sdkmetric.WithReader(reader))
		require.NoError(t, err)
		defer func() { _ = mp.Shutdown(ctx) }()

		lm, err := telemetry.NewLedgerMetrics(mp.Meter(telemetry.MeterName))
		require.NoError(t, err)
		lm.RecordDrift(ctx)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		// The provider is global, so instruments registered by other packages may share the reader.
		ledgerScope := scopeMetrics(rm, telemetry.MeterName)
		require.NotNil(t, ledgerScope)
		require.Len(t, ledgerScope.Metrics, 1)
		assert.Equal(t, "hpl_balance_drift_total", ledgerScope.Metrics[0].Name)
	})
}

func scopeMetrics(rm metricdata.ResourceMetrics, scope string) *metricdata.ScopeMetrics {
	for i := range rm.ScopeMetrics {
		if rm.ScopeMetrics[i].Scope.Name == scope {
			return &rm.ScopeMetrics[i]
		}
	}
	return nil
}
