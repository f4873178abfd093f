package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "corefib", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, RouteKey("10.0.0.0/24"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("RouteKey", func(t *testing.T) {
		attr := RouteKey("192.168.1.0/24(proto=3,pref=20)")
		assert.Equal(t, AttrRouteKey, string(attr.Key))
		assert.Equal(t, "192.168.1.0/24(proto=3,pref=20)", attr.Value.AsString())
	})

	t.Run("RouteActive", func(t *testing.T) {
		attr := RouteActive(true)
		assert.Equal(t, AttrRouteActive, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("ResolutionRoot", func(t *testing.T) {
		attr := ResolutionRoot("Handle(EcmpGroup#3@gen1)")
		assert.Equal(t, AttrResolutionRoot, string(attr.Key))
		assert.Equal(t, "Handle(EcmpGroup#3@gen1)", attr.Value.AsString())
	})

	t.Run("WalkDepth", func(t *testing.T) {
		attr := WalkDepth(4)
		assert.Equal(t, AttrWalkDepth, string(attr.Key))
		assert.Equal(t, int64(4), attr.Value.AsInt64())
	})

	t.Run("WalkStrategy", func(t *testing.T) {
		attr := WalkStrategy("HardwareOnly")
		assert.Equal(t, AttrWalkStrategy, string(attr.Key))
		assert.Equal(t, "HardwareOnly", attr.Value.AsString())
	})

	t.Run("WalkVisited", func(t *testing.T) {
		attr := WalkVisited(17)
		assert.Equal(t, AttrWalkVisited, string(attr.Key))
		assert.Equal(t, int64(17), attr.Value.AsInt64())
	})

	t.Run("HalOp", func(t *testing.T) {
		attr := HalOp("program_fec_simple")
		assert.Equal(t, AttrHalOp, string(attr.Key))
		assert.Equal(t, "program_fec_simple", attr.Value.AsString())
	})

	t.Run("Fec", func(t *testing.T) {
		attr := Fec(42)
		assert.Equal(t, AttrHalFec, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("Eedb", func(t *testing.T) {
		attr := Eedb(7)
		assert.Equal(t, AttrHalEedb, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})

	t.Run("Ecmp", func(t *testing.T) {
		attr := Ecmp(3)
		assert.Equal(t, AttrHalEcmp, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("EcmpMemberPos", func(t *testing.T) {
		attr := EcmpMemberPos(2)
		assert.Equal(t, AttrEcmpMemberPos, string(attr.Key))
		assert.Equal(t, int64(2), attr.Value.AsInt64())
	})

	t.Run("FrrState", func(t *testing.T) {
		attr := FrrState("UsingBackup")
		assert.Equal(t, AttrFrrState, string(attr.Key))
		assert.Equal(t, "UsingBackup", attr.Value.AsString())
	})

	t.Run("LpmRouteID", func(t *testing.T) {
		attr := LpmRouteID(99)
		assert.Equal(t, AttrLpmRouteID, string(attr.Key))
		assert.Equal(t, int64(99), attr.Value.AsInt64())
	})

	t.Run("LinkID", func(t *testing.T) {
		attr := LinkID("igp-link-0")
		assert.Equal(t, AttrLinkID, string(attr.Key))
		assert.Equal(t, "igp-link-0", attr.Value.AsString())
	})

	t.Run("BfdSession", func(t *testing.T) {
		attr := BfdSession("bfd-7")
		assert.Equal(t, AttrBfdSession, string(attr.Key))
		assert.Equal(t, "bfd-7", attr.Value.AsString())
	})

	t.Run("Port", func(t *testing.T) {
		attr := Port(10)
		assert.Equal(t, AttrPort, string(attr.Key))
		assert.Equal(t, int64(10), attr.Value.AsInt64())
	})
}

func TestStartRouteSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartRouteSpan(ctx, SpanInstallRoute, "10.0.0.0/24")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartRouteSpan(ctx, SpanUpdateRoute, "10.0.0.0/24", ResolutionRoot("Handle(LabelOperation#2@gen1)"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartWalkSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartWalkSpan(ctx, SpanForwardWalk, "Handle(DirectNextHop#1@gen1)")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartWalkSpan(ctx, SpanDependentWalk, "Handle(EcmpGroup#3@gen1)", WalkStrategy("Full"), WalkVisited(12))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartHalSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartHalSpan(ctx, SpanHalProgram, "program_fec_simple")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartHalSpan(ctx, SpanHalFree, "free_eedb", Eedb(7))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
