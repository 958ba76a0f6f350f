package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans points Tracer at an in-memory recorder for one test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("scribe-test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewSpan_RecordsAttributesEventsAndErrors(t *testing.T) {
	rec := recordSpans(t)

	span, ctx := NewSpan(context.Background(), "cascade.delete_post", attribute.Int64("post_id", 7))
	span.AddAttributes(attribute.Int64("comments_removed", 3))
	AddEvent(ctx, "cascade.step_failed", attribute.String("step", "likes"))
	span.SetError(nil)
	span.SetError(errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "cascade.delete_post", got.Name())
	assert.Contains(t, got.Attributes(), attribute.Int64("post_id", 7))
	assert.Contains(t, got.Attributes(), attribute.Int64("comments_removed", 3))
	assert.Equal(t, codes.Error, got.Status().Code)

	var names []string
	for _, ev := range got.Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "cascade.step_failed")
}

func TestAddEvent_WithoutSpanIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		AddEvent(context.Background(), "orphan")
	})
}
