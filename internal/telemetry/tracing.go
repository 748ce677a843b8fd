package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/INemesisI/weave/internal/fabric"
)

// NewTracerProvider builds the process-wide TracerProvider, resourced
// with serviceName. Callers are responsible for registering exporters
// via sdktrace.WithBatcher/WithSyncer options on top of this — this
// constructor only fixes the resource and registers the result as the
// global provider, the way the teacher's otel wrapper did for its gRPC
// spans.
func NewTracerProvider(serviceName string, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(semconv.ServiceName(serviceName))
	tp := sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)...)
	otel.SetTracerProvider(tp)
	return tp
}

var tracer = otel.Tracer("github.com/INemesisI/weave/internal/fabric")

// TracedEmit wraps fabric.Emit in a span carrying the source name and
// the resulting delivered_count, generalizing the teacher's
// otel-instrumented gRPC interceptor chain (stream_auth.go) into the
// fabric's own hot path instead of a transport boundary.
func TracedEmit(ctx context.Context, src *fabric.Source, payload any, timeout time.Duration) (int, error) {
	_, span := tracer.Start(ctx, "fabric.Emit", trace.WithAttributes(
		attribute.String("fabric.source", src.Name()),
	))
	defer span.End()

	n, err := fabric.Emit(src, payload, timeout)
	span.SetAttributes(attribute.Int("fabric.delivered_count", n))
	if err != nil {
		span.RecordError(err)
	}
	return n, err
}

// TracedProcess wraps fabric.Process the same way, recording
// processed_count.
func TracedProcess(ctx context.Context, queue *fabric.Queue, timeout time.Duration) (int, error) {
	_, span := tracer.Start(ctx, "fabric.Process", trace.WithAttributes(
		attribute.String("fabric.queue", queue.Name()),
	))
	defer span.End()

	n, err := fabric.Process(queue, timeout)
	span.SetAttributes(attribute.Int("fabric.processed_count", n))
	if err != nil && err != fabric.ErrTimeout {
		span.RecordError(err)
	}
	return n, err
}

// TracedRunDrainLoop is fabric.RunDrainLoop's traced counterpart: it
// blocks, repeatedly calling TracedProcess on queue with blockTimeout
// until stop is closed, giving every Process call (one blocking pop
// plus whatever burst it drains) its own span instead of the bare,
// untraced loop.
func TracedRunDrainLoop(ctx context.Context, queue *fabric.Queue, blockTimeout time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if _, err := TracedProcess(ctx, queue, blockTimeout); err != nil && err != fabric.ErrTimeout {
			return
		}
	}
}
