package observe

import (
	"context"
	"fmt"
	"time"

	gocb "github.com/couchbase/gocb/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelRequestTracer adapts an OpenTelemetry tracer to the SDK's
// RequestTracer interface, so every SDK-internal request (dispatch, encoding,
// server round trip) shows up as a span. Install it via
// gocb.ClusterOptions.Tracer.
type OTelRequestTracer struct {
	tracer trace.Tracer
}

var _ gocb.RequestTracer = (*OTelRequestTracer)(nil)

// NewOTelRequestTracer wraps the given tracer.
func NewOTelRequestTracer(tracer trace.Tracer) *OTelRequestTracer {
	return &OTelRequestTracer{tracer: tracer}
}

// RequestSpan starts a span, continuing the parent span context when the SDK
// hands one back.
func (t *OTelRequestTracer) RequestSpan(parent gocb.RequestSpanContext, operationName string) gocb.RequestSpan {
	ctx := context.Background()
	if parentCtx, ok := parent.(context.Context); ok && parentCtx != nil {
		ctx = parentCtx
	}
	ctx, span := t.tracer.Start(ctx, operationName)
	return &otelRequestSpan{ctx: ctx, span: span}
}

type otelRequestSpan struct {
	ctx  context.Context
	span trace.Span
}

func (s *otelRequestSpan) End() {
	s.span.End()
}

func (s *otelRequestSpan) Context() gocb.RequestSpanContext {
	return s.ctx
}

func (s *otelRequestSpan) AddEvent(name string, timestamp time.Time) {
	s.span.AddEvent(name, trace.WithTimestamp(timestamp))
}

func (s *otelRequestSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(otelAttribute(key, value))
}

// RecordError marks the span as failed. Not part of the SDK interface, but
// handy for callers that hold the concrete span.
func (s *otelRequestSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func otelAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case uint32:
		return attribute.Int64(key, int64(v))
	case uint64:
		return attribute.String(key, fmt.Sprintf("%d", v))
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
