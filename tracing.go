package rollgate

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's spans in any OTel backend the
// host application has configured. The SDK never installs its own
// TracerProvider — it only calls otel.Tracer, so spans go wherever the
// embedding application already sends its own traces.
const tracerName = "github.com/rollgate/sdk-go"

var tracer = otel.Tracer(tracerName)

// startRequestSpan opens a span for an outbound HTTP call made by one
// of the background workers and injects the current trace context into
// req's headers via the globally configured propagator, so a host
// application's own spans stitch together with server-side traces.
func startRequestSpan(ctx context.Context, worker string, req *http.Request) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "rollgate."+worker,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rollgate.worker", worker),
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
		),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return ctx, span
}

// endRequestSpan records the outcome of the request the span covers
// and closes it.
func endRequestSpan(span trace.Span, statusCode int, err error) {
	if statusCode > 0 {
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
