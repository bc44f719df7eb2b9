package middleware

import (
	"net/http"

	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// spanParams maps blog path parameters to span attribute keys.
var spanParams = []struct {
	param string
	key   attribute.Key
}{
	{"username", "yatube.author"},
	{"post_id", "yatube.post_id"},
	{"slug", "yatube.group"},
}

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route once routing is done, and tagged with the author, post
// and group the page is about.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		carrier := propagation.HeaderCarrier(c.GetReqHeaders())
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()
		annotateRequestSpan(c, span, err)
		return err
	}
}

func annotateRequestSpan(c *fiber.Ctx, span trace.Span, err error) {
	route := c.Route().Path
	status := c.Response().StatusCode()
	span.SetName(c.Method() + " " + route)

	attrs := []attribute.KeyValue{
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	}
	for _, p := range spanParams {
		if v := c.Params(p.param); v != "" {
			attrs = append(attrs, p.key.String(v))
		}
	}
	if id, ok := c.Locals("userID").(uint); ok {
		attrs = append(attrs, attribute.Int64("yatube.viewer_id", int64(id)))
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		attrs = append(attrs, attribute.String("request.id", rid))
	}
	span.SetAttributes(attrs...)

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
