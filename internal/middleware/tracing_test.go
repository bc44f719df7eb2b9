package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingMiddleware_TagsBlogRoute(t *testing.T) {
	recorder := recordSpans(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(5))
		return c.Next()
	})
	app.Get("/:username/:post_id", func(c *fiber.Ctx) error {
		return c.SendString("post")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/leo/7", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /:username/:post_id", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "leo", attrs["yatube.author"].AsString())
	assert.Equal(t, "7", attrs["yatube.post_id"].AsString())
	assert.Equal(t, int64(5), attrs["yatube.viewer_id"].AsInt64())
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"].AsInt64())
	_, hasGroup := attrs["yatube.group"]
	assert.False(t, hasGroup)
}

func TestTracingMiddleware_MarksServerErrors(t *testing.T) {
	recorder := recordSpans(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/group/:slug", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusInternalServerError)
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/group/cats", nil))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cats", spanAttrs(spans[0])["yatube.group"].AsString())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
