package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestInitWithoutExporter(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{SampleRatio: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	var sc oteltrace.SpanContext
	h := HTTPMiddleware("checkin-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc = oteltrace.SpanContextFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.True(t, sc.IsValid())
	assert.True(t, sc.IsSampled())
	assert.NotNil(t, otel.GetTracerProvider())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-1))
	assert.Equal(t, 0.25, clamp(0.25))
	assert.Equal(t, 1.0, clamp(3))
}
